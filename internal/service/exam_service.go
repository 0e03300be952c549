package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
)

// ErrExamNotFound indicates the requested exam does not exist.
var ErrExamNotFound = errors.New("exam not found")

// ExamService manages midterm and final exams and their timed attempts.
// Shapes mirror QuizService; exams hang off a subject rather than a session
// and carry an exam type used by the grade summary weighting.
type ExamService interface {
	Create(ctx context.Context, payload dto.ExamCreateRequest, actor Actor) (dto.ExamResponse, error)
	Get(ctx context.Context, id uint, withKeys bool) (dto.ExamResponse, error)
	ListBySubject(ctx context.Context, subjectID uint, withKeys bool) ([]dto.ExamResponse, error)
	ImportQuestions(ctx context.Context, examID uint, raw []byte, actor Actor) (dto.ExamResponse, error)
	StartAttempt(ctx context.Context, examID, studentID uint) (dto.AttemptResponse, error)
	SubmitAttempt(ctx context.Context, attemptID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error)
	SetAttemptVisibility(ctx context.Context, attemptID uint, visible bool, actor Actor) (dto.AttemptResponse, error)
}

type examService struct {
	exams     repository.ExamRepository
	validator *validator.Validate
	audit     AuditRecorder
	cache     GradeCacheInvalidator
	logger    zerolog.Logger
	grace     time.Duration
	now       func() time.Time
}

// NewExamService constructs an ExamService.
func NewExamService(examRepo repository.ExamRepository, validate *validator.Validate, audit AuditRecorder, cache GradeCacheInvalidator, logger zerolog.Logger, grace time.Duration) ExamService {
	return &examService{
		exams:     examRepo,
		validator: validate,
		audit:     audit,
		cache:     cache,
		logger:    logger.With().Str("component", "exam_service").Logger(),
		grace:     grace,
		now:       time.Now,
	}
}

func (s *examService) Create(ctx context.Context, payload dto.ExamCreateRequest, actor Actor) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam := models.Exam{
		SubjectID:   payload.SubjectID,
		ExamType:    payload.ExamType,
		Title:       payload.Title,
		TimeLimit:   payload.TimeLimit,
		TotalPoints: payload.TotalPoints,
	}
	if exam.TotalPoints <= 0 {
		exam.TotalPoints = 100
	}
	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "exam.created", "exam", exam.ID, map[string]interface{}{
		"title":     exam.Title,
		"exam_type": exam.ExamType,
	})

	return dto.NewExamResponse(exam, true), nil
}

func (s *examService) Get(ctx context.Context, id uint, withKeys bool) (dto.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam, withKeys), nil
}

func (s *examService) ListBySubject(ctx context.Context, subjectID uint, withKeys bool) ([]dto.ExamResponse, error) {
	exams, err := s.exams.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, dto.NewExamResponse(exam, withKeys))
	}

	return responses, nil
}

func (s *examService) ImportQuestions(ctx context.Context, examID uint, raw []byte, actor Actor) (dto.ExamResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	payloads, err := parseQuestionBank(raw)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	questions := make([]models.ExamQuestion, 0, len(payloads))
	for _, item := range payloads {
		question := models.ExamQuestion{
			QuestionText:  item.QuestionText,
			QuestionType:  item.QuestionType,
			CorrectAnswer: item.CorrectAnswer,
			Points:        item.Points,
		}
		if len(item.Options) > 0 {
			encoded, err := json.Marshal(item.Options)
			if err != nil {
				return dto.ExamResponse{}, err
			}
			question.Options = datatypes.JSON(encoded)
		}
		questions = append(questions, question)
	}

	if err := s.exams.AddQuestions(ctx, examID, questions); err != nil {
		return dto.ExamResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "exam.questions_imported", "exam", examID, map[string]interface{}{
		"count": len(questions),
	})

	return s.Get(ctx, examID, true)
}

func (s *examService) StartAttempt(ctx context.Context, examID, studentID uint) (dto.AttemptResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrExamNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if open, err := s.exams.FindOpenAttempt(ctx, examID, studentID); err == nil {
		return dto.NewExamAttemptResponse(open), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AttemptResponse{}, err
	}

	attempt := models.ExamAttempt{
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: s.now(),
	}
	if err := s.exams.CreateAttempt(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	return dto.NewExamAttemptResponse(attempt), nil
}

func (s *examService) SubmitAttempt(ctx context.Context, attemptID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	attempt, err := s.exams.GetAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAttemptNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if attempt.IsSubmitted() {
		return dto.AttemptResponse{}, ErrAttemptAlreadySubmitted
	}

	submittedAt := s.now()
	if attempt.Exam.TimeLimit > 0 {
		deadline := attempt.StartedAt.
			Add(time.Duration(attempt.Exam.TimeLimit) * time.Minute).
			Add(s.grace)
		if submittedAt.After(deadline) {
			return dto.AttemptResponse{}, ErrTimeLimitExceeded
		}
	}

	if len(attempt.Exam.Questions) == 0 {
		return dto.AttemptResponse{}, ErrNoQuestions
	}

	questions := make([]scoring.Question, 0, len(attempt.Exam.Questions))
	for _, q := range attempt.Exam.Questions {
		questions = append(questions, scoring.Question{
			ID:            q.ID,
			Type:          q.QuestionType,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
	}

	result, err := scoring.GradeAttempt(questions, payload.Answers)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	attempt.SubmittedAt = &submittedAt
	attempt.Score = &result.Percentage
	attempt.Answers = answersToJSONMap(payload.Answers)
	if err := s.exams.UpdateAttempt(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Float64("percentage", result.Percentage).
		Int("manual_review", len(result.ManualReviewIDs)).
		Msg("attempt graded")

	response := dto.NewExamAttemptResponse(attempt)
	response.TotalPossible = result.TotalPossible
	response.MissedQuestionIDs = result.MissedQuestionIDs
	response.ManualReviewIDs = result.ManualReviewIDs

	return response, nil
}

func (s *examService) SetAttemptVisibility(ctx context.Context, attemptID uint, visible bool, actor Actor) (dto.AttemptResponse, error) {
	attempt, err := s.exams.GetAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAttemptNotFound
		}
		return dto.AttemptResponse{}, err
	}

	attempt.ScoreVisible = visible
	if err := s.exams.UpdateAttempt(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "exam.visibility_changed", "exam_attempt", attempt.ID, map[string]interface{}{
		"visible": visible,
	})
	if s.cache != nil {
		s.cache.Invalidate(ctx, attempt.StudentID)
	}

	return dto.NewExamAttemptResponse(attempt), nil
}
