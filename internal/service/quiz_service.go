package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
)

// ErrQuizNotFound indicates the requested quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrAttemptNotFound indicates the requested attempt does not exist.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrAttemptAlreadySubmitted indicates the attempt was turned in before.
var ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")

// ErrTimeLimitExceeded indicates the attempt arrived past the time limit.
var ErrTimeLimitExceeded = errors.New("time limit exceeded")

// ErrNoQuestions indicates an attempt was made against an empty assessment.
var ErrNoQuestions = errors.New("assessment has no questions")

// ErrInvalidQuestionBank indicates an import payload failed schema checks.
var ErrInvalidQuestionBank = errors.New("invalid question bank payload")

// questionBankSchema constrains imported question banks before any row is
// created, so a bad file never half-imports.
const questionBankSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["question_text", "question_type", "correct_answer", "points"],
    "properties": {
      "question_text": {"type": "string", "minLength": 3},
      "question_type": {"enum": ["multiple_choice", "true_false", "fill_blank", "short_answer"]},
      "options": {"type": "array", "items": {"type": "string"}},
      "correct_answer": {"type": "string", "minLength": 1},
      "points": {"type": "number", "exclusiveMinimum": 0}
    }
  }
}`

var compiledQuestionBankSchema = jsonschema.MustCompileString("question_bank.json", questionBankSchema)

// QuizService manages quizzes, question imports and timed attempts.
type QuizService interface {
	Create(ctx context.Context, payload dto.QuizCreateRequest, actor Actor) (dto.QuizResponse, error)
	Get(ctx context.Context, id uint, withKeys bool) (dto.QuizResponse, error)
	ListBySession(ctx context.Context, sessionID uint, withKeys bool) ([]dto.QuizResponse, error)
	ImportQuestions(ctx context.Context, quizID uint, raw []byte, actor Actor) (dto.QuizResponse, error)
	StartAttempt(ctx context.Context, quizID, studentID uint) (dto.AttemptResponse, error)
	SubmitAttempt(ctx context.Context, attemptID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error)
	SetAttemptVisibility(ctx context.Context, attemptID uint, visible bool, actor Actor) (dto.AttemptResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	validator *validator.Validate
	audit     AuditRecorder
	cache     GradeCacheInvalidator
	logger    zerolog.Logger
	grace     time.Duration
	now       func() time.Time
}

// NewQuizService constructs a QuizService. The grace duration is added on
// top of a quiz's time limit before a submission is rejected as late.
func NewQuizService(quizRepo repository.QuizRepository, validate *validator.Validate, audit AuditRecorder, cache GradeCacheInvalidator, logger zerolog.Logger, grace time.Duration) QuizService {
	return &quizService{
		quizzes:   quizRepo,
		validator: validate,
		audit:     audit,
		cache:     cache,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		grace:     grace,
		now:       time.Now,
	}
}

func (s *quizService) Create(ctx context.Context, payload dto.QuizCreateRequest, actor Actor) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	quiz := models.Quiz{
		SessionID: payload.SessionID,
		Title:     payload.Title,
		TimeLimit: payload.TimeLimit,
	}
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "quiz.created", "quiz", quiz.ID, map[string]interface{}{
		"title": quiz.Title,
	})

	return dto.NewQuizResponse(quiz, true), nil
}

func (s *quizService) Get(ctx context.Context, id uint, withKeys bool) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz, withKeys), nil
}

func (s *quizService) ListBySession(ctx context.Context, sessionID uint, withKeys bool) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizzes.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, dto.NewQuizResponse(quiz, withKeys))
	}

	return responses, nil
}

// ImportQuestions validates a question bank document against the import
// schema and appends its questions to the quiz.
func (s *quizService) ImportQuestions(ctx context.Context, quizID uint, raw []byte, actor Actor) (dto.QuizResponse, error) {
	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	payloads, err := parseQuestionBank(raw)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	questions := make([]models.QuizQuestion, 0, len(payloads))
	for _, item := range payloads {
		question := models.QuizQuestion{
			QuestionText:  item.QuestionText,
			QuestionType:  item.QuestionType,
			CorrectAnswer: item.CorrectAnswer,
			Points:        item.Points,
		}
		if len(item.Options) > 0 {
			encoded, err := json.Marshal(item.Options)
			if err != nil {
				return dto.QuizResponse{}, err
			}
			question.Options = datatypes.JSON(encoded)
		}
		questions = append(questions, question)
	}

	if err := s.quizzes.AddQuestions(ctx, quizID, questions); err != nil {
		return dto.QuizResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "quiz.questions_imported", "quiz", quizID, map[string]interface{}{
		"count": len(questions),
	})

	return s.Get(ctx, quizID, true)
}

// StartAttempt opens an attempt for the student, or returns the one already
// in progress so a refresh never restarts the clock.
func (s *quizService) StartAttempt(ctx context.Context, quizID, studentID uint) (dto.AttemptResponse, error) {
	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrQuizNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if open, err := s.quizzes.FindOpenAttempt(ctx, quizID, studentID); err == nil {
		return dto.NewQuizAttemptResponse(open), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AttemptResponse{}, err
	}

	attempt := models.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt: s.now(),
	}
	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	return dto.NewQuizAttemptResponse(attempt), nil
}

// SubmitAttempt grades the attempt against the quiz's answer keys. Scores
// are stored as a percentage of the points possible. A submission arriving
// after the time limit plus grace is rejected without grading.
func (s *quizService) SubmitAttempt(ctx context.Context, attemptID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	attempt, err := s.quizzes.GetAttempt(ctx, attemptID)
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
	if attempt.Quiz.TimeLimit > 0 {
		deadline := attempt.StartedAt.
			Add(time.Duration(attempt.Quiz.TimeLimit) * time.Minute).
			Add(s.grace)
		if submittedAt.After(deadline) {
			return dto.AttemptResponse{}, ErrTimeLimitExceeded
		}
	}

	if len(attempt.Quiz.Questions) == 0 {
		return dto.AttemptResponse{}, ErrNoQuestions
	}

	questions := make([]scoring.Question, 0, len(attempt.Quiz.Questions))
	for _, q := range attempt.Quiz.Questions {
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
	if err := s.quizzes.UpdateAttempt(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Float64("percentage", result.Percentage).
		Int("manual_review", len(result.ManualReviewIDs)).
		Msg("attempt graded")

	response := dto.NewQuizAttemptResponse(attempt)
	response.TotalPossible = result.TotalPossible
	response.MissedQuestionIDs = result.MissedQuestionIDs
	response.ManualReviewIDs = result.ManualReviewIDs

	return response, nil
}

func (s *quizService) SetAttemptVisibility(ctx context.Context, attemptID uint, visible bool, actor Actor) (dto.AttemptResponse, error) {
	attempt, err := s.quizzes.GetAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAttemptNotFound
		}
		return dto.AttemptResponse{}, err
	}

	attempt.ScoreVisible = visible
	if err := s.quizzes.UpdateAttempt(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "quiz.visibility_changed", "quiz_attempt", attempt.ID, map[string]interface{}{
		"visible": visible,
	})
	if s.cache != nil {
		s.cache.Invalidate(ctx, attempt.StudentID)
	}

	return dto.NewQuizAttemptResponse(attempt), nil
}

// parseQuestionBank validates and decodes a question bank document.
func parseQuestionBank(raw []byte) ([]dto.QuestionPayload, error) {
	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return nil, ErrInvalidQuestionBank
	}

	if err := compiledQuestionBankSchema.Validate(document); err != nil {
		return nil, ErrInvalidQuestionBank
	}

	var payloads []dto.QuestionPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, ErrInvalidQuestionBank
	}

	return payloads, nil
}

func answersToJSONMap(answers map[uint]string) datatypes.JSONMap {
	stored := make(datatypes.JSONMap, len(answers))
	for questionID, answer := range answers {
		stored[strconv.FormatUint(uint64(questionID), 10)] = answer
	}

	return stored
}
