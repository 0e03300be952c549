package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
)

// ErrStudentNotFound indicates the requested student does not exist.
var ErrStudentNotFound = errors.New("student not found")

const gradeSummaryKeyFormat = "grades:student:%d"

// GradeSummaryService builds per-student grade reports across enrolled
// subjects. Reports are cached in redis and invalidated whenever a score or
// its visibility changes.
type GradeSummaryService interface {
	Summary(ctx context.Context, studentID uint) (dto.GradeSummaryResponse, error)
	Invalidate(ctx context.Context, studentID uint)
}

type gradeSummaryService struct {
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	quizzes     repository.QuizRepository
	exams       repository.ExamRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewGradeSummaryService constructs a GradeSummaryService. The cache client
// may be nil, in which case every call recomputes the report.
func NewGradeSummaryService(studentRepo repository.StudentRepository, subRepo repository.SubmissionRepository, quizRepo repository.QuizRepository, examRepo repository.ExamRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) GradeSummaryService {
	return &gradeSummaryService{
		students:    studentRepo,
		submissions: subRepo,
		quizzes:     quizRepo,
		exams:       examRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "grade_summary_service").Logger(),
	}
}

func (s *gradeSummaryService) Summary(ctx context.Context, studentID uint) (dto.GradeSummaryResponse, error) {
	key := fmt.Sprintf(gradeSummaryKeyFormat, studentID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var response dto.GradeSummaryResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return response, nil
			}
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeSummaryResponse{}, ErrStudentNotFound
		}
		return dto.GradeSummaryResponse{}, err
	}

	subjects, err := s.students.EnrolledSubjects(ctx, studentID)
	if err != nil {
		return dto.GradeSummaryResponse{}, err
	}

	response := dto.GradeSummaryResponse{StudentID: student.ID}
	for _, subject := range subjects {
		summary, err := s.subjectSummary(ctx, subject, studentID)
		if err != nil {
			return dto.GradeSummaryResponse{}, err
		}
		response.Subjects = append(response.Subjects, summary)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to cache grade summary")
			}
		}
	}

	return response, nil
}

func (s *gradeSummaryService) subjectSummary(ctx context.Context, subject models.Subject, studentID uint) (dto.SubjectGradeSummary, error) {
	weights := scoring.ComponentWeights(subject.Code)
	summary := dto.SubjectGradeSummary{
		SubjectID:   subject.ID,
		SubjectCode: subject.Code,
		SubjectName: subject.Name,
		Section:     subject.Section,
		Weights: map[string]float64{
			"quizzes":       weights.Quizzes,
			"activities":    weights.Activities,
			"midterm":       weights.Midterm,
			"final":         weights.Final,
			"final_project": weights.FinalProject,
		},
	}

	quizAttempts, err := s.quizzes.AttemptsForSubject(ctx, subject.ID, studentID)
	if err != nil {
		return summary, err
	}
	for _, attempt := range quizAttempts {
		summary.QuizScores = append(summary.QuizScores, attemptComponent(
			attempt.Quiz.Session.SessionNumber, attempt.Quiz.Title, attempt.Score, attempt.ScoreVisible,
		))
	}
	summary.QuizAverage = componentAverage(summary.QuizScores)

	submissions, err := s.submissions.ListForStudentBySubject(ctx, subject.ID, studentID)
	if err != nil {
		return summary, err
	}
	for _, submission := range submissions {
		summary.ActivityScores = append(summary.ActivityScores, activityComponent(submission))
	}
	summary.ActivityAverage = componentAverage(summary.ActivityScores)

	examAttempts, err := s.exams.AttemptsForSubject(ctx, subject.ID, studentID)
	if err != nil {
		return summary, err
	}
	for _, attempt := range examAttempts {
		if !attempt.IsSubmitted() || attempt.Score == nil {
			continue
		}
		switch attempt.Exam.ExamType {
		case models.ExamTypeMidterm:
			if attempt.ScoreVisible {
				summary.Midterm = attempt.Score
			} else {
				summary.MidtermPending = true
			}
		case models.ExamTypeFinal:
			if attempt.ScoreVisible {
				summary.Final = attempt.Score
			} else {
				summary.FinalPending = true
			}
		}
	}

	midterm := valueOrZero(summary.Midterm)
	final := valueOrZero(summary.Final)
	// The final exam doubles as the final project deliverable, so its score
	// carries both weights for subjects that have one.
	summary.WeightedTotal = weights.WeightedTotal(summary.QuizAverage, summary.ActivityAverage, midterm, final, final)
	summary.PUPGrade = scoring.PUPGrade(summary.WeightedTotal)

	return summary, nil
}

// Invalidate drops the cached report for a student. Safe to call with no
// cache configured.
func (s *gradeSummaryService) Invalidate(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}

	key := fmt.Sprintf(gradeSummaryKeyFormat, studentID)
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate grade summary cache")
	}
}

// attemptComponent gates a percentage score behind its visibility flag.
func attemptComponent(session int, label string, score *float64, visible bool) dto.ComponentScore {
	component := dto.ComponentScore{Session: session, Label: label}
	if score == nil {
		return component
	}
	if visible {
		component.Score = score
	} else {
		component.Pending = true
	}

	return component
}

// activityComponent converts a submission into a percentage cell, preferring
// the finalized score over the raw instructor score.
func activityComponent(submission models.Submission) dto.ComponentScore {
	component := dto.ComponentScore{
		Session: submission.Activity.Session.SessionNumber,
		Label:   submission.Activity.Title,
	}

	raw := submission.FinalScore
	if raw == nil {
		raw = submission.Score
	}
	if raw == nil {
		return component
	}
	if !submission.ScoreVisible {
		component.Pending = true
		return component
	}

	percentage := 0.0
	if submission.Activity.Points > 0 {
		percentage = *raw / submission.Activity.Points * 100
	}
	component.Score = &percentage

	return component
}

// componentAverage averages the released scores; pending and missing cells
// do not drag the average down.
func componentAverage(components []dto.ComponentScore) float64 {
	var sum float64
	var count int
	for _, component := range components {
		if component.Score == nil {
			continue
		}
		sum += *component.Score
		count++
	}
	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

func valueOrZero(value *float64) float64 {
	if value == nil {
		return 0
	}

	return *value
}
