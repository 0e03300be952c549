package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
)

// ErrActivityNotFound indicates an activity could not be found.
var ErrActivityNotFound = errors.New("activity not found")

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrActivityClosed indicates the activity no longer accepts submissions.
var ErrActivityClosed = errors.New("activity is not accepting submissions")

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	StudentView(ctx context.Context, activityID, studentID uint) (dto.StudentSubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	activities  repository.ActivityRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, activityRepo repository.ActivityRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		activities:  activityRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit records new work or replaces an earlier submission for the same
// (activity, student) pair. Late fields are recomputed on every submit so the
// penalty always reflects the latest submission time.
func (s *submissionService) Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, payload.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrActivityNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !activity.AcceptsSubmissions() {
		return dto.SubmissionResponse{}, ErrActivityClosed
	}

	submittedAt := s.now()
	late, err := s.lateness(activity, submittedAt)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	content := s.sanitizer.Sanitize(payload.Content)

	submission, err := s.submissions.GetByActivityAndStudent(ctx, payload.ActivityID, payload.StudentID)
	switch {
	case err == nil:
		submission.Content = content
		submission.SubmittedAt = submittedAt
		submission.IsLate = late.IsLate
		submission.LateDays = late.LateDays
		submission.LatePenalty = late.Penalty

		// New inputs invalidate a previously finalized score.
		submission.FinalScore = nil
		if submission.Status == models.SubmissionStatusFinalized {
			submission.Status = models.SubmissionStatusGraded
		}

		if err := s.submissions.Update(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
		s.logger.Info().Uint("submission_id", submission.ID).Bool("is_late", late.IsLate).Msg("submission replaced")
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			ActivityID:  payload.ActivityID,
			StudentID:   payload.StudentID,
			Content:     content,
			SubmittedAt: submittedAt,
			IsLate:      late.IsLate,
			LateDays:    late.LateDays,
			LatePenalty: late.Penalty,
			Status:      models.SubmissionStatusSubmitted,
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
		s.logger.Info().Uint("submission_id", submission.ID).Bool("is_late", late.IsLate).Msg("submission created")
	default:
		return dto.SubmissionResponse{}, err
	}

	if len(payload.Files) > 0 {
		files := make([]models.SubmissionFile, 0, len(payload.Files))
		for _, ref := range payload.Files {
			files = append(files, models.SubmissionFile{
				FileName: ref.FileName,
				FileURL:  ref.FileURL,
			})
		}
		if err := s.submissions.ReplaceFiles(ctx, submission.ID, files); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		ActivityID: filter.ActivityID,
		StudentID:  filter.StudentID,
		Status:     filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// StudentView returns the score-gated view of a student's own submission.
func (s *submissionService) StudentView(ctx context.Context, activityID, studentID uint) (dto.StudentSubmissionResponse, error) {
	submission, err := s.submissions.GetByActivityAndStudent(ctx, activityID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.StudentSubmissionResponse{}, err
	}

	return dto.NewStudentSubmissionResponse(submission), nil
}

func (s *submissionService) lateness(activity models.Activity, submittedAt time.Time) (scoring.LateResult, error) {
	dueDate := ""
	if activity.DueDate != nil {
		dueDate = *activity.DueDate
	}

	return scoring.LatePenalty(dueDate, activity.DueTime, submittedAt, activity.PenaltyPerDay, activity.Points)
}
