package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/observability"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
)

// ErrScoreExceedsMax indicates a grading score surpasses the activity's points.
var ErrScoreExceedsMax = errors.New("score exceeds activity points")

// ErrNotGraded indicates finalization was requested before an instructor score exists.
var ErrNotGraded = errors.New("submission has no instructor score")

// ErrPeerReviewPending indicates finalization was requested while peer reviews are outstanding.
var ErrPeerReviewPending = errors.New("peer review is still pending")

// GradingService encapsulates instructor grading, finalization and score
// visibility workflows.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor Actor) (dto.SubmissionResponse, error)
	SetParticipation(ctx context.Context, submissionID uint, payload dto.ParticipationRequest, actor Actor) (dto.SubmissionResponse, error)
	Finalize(ctx context.Context, submissionID uint, actor Actor) (dto.SubmissionResponse, error)
	SetVisibility(ctx context.Context, submissionID uint, visible bool, actor Actor) (dto.SubmissionResponse, error)
	BulkVisibility(ctx context.Context, payload dto.BulkVisibilityRequest, actor Actor) (int, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	peerReviews PeerScoreProvider
	validator   *validator.Validate
	audit       AuditRecorder
	cache       GradeCacheInvalidator
	logger      zerolog.Logger
	now         func() time.Time
}

// PeerScoreProvider exposes the peer aggregation needed at finalization time.
type PeerScoreProvider interface {
	AggregatePeerScore(ctx context.Context, submissionID uint) (dto.PeerScoreResponse, error)
}

// GradeCacheInvalidator drops a student's cached grade report after a score
// or visibility change.
type GradeCacheInvalidator interface {
	Invalidate(ctx context.Context, studentID uint)
}

// NewGradingService constructs the grading service.
func NewGradingService(subRepo repository.SubmissionRepository, peerReviews PeerScoreProvider, validate *validator.Validate, audit AuditRecorder, cache GradeCacheInvalidator, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: subRepo,
		peerReviews: peerReviews,
		validator:   validate,
		audit:       audit,
		cache:       cache,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) invalidate(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, studentID)
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor Actor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/aralhq/aral-go-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.grade")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	maxPoints := submission.Activity.Points
	if maxPoints <= 0 {
		maxPoints = 100
	}

	if payload.Score > maxPoints+1e-9 {
		span.RecordError(ErrScoreExceedsMax)
		span.SetStatus(codes.Error, "score_exceeds_max")
		return dto.SubmissionResponse{}, ErrScoreExceedsMax
	}

	feedback := strings.TrimSpace(payload.Feedback)
	isIdempotent := submission.Score != nil &&
		math.Abs(*submission.Score-payload.Score) < 1e-6 &&
		strings.TrimSpace(submission.Feedback) == feedback
	if isIdempotent && submission.GradedBy != nil && *submission.GradedBy == actor.ID {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewSubmissionResponse(submission), nil
	}

	score := payload.Score
	submission.Score = &score
	submission.Feedback = feedback
	if submission.Status == models.SubmissionStatusSubmitted {
		submission.Status = models.SubmissionStatusGraded
	}
	gradedAt := s.now()
	submission.GradedAt = &gradedAt
	gradedBy := actor.ID
	submission.GradedBy = &gradedBy

	// A regrade invalidates any previously finalized score.
	submission.FinalScore = nil
	if submission.Status == models.SubmissionStatusFinalized {
		submission.Status = models.SubmissionStatusGraded
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	s.record(ctx, actor, "submission.graded", submission.ID, map[string]interface{}{
		"student_id":  submission.StudentID,
		"activity_id": submission.ActivityID,
		"score":       payload.Score,
	})

	span.SetAttributes(attribute.Float64("grading.score", payload.Score))
	s.invalidate(ctx, submission.StudentID)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) SetParticipation(ctx context.Context, submissionID uint, payload dto.ParticipationRequest, actor Actor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	score := payload.Score
	submission.ParticipationScore = &score
	submission.FinalScore = nil

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.record(ctx, actor, "submission.participation_scored", submission.ID, map[string]interface{}{
		"score": payload.Score,
	})
	s.invalidate(ctx, submission.StudentID)

	return dto.NewSubmissionResponse(submission), nil
}

// Finalize computes and persists the final score once all required inputs are
// available. The final score stays recomputable: regrading or participation
// changes clear it until Finalize runs again.
func (s *gradingService) Finalize(ctx context.Context, submissionID uint, actor Actor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/aralhq/aral-go-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.finalize")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if submission.Score == nil {
		span.SetStatus(codes.Error, "not_graded")
		return dto.SubmissionResponse{}, ErrNotGraded
	}

	activity := submission.Activity

	if activity.PeerReviewEnabled {
		peer, err := s.peerReviews.AggregatePeerScore(ctx, submission.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "peer_aggregation_failed")
			return dto.SubmissionResponse{}, err
		}
		if peer.Score == nil {
			span.SetAttributes(
				attribute.Int("grading.peer_completed", peer.CompletedCount),
				attribute.Int("grading.peer_expected", peer.ExpectedCount),
			)
			span.SetStatus(codes.Error, "peer_review_pending")
			return dto.SubmissionResponse{}, ErrPeerReviewPending
		}
		submission.PeerScore = peer.Score
	}

	final := scoring.FinalScore(scoring.FinalScoreInput{
		InstructorScore:     *submission.Score,
		LatePenalty:         submission.LatePenalty,
		PeerScore:           submission.PeerScore,
		ParticipationScore:  submission.ParticipationScore,
		PeerReviewEnabled:   activity.PeerReviewEnabled,
		InstructorWeight:    activity.InstructorWeight,
		PeerWeight:          activity.PeerWeight,
		ParticipationWeight: activity.ParticipationWeight,
		MaxPoints:           activity.Points,
	})

	submission.FinalScore = &final
	submission.Status = models.SubmissionStatusFinalized

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	s.record(ctx, actor, "submission.finalized", submission.ID, map[string]interface{}{
		"final_score": final,
	})
	observability.ScoresFinalized().WithLabelValues(strconv.FormatBool(activity.PeerReviewEnabled)).Inc()

	span.SetAttributes(attribute.Float64("grading.final_score", final))
	s.invalidate(ctx, submission.StudentID)

	return dto.NewSubmissionResponse(submission), nil
}

// SetVisibility flips the score visibility flag. Visibility is a display
// concern independent of whether a score exists.
func (s *gradingService) SetVisibility(ctx context.Context, submissionID uint, visible bool, actor Actor) (dto.SubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.ScoreVisible = visible
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.record(ctx, actor, "submission.visibility_changed", submission.ID, map[string]interface{}{
		"visible": visible,
	})
	s.invalidate(ctx, submission.StudentID)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) BulkVisibility(ctx context.Context, payload dto.BulkVisibilityRequest, actor Actor) (int, error) {
	if err := s.validator.Struct(payload); err != nil {
		return 0, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{ActivityID: &payload.ActivityID})
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range submissions {
		if submissions[i].ScoreVisible == payload.Visible {
			continue
		}
		submissions[i].ScoreVisible = payload.Visible
		if err := s.submissions.Update(ctx, &submissions[i]); err != nil {
			return changed, err
		}
		changed++
		s.invalidate(ctx, submissions[i].StudentID)
	}

	s.record(ctx, actor, "activity.visibility_changed", payload.ActivityID, map[string]interface{}{
		"visible": payload.Visible,
		"changed": changed,
	})

	return changed, nil
}

func (s *gradingService) getSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *gradingService) record(ctx context.Context, actor Actor, action string, entityID uint, metadata map[string]interface{}) {
	entityType := "submission"
	if strings.HasPrefix(action, "activity.") {
		entityType = "activity"
	}

	if s.audit == nil {
		return
	}

	id := entityID
	if _, err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
