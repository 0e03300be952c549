package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
)

type stubPeerScores struct {
	response dto.PeerScoreResponse
	err      error
}

func (s *stubPeerScores) AggregatePeerScore(ctx context.Context, submissionID uint) (dto.PeerScoreResponse, error) {
	return s.response, s.err
}

func gradedSubmission(score float64) models.Submission {
	gradedBy := uint(42)
	gradedAt := time.Now().Add(-time.Hour)
	return models.Submission{
		ID:         1,
		ActivityID: 2,
		StudentID:  3,
		Score:      &score,
		Status:     models.SubmissionStatusGraded,
		GradedBy:   &gradedBy,
		GradedAt:   &gradedAt,
		Activity: models.Activity{
			ID:               2,
			Points:           100,
			InstructorWeight: 1,
		},
	}
}

func newGradingService(subRepo *fakeSubmissionRepo, peers PeerScoreProvider, cache GradeCacheInvalidator) GradingService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewGradingService(subRepo, peers, validate, nil, cache, testLogger())
}

func TestGradeScoreExceedsMax(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(0)
	submission.Score = nil
	subRepo.store(submission)
	svc := newGradingService(subRepo, &stubPeerScores{}, nil)

	_, err := svc.Grade(context.Background(), 1, dto.GradeSubmissionRequest{Score: 150, Feedback: "too generous"}, Actor{ID: 42, Role: "instructor"})
	require.ErrorIs(t, err, ErrScoreExceedsMax)
	require.Equal(t, 0, subRepo.updateCalls)
}

func TestGradeIdempotent(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(90)
	submission.Feedback = "well done"
	subRepo.store(submission)
	svc := newGradingService(subRepo, &stubPeerScores{}, nil)

	result, err := svc.Grade(context.Background(), 1, dto.GradeSubmissionRequest{Score: 90, Feedback: "well done"}, Actor{ID: 42, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, 90.0, *result.Score)
	require.Equal(t, 0, subRepo.updateCalls)
}

func TestRegradeClearsFinalScore(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(90)
	submission.FinalScore = floatPtr(90)
	submission.Status = models.SubmissionStatusFinalized
	subRepo.store(submission)
	audit := &fakeAuditRecorder{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewGradingService(subRepo, &stubPeerScores{}, validate, audit, nil, testLogger())

	result, err := svc.Grade(context.Background(), 1, dto.GradeSubmissionRequest{Score: 80, Feedback: "revised"}, Actor{ID: 42, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, 80.0, *result.Score)
	require.Nil(t, result.FinalScore)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Len(t, audit.entries, 1)
	require.Equal(t, "submission.graded", audit.entries[0].Action)
}

func TestFinalizeWithoutGrade(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(0)
	submission.Score = nil
	subRepo.store(submission)
	svc := newGradingService(subRepo, &stubPeerScores{}, nil)

	_, err := svc.Finalize(context.Background(), 1, Actor{ID: 42, Role: "instructor"})
	require.ErrorIs(t, err, ErrNotGraded)
}

func TestFinalizeInstructorOnly(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(90)
	submission.LatePenalty = 20
	subRepo.store(submission)
	svc := newGradingService(subRepo, &stubPeerScores{}, nil)

	result, err := svc.Finalize(context.Background(), 1, Actor{ID: 42, Role: "instructor"})
	require.NoError(t, err)
	require.NotNil(t, result.FinalScore)
	require.Equal(t, 70.0, *result.FinalScore)
	require.Equal(t, models.SubmissionStatusFinalized, result.Status)
}

func TestFinalizePeerReviewPending(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(90)
	submission.Activity.PeerReviewEnabled = true
	submission.Activity.InstructorWeight = 0.7
	submission.Activity.PeerWeight = 0.3
	subRepo.store(submission)
	peers := &stubPeerScores{response: dto.PeerScoreResponse{SubmissionID: 1, CompletedCount: 1, ExpectedCount: 2}}
	svc := newGradingService(subRepo, peers, nil)

	_, err := svc.Finalize(context.Background(), 1, Actor{ID: 42, Role: "instructor"})
	require.ErrorIs(t, err, ErrPeerReviewPending)
}

func TestFinalizeWeighted(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	submission := gradedSubmission(90)
	submission.Activity.PeerReviewEnabled = true
	submission.Activity.InstructorWeight = 0.7
	submission.Activity.PeerWeight = 0.3
	subRepo.store(submission)
	peers := &stubPeerScores{response: dto.PeerScoreResponse{
		SubmissionID:   1,
		Score:          floatPtr(70),
		CompletedCount: 2,
		ExpectedCount:  2,
	}}
	svc := newGradingService(subRepo, peers, nil)

	result, err := svc.Finalize(context.Background(), 1, Actor{ID: 42, Role: "instructor"})
	require.NoError(t, err)
	require.InDelta(t, 84.0, *result.FinalScore, 1e-9)
	require.Equal(t, 70.0, *result.PeerScore)
}

func TestSetVisibilityInvalidatesCache(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	subRepo.store(gradedSubmission(90))
	cache := &fakeInvalidator{}
	svc := newGradingService(subRepo, &stubPeerScores{}, cache)

	result, err := svc.SetVisibility(context.Background(), 1, true, Actor{ID: 42, Role: "instructor"})
	require.NoError(t, err)
	require.True(t, result.ScoreVisible)
	require.Equal(t, []uint{3}, cache.studentIDs)
}

func TestBulkVisibility(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	first := gradedSubmission(90)
	second := gradedSubmission(80)
	second.ID = 2
	second.StudentID = 4
	second.ScoreVisible = true
	subRepo.store(first)
	subRepo.store(second)
	cache := &fakeInvalidator{}
	svc := newGradingService(subRepo, &stubPeerScores{}, cache)

	changed, err := svc.BulkVisibility(context.Background(), dto.BulkVisibilityRequest{ActivityID: 2, Visible: true}, Actor{ID: 42, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	require.Equal(t, []uint{3}, cache.studentIDs)
}
