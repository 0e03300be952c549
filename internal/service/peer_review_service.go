package service

import (
	"context"
	"errors"
	"math/rand"
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

// ErrAssignmentNotFound indicates a review assignment could not be found.
var ErrAssignmentNotFound = errors.New("review assignment not found")

// ErrPeerReviewDisabled indicates the activity does not use peer review.
var ErrPeerReviewDisabled = errors.New("peer review is not enabled for this activity")

// ErrReviewAlreadyCompleted indicates the assignment was completed before.
var ErrReviewAlreadyCompleted = errors.New("review already completed")

// ErrIncompleteReview indicates a review did not cover every criterion.
var ErrIncompleteReview = errors.New("review does not cover all criteria")

// ErrCriteriaMismatch indicates a response referenced a criterion that does
// not belong to the submission's activity.
var ErrCriteriaMismatch = errors.New("response references unknown criterion")

// ErrNoCriteria indicates the activity has peer review enabled but no rubric.
var ErrNoCriteria = errors.New("activity has no review criteria")

// PeerReviewService assigns reviewers to submissions and tracks each
// assignment through completion and aggregation.
type PeerReviewService interface {
	PeerScoreProvider
	AssignReviewers(ctx context.Context, activityID uint, actor Actor) ([]dto.AssignReviewersResult, error)
	ResetAssignments(ctx context.Context, submissionID uint, actor Actor) error
	SubmitReview(ctx context.Context, assignmentID uint, payload dto.SubmitReviewRequest) (dto.ReviewCompletionResult, error)
	SetQualityScore(ctx context.Context, assignmentID uint, payload dto.QualityScoreRequest, actor Actor) (dto.AssignmentResponse, error)
	AssignmentsForReviewer(ctx context.Context, reviewerID uint) ([]dto.AssignmentResponse, error)
	AssignmentsForSubmission(ctx context.Context, submissionID uint) ([]dto.AssignmentResponse, error)
}

type peerReviewService struct {
	reviews     repository.PeerReviewRepository
	submissions repository.SubmissionRepository
	activities  repository.ActivityRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	audit       AuditRecorder
	logger      zerolog.Logger
	rng         *rand.Rand
	now         func() time.Time
}

// NewPeerReviewService constructs the peer review engine. The random source
// is injectable so tests can assert deterministic draws given a seed.
func NewPeerReviewService(reviews repository.PeerReviewRepository, subRepo repository.SubmissionRepository, activityRepo repository.ActivityRepository, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger, rng *rand.Rand) PeerReviewService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &peerReviewService{
		reviews:     reviews,
		submissions: subRepo,
		activities:  activityRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		audit:       audit,
		logger:      logger.With().Str("component", "peer_review_service").Logger(),
		rng:         rng,
		now:         time.Now,
	}
}

// AssignReviewers draws reviewers for every submission of an activity. For
// each submission the candidate pool is every other student who submitted to
// the same activity. Submissions that already have assignments are skipped,
// so re-running the draw is idempotent until an explicit reset. A pool
// smaller than the requested reviewer count degrades to assigning everyone
// available and logs the shortage.
func (s *peerReviewService) AssignReviewers(ctx context.Context, activityID uint, actor Actor) ([]dto.AssignReviewersResult, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	if !activity.PeerReviewEnabled || activity.PeerReviewerCount <= 0 {
		return nil, ErrPeerReviewDisabled
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{ActivityID: &activityID})
	if err != nil {
		return nil, err
	}

	results := make([]dto.AssignReviewersResult, 0, len(submissions))
	for _, submission := range submissions {
		result, err := s.assignForSubmission(ctx, activity, submission, submissions)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	recordAudit(ctx, s.audit, s.logger, actor, "peer_review.assigned", "activity", activityID, map[string]interface{}{
		"submissions": len(submissions),
	})

	return results, nil
}

func (s *peerReviewService) assignForSubmission(ctx context.Context, activity models.Activity, submission models.Submission, all []models.Submission) (dto.AssignReviewersResult, error) {
	result := dto.AssignReviewersResult{
		SubmissionID: submission.ID,
		Requested:    activity.PeerReviewerCount,
	}

	existing, err := s.reviews.AssignmentsBySubmission(ctx, submission.ID)
	if err != nil {
		return result, err
	}
	if len(existing) > 0 {
		result.AlreadyDrawn = true
		result.Assigned = len(existing)
		return result, nil
	}

	candidates := make([]uint, 0, len(all)-1)
	for _, other := range all {
		if other.StudentID == submission.StudentID {
			continue
		}
		candidates = append(candidates, other.StudentID)
	}
	result.CandidateCount = len(candidates)

	count := activity.PeerReviewerCount
	if len(candidates) < count {
		count = len(candidates)
		result.Shortage = true
		s.logger.Warn().
			Uint("submission_id", submission.ID).
			Int("requested", activity.PeerReviewerCount).
			Int("available", len(candidates)).
			Msg("reviewer shortage, assigning all available candidates")
	}

	if count == 0 {
		return result, nil
	}

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	assignments := make([]models.PeerReviewAssignment, 0, count)
	for _, reviewerID := range candidates[:count] {
		assignments = append(assignments, models.PeerReviewAssignment{
			SubmissionID: submission.ID,
			ReviewerID:   reviewerID,
		})
	}

	if err := s.reviews.CreateAssignments(ctx, assignments); err != nil {
		return result, err
	}

	result.Assigned = count
	return result, nil
}

// ResetAssignments removes all assignments and responses for a submission so
// a fresh draw can run.
func (s *peerReviewService) ResetAssignments(ctx context.Context, submissionID uint, actor Actor) error {
	if err := s.reviews.ResetBySubmission(ctx, submissionID); err != nil {
		return err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "peer_review.reset", "submission", submissionID, nil)
	return nil
}

// SubmitReview validates that the responses cover exactly the criteria of the
// submission's activity, persists them and marks the assignment completed.
// The returned contribution is the awarded sum clipped to the rubric total.
func (s *peerReviewService) SubmitReview(ctx context.Context, assignmentID uint, payload dto.SubmitReviewRequest) (dto.ReviewCompletionResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewCompletionResult{}, err
	}

	assignment, err := s.reviews.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewCompletionResult{}, ErrAssignmentNotFound
		}
		return dto.ReviewCompletionResult{}, err
	}

	if assignment.IsCompleted {
		return dto.ReviewCompletionResult{}, ErrReviewAlreadyCompleted
	}

	criteria := assignment.Submission.Activity.Criteria
	if len(criteria) == 0 {
		return dto.ReviewCompletionResult{}, ErrNoCriteria
	}

	criterionPoints := make(map[uint]float64, len(criteria))
	var totalPossible float64
	for _, criterion := range criteria {
		criterionPoints[criterion.ID] = criterion.Points
		totalPossible += criterion.Points
	}

	covered := make(map[uint]bool, len(payload.Responses))
	responses := make([]models.PeerReviewResponse, 0, len(payload.Responses))
	var awarded float64
	for _, item := range payload.Responses {
		maxPoints, ok := criterionPoints[item.CriterionID]
		if !ok {
			return dto.ReviewCompletionResult{}, ErrCriteriaMismatch
		}
		if covered[item.CriterionID] {
			return dto.ReviewCompletionResult{}, ErrCriteriaMismatch
		}
		covered[item.CriterionID] = true

		points := item.PointsAwarded
		if points > maxPoints {
			points = maxPoints
		}
		awarded += points

		responses = append(responses, models.PeerReviewResponse{
			CriterionID:   item.CriterionID,
			ResponseText:  s.sanitizer.Sanitize(item.ResponseText),
			PointsAwarded: points,
		})
	}

	if len(covered) != len(criteria) {
		return dto.ReviewCompletionResult{}, ErrIncompleteReview
	}

	completedAt := s.now()
	if err := s.reviews.CompleteAssignment(ctx, assignment.ID, completedAt, responses); err != nil {
		return dto.ReviewCompletionResult{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Float64("points_awarded", awarded).
		Msg("peer review completed")

	return dto.ReviewCompletionResult{
		AssignmentID:  assignment.ID,
		PointsAwarded: awarded,
		TotalPossible: totalPossible,
	}, nil
}

// AggregatePeerScore returns the submission's peer score. The score is nil
// while completed reviews are outstanding; once every expected review is in,
// it is the average of the per-reviewer awarded sums normalized to the
// activity's point scale.
func (s *peerReviewService) AggregatePeerScore(ctx context.Context, submissionID uint) (dto.PeerScoreResponse, error) {
	assignments, err := s.reviews.AssignmentsBySubmission(ctx, submissionID)
	if err != nil {
		return dto.PeerScoreResponse{}, err
	}

	response := dto.PeerScoreResponse{
		SubmissionID:  submissionID,
		ExpectedCount: len(assignments),
	}

	var sums []float64
	var activity models.Activity
	for _, assignment := range assignments {
		activity = assignment.Submission.Activity
		if !assignment.IsCompleted {
			continue
		}
		var sum float64
		for _, item := range assignment.Responses {
			sum += item.PointsAwarded
		}
		sums = append(sums, sum)
	}
	response.CompletedCount = len(sums)

	if response.ExpectedCount == 0 || response.CompletedCount < response.ExpectedCount {
		return response, nil
	}

	var totalCriterionPoints float64
	for _, criterion := range activity.Criteria {
		totalCriterionPoints += criterion.Points
	}
	if totalCriterionPoints <= 0 {
		return dto.PeerScoreResponse{}, ErrNoCriteria
	}

	score := scoring.PeerAverage(sums, totalCriterionPoints, activity.Points)
	response.Score = &score

	return response, nil
}

// SetQualityScore records the instructor's assessment of a completed review.
func (s *peerReviewService) SetQualityScore(ctx context.Context, assignmentID uint, payload dto.QualityScoreRequest, actor Actor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.reviews.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	score := payload.Score
	assignment.QualityScore = &score
	if err := s.reviews.UpdateAssignment(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "peer_review.quality_scored", "assignment", assignment.ID, map[string]interface{}{
		"score": payload.Score,
	})

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *peerReviewService) AssignmentsForReviewer(ctx context.Context, reviewerID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.reviews.AssignmentsByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *peerReviewService) AssignmentsForSubmission(ctx context.Context, submissionID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.reviews.AssignmentsBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}
