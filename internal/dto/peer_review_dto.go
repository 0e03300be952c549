package dto

import (
	"time"

	"github.com/aralhq/aral-go-api/internal/models"
)

// ReviewResponsePayload is one criterion answer inside a review submission.
type ReviewResponsePayload struct {
	CriterionID   uint    `json:"criterion_id" validate:"required,gt=0"`
	ResponseText  string  `json:"response_text"`
	PointsAwarded float64 `json:"points_awarded" validate:"gte=0"`
}

// SubmitReviewRequest carries a reviewer's completed rubric.
type SubmitReviewRequest struct {
	Responses []ReviewResponsePayload `json:"responses" validate:"required,min=1,dive"`
}

// QualityScoreRequest records the instructor's assessment of a review.
type QualityScoreRequest struct {
	Score float64 `json:"score" validate:"gte=0"`
}

// AssignmentResponse serializes one peer review assignment.
type AssignmentResponse struct {
	ID           uint       `json:"id"`
	SubmissionID uint       `json:"submission_id"`
	ReviewerID   uint       `json:"reviewer_id"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at"`
	QualityScore *float64   `json:"quality_score"`
	CreatedAt    time.Time  `json:"created_at"`

	Activity  ActivityLite             `json:"activity"`
	Criteria  []CriterionResponse      `json:"criteria,omitempty"`
	Responses []ReviewResponseResponse `json:"responses,omitempty"`
}

// ReviewResponseResponse serializes a stored criterion answer.
type ReviewResponseResponse struct {
	CriterionID   uint    `json:"criterion_id"`
	ResponseText  string  `json:"response_text"`
	PointsAwarded float64 `json:"points_awarded"`
}

// AssignReviewersResult reports the outcome of a reviewer draw for one
// submission. Shortage is non-fatal: the engine proceeds with fewer
// reviewers than requested when the candidate pool is too small.
type AssignReviewersResult struct {
	SubmissionID   uint `json:"submission_id"`
	Requested      int  `json:"requested"`
	Assigned       int  `json:"assigned"`
	AlreadyDrawn   bool `json:"already_drawn"`
	Shortage       bool `json:"shortage"`
	CandidateCount int  `json:"candidate_count"`
}

// ReviewCompletionResult is returned after a review is submitted.
type ReviewCompletionResult struct {
	AssignmentID  uint    `json:"assignment_id"`
	PointsAwarded float64 `json:"points_awarded"`
	TotalPossible float64 `json:"total_possible"`
}

// PeerScoreResponse reports the aggregated peer score for a submission.
// Score stays null while completed reviews are still outstanding.
type PeerScoreResponse struct {
	SubmissionID   uint     `json:"submission_id"`
	Score          *float64 `json:"score"`
	CompletedCount int      `json:"completed_count"`
	ExpectedCount  int      `json:"expected_count"`
}

// NewAssignmentResponse converts an assignment model into a DTO.
func NewAssignmentResponse(model models.PeerReviewAssignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		ReviewerID:   model.ReviewerID,
		IsCompleted:  model.IsCompleted,
		CompletedAt:  model.CompletedAt,
		QualityScore: model.QualityScore,
		CreatedAt:    model.CreatedAt,
	}

	activity := model.Submission.Activity
	if activity.ID != 0 {
		response.Activity = ActivityLite{
			ID:                activity.ID,
			Title:             activity.Title,
			Points:            activity.Points,
			DueDate:           activity.DueDate,
			DueTime:           activity.DueTime,
			PeerReviewEnabled: activity.PeerReviewEnabled,
		}
		for _, criterion := range activity.Criteria {
			response.Criteria = append(response.Criteria, CriterionResponse{
				ID:          criterion.ID,
				Position:    criterion.Position,
				Description: criterion.Description,
				Points:      criterion.Points,
			})
		}
	}

	for _, item := range model.Responses {
		response.Responses = append(response.Responses, ReviewResponseResponse{
			CriterionID:   item.CriterionID,
			ResponseText:  item.ResponseText,
			PointsAwarded: item.PointsAwarded,
		})
	}

	return response
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.PeerReviewAssignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
