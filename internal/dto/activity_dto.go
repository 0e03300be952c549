package dto

import (
	"time"

	"github.com/aralhq/aral-go-api/internal/models"
)

// ActivityCreateRequest describes the payload for creating an activity.
type ActivityCreateRequest struct {
	SessionID      uint    `json:"session_id" validate:"required,gt=0"`
	ActivityNumber int     `json:"activity_number" validate:"required,gt=0"`
	Title          string  `json:"title" validate:"required,min=3"`
	Instructions   string  `json:"instructions"`
	Points         float64 `json:"points" validate:"omitempty,gt=0"`
	DueDate        *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime        string  `json:"due_time" validate:"omitempty,datetime=15:04"`
	PenaltyPerDay  float64 `json:"penalty_per_day" validate:"omitempty,gte=0"`

	PeerReviewEnabled bool `json:"peer_review_enabled"`
	PeerReviewerCount int  `json:"peer_reviewer_count" validate:"omitempty,gte=0"`

	InstructorWeight    *float64 `json:"instructor_weight" validate:"omitempty,gte=0,lte=1"`
	PeerWeight          *float64 `json:"peer_weight" validate:"omitempty,gte=0,lte=1"`
	ParticipationWeight *float64 `json:"participation_weight" validate:"omitempty,gte=0,lte=1"`
}

// ActivityUpdateRequest describes a partial update to an activity.
type ActivityUpdateRequest struct {
	Title          *string  `json:"title" validate:"omitempty,min=3"`
	Instructions   *string  `json:"instructions"`
	Points         *float64 `json:"points" validate:"omitempty,gt=0"`
	DueDate        *string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime        *string  `json:"due_time" validate:"omitempty,datetime=15:04"`
	PenaltyPerDay  *float64 `json:"penalty_per_day" validate:"omitempty,gte=0"`
	IsActive       *bool    `json:"is_active"`

	PeerReviewEnabled *bool `json:"peer_review_enabled"`
	PeerReviewerCount *int  `json:"peer_reviewer_count" validate:"omitempty,gte=0"`

	InstructorWeight    *float64 `json:"instructor_weight" validate:"omitempty,gte=0,lte=1"`
	PeerWeight          *float64 `json:"peer_weight" validate:"omitempty,gte=0,lte=1"`
	ParticipationWeight *float64 `json:"participation_weight" validate:"omitempty,gte=0,lte=1"`
}

// CriterionPayload describes one rubric item when replacing an activity's criteria.
type CriterionPayload struct {
	Description string  `json:"description" validate:"required,min=3"`
	Points      float64 `json:"points" validate:"required,gt=0"`
}

// CriteriaReplaceRequest replaces the full ordered rubric of an activity.
type CriteriaReplaceRequest struct {
	Criteria []CriterionPayload `json:"criteria" validate:"required,min=1,dive"`
}

// CriterionResponse serializes one rubric item.
type CriterionResponse struct {
	ID          uint    `json:"id"`
	Position    int     `json:"position"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

// ActivityResponse is returned to API clients when viewing activities.
type ActivityResponse struct {
	ID             uint    `json:"id"`
	SessionID      uint    `json:"session_id"`
	ActivityNumber int     `json:"activity_number"`
	Title          string  `json:"title"`
	Instructions   string  `json:"instructions"`
	Points         float64 `json:"points"`
	DueDate        *string `json:"due_date"`
	DueTime        string  `json:"due_time"`
	PenaltyPerDay  float64 `json:"penalty_per_day"`

	PeerReviewEnabled bool `json:"peer_review_enabled"`
	PeerReviewerCount int  `json:"peer_reviewer_count"`

	InstructorWeight    float64 `json:"instructor_weight"`
	PeerWeight          float64 `json:"peer_weight"`
	ParticipationWeight float64 `json:"participation_weight"`

	IsActive  bool                `json:"is_active"`
	Criteria  []CriterionResponse `json:"criteria,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:                  model.ID,
		SessionID:           model.SessionID,
		ActivityNumber:      model.ActivityNumber,
		Title:               model.Title,
		Instructions:        model.Instructions,
		Points:              model.Points,
		DueDate:             model.DueDate,
		DueTime:             model.DueTime,
		PenaltyPerDay:       model.PenaltyPerDay,
		PeerReviewEnabled:   model.PeerReviewEnabled,
		PeerReviewerCount:   model.PeerReviewerCount,
		InstructorWeight:    model.InstructorWeight,
		PeerWeight:          model.PeerWeight,
		ParticipationWeight: model.ParticipationWeight,
		IsActive:            model.IsActive,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}

	for _, criterion := range model.Criteria {
		response.Criteria = append(response.Criteria, CriterionResponse{
			ID:          criterion.ID,
			Position:    criterion.Position,
			Description: criterion.Description,
			Points:      criterion.Points,
		})
	}

	return response
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}
