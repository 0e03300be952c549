package models

import "time"

// PeerReviewCriterion is one gradable rubric item for an activity.
type PeerReviewCriterion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ActivityID  uint      `gorm:"not null;index" json:"activity_id"`
	Position    int       `gorm:"not null" json:"position"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Points      float64   `gorm:"not null" json:"points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PeerReviewAssignment pairs a reviewer with a peer's submission. The pair is
// unique; completion is one-way.
type PeerReviewAssignment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:idx_review_pair" json:"submission_id"`
	ReviewerID   uint       `gorm:"not null;uniqueIndex:idx_review_pair" json:"reviewer_id"`
	IsCompleted  bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at"`
	QualityScore *float64   `json:"quality_score"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Submission Submission           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
	Reviewer   Student              `gorm:"foreignKey:ReviewerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"reviewer"`
	Responses  []PeerReviewResponse `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

// PeerReviewResponse holds a reviewer's answer for one criterion.
type PeerReviewResponse struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	AssignmentID  uint                `gorm:"not null;uniqueIndex:idx_response_pair" json:"assignment_id"`
	CriterionID   uint                `gorm:"not null;uniqueIndex:idx_response_pair" json:"criterion_id"`
	ResponseText  string              `gorm:"type:text" json:"response_text"`
	PointsAwarded float64             `gorm:"not null" json:"points_awarded"`
	CreatedAt     time.Time           `json:"created_at"`
	Criterion     PeerReviewCriterion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criterion"`
}
