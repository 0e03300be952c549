package models

import "time"

// Activity is a gradable unit of work attached to a session.
//
// DueDate is a calendar date ("2006-01-02") and DueTime a wall-clock time
// ("15:04"); together they form the due instant used for late-penalty
// computation. A nil DueDate means the activity can never be late.
type Activity struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	SessionID      uint    `gorm:"not null;index" json:"session_id"`
	ActivityNumber int     `gorm:"not null" json:"activity_number"`
	Title          string  `gorm:"size:255;not null" json:"title"`
	Instructions   string  `gorm:"type:text" json:"instructions"`
	Points         float64 `gorm:"not null;default:100" json:"points"`
	DueDate        *string `gorm:"size:10" json:"due_date"`
	DueTime        string  `gorm:"size:5;default:'23:59'" json:"due_time"`
	PenaltyPerDay  float64 `gorm:"not null;default:0" json:"penalty_per_day"`

	PeerReviewEnabled bool `gorm:"not null;default:false" json:"peer_review_enabled"`
	PeerReviewerCount int  `gorm:"not null;default:0" json:"peer_reviewer_count"`

	InstructorWeight    float64 `gorm:"not null;default:1" json:"instructor_weight"`
	PeerWeight          float64 `gorm:"not null;default:0" json:"peer_weight"`
	ParticipationWeight float64 `gorm:"not null;default:0" json:"participation_weight"`

	IsActive  bool                  `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Session   Session               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"session"`
	Criteria  []PeerReviewCriterion `json:"criteria,omitempty"`
}

// AcceptsSubmissions reports whether students may still submit work.
func (a Activity) AcceptsSubmissions() bool {
	return a.IsActive
}
