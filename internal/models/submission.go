package models

import "time"

// Submission is a student's delivered work against an activity. One row per
// (activity, student) pair; resubmission updates the row in place.
type Submission struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ActivityID uint   `gorm:"not null;uniqueIndex:idx_submission_pair" json:"activity_id"`
	StudentID  uint   `gorm:"not null;uniqueIndex:idx_submission_pair" json:"student_id"`
	Content    string `gorm:"type:text" json:"content"`

	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
	IsLate      bool      `gorm:"not null;default:false" json:"is_late"`
	LateDays    int       `gorm:"not null;default:0" json:"late_days"`
	LatePenalty float64   `gorm:"not null;default:0" json:"late_penalty"`

	Score              *float64 `json:"score"`
	PeerScore          *float64 `json:"peer_score"`
	ParticipationScore *float64 `json:"participation_score"`
	FinalScore         *float64 `json:"final_score"`
	Feedback           string   `gorm:"type:text" json:"feedback"`
	ScoreVisible       bool     `gorm:"not null;default:false" json:"score_visible"`
	Status             string   `gorm:"size:32;not null" json:"status"`

	GradedBy  *uint      `json:"graded_by"`
	GradedAt  *time.Time `json:"graded_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Activity Activity         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"activity"`
	Student  Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Files    []SubmissionFile `gorm:"constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

const (
	// SubmissionStatusSubmitted indicates work has been received but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates an instructor score has been recorded.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusFinalized indicates the final score has been computed.
	SubmissionStatusFinalized = "finalized"
)

// IsGraded reports whether the submission carries an instructor score.
func (s Submission) IsGraded() bool {
	return s.Score != nil
}

// SubmissionFile is a file reference owned by a submission. Upload handling
// and storage live outside this service; only opaque references are kept.
type SubmissionFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	FileURL      string    `gorm:"size:512;not null" json:"file_url"`
	CreatedAt    time.Time `json:"created_at"`
}
