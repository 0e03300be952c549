package models

import (
	"time"

	"gorm.io/datatypes"
)

// Exam types recognized by the grade summary weighting.
const (
	ExamTypeMidterm = "midterm"
	ExamTypeFinal   = "final"
)

// Exam is a subject-level assessment (midterm or final).
type Exam struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SubjectID   uint           `gorm:"not null;index" json:"subject_id"`
	ExamType    string         `gorm:"size:16;not null" json:"exam_type"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	TimeLimit   int            `gorm:"not null;default:0" json:"time_limit"`
	TotalPoints float64        `gorm:"not null;default:100" json:"total_points"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Subject     Subject        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subject"`
	Questions   []ExamQuestion `json:"questions,omitempty"`
}

// ExamQuestion is one question in an exam, with its answer key.
type ExamQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ExamID        uint           `gorm:"not null;index" json:"exam_id"`
	Position      int            `gorm:"not null" json:"position"`
	QuestionText  string         `gorm:"type:text;not null" json:"question_text"`
	QuestionType  string         `gorm:"size:32;not null" json:"question_type"`
	Options       datatypes.JSON `json:"options"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"`
	Points        float64        `gorm:"not null;default:1" json:"points"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ExamAttempt is one student's run at an exam.
type ExamAttempt struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ExamID       uint              `gorm:"not null;index" json:"exam_id"`
	StudentID    uint              `gorm:"not null;index" json:"student_id"`
	StartedAt    time.Time         `gorm:"not null" json:"started_at"`
	SubmittedAt  *time.Time        `json:"submitted_at"`
	Answers      datatypes.JSONMap `gorm:"type:json" json:"answers"`
	Score        *float64          `json:"score"`
	ScoreVisible bool              `gorm:"not null;default:false" json:"score_visible"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Exam         Exam              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam"`
	Student      Student           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsSubmitted reports whether the attempt has been turned in.
func (a ExamAttempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}
