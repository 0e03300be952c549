package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types supported by the auto-grader.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeFillBlank      = "fill_blank"
	QuestionTypeShortAnswer    = "short_answer"
)

// Quiz is a session-level assessment with an optional time limit in minutes.
type Quiz struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID uint           `gorm:"not null;index" json:"session_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	TimeLimit int            `gorm:"not null;default:0" json:"time_limit"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Session   Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"session"`
	Questions []QuizQuestion `json:"questions,omitempty"`
}

// QuizQuestion is one question in a quiz, with its answer key.
type QuizQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuizID        uint           `gorm:"not null;index" json:"quiz_id"`
	Position      int            `gorm:"not null" json:"position"`
	QuestionText  string         `gorm:"type:text;not null" json:"question_text"`
	QuestionType  string         `gorm:"size:32;not null" json:"question_type"`
	Options       datatypes.JSON `json:"options"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"`
	Points        float64        `gorm:"not null;default:1" json:"points"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// QuizAttempt is one student's run at a quiz. StartedAt anchors the time
// limit; SubmittedAt and Score stay empty until submission.
type QuizAttempt struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	QuizID       uint              `gorm:"not null;index" json:"quiz_id"`
	StudentID    uint              `gorm:"not null;index" json:"student_id"`
	StartedAt    time.Time         `gorm:"not null" json:"started_at"`
	SubmittedAt  *time.Time        `json:"submitted_at"`
	Answers      datatypes.JSONMap `gorm:"type:json" json:"answers"`
	Score        *float64          `json:"score"`
	ScoreVisible bool              `gorm:"not null;default:false" json:"score_visible"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Quiz         Quiz              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"quiz"`
	Student      Student           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsSubmitted reports whether the attempt has been turned in.
func (a QuizAttempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}
