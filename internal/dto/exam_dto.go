package dto

import (
	"encoding/json"
	"time"

	"github.com/aralhq/aral-go-api/internal/models"
)

// ExamCreateRequest describes the payload for creating an exam.
type ExamCreateRequest struct {
	SubjectID   uint    `json:"subject_id" validate:"required,gt=0"`
	ExamType    string  `json:"exam_type" validate:"required,oneof=midterm final"`
	Title       string  `json:"title" validate:"required,min=3"`
	TimeLimit   int     `json:"time_limit" validate:"omitempty,gte=0"`
	TotalPoints float64 `json:"total_points" validate:"omitempty,gt=0"`
}

// ExamResponse is returned to API clients when viewing exams.
type ExamResponse struct {
	ID          uint               `json:"id"`
	SubjectID   uint               `json:"subject_id"`
	ExamType    string             `json:"exam_type"`
	Title       string             `json:"title"`
	TimeLimit   int                `json:"time_limit"`
	TotalPoints float64            `json:"total_points"`
	Questions   []QuestionResponse `json:"questions,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewExamResponse converts an Exam model into a DTO. Answer keys are included
// only when withKeys is set.
func NewExamResponse(model models.Exam, withKeys bool) ExamResponse {
	response := ExamResponse{
		ID:          model.ID,
		SubjectID:   model.SubjectID,
		ExamType:    model.ExamType,
		Title:       model.Title,
		TimeLimit:   model.TimeLimit,
		TotalPoints: model.TotalPoints,
		CreatedAt:   model.CreatedAt,
	}

	for _, question := range model.Questions {
		item := QuestionResponse{
			ID:           question.ID,
			Position:     question.Position,
			QuestionText: question.QuestionText,
			QuestionType: question.QuestionType,
			Points:       question.Points,
		}
		if withKeys {
			item.CorrectAnswer = question.CorrectAnswer
		}
		if len(question.Options) > 0 {
			var options []string
			if err := json.Unmarshal(question.Options, &options); err == nil {
				item.Options = options
			}
		}
		response.Questions = append(response.Questions, item)
	}

	return response
}

// NewExamAttemptResponse converts an exam attempt model into a DTO, hiding
// the score until it is released.
func NewExamAttemptResponse(model models.ExamAttempt) AttemptResponse {
	response := AttemptResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		StartedAt:   model.StartedAt,
		SubmittedAt: model.SubmittedAt,
	}

	if model.ScoreVisible {
		response.Score = model.Score
	} else if model.Score != nil {
		response.Pending = true
	}

	return response
}
