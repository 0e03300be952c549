package dto

import (
	"encoding/json"
	"time"

	"github.com/aralhq/aral-go-api/internal/models"
)

// QuizCreateRequest describes the payload for creating a quiz.
type QuizCreateRequest struct {
	SessionID uint   `json:"session_id" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required,min=3"`
	TimeLimit int    `json:"time_limit" validate:"omitempty,gte=0"`
}

// QuestionPayload describes one question in an import or create request.
type QuestionPayload struct {
	QuestionText  string   `json:"question_text" validate:"required,min=3"`
	QuestionType  string   `json:"question_type" validate:"required,oneof=multiple_choice true_false fill_blank short_answer"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer" validate:"required,min=1"`
	Points        float64  `json:"points" validate:"required,gt=0"`
}

// QuestionResponse serializes a question for instructors (includes the key).
type QuestionResponse struct {
	ID            uint     `json:"id"`
	Position      int      `json:"position"`
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Points        float64  `json:"points"`
}

// QuizResponse is returned to API clients when viewing quizzes.
type QuizResponse struct {
	ID        uint               `json:"id"`
	SessionID uint               `json:"session_id"`
	Title     string             `json:"title"`
	TimeLimit int                `json:"time_limit"`
	Questions []QuestionResponse `json:"questions,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// AttemptSubmitRequest carries the answers for a quiz or exam attempt,
// keyed by question id.
type AttemptSubmitRequest struct {
	Answers map[uint]string `json:"answers" validate:"required"`
}

// AttemptResponse reports a graded (or open) attempt. MissedQuestionIDs and
// ManualReviewIDs are only populated right after grading.
type AttemptResponse struct {
	ID                uint       `json:"id"`
	StudentID         uint       `json:"student_id"`
	StartedAt         time.Time  `json:"started_at"`
	SubmittedAt       *time.Time `json:"submitted_at"`
	Score             *float64   `json:"score"`
	TotalPossible     float64    `json:"total_possible,omitempty"`
	MissedQuestionIDs []uint     `json:"missed_question_ids,omitempty"`
	ManualReviewIDs   []uint     `json:"manual_review_ids,omitempty"`
	Pending           bool       `json:"pending"`
}

// NewQuizResponse converts a Quiz model into a DTO. Answer keys are included
// only when withKeys is set (instructor views).
func NewQuizResponse(model models.Quiz, withKeys bool) QuizResponse {
	response := QuizResponse{
		ID:        model.ID,
		SessionID: model.SessionID,
		Title:     model.Title,
		TimeLimit: model.TimeLimit,
		CreatedAt: model.CreatedAt,
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

// NewQuizAttemptResponse converts a quiz attempt model into a DTO, hiding the
// score until it is released.
func NewQuizAttemptResponse(model models.QuizAttempt) AttemptResponse {
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
