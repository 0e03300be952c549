package dto

import (
	"time"

	"github.com/aralhq/aral-go-api/internal/models"
)

// SubmissionFileRef is an opaque reference to an already-stored file.
type SubmissionFileRef struct {
	FileName string `json:"file_name" validate:"required,min=1"`
	FileURL  string `json:"file_url" validate:"required,url"`
}

// SubmitRequest describes the payload for submitting (or resubmitting) work.
type SubmitRequest struct {
	ActivityID uint                `json:"activity_id" validate:"required,gt=0"`
	StudentID  uint                `json:"student_id" validate:"required,gt=0"`
	Content    string              `json:"content"`
	Files      []SubmissionFileRef `json:"files" validate:"omitempty,dive"`
}

// GradeSubmissionRequest carries an instructor's raw score and feedback.
type GradeSubmissionRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty,min=3"`
}

// ParticipationRequest records a participation score for a submission.
type ParticipationRequest struct {
	Score float64 `json:"score" validate:"gte=0"`
}

// VisibilityRequest toggles score visibility for one submission.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// BulkVisibilityRequest toggles score visibility for every submission of an activity.
type BulkVisibilityRequest struct {
	ActivityID uint `json:"activity_id" validate:"required,gt=0"`
	Visible    bool `json:"visible"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	ActivityID *uint   `query:"activity_id"`
	StudentID  *uint   `query:"student_id"`
	Status     *string `query:"status" validate:"omitempty,oneof=submitted graded finalized"`
}

// SubmissionFileResponse serializes a stored file reference.
type SubmissionFileResponse struct {
	ID       uint   `json:"id"`
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
}

// ActivityLite summarizes an activity in submission responses.
type ActivityLite struct {
	ID                uint    `json:"id"`
	Title             string  `json:"title"`
	Points            float64 `json:"points"`
	DueDate           *string `json:"due_date"`
	DueTime           string  `json:"due_time"`
	PeerReviewEnabled bool    `json:"peer_review_enabled"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
}

// SubmissionResponse is returned to instructors when viewing submissions.
type SubmissionResponse struct {
	ID         uint   `json:"id"`
	ActivityID uint   `json:"activity_id"`
	StudentID  uint   `json:"student_id"`
	Content    string `json:"content"`

	SubmittedAt time.Time `json:"submitted_at"`
	IsLate      bool      `json:"is_late"`
	LateDays    int       `json:"late_days"`
	LatePenalty float64   `json:"late_penalty"`

	Score              *float64 `json:"score"`
	PeerScore          *float64 `json:"peer_score"`
	ParticipationScore *float64 `json:"participation_score"`
	FinalScore         *float64 `json:"final_score"`
	Feedback           string   `json:"feedback"`
	ScoreVisible       bool     `json:"score_visible"`
	Status             string   `json:"status"`

	GradedBy  *uint      `json:"graded_by"`
	GradedAt  *time.Time `json:"graded_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Activity ActivityLite             `json:"activity"`
	Student  StudentLite              `json:"student"`
	Files    []SubmissionFileResponse `json:"files,omitempty"`
}

// StudentSubmissionResponse is the student-facing view. Scores are withheld
// until the instructor marks them visible; Pending flags a score that exists
// but is not yet released.
type StudentSubmissionResponse struct {
	ID          uint                     `json:"id"`
	ActivityID  uint                     `json:"activity_id"`
	Content     string                   `json:"content"`
	SubmittedAt time.Time                `json:"submitted_at"`
	IsLate      bool                     `json:"is_late"`
	LateDays    int                      `json:"late_days"`
	Score       *float64                 `json:"score"`
	FinalScore  *float64                 `json:"final_score"`
	Feedback    string                   `json:"feedback"`
	Pending     bool                     `json:"pending"`
	Files       []SubmissionFileResponse `json:"files,omitempty"`
}

// NewSubmissionResponse converts a Submission model into the instructor DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:                 model.ID,
		ActivityID:         model.ActivityID,
		StudentID:          model.StudentID,
		Content:            model.Content,
		SubmittedAt:        model.SubmittedAt,
		IsLate:             model.IsLate,
		LateDays:           model.LateDays,
		LatePenalty:        model.LatePenalty,
		Score:              model.Score,
		PeerScore:          model.PeerScore,
		ParticipationScore: model.ParticipationScore,
		FinalScore:         model.FinalScore,
		Feedback:           model.Feedback,
		ScoreVisible:       model.ScoreVisible,
		Status:             model.Status,
		GradedBy:           model.GradedBy,
		GradedAt:           model.GradedAt,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}

	if model.Activity.ID != 0 {
		response.Activity = ActivityLite{
			ID:                model.Activity.ID,
			Title:             model.Activity.Title,
			Points:            model.Activity.Points,
			DueDate:           model.Activity.DueDate,
			DueTime:           model.Activity.DueTime,
			PeerReviewEnabled: model.Activity.PeerReviewEnabled,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:            model.Student.ID,
			Name:          model.Student.Name,
			StudentNumber: model.Student.StudentNumber,
		}
	}

	response.Files = newFileResponses(model.Files)

	return response
}

// NewSubmissionResponseSlice converts submission models into instructor DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// NewStudentSubmissionResponse converts a Submission model into the gated
// student view.
func NewStudentSubmissionResponse(model models.Submission) StudentSubmissionResponse {
	response := StudentSubmissionResponse{
		ID:          model.ID,
		ActivityID:  model.ActivityID,
		Content:     model.Content,
		SubmittedAt: model.SubmittedAt,
		IsLate:      model.IsLate,
		LateDays:    model.LateDays,
		Files:       newFileResponses(model.Files),
	}

	hasScore := model.Score != nil || model.FinalScore != nil
	if model.ScoreVisible {
		response.Score = model.Score
		response.FinalScore = model.FinalScore
		response.Feedback = model.Feedback
	} else if hasScore {
		response.Pending = true
	}

	return response
}

func newFileResponses(files []models.SubmissionFile) []SubmissionFileResponse {
	if len(files) == 0 {
		return nil
	}

	responses := make([]SubmissionFileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, SubmissionFileResponse{
			ID:       file.ID,
			FileName: file.FileName,
			FileURL:  file.FileURL,
		})
	}

	return responses
}
