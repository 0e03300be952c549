package dto

// ComponentScore is one visibility-gated score cell in the grade summary.
// Score stays null when unreleased or missing; Pending distinguishes the two.
type ComponentScore struct {
	Session int      `json:"session"`
	Label   string   `json:"label,omitempty"`
	Score   *float64 `json:"score"`
	Pending bool     `json:"pending"`
}

// SubjectGradeSummary aggregates one student's standing in a subject.
type SubjectGradeSummary struct {
	SubjectID   uint   `json:"subject_id"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Section     string `json:"section"`

	QuizScores      []ComponentScore `json:"quiz_scores"`
	ActivityScores  []ComponentScore `json:"activity_scores"`
	QuizAverage     float64          `json:"quiz_average"`
	ActivityAverage float64          `json:"activity_average"`

	Midterm        *float64 `json:"midterm"`
	MidtermPending bool     `json:"midterm_pending"`
	Final          *float64 `json:"final"`
	FinalPending   bool     `json:"final_pending"`

	WeightedTotal float64            `json:"weighted_total"`
	PUPGrade      float64            `json:"pup_grade"`
	Weights       map[string]float64 `json:"weights"`
}

// GradeSummaryResponse is the full per-student grade report.
type GradeSummaryResponse struct {
	StudentID uint                  `json:"student_id"`
	Subjects  []SubjectGradeSummary `json:"subjects"`
}
