// Package scoring contains the pure score calculators used across the API:
// late penalties, objective question auto-grading, attempt aggregation and
// final score weighting. Nothing here performs I/O; the services feed it
// recorded facts and persist the results.
package scoring

import "errors"

// Sentinel errors surfaced to callers. Malformed timing fields are treated as
// validation failures; a missing answer key is a data integrity fault and is
// never silently defaulted.
var (
	ErrInvalidDueDate    = errors.New("invalid due date")
	ErrInvalidDueTime    = errors.New("invalid due time")
	ErrMissingAnswerKey  = errors.New("question has no answer key")
	ErrUnknownQuestion   = errors.New("unknown question type")
	ErrNonPositiveWeight = errors.New("weights must not be negative")
)

// Question is the grading view of a quiz or exam question.
type Question struct {
	ID            uint
	Type          string
	CorrectAnswer string
	Points        float64
}

// QuestionResult is the outcome of grading a single answer.
type QuestionResult struct {
	PointsEarned float64
	Correct      bool
	// NeedsManualReview marks free-text answers that did not match the key.
	// They score zero here but are surfaced for instructor re-grading.
	NeedsManualReview bool
}

// AttemptResult aggregates a full question set against submitted answers.
type AttemptResult struct {
	Score             float64
	TotalPossible     float64
	Percentage        float64
	MissedQuestionIDs []uint
	ManualReviewIDs   []uint
}

// LateResult describes how late a submission is and the penalty owed.
type LateResult struct {
	IsLate   bool
	LateDays int
	Penalty  float64
}
