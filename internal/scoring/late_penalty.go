package scoring

import (
	"fmt"
	"math"
	"time"
)

const (
	dueDateLayout = "2006-01-02"
	dueTimeLayout = "15:04"
)

// DefaultDueTime is applied when an activity has a due date but no due time.
const DefaultDueTime = "23:59"

// LatePenalty computes how late a submission is relative to the due instant
// and the penalty owed. An empty due date means the submission can never be
// late. Late days are whole calendar days past the due instant, rounded up,
// and the penalty is capped at maxPoints so an adjusted score can reach zero
// but never go negative.
func LatePenalty(dueDate, dueTime string, submittedAt time.Time, penaltyPerDay, maxPoints float64) (LateResult, error) {
	if dueDate == "" {
		return LateResult{}, nil
	}

	dueInstant, err := DueInstant(dueDate, dueTime, submittedAt.Location())
	if err != nil {
		return LateResult{}, err
	}

	if !submittedAt.After(dueInstant) {
		return LateResult{}, nil
	}

	lateDays := int(math.Ceil(submittedAt.Sub(dueInstant).Hours() / 24))
	if lateDays < 1 {
		lateDays = 1
	}

	penalty := penaltyPerDay * float64(lateDays)
	if maxPoints > 0 && penalty > maxPoints {
		penalty = maxPoints
	}
	if penalty < 0 {
		penalty = 0
	}

	return LateResult{IsLate: true, LateDays: lateDays, Penalty: penalty}, nil
}

// DueInstant combines a due date and due time into a single instant in the
// given location. An empty due time falls back to DefaultDueTime.
func DueInstant(dueDate, dueTime string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	date, err := time.ParseInLocation(dueDateLayout, dueDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, dueDate)
	}

	if dueTime == "" {
		dueTime = DefaultDueTime
	}

	clock, err := time.Parse(dueTimeLayout, dueTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueTime, dueTime)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// AdjustedScore subtracts a late penalty from a raw instructor score,
// flooring at zero.
func AdjustedScore(raw, penalty float64) float64 {
	adjusted := raw - penalty
	if adjusted < 0 {
		return 0
	}
	return adjusted
}
