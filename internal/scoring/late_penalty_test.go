package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatePenaltyOnTimeOrEarly(t *testing.T) {
	cases := []struct {
		name        string
		submittedAt time.Time
	}{
		{"well before", time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)},
		{"same day earlier", time.Date(2024, 1, 10, 16, 59, 0, 0, time.UTC)},
		{"exactly at due instant", time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := LatePenalty("2024-01-10", "17:00", tc.submittedAt, 10, 100)
			require.NoError(t, err)
			require.False(t, result.IsLate)
			require.Zero(t, result.LateDays)
			require.Zero(t, result.Penalty)
		})
	}
}

func TestLatePenaltyLateSubmissions(t *testing.T) {
	cases := []struct {
		name          string
		submittedAt   time.Time
		penaltyPerDay float64
		maxPoints     float64
		wantDays      int
		wantPenalty   float64
	}{
		{
			name:          "one minute late counts a full day",
			submittedAt:   time.Date(2024, 1, 10, 17, 1, 0, 0, time.UTC),
			penaltyPerDay: 10,
			maxPoints:     100,
			wantDays:      1,
			wantPenalty:   10,
		},
		{
			name:          "two calendar days late",
			submittedAt:   time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC),
			penaltyPerDay: 10,
			maxPoints:     100,
			wantDays:      2,
			wantPenalty:   20,
		},
		{
			name:          "penalty capped at max points",
			submittedAt:   time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC),
			penaltyPerDay: 10,
			maxPoints:     100,
			wantDays:      31,
			wantPenalty:   100,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := LatePenalty("2024-01-10", "17:00", tc.submittedAt, tc.penaltyPerDay, tc.maxPoints)
			require.NoError(t, err)
			require.True(t, result.IsLate)
			require.Equal(t, tc.wantDays, result.LateDays)
			require.Equal(t, tc.wantPenalty, result.Penalty)
		})
	}
}

func TestLatePenaltyNoDueDateNeverLate(t *testing.T) {
	result, err := LatePenalty("", "17:00", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 10, 100)
	require.NoError(t, err)
	require.False(t, result.IsLate)
	require.Zero(t, result.Penalty)
}

func TestLatePenaltyMalformedFields(t *testing.T) {
	submitted := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)

	_, err := LatePenalty("01/10/2024", "17:00", submitted, 10, 100)
	require.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = LatePenalty("2024-01-10", "5pm", submitted, 10, 100)
	require.ErrorIs(t, err, ErrInvalidDueTime)
}

func TestLatePenaltyEmptyDueTimeDefaults(t *testing.T) {
	// Due 2024-01-10 with no time means end of day 23:59.
	onTime := time.Date(2024, 1, 10, 23, 58, 0, 0, time.UTC)
	result, err := LatePenalty("2024-01-10", "", onTime, 5, 100)
	require.NoError(t, err)
	require.False(t, result.IsLate)

	late := time.Date(2024, 1, 11, 0, 30, 0, 0, time.UTC)
	result, err = LatePenalty("2024-01-10", "", late, 5, 100)
	require.NoError(t, err)
	require.True(t, result.IsLate)
	require.Equal(t, 1, result.LateDays)
	require.Equal(t, 5.0, result.Penalty)
}

func TestAdjustedScoreNeverNegative(t *testing.T) {
	require.Equal(t, 80.0, AdjustedScore(100, 20))
	require.Equal(t, 0.0, AdjustedScore(15, 40))
	require.Equal(t, 0.0, AdjustedScore(0, 0))
}
