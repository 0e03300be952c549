package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeQuestionObjectiveMatch(t *testing.T) {
	question := Question{ID: 1, Type: TypeMultipleChoice, CorrectAnswer: "B", Points: 2}

	cases := []struct {
		name      string
		submitted string
		wantFull  bool
	}{
		{"exact match", "B", true},
		{"case-insensitive match", "b", true},
		{"whitespace trimmed", "  b  ", true},
		{"wrong option", "c", false},
		{"empty answer", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := GradeQuestion(question, tc.submitted)
			require.NoError(t, err)
			if tc.wantFull {
				require.True(t, result.Correct)
				require.Equal(t, question.Points, result.PointsEarned)
			} else {
				require.False(t, result.Correct)
				require.Zero(t, result.PointsEarned)
			}
			require.False(t, result.NeedsManualReview)
		})
	}
}

func TestGradeQuestionFreeTextFlagsManualReview(t *testing.T) {
	question := Question{ID: 3, Type: TypeShortAnswer, CorrectAnswer: "router", Points: 5}

	result, err := GradeQuestion(question, "Router")
	require.NoError(t, err)
	require.True(t, result.Correct)
	require.Equal(t, 5.0, result.PointsEarned)

	result, err = GradeQuestion(question, "switch")
	require.NoError(t, err)
	require.False(t, result.Correct)
	require.Zero(t, result.PointsEarned)
	require.True(t, result.NeedsManualReview)
}

func TestGradeQuestionMissingAnswerKey(t *testing.T) {
	_, err := GradeQuestion(Question{ID: 4, Type: TypeTrueFalse, CorrectAnswer: "  ", Points: 1}, "true")
	require.ErrorIs(t, err, ErrMissingAnswerKey)
}

func TestGradeQuestionUnknownType(t *testing.T) {
	_, err := GradeQuestion(Question{ID: 5, Type: "essay", CorrectAnswer: "x", Points: 1}, "x")
	require.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestGradeAttempt(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: TypeMultipleChoice, CorrectAnswer: "A", Points: 2},
		{ID: 2, Type: TypeTrueFalse, CorrectAnswer: "true", Points: 1},
		{ID: 3, Type: TypeFillBlank, CorrectAnswer: "subnet", Points: 2},
	}
	answers := map[uint]string{
		1: "a",
		2: "false",
		3: "gateway",
	}

	result, err := GradeAttempt(questions, answers)
	require.NoError(t, err)
	require.Equal(t, 2.0, result.Score)
	require.Equal(t, 5.0, result.TotalPossible)
	require.Equal(t, 40.0, result.Percentage)
	require.Equal(t, []uint{2, 3}, result.MissedQuestionIDs)
	require.Equal(t, []uint{3}, result.ManualReviewIDs)
}

func TestGradeAttemptMissingAnswersGradeAsEmpty(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: TypeMultipleChoice, CorrectAnswer: "A", Points: 2},
	}

	result, err := GradeAttempt(questions, nil)
	require.NoError(t, err)
	require.Zero(t, result.Score)
	require.Equal(t, []uint{1}, result.MissedQuestionIDs)
}

func TestGradeAttemptEmptySet(t *testing.T) {
	result, err := GradeAttempt(nil, nil)
	require.NoError(t, err)
	require.Zero(t, result.TotalPossible)
	require.Zero(t, result.Percentage)
}
