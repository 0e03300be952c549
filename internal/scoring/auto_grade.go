package scoring

import "strings"

// Question type names mirror the persisted question_type column.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeFillBlank      = "fill_blank"
	TypeShortAnswer    = "short_answer"
)

// GradeQuestion grades a single submitted answer against the question's key.
// Matching is trimmed and case-insensitive with no partial credit; free-text
// questions that miss the key are flagged for manual review instead of being
// silently final, since free-text keys are less reliable.
func GradeQuestion(q Question, submitted string) (QuestionResult, error) {
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return QuestionResult{}, ErrMissingAnswerKey
	}

	matched := answersEqual(q.CorrectAnswer, submitted)

	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse:
		if matched {
			return QuestionResult{PointsEarned: q.Points, Correct: true}, nil
		}
		return QuestionResult{}, nil
	case TypeFillBlank, TypeShortAnswer:
		if matched {
			return QuestionResult{PointsEarned: q.Points, Correct: true}, nil
		}
		return QuestionResult{NeedsManualReview: true}, nil
	default:
		return QuestionResult{}, ErrUnknownQuestion
	}
}

// GradeAttempt grades a full question set. Answers are keyed by question id;
// a missing answer grades as an empty string. MissedQuestionIDs lists every
// question that earned less than its point value, which covers both wrong
// objective answers and free-text mismatches.
func GradeAttempt(questions []Question, answers map[uint]string) (AttemptResult, error) {
	result := AttemptResult{}

	for _, q := range questions {
		result.TotalPossible += q.Points

		graded, err := GradeQuestion(q, answers[q.ID])
		if err != nil {
			return AttemptResult{}, err
		}

		result.Score += graded.PointsEarned
		if graded.PointsEarned < q.Points {
			result.MissedQuestionIDs = append(result.MissedQuestionIDs, q.ID)
		}
		if graded.NeedsManualReview {
			result.ManualReviewIDs = append(result.ManualReviewIDs, q.ID)
		}
	}

	if result.TotalPossible > 0 {
		result.Percentage = result.Score / result.TotalPossible * 100
	}

	return result, nil
}

func answersEqual(key, submitted string) bool {
	return strings.EqualFold(strings.TrimSpace(key), strings.TrimSpace(submitted))
}
