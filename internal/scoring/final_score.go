package scoring

// FinalScoreInput gathers everything needed to compute a submission's final
// score. Weights are explicit per-activity configuration, never hard-coded:
// identical inputs always yield an identical output.
type FinalScoreInput struct {
	InstructorScore     float64
	LatePenalty         float64
	PeerScore           *float64
	ParticipationScore  *float64
	PeerReviewEnabled   bool
	InstructorWeight    float64
	PeerWeight          float64
	ParticipationWeight float64
	MaxPoints           float64
}

// FinalScore combines the penalty-adjusted instructor score with the peer and
// participation components. With peer review disabled the final score is just
// the adjusted instructor score; otherwise each available component
// contributes additively under its weight. The result is clamped to
// [0, MaxPoints].
func FinalScore(in FinalScoreInput) float64 {
	adjusted := AdjustedScore(in.InstructorScore, in.LatePenalty)

	if !in.PeerReviewEnabled {
		return clamp(adjusted, in.MaxPoints)
	}

	final := adjusted * in.InstructorWeight
	if in.PeerScore != nil {
		final += *in.PeerScore * in.PeerWeight
	}
	if in.ParticipationScore != nil {
		final += *in.ParticipationScore * in.ParticipationWeight
	}

	return clamp(final, in.MaxPoints)
}

// PeerAverage turns per-reviewer awarded sums into a single peer score.
// Each sum is clipped to the rubric total, then averaged and normalized to
// the activity's point scale. Averaging (not summing) keeps the score
// independent of the reviewer count, since every reviewer scores the full
// criteria set.
func PeerAverage(reviewerSums []float64, totalCriterionPoints, activityPoints float64) float64 {
	if len(reviewerSums) == 0 || totalCriterionPoints <= 0 {
		return 0
	}

	var total float64
	for _, sum := range reviewerSums {
		if sum > totalCriterionPoints {
			sum = totalCriterionPoints
		}
		if sum < 0 {
			sum = 0
		}
		total += sum
	}

	average := total / float64(len(reviewerSums))
	if activityPoints <= 0 {
		return average
	}

	return average / totalCriterionPoints * activityPoints
}

func clamp(value, max float64) float64 {
	if value < 0 {
		return 0
	}
	if max > 0 && value > max {
		return max
	}
	return value
}
