package scoring

// Weights describes how subject grade components combine into a weighted
// percentage. Values are fractions summing to 1.
type Weights struct {
	Quizzes      float64
	Activities   float64
	Midterm      float64
	Final        float64
	FinalProject float64
}

// ComponentWeights returns the grade component weights for a subject code.
// Network Administration carries a final project; everything else uses the
// default split.
func ComponentWeights(subjectCode string) Weights {
	if subjectCode == "COMP012" {
		return Weights{
			Quizzes:      0.10,
			Activities:   0.25,
			Midterm:      0.15,
			Final:        0.15,
			FinalProject: 0.35,
		}
	}

	return Weights{
		Quizzes:    0.20,
		Activities: 0.40,
		Midterm:    0.20,
		Final:      0.20,
	}
}

// WeightedTotal combines component averages into a single percentage.
func (w Weights) WeightedTotal(quizAvg, activityAvg, midterm, final, finalProject float64) float64 {
	return quizAvg*w.Quizzes +
		activityAvg*w.Activities +
		midterm*w.Midterm +
		final*w.Final +
		finalProject*w.FinalProject
}

// PUPGrade converts a percentage into the PUP 1.00-5.00 grade scale.
func PUPGrade(percentage float64) float64 {
	switch {
	case percentage >= 97:
		return 1.00
	case percentage >= 94:
		return 1.25
	case percentage >= 91:
		return 1.50
	case percentage >= 88:
		return 1.75
	case percentage >= 85:
		return 2.00
	case percentage >= 82:
		return 2.25
	case percentage >= 79:
		return 2.50
	case percentage >= 76:
		return 2.75
	case percentage >= 75:
		return 3.00
	default:
		return 5.00
	}
}
