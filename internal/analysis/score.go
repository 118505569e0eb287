package analysis

import "math"

// Aggregation weights. Job fit dominates by policy: superficial mechanics
// (grammar, repetition) must not drown out substantive alignment.
const (
	weightJDMatch     = 0.70
	weightGrammar     = 0.05
	weightRepetition  = 0.05
	weightFormat      = 0.15
	weightReadability = 0.05
)

// Per-issue penalties for the deterministic component scores.
const (
	grammarPenalty    = 3
	repetitionPenalty = 5
	formatPenalty     = 8
)

// WeightSum returns the sum of the five aggregation weights. It must equal
// 1.00 exactly; OverallScore refuses to run otherwise.
func WeightSum() float64 {
	return weightJDMatch + weightGrammar + weightRepetition + weightFormat + weightReadability
}

// OverallScore combines the judge (or fallback) match percentage, the
// heuristic issue counts, and the readability score into one weighted
// percentage in [0, 100], rounded to 2 decimals. Negative counts are
// treated as zero.
func OverallScore(jdMatch float64, grammarIssues, repetitionIssues, formatIssues int, readability float64) float64 {
	if math.Abs(WeightSum()-1.0) > 1e-9 {
		panic("analysis: aggregation weights must sum to 1.00")
	}

	grammarScore := penalized(grammarIssues, grammarPenalty)
	repetitionScore := penalized(repetitionIssues, repetitionPenalty)
	formatScore := penalized(formatIssues, formatPenalty)

	overall := jdMatch*weightJDMatch +
		grammarScore*weightGrammar +
		repetitionScore*weightRepetition +
		formatScore*weightFormat +
		readability*weightReadability

	return round2(clamp(overall, 0, 100))
}

func penalized(issues, penalty int) float64 {
	if issues < 0 {
		issues = 0
	}
	return math.Max(0, float64(100-issues*penalty))
}
