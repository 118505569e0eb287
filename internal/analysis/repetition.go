// Package analysis implements the deterministic scoring pipeline: heuristic
// analyzers over raw resume text, the keyword fallback matcher, and the
// weighted score aggregator.
package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// repetitionTokenRe matches the alphabetic runs considered for repetition
// analysis. Short words are ignored entirely.
var repetitionTokenRe = regexp.MustCompile(`\b[a-zA-Z]{6,}\b`)

// repetitionThreshold is deliberately lenient: resumes legitimately repeat
// role-specific vocabulary, so only extreme overuse (strictly more than 8
// occurrences) is flagged.
const repetitionThreshold = 8

// maxRepetitionIssues caps the report to the worst offenders.
const maxRepetitionIssues = 2

// DetectRepetitions flags words overused across the resume text. Positions
// are 0-based indices into the filtered token stream so that
// Count == len(Positions) always holds.
func DetectRepetitions(text string) []domain.RepetitionIssue {
	tokens := repetitionTokenRe.FindAllString(strings.ToLower(text), -1)

	positions := make(map[string][]int)
	for i, w := range tokens {
		positions[w] = append(positions[w], i)
	}

	issues := make([]domain.RepetitionIssue, 0, 4)
	for w, pos := range positions {
		if len(pos) > repetitionThreshold {
			issues = append(issues, domain.RepetitionIssue{Word: w, Count: len(pos), Positions: pos})
		}
	}

	// Worst offenders first; tie-break on word for deterministic output.
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Count != issues[j].Count {
			return issues[i].Count > issues[j].Count
		}
		return issues[i].Word < issues[j].Word
	})
	if len(issues) > maxRepetitionIssues {
		issues = issues[:maxRepetitionIssues]
	}
	return issues
}
