package analysis

import (
	"strings"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// maxGrammarIssues caps grammar findings; only ATS-critical formatting is
// checked, not linguistic grammar.
const maxGrammarIssues = 2

// minBulletLines is the minimum number of bullet lines before inconsistent
// styles are worth reporting at all.
const minBulletLines = 6

// CheckGrammar scans the resume for ATS-critical formatting defects. The
// sole retained check is bullet-style consistency: when more than two
// distinct bullet styles appear across at least six bullet lines, one
// low-severity issue is emitted.
func CheckGrammar(text string) []domain.GrammarIssue {
	styles := make(map[string]struct{})
	bulletLines := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !isBulletLine(trimmed) {
			continue
		}
		bulletLines++
		// Style is the first 3 characters, not bytes: "•" alone is 3 bytes.
		r := []rune(trimmed)
		if len(r) > 3 {
			r = r[:3]
		}
		styles[string(r)] = struct{}{}
	}

	var issues []domain.GrammarIssue
	if len(styles) > 2 && bulletLines >= minBulletLines {
		issues = append(issues, domain.GrammarIssue{
			Text:       "Multiple bullet point formats detected",
			LineNumber: 1,
			Suggestion: "Use consistent bullet point formatting for better ATS parsing",
			Severity:   "low",
		})
	}
	if len(issues) > maxGrammarIssues {
		issues = issues[:maxGrammarIssues]
	}
	return issues
}

func isBulletLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "-") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "•")
}
