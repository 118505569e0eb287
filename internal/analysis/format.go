package analysis

import (
	"regexp"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

var (
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	experienceRe = regexp.MustCompile(`(?i)\b(experience|work|employment|professional)\b`)
	skillsRe     = regexp.MustCompile(`(?i)\b(skills|competencies|technical)\b`)
)

// CheckFormat inspects the resume for the structural defects that most often
// break ATS parsing. At most one issue is returned, missing contact
// information taking priority over missing section headers.
func CheckFormat(text string) []domain.FormatIssue {
	var issues []domain.FormatIssue

	if !emailRe.MatchString(text) {
		issues = append(issues, domain.FormatIssue{
			IssueType:   "ats_critical",
			Description: "Email address not clearly identifiable by ATS",
			Suggestion:  "Ensure email address is clearly visible for ATS parsing",
		})
	}

	if !experienceRe.MatchString(text) && !skillsRe.MatchString(text) {
		issues = append(issues, domain.FormatIssue{
			IssueType:   "ats_structure",
			Description: "Missing clear section identifiers",
			Suggestion:  `Add section headers like "Experience" or "Skills" for better ATS parsing`,
		})
	}

	if len(issues) > 1 {
		issues = issues[:1]
	}
	return issues
}
