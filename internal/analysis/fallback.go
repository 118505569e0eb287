package analysis

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Fallback scoring band. A fallback score is never allowed to reach 0 or
// 100: a 0 elsewhere in the pipeline is indistinguishable from total
// failure, and the keyword overlap alone cannot justify a perfect match.
const (
	fallbackFloor = 35.0
	fallbackCeil  = 85.0

	// fallbackDefault is returned when fallback scoring itself fails.
	fallbackDefault = 45.0

	maxMissingKeywords = 8
)

var (
	fallbackTokenRe = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	keywordTokenRe  = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)
)

// fallbackStopwords is the fixed removal set applied to job-description
// tokens before overlap counting. Changing it changes scores; treat as
// policy.
var fallbackStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "has": {},
	"him": {}, "his": {}, "how": {}, "man": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "boy": {},
	"did": {}, "its": {}, "let": {}, "put": {}, "say": {}, "she": {},
	"too": {}, "use": {},
}

// FallbackScore computes a deterministic keyword-overlap match percentage in
// [35, 85]. It is used whenever the external judge is unavailable or returns
// a degenerate judgment, and must never fail: any internal error degrades to
// a fixed default score.
func FallbackScore(resumeText, jobDescription string) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("fallback scoring panicked", slog.Any("recover", rec))
			score = fallbackDefault
		}
	}()

	jdKeywords := tokenSet(fallbackTokenRe, jobDescription)
	for w := range fallbackStopwords {
		delete(jdKeywords, w)
	}
	resumeWords := tokenSet(fallbackTokenRe, resumeText)

	matches := 0
	for w := range jdKeywords {
		if _, ok := resumeWords[w]; ok {
			matches++
		}
	}
	total := len(jdKeywords)
	if total < 1 {
		total = 1
	}

	raw := float64(matches) / float64(total) * 100
	return round2(clamp(raw, fallbackFloor, fallbackCeil))
}

// MissingKeywords returns job-description words absent from the resume,
// longest first, capped to 8 entries. It is only consulted on the
// no-judge-available path; a failure degrades to a fixed placeholder list.
func MissingKeywords(resumeText, jobDescription string) (missing []string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("missing keyword extraction panicked", slog.Any("recover", rec))
			missing = []string{"skills", "experience", "requirements"}
		}
	}()

	jdWords := tokenSet(keywordTokenRe, jobDescription)
	resumeWords := tokenSet(keywordTokenRe, resumeText)

	missing = make([]string, 0, len(jdWords))
	for w := range jdWords {
		if _, ok := resumeWords[w]; !ok {
			missing = append(missing, w)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if len(missing[i]) != len(missing[j]) {
			return len(missing[i]) > len(missing[j])
		}
		return missing[i] < missing[j]
	})
	if len(missing) > maxMissingKeywords {
		missing = missing[:maxMissingKeywords]
	}
	return missing
}

func tokenSet(re *regexp.Regexp, text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range re.FindAllString(strings.ToLower(text), -1) {
		set[w] = struct{}{}
	}
	return set
}
