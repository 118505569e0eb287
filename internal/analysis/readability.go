package analysis

import (
	"math"
	"regexp"
	"unicode"
)

var (
	sentenceRe = regexp.MustCompile(`[.!?]+`)
	wordRe     = regexp.MustCompile(`\b\w+\b`)
)

// defaultReadability is returned for text without terminal punctuation or
// words; bullet-only resumes legitimately have no sentences.
const defaultReadability = 65.0

// EstimateReadability computes a resume-oriented readability score in
// [35, 90]. Short sentence-like fragments (bullets) score well; long prose
// sentences are penalized. Longer average word length is tolerated since
// technical vocabulary is expected in resumes.
func EstimateReadability(text string) float64 {
	sentences := len(sentenceRe.FindAllString(text, -1))
	words := len(wordRe.FindAllString(text, -1))
	if sentences == 0 || words == 0 {
		return defaultReadability
	}

	chars := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			chars++
		}
	}

	avgSentenceLen := float64(words) / float64(sentences)
	avgWordLen := float64(chars) / float64(words)

	var base float64
	switch {
	case avgSentenceLen < 5:
		base = 75
	case avgSentenceLen < 15:
		base = 70
	case avgSentenceLen < 25:
		base = 60
	default:
		base = 45
	}

	var adjust float64
	switch {
	case avgWordLen < 4.5:
		adjust = 10
	case avgWordLen < 6:
		adjust = 0
	default:
		adjust = -5
	}

	return round2(clamp(base+adjust, 35, 90))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
