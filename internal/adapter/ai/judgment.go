package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/smart-ats/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/smart-ats/internal/adapter/observability"
	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// Sanitization caps applied to every judgment regardless of what the judge
// emitted, bounding the stored output size.
const (
	maxJudgmentKeywords = 10
	maxSummaryRunes     = 1000
	maxListEntries      = 5
)

// FallbackScorer computes a deterministic match percentage; it rescues
// degenerate (zero) judge scores.
type FallbackScorer func(resumeText, jobDescription string) float64

// JudgmentAdapter turns one judge invocation into a sanitized AIJudgment.
// It performs exactly one outbound call per Evaluate; retry policy belongs
// to the caller.
type JudgmentAdapter struct {
	client      domain.JudgeClient
	fallback    FallbackScorer
	cleaner     *ResponseCleaner
	counter     *tokencount.Counter
	tokenBudget int
	timeout     time.Duration
}

// NewJudgmentAdapter constructs a JudgmentAdapter. fallback rescues
// judgments whose coerced match score is exactly zero.
func NewJudgmentAdapter(client domain.JudgeClient, fallback FallbackScorer, tokenBudget int, timeout time.Duration) *JudgmentAdapter {
	return &JudgmentAdapter{
		client:      client,
		fallback:    fallback,
		cleaner:     NewResponseCleaner(),
		counter:     tokencount.NewCounter(),
		tokenBudget: tokenBudget,
		timeout:     timeout,
	}
}

// Evaluate calls the external judge and defensively parses its response.
// Errors mean the judgment is unusable (judge unreachable, or output not
// parseable as JSON); the caller must fall back to deterministic scoring.
func (a *JudgmentAdapter) Evaluate(ctx domain.Context, resumeText, jobDescription string) (domain.AIJudgment, error) {
	tracer := otel.Tracer("adapter.ai")
	ctx, span := tracer.Start(ctx, "judge.Evaluate")
	defer span.End()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := BuildJudgePrompt(a.counter, resumeText, jobDescription, a.tokenBudget)

	start := time.Now()
	raw, err := a.client.GenerateJSON(ctx, prompt)
	observability.ObserveJudgeRequest(err == nil, time.Since(start))
	if err != nil {
		return domain.AIJudgment{}, fmt.Errorf("%w: %v", domain.ErrJudgeUnavailable, err)
	}
	if raw == "" {
		return domain.AIJudgment{}, fmt.Errorf("%w: empty judge response", domain.ErrJudgeUnavailable)
	}

	j, err := a.parse(raw)
	if err != nil {
		return domain.AIJudgment{}, err
	}

	// A coerced score of exactly 0 is treated as a degenerate judgment and
	// rescored via the fallback matcher; the judge's text fields are kept.
	if j.JDMatch == 0 && a.fallback != nil {
		slog.Warn("judge returned 0% match, applying fallback scoring")
		observability.JudgeFallbacks.Inc()
		j.JDMatch = a.fallback(resumeText, jobDescription)
	}
	return j, nil
}

// parse cleans the raw response, decodes it, and coerces each field through
// the explicit coercion rules.
func (a *JudgmentAdapter) parse(raw string) (domain.AIJudgment, error) {
	cleaned, err := a.cleaner.CleanAndValidate(raw)
	if err != nil {
		return domain.AIJudgment{}, fmt.Errorf("%w: %v", domain.ErrJudgmentParse, err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return domain.AIJudgment{}, fmt.Errorf("%w: %v", domain.ErrJudgmentParse, err)
	}

	return domain.AIJudgment{
		JDMatch:         clampScore(coerceMatchValue(fields["jd_match"])),
		MissingKeywords: coerceStringList(fields["missing_keywords"], maxJudgmentKeywords),
		ProfileSummary:  truncateRunes(coerceString(fields["profile_summary"]), maxSummaryRunes),
		Strengths:       coerceStringList(fields["strengths"], maxListEntries),
		Weaknesses:      coerceStringList(fields["weaknesses"], maxListEntries),
		Recommendations: coerceStringList(fields["recommendations"], maxListEntries),
	}, nil
}

// coerceMatchValue applies the match-score coercion rules: numbers pass
// through, numeric strings are parsed, a non-empty list contributes its
// first element, and anything else collapses to 0.
func coerceMatchValue(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	case []any:
		if len(t) == 0 {
			return 0
		}
		return coerceMatchValue(t[0])
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// coerceStringList keeps at most max string entries, skipping anything the
// judge snuck in that is not a string.
func coerceStringList(v any, max int) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, max)
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
			if len(out) == max {
				break
			}
		}
	}
	return out
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
