package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

type stubJudge struct {
	judgment domain.AIJudgment
	err      error
	panics   bool
}

func (s stubJudge) Evaluate(_ domain.Context, _, _ string) (domain.AIJudgment, error) {
	if s.panics {
		panic("judge exploded")
	}
	return s.judgment, s.err
}

func TestPipelineRun_WithJudge(t *testing.T) {
	t.Parallel()

	judge := stubJudge{judgment: domain.AIJudgment{
		JDMatch:         80,
		MissingKeywords: []string{"kubernetes"},
		ProfileSummary:  "Solid backend engineer",
	}}
	p := NewPipeline(judge)

	resume := "jane@example.com\nExperience\nSkills\n" + strings.Repeat("delivered ", 9)
	res := p.Run(context.Background(), "a-1", resume, "golang kubernetes")

	assert.Equal(t, "a-1", res.ID)
	assert.Equal(t, domain.AnalysisCompleted, res.Status)
	assert.InDelta(t, 80.0, res.JDMatch, 1e-9)
	assert.Equal(t, []string{"kubernetes"}, res.MissingKeywords)
	assert.Equal(t, "Solid backend engineer", res.ProfileSummary)

	require.Len(t, res.WordRepetitions, 1)
	assert.Equal(t, "delivered", res.WordRepetitions[0].Word)
	assert.Equal(t, 9, res.WordRepetitions[0].Count)

	assert.Greater(t, res.PercentageScore, 0.0)
	assert.LessOrEqual(t, res.PercentageScore, 100.0)
	assert.False(t, res.Timestamp.IsZero())
}

func TestPipelineRun_JudgeErrorFallsBack(t *testing.T) {
	t.Parallel()

	p := NewPipeline(stubJudge{err: errors.New("upstream down")})
	res := p.Run(context.Background(), "a-2",
		"jane@example.com Experience golang docker services",
		"golang docker kubernetes")

	assert.Equal(t, domain.AnalysisCompleted, res.Status)
	assert.Equal(t, "Analysis completed with fallback method due to AI service issue", res.ProfileSummary)
	assert.GreaterOrEqual(t, res.JDMatch, 35.0)
	assert.LessOrEqual(t, res.JDMatch, 85.0)
	assert.Contains(t, res.MissingKeywords, "kubernetes")
}

func TestPipelineRun_NilJudgeFallsBack(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil)
	res := p.Run(context.Background(), "a-3", "golang developer resume text", "golang")

	assert.Equal(t, domain.AnalysisCompleted, res.Status)
	assert.GreaterOrEqual(t, res.JDMatch, 35.0)
}

func TestPipelineRun_PanicProducesFailedResult(t *testing.T) {
	t.Parallel()

	p := NewPipeline(stubJudge{panics: true})
	res := p.Run(context.Background(), "a-4", "resume", "jd")

	assert.Equal(t, domain.AnalysisFailed, res.Status)
	assert.Contains(t, res.ProfileSummary, "Analysis failed:")
	assert.Zero(t, res.PercentageScore)
	assert.Zero(t, res.JDMatch)
	assert.Empty(t, res.MissingKeywords)
	assert.NotNil(t, res.MissingKeywords)
}

func TestFailedResult(t *testing.T) {
	t.Parallel()

	res := FailedResult("a-5", "Analysis failed: boom")
	assert.Equal(t, domain.AnalysisFailed, res.Status)
	assert.Equal(t, "Analysis failed: boom", res.ProfileSummary)
	assert.Zero(t, res.PercentageScore)
	assert.NotNil(t, res.GrammarMistakes)
	assert.NotNil(t, res.WordRepetitions)
	assert.NotNil(t, res.FormatIssues)
}
