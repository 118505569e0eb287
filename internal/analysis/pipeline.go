package analysis

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// Judge produces an AIJudgment for a resume/job-description pair, typically
// by calling an external generative judge. An error means the judgment is
// unusable and the caller must fall back to deterministic scoring.
type Judge interface {
	Evaluate(ctx domain.Context, resumeText, jobDescription string) (domain.AIJudgment, error)
}

// Pipeline runs one comprehensive analysis: AI judgment (with deterministic
// fallback), the heuristic analyzers, and the score aggregation.
type Pipeline struct {
	judge Judge
}

// NewPipeline constructs a Pipeline around the given judge.
func NewPipeline(judge Judge) Pipeline {
	return Pipeline{judge: judge}
}

// Run executes the full analysis and returns a finalized result, either
// completed or failed. Judge errors are recovered via the fallback matcher
// and never fail the analysis; only an unanticipated panic anywhere in the
// pipeline produces a failed result.
func (p Pipeline) Run(ctx domain.Context, id, resumeText, jobDescription string) (res domain.AnalysisResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("analysis pipeline panicked", slog.String("analysis_id", id), slog.Any("recover", rec))
			res = FailedResult(id, fmt.Sprintf("Analysis failed: %v", rec))
		}
	}()

	judgment := p.judgment(ctx, resumeText, jobDescription)

	// The analyzers are pure readers of the resume text and run concurrently.
	var (
		wg          sync.WaitGroup
		grammar     []domain.GrammarIssue
		repetitions []domain.RepetitionIssue
		format      []domain.FormatIssue
		readability float64
	)
	wg.Add(4)
	go guarded(&wg, "grammar", func() { grammar = CheckGrammar(resumeText) })
	go guarded(&wg, "repetition", func() { repetitions = DetectRepetitions(resumeText) })
	go guarded(&wg, "format", func() { format = CheckFormat(resumeText) })
	go guarded(&wg, "readability", func() {
		readability = defaultReadability
		readability = EstimateReadability(resumeText)
	})
	wg.Wait()

	overall := OverallScore(judgment.JDMatch, len(grammar), len(repetitions), len(format), readability)

	return domain.AnalysisResult{
		ID:               id,
		PercentageScore:  overall,
		JDMatch:          judgment.JDMatch,
		MissingKeywords:  judgment.MissingKeywords,
		ProfileSummary:   judgment.ProfileSummary,
		GrammarMistakes:  grammar,
		WordRepetitions:  repetitions,
		FormatIssues:     format,
		ReadabilityScore: readability,
		Timestamp:        time.Now().UTC(),
		Status:           domain.AnalysisCompleted,
	}
}

// judgment obtains the AI judgment, unconditionally falling through to the
// deterministic fallback on any judge error.
func (p Pipeline) judgment(ctx domain.Context, resumeText, jobDescription string) domain.AIJudgment {
	if p.judge != nil {
		j, err := p.judge.Evaluate(ctx, resumeText, jobDescription)
		if err == nil {
			return j
		}
		slog.Warn("judge unusable, using fallback scoring", slog.Any("error", err))
	}
	return domain.AIJudgment{
		JDMatch:         FallbackScore(resumeText, jobDescription),
		MissingKeywords: MissingKeywords(resumeText, jobDescription),
		ProfileSummary:  "Analysis completed with fallback method due to AI service issue",
	}
}

// FailedResult builds the terminal failed record carrying the error text in
// the summary field. All scores are zero by contract.
func FailedResult(id, summary string) domain.AnalysisResult {
	return domain.AnalysisResult{
		ID:              id,
		MissingKeywords: []string{},
		ProfileSummary:  summary,
		GrammarMistakes: []domain.GrammarIssue{},
		WordRepetitions: []domain.RepetitionIssue{},
		FormatIssues:    []domain.FormatIssue{},
		Timestamp:       time.Now().UTC(),
		Status:          domain.AnalysisFailed,
	}
}

// guarded runs an analyzer, downgrading a panic to an empty finding so that
// no heuristic can abort the whole analysis.
func guarded(wg *sync.WaitGroup, name string, fn func()) {
	defer wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("analyzer panicked", slog.String("analyzer", name), slog.Any("recover", rec))
		}
	}()
	fn()
}
