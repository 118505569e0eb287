// Package usecase orchestrates the application services between the HTTP
// adapters and the ports.
package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/smart-ats/internal/adapter/cache"
	"github.com/fairyhunter13/smart-ats/internal/adapter/observability"
	"github.com/fairyhunter13/smart-ats/internal/domain"
	"github.com/fairyhunter13/smart-ats/pkg/textx"
)

// Minimum input lengths accepted for analysis.
const (
	minResumeChars = 50
	minJDChars     = 20
)

// AnalyzeService accepts analysis requests: it extracts text when needed,
// consults the result cache, records the processing row, and enqueues the
// pipeline task.
type AnalyzeService struct {
	Repo      domain.AnalysisRepository
	Cache     domain.ResultCache
	Queue     domain.Queue
	Extractor domain.TextExtractor
}

// NewAnalyzeService wires an AnalyzeService.
func NewAnalyzeService(repo domain.AnalysisRepository, c domain.ResultCache, q domain.Queue, ex domain.TextExtractor) AnalyzeService {
	return AnalyzeService{Repo: repo, Cache: c, Queue: q, Extractor: ex}
}

// AcceptedAnalysis is the outcome of accepting a request: either a fresh id
// with status processing, or a finished result served from cache.
type AcceptedAnalysis struct {
	Result    domain.AnalysisResult
	FromCache bool
}

// AnalyzeDocument extracts text from an uploaded resume document and runs
// the acceptance flow.
func (s AnalyzeService) AnalyzeDocument(ctx domain.Context, data []byte, fileType, jobDescription string) (AcceptedAnalysis, error) {
	tracer := otel.Tracer("usecase.analyze")
	ctx, span := tracer.Start(ctx, "analyze.Document")
	defer span.End()

	resumeText, err := s.Extractor.Extract(ctx, data, fileType)
	if err != nil {
		return AcceptedAnalysis{}, fmt.Errorf("op=analyze.extract: %w", err)
	}
	return s.AnalyzeText(ctx, resumeText, jobDescription)
}

// AnalyzeText validates the pair, serves cache hits, and otherwise creates a
// processing record and enqueues the analysis task.
func (s AnalyzeService) AnalyzeText(ctx domain.Context, resumeText, jobDescription string) (AcceptedAnalysis, error) {
	tracer := otel.Tracer("usecase.analyze")
	ctx, span := tracer.Start(ctx, "analyze.Text")
	defer span.End()

	resumeText = textx.CollapseWhitespace(textx.SanitizeText(resumeText))
	jobDescription = textx.SanitizeText(jobDescription)

	if len(resumeText) < minResumeChars {
		return AcceptedAnalysis{}, fmt.Errorf("op=analyze.validate: resume text too short: %w", domain.ErrInvalidArgument)
	}
	if len(jobDescription) < minJDChars {
		return AcceptedAnalysis{}, fmt.Errorf("op=analyze.validate: job description too short: %w", domain.ErrInvalidArgument)
	}

	key := cache.Key(resumeText, jobDescription)
	if s.Cache != nil {
		if cached, ok, err := s.Cache.Get(ctx, key); err == nil && ok {
			observability.CacheHitsTotal.Inc()
			slog.Info("analysis served from cache", slog.String("analysis_id", cached.ID))
			return AcceptedAnalysis{Result: cached, FromCache: true}, nil
		} else if err != nil {
			slog.Warn("cache lookup failed", slog.Any("error", err))
		}
	}

	id := uuid.New().String()
	rec := domain.AnalysisResult{
		ID:              id,
		MissingKeywords: []string{},
		GrammarMistakes: []domain.GrammarIssue{},
		WordRepetitions: []domain.RepetitionIssue{},
		FormatIssues:    []domain.FormatIssue{},
		Timestamp:       time.Now().UTC(),
		Status:          domain.AnalysisProcessing,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return AcceptedAnalysis{}, fmt.Errorf("op=analyze.create: %w", err)
	}

	payload := domain.AnalyzeTaskPayload{
		AnalysisID:     id,
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		CacheKey:       key,
	}
	if _, err := s.Queue.EnqueueAnalyze(ctx, payload); err != nil {
		return AcceptedAnalysis{}, fmt.Errorf("op=analyze.enqueue: %w", err)
	}

	slog.Info("analysis accepted",
		slog.String("analysis_id", id),
		slog.Int("resume_chars", len(resumeText)))
	return AcceptedAnalysis{Result: rec}, nil
}

// AllowedFileType maps a filename extension to a supported format tag.
func AllowedFileType(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return domain.FileTypePDF, true
	case strings.HasSuffix(lower, ".docx"):
		return domain.FileTypeDOCX, true
	default:
		return "", false
	}
}
