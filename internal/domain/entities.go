// Package domain holds the core entities and ports of the resume analyzer.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrJudgmentParse    = errors.New("judgment parse failed")
	ErrJudgeUnavailable = errors.New("judge unavailable")
	ErrExtractionFailed = errors.New("text extraction failed")
	ErrInternal         = errors.New("internal error")
)

// FileType enumerates supported resume document formats.
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
)

// AnalysisStatus is the lifecycle state of one analysis request.
// Transitions: pending -> processing -> completed | failed. Completed and
// failed are terminal; a finalized record is never mutated again.
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// GrammarIssue is a detected ATS-critical formatting defect in the resume text.
type GrammarIssue struct {
	Text       string `json:"text"`
	LineNumber int    `json:"line_number"`
	Suggestion string `json:"suggestion"`
	Severity   string `json:"severity"` // low, medium, high
}

// RepetitionIssue flags a word overused across the resume.
// Invariant: Count == len(Positions); positions are 0-based indices into the
// filtered token stream, not character offsets.
type RepetitionIssue struct {
	Word      string `json:"word"`
	Count     int    `json:"count"`
	Positions []int  `json:"positions"`
}

// FormatIssue is a structural defect affecting ATS parseability.
type FormatIssue struct {
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// AIJudgment is the sanitized output of the external judge for one
// resume/job-description pair. It is transient: consumed by the pipeline and
// never persisted as-is. Field caps: MissingKeywords <= 10, ProfileSummary
// <= 1000 chars, Strengths/Weaknesses/Recommendations <= 5 each.
type AIJudgment struct {
	JDMatch         float64
	MissingKeywords []string
	ProfileSummary  string
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
}

// AnalysisResult is the finalized record for one analysis request.
// It is created once when the request is accepted (status=processing,
// zero scores) and mutated exactly once more when the pipeline finishes.
type AnalysisResult struct {
	ID               string            `json:"id"`
	PercentageScore  float64           `json:"percentage_score"`
	JDMatch          float64           `json:"jd_match"`
	MissingKeywords  []string          `json:"missing_keywords"`
	ProfileSummary   string            `json:"profile_summary"`
	GrammarMistakes  []GrammarIssue    `json:"grammar_mistakes"`
	WordRepetitions  []RepetitionIssue `json:"word_repetitions"`
	FormatIssues     []FormatIssue     `json:"format_issues"`
	ReadabilityScore float64           `json:"readability_score"`
	Timestamp        time.Time         `json:"timestamp"`
	Status           AnalysisStatus    `json:"status"`
}

// AnalyzeTaskPayload is the queue message carrying one analysis request from
// the API server to the worker.
type AnalyzeTaskPayload struct {
	AnalysisID     string `json:"analysis_id"`
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	CacheKey       string `json:"cache_key"`
}

// Repositories (ports)

// AnalysisRepository is the result-lookup store keyed by analysis id.
type AnalysisRepository interface {
	Create(ctx Context, r AnalysisResult) error
	Finalize(ctx Context, r AnalysisResult) error
	Get(ctx Context, id string) (AnalysisResult, error)
	Delete(ctx Context, id string) error
	Summary(ctx Context) (AnalyticsSummary, error)
}

// AnalyticsSummary aggregates stored analyses for reporting.
type AnalyticsSummary struct {
	TotalAnalyses     int64   `json:"total_analyses"`
	CompletedAnalyses int64   `json:"completed_analyses"`
	AverageScore      float64 `json:"average_score"`
	SuccessRate       float64 `json:"success_rate"`
}

// ResultCache is the content-addressed cache keyed by a hash of the resume
// text and job description. Concurrent writers for the same key race
// harmlessly: values for a given key are equivalent, last writer wins.
type ResultCache interface {
	Get(ctx Context, key string) (AnalysisResult, bool, error)
	Set(ctx Context, key string, r AnalysisResult) error
}

// Queue (port)

type Queue interface {
	EnqueueAnalyze(ctx Context, payload AnalyzeTaskPayload) (string, error)
}

// JudgeClient (port) invokes the external generative-text judge. The prompt
// instructs the judge to emit only JSON; the raw text is returned verbatim
// for defensive parsing by the adapter.
type JudgeClient interface {
	GenerateJSON(ctx Context, prompt string) (string, error)
}

// TextExtractor (port) extracts plain text from an uploaded document given
// its raw bytes and a format tag (pdf|docx).
type TextExtractor interface {
	Extract(ctx Context, data []byte, fileType string) (string, error)
}

// Context aliases context.Context so domain signatures stay decoupled from
// net/http plumbing; adapters pass request contexts straight through.
type Context = context.Context
