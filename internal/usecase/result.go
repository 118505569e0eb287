package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// ResultService serves stored analyses: full records, lifecycle status,
// deletion, and the analytics rollup.
type ResultService struct {
	Repo domain.AnalysisRepository
}

// NewResultService wires a ResultService.
func NewResultService(repo domain.AnalysisRepository) ResultService {
	return ResultService{Repo: repo}
}

// Fetch loads an analysis and a strong ETag over its JSON encoding.
func (s ResultService) Fetch(ctx domain.Context, id string) (domain.AnalysisResult, string, error) {
	tracer := otel.Tracer("usecase.result")
	ctx, span := tracer.Start(ctx, "result.Fetch")
	defer span.End()

	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.AnalysisResult{}, "", fmt.Errorf("op=result.fetch: %w", err)
	}
	return res, etagFor(res), nil
}

// StatusInfo is the lightweight lifecycle view of an analysis.
type StatusInfo struct {
	ID     string                `json:"id"`
	Status domain.AnalysisStatus `json:"status"`
}

// Status returns only the lifecycle state of an analysis.
func (s ResultService) Status(ctx domain.Context, id string) (StatusInfo, error) {
	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return StatusInfo{}, fmt.Errorf("op=result.status: %w", err)
	}
	return StatusInfo{ID: res.ID, Status: res.Status}, nil
}

// Delete removes a stored analysis.
func (s ResultService) Delete(ctx domain.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("op=result.delete: %w", err)
	}
	return nil
}

// Summary returns the analytics rollup over all stored analyses.
func (s ResultService) Summary(ctx domain.Context) (domain.AnalyticsSummary, error) {
	sum, err := s.Repo.Summary(ctx)
	if err != nil {
		return domain.AnalyticsSummary{}, fmt.Errorf("op=result.summary: %w", err)
	}
	return sum, nil
}

func etagFor(res domain.AnalysisResult) string {
	b, err := json.Marshal(res)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}
