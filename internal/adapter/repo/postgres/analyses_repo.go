package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// AnalysisRepo persists and loads analysis records from PostgreSQL. Issue
// lists are stored as JSONB columns so the wire shape round-trips without a
// join table per issue kind.
type AnalysisRepo struct{ Pool PgxPool }

// NewAnalysisRepo constructs an AnalysisRepo with the given pool.
func NewAnalysisRepo(p PgxPool) *AnalysisRepo { return &AnalysisRepo{Pool: p} }

// Create inserts the accepted-but-unfinished record. The row carries the
// processing status and zero scores until Finalize overwrites it.
func (r *AnalysisRepo) Create(ctx domain.Context, a domain.AnalysisResult) error {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.Create")
	defer span.End()

	cols, err := marshalIssueColumns(a)
	if err != nil {
		return fmt.Errorf("op=analysis.create: %w", err)
	}
	q := `INSERT INTO analyses (id, percentage_score, jd_match, missing_keywords, profile_summary,
		grammar_mistakes, word_repetitions, format_issues, readability_score, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	now := time.Now().UTC()
	_, err = r.Pool.Exec(ctx, q, a.ID, a.PercentageScore, a.JDMatch, cols.keywords, a.ProfileSummary,
		cols.grammar, cols.repetitions, cols.format, a.ReadabilityScore, a.Status, now, now)
	if err != nil {
		return fmt.Errorf("op=analysis.create: %w", err)
	}
	return nil
}

// Finalize writes the terminal record. Rows already completed or failed are
// left untouched so a terminal status can never be overwritten.
func (r *AnalysisRepo) Finalize(ctx domain.Context, a domain.AnalysisResult) error {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.Finalize")
	defer span.End()

	cols, err := marshalIssueColumns(a)
	if err != nil {
		return fmt.Errorf("op=analysis.finalize: %w", err)
	}
	q := `UPDATE analyses SET percentage_score=$2, jd_match=$3, missing_keywords=$4, profile_summary=$5,
		grammar_mistakes=$6, word_repetitions=$7, format_issues=$8, readability_score=$9, status=$10, updated_at=$11
		WHERE id=$1 AND status NOT IN ('completed','failed')`
	tag, err := r.Pool.Exec(ctx, q, a.ID, a.PercentageScore, a.JDMatch, cols.keywords, a.ProfileSummary,
		cols.grammar, cols.repetitions, cols.format, a.ReadabilityScore, a.Status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=analysis.finalize: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=analysis.finalize: %w", domain.ErrConflict)
	}
	return nil
}

// Get loads an analysis by id.
func (r *AnalysisRepo) Get(ctx domain.Context, id string) (domain.AnalysisResult, error) {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.Get")
	defer span.End()

	q := `SELECT id, percentage_score, jd_match, missing_keywords, COALESCE(profile_summary,''),
		grammar_mistakes, word_repetitions, format_issues, readability_score, status, updated_at
		FROM analyses WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)

	var (
		a                                        domain.AnalysisResult
		keywords, grammar, repetitions, formatJS []byte
	)
	if err := row.Scan(&a.ID, &a.PercentageScore, &a.JDMatch, &keywords, &a.ProfileSummary,
		&grammar, &repetitions, &formatJS, &a.ReadabilityScore, &a.Status, &a.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AnalysisResult{}, fmt.Errorf("op=analysis.get: %w", domain.ErrNotFound)
		}
		return domain.AnalysisResult{}, fmt.Errorf("op=analysis.get: %w", err)
	}
	if err := unmarshalIssueColumns(&a, keywords, grammar, repetitions, formatJS); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("op=analysis.get: %w", err)
	}
	return a, nil
}

// Delete removes an analysis by id.
func (r *AnalysisRepo) Delete(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.Delete")
	defer span.End()

	tag, err := r.Pool.Exec(ctx, `DELETE FROM analyses WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=analysis.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=analysis.delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Summary aggregates stored analyses for the analytics endpoint. Averages
// only cover completed analyses.
func (r *AnalysisRepo) Summary(ctx domain.Context) (domain.AnalyticsSummary, error) {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.Summary")
	defer span.End()

	q := `SELECT count(*),
		count(*) FILTER (WHERE status='completed'),
		COALESCE(avg(percentage_score) FILTER (WHERE status='completed'), 0)
		FROM analyses`
	row := r.Pool.QueryRow(ctx, q)

	var s domain.AnalyticsSummary
	if err := row.Scan(&s.TotalAnalyses, &s.CompletedAnalyses, &s.AverageScore); err != nil {
		return domain.AnalyticsSummary{}, fmt.Errorf("op=analysis.summary: %w", err)
	}
	if s.TotalAnalyses > 0 {
		s.SuccessRate = float64(s.CompletedAnalyses) / float64(s.TotalAnalyses) * 100
	}
	return s, nil
}

type issueColumns struct {
	keywords    []byte
	grammar     []byte
	repetitions []byte
	format      []byte
}

func marshalIssueColumns(a domain.AnalysisResult) (issueColumns, error) {
	var (
		cols issueColumns
		err  error
	)
	if cols.keywords, err = json.Marshal(emptyIfNil(a.MissingKeywords)); err != nil {
		return cols, err
	}
	if cols.grammar, err = json.Marshal(a.GrammarMistakes); err != nil {
		return cols, err
	}
	if cols.repetitions, err = json.Marshal(a.WordRepetitions); err != nil {
		return cols, err
	}
	if cols.format, err = json.Marshal(a.FormatIssues); err != nil {
		return cols, err
	}
	return cols, nil
}

func unmarshalIssueColumns(a *domain.AnalysisResult, keywords, grammar, repetitions, format []byte) error {
	a.MissingKeywords = []string{}
	a.GrammarMistakes = []domain.GrammarIssue{}
	a.WordRepetitions = []domain.RepetitionIssue{}
	a.FormatIssues = []domain.FormatIssue{}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &a.MissingKeywords); err != nil {
			return err
		}
	}
	if len(grammar) > 0 {
		if err := json.Unmarshal(grammar, &a.GrammarMistakes); err != nil {
			return err
		}
	}
	if len(repetitions) > 0 {
		if err := json.Unmarshal(repetitions, &a.WordRepetitions); err != nil {
			return err
		}
	}
	if len(format) > 0 {
		if err := json.Unmarshal(format, &a.FormatIssues); err != nil {
			return err
		}
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
