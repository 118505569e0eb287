package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/smart-ats/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/smart-ats/internal/domain"
)

func sampleResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		ID:              "a-1",
		PercentageScore: 82.75,
		JDMatch:         80,
		MissingKeywords: []string{"kubernetes"},
		ProfileSummary:  "summary",
		GrammarMistakes: []domain.GrammarIssue{},
		WordRepetitions: []domain.RepetitionIssue{
			{Word: "managed", Count: 9, Positions: []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		},
		FormatIssues:     []domain.FormatIssue{},
		ReadabilityScore: 70,
		Timestamp:        time.Now().UTC(),
		Status:           domain.AnalysisCompleted,
	}
}

func TestAnalysisRepo_Create(t *testing.T) {
	t.Parallel()

	pool := &poolStub{}
	repo := postgres.NewAnalysisRepo(pool)

	require.NoError(t, repo.Create(context.Background(), sampleResult()))
	assert.Contains(t, pool.execSQL, "INSERT INTO analyses")
	require.Len(t, pool.execArgs, 12)
	assert.Equal(t, "a-1", pool.execArgs[0])

	pool.execErr = assert.AnError
	err := repo.Create(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=analysis.create")
}

func TestAnalysisRepo_Finalize(t *testing.T) {
	t.Parallel()

	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := postgres.NewAnalysisRepo(pool)

	require.NoError(t, repo.Finalize(context.Background(), sampleResult()))
	assert.Contains(t, pool.execSQL, "status NOT IN ('completed','failed')")
}

func TestAnalysisRepo_FinalizeTerminalRowConflicts(t *testing.T) {
	t.Parallel()

	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := postgres.NewAnalysisRepo(pool)

	err := repo.Finalize(context.Background(), sampleResult())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAnalysisRepo_Get(t *testing.T) {
	t.Parallel()

	want := sampleResult()
	keywords, err := json.Marshal(want.MissingKeywords)
	require.NoError(t, err)
	repetitions, err := json.Marshal(want.WordRepetitions)
	require.NoError(t, err)

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*dest[0].(*string) = want.ID
		*dest[1].(*float64) = want.PercentageScore
		*dest[2].(*float64) = want.JDMatch
		*dest[3].(*[]byte) = keywords
		*dest[4].(*string) = want.ProfileSummary
		*dest[5].(*[]byte) = []byte("[]")
		*dest[6].(*[]byte) = repetitions
		*dest[7].(*[]byte) = []byte("[]")
		*dest[8].(*float64) = want.ReadabilityScore
		*dest[9].(*domain.AnalysisStatus) = want.Status
		*dest[10].(*time.Time) = want.Timestamp
		return nil
	}}}
	repo := postgres.NewAnalysisRepo(pool)

	got, err := repo.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.InDelta(t, want.PercentageScore, got.PercentageScore, 1e-9)
	assert.Equal(t, want.MissingKeywords, got.MissingKeywords)
	require.Len(t, got.WordRepetitions, 1)
	assert.Equal(t, "managed", got.WordRepetitions[0].Word)
	assert.Equal(t, domain.AnalysisCompleted, got.Status)
	// JSONB columns decode into empty slices, never nil.
	assert.NotNil(t, got.GrammarMistakes)
	assert.NotNil(t, got.FormatIssues)
}

func TestAnalysisRepo_GetNotFound(t *testing.T) {
	t.Parallel()

	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewAnalysisRepo(pool)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisRepo_Delete(t *testing.T) {
	t.Parallel()

	pool := &poolStub{execTag: pgconn.NewCommandTag("DELETE 1")}
	repo := postgres.NewAnalysisRepo(pool)
	require.NoError(t, repo.Delete(context.Background(), "a-1"))

	pool.execTag = pgconn.NewCommandTag("DELETE 0")
	assert.ErrorIs(t, repo.Delete(context.Background(), "a-1"), domain.ErrNotFound)
}

func TestAnalysisRepo_Summary(t *testing.T) {
	t.Parallel()

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*dest[0].(*int64) = 4
		*dest[1].(*int64) = 3
		*dest[2].(*float64) = 72.5
		return nil
	}}}
	repo := postgres.NewAnalysisRepo(pool)

	sum, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.TotalAnalyses)
	assert.Equal(t, int64(3), sum.CompletedAnalyses)
	assert.InDelta(t, 72.5, sum.AverageScore, 1e-9)
	assert.InDelta(t, 75.0, sum.SuccessRate, 1e-9)
}

func TestAnalysisRepo_SummaryEmpty(t *testing.T) {
	t.Parallel()

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*dest[0].(*int64) = 0
		*dest[1].(*int64) = 0
		*dest[2].(*float64) = 0
		return nil
	}}}
	repo := postgres.NewAnalysisRepo(pool)

	sum, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.SuccessRate)
}
