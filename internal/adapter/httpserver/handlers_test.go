package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/smart-ats/internal/config"
	"github.com/fairyhunter13/smart-ats/internal/domain"
	"github.com/fairyhunter13/smart-ats/internal/usecase"
)

type memRepo struct {
	records map[string]domain.AnalysisResult
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]domain.AnalysisResult{}}
}

func (m *memRepo) Create(_ domain.Context, r domain.AnalysisResult) error {
	m.records[r.ID] = r
	return nil
}

func (m *memRepo) Finalize(_ domain.Context, r domain.AnalysisResult) error {
	m.records[r.ID] = r
	return nil
}

func (m *memRepo) Get(_ domain.Context, id string) (domain.AnalysisResult, error) {
	r, ok := m.records[id]
	if !ok {
		return domain.AnalysisResult{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRepo) Delete(_ domain.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo) Summary(_ domain.Context) (domain.AnalyticsSummary, error) {
	return domain.AnalyticsSummary{TotalAnalyses: int64(len(m.records))}, nil
}

type memQueue struct{ payloads []domain.AnalyzeTaskPayload }

func (m *memQueue) EnqueueAnalyze(_ domain.Context, p domain.AnalyzeTaskPayload) (string, error) {
	m.payloads = append(m.payloads, p)
	return p.AnalysisID, nil
}

type nopCache struct{}

func (nopCache) Get(_ domain.Context, _ string) (domain.AnalysisResult, bool, error) {
	return domain.AnalysisResult{}, false, nil
}
func (nopCache) Set(_ domain.Context, _ string, _ domain.AnalysisResult) error { return nil }

type textExtractorStub struct {
	text string
	err  error
}

func (s textExtractorStub) Extract(_ domain.Context, _ []byte, _ string) (string, error) {
	return s.text, s.err
}

const (
	testResume = "Senior Go engineer with experience in distributed systems and cloud services."
	testJD     = "Looking for a Go engineer with Kubernetes experience."
)

func newTestServer(repo *memRepo, q *memQueue, ex domain.TextExtractor) (*Server, http.Handler) {
	cfg := config.Config{MaxUploadMB: 10}
	srv := NewServer(cfg,
		usecase.NewAnalyzeService(repo, nopCache{}, q, ex),
		usecase.NewResultService(repo),
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
	)
	r := chi.NewRouter()
	r.Post("/v1/analyze", srv.AnalyzeResumeHandler())
	r.Post("/v1/analyze-text", srv.AnalyzeTextHandler())
	r.Get("/v1/analysis/{id}", srv.ResultHandler())
	r.Get("/v1/analysis/{id}/status", srv.StatusHandler())
	r.Delete("/v1/analysis/{id}", srv.DeleteHandler())
	r.Get("/v1/analytics/summary", srv.AnalyticsSummaryHandler())
	r.Get("/v1/supported-formats", srv.SupportedFormatsHandler())
	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	return srv, r
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAnalyzeTextHandler_Accepts(t *testing.T) {
	t.Parallel()

	q := &memQueue{}
	_, h := newTestServer(newMemRepo(), q, nil)

	rr := postJSON(t, h, "/v1/analyze-text", map[string]string{
		"resume_text":     testResume,
		"job_description": testJD,
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "processing", resp["status"])
	assert.Len(t, q.payloads, 1)
}

func TestAnalyzeTextHandler_ValidationFailure(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)

	rr := postJSON(t, h, "/v1/analyze-text", map[string]string{
		"resume_text":     "too short",
		"job_description": testJD,
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_ARGUMENT")
}

func TestAnalyzeTextHandler_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-text", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyzeTextHandler_RejectsNonJSONAccept(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-text", strings.NewReader("{}"))
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotAcceptable, rr.Code)
}

func multipartBody(t *testing.T, filename string, fileBytes []byte, jd string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume_file", filename)
	require.NoError(t, err)
	_, err = fw.Write(fileBytes)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("job_description", jd))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeResumeHandler_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, textExtractorStub{text: testResume})

	body, contentType := multipartBody(t, "resume.txt", []byte("plain text"), testJD)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestAnalyzeResumeHandler_ContentSniffRejectsMismatch(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, textExtractorStub{text: testResume})

	// Plain-text payload wearing a .pdf name.
	body, contentType := multipartBody(t, "resume.pdf", []byte("just some text"), testJD)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestAnalyzeResumeHandler_MissingJobDescription(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, textExtractorStub{text: testResume})

	body, contentType := multipartBody(t, "resume.pdf", []byte("%PDF-1.4 minimal"), "")
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyzeResumeHandler_PayloadTooLarge(t *testing.T) {
	t.Parallel()

	srv := NewServer(config.Config{MaxUploadMB: 1},
		usecase.NewAnalyzeService(newMemRepo(), nopCache{}, &memQueue{}, textExtractorStub{text: testResume}),
		usecase.NewResultService(newMemRepo()),
		nil, nil, nil,
	)
	r := chi.NewRouter()
	r.Post("/v1/analyze", srv.AnalyzeResumeHandler())

	big := bytes.Repeat([]byte("a"), 2<<20)
	body, contentType := multipartBody(t, "resume.pdf", big, testJD)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, rr.Body.String(), "payload too large")
}

func TestAnalyzeResumeHandler_RequiresMultipart(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResultHandler(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), domain.AnalysisResult{
		ID:              "a-1",
		PercentageScore: 82.75,
		MissingKeywords: []string{"kubernetes"},
		Status:          domain.AnalysisCompleted,
		Timestamp:       time.Now().UTC(),
	}))
	_, h := newTestServer(repo, &memQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/analysis/a-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var res domain.AnalysisResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "a-1", res.ID)
	assert.InDelta(t, 82.75, res.PercentageScore, 1e-9)

	// Conditional request returns 304 with a matching ETag.
	req = httptest.NewRequest(http.MethodGet, "/v1/analysis/a-1", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
}

func TestResultHandler_NotFound(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/analysis/missing", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_FOUND")
}

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), domain.AnalysisResult{
		ID: "a-1", Status: domain.AnalysisProcessing,
	}))
	_, h := newTestServer(repo, &memQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/analysis/a-1/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var info usecase.StatusInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, domain.AnalysisProcessing, info.Status)
}

func TestDeleteHandler(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), domain.AnalysisResult{ID: "a-1"}))
	_, h := newTestServer(repo, &memQueue{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/analysis/a-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, repo.records)

	req = httptest.NewRequest(http.MethodDelete, "/v1/analysis/a-1", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyticsSummaryHandler(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), domain.AnalysisResult{ID: "a-1"}))
	_, h := newTestServer(repo, &memQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/summary", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var sum domain.AnalyticsSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, int64(1), sum.TotalAnalyses)
}

func TestSupportedFormatsHandler(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/supported-formats", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pdf")
	assert.Contains(t, rr.Body.String(), "docx")
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	t.Run("all_healthy", func(t *testing.T) {
		t.Parallel()
		_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("dependency_down", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(newMemRepo(), &memQueue{}, nil)
		srv.DBCheck = func(context.Context) error { return errors.New("db down") }
		r := chi.NewRouter()
		r.Get("/readyz", srv.ReadyzHandler())
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "db down")
	})
}

func TestHealthzHandler(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(newMemRepo(), &memQueue{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
