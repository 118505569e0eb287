package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/smart-ats/internal/config"
	"github.com/fairyhunter13/smart-ats/internal/domain"
	"github.com/fairyhunter13/smart-ats/internal/usecase"
)

// Server bundles the handlers with their dependencies.
type Server struct {
	Cfg     config.Config
	Analyze usecase.AnalyzeService
	Results usecase.ResultService

	DBCheck     func(context.Context) error
	RedisCheck  func(context.Context) error
	BrokerCheck func(context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, analyze usecase.AnalyzeService, results usecase.ResultService, dbCheck, redisCheck, brokerCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Analyze: analyze, Results: results, DBCheck: dbCheck, RedisCheck: redisCheck, BrokerCheck: brokerCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func allowedMIMEFor(m string) bool {
	m = strings.ToLower(m)
	return m == "application/pdf" ||
		m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" ||
		m == "application/zip" // DOCX payloads sniff as plain zip without the OOXML detector hint
}

// rejectNonJSONAccept enforces JSON-only content negotiation.
func rejectNonJSONAccept(w http.ResponseWriter, r *http.Request) bool {
	if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
		writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
			Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a},
		}})
		return true
	}
	return false
}

// AnalyzeResumeHandler accepts a multipart resume upload plus job description
// and starts an analysis.
func (s *Server) AnalyzeResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rejectNonJSONAccept(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}

		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		file, header, err := r.FormFile("resume_file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), map[string]string{"field": "resume_file"})
			return
		}
		defer func() { _ = file.Close() }()

		jobDescription := r.FormValue("job_description")
		if strings.TrimSpace(jobDescription) == "" {
			writeError(w, r, fmt.Errorf("%w: job_description required", domain.ErrInvalidArgument), map[string]string{"field": "job_description"})
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		fileType, ok := usecase.AllowedFileType(header.Filename)
		if !ok {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type (extension)", Details: map[string]any{"filename": header.Filename},
			}})
			return
		}
		if mime := mimetype.Detect(data); !allowedMIMEFor(mime.String()) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)", Details: map[string]any{"mime": mime.String(), "filename": header.Filename},
			}})
			return
		}

		accepted, err := s.Analyze.AnalyzeDocument(r.Context(), data, fileType, jobDescription)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		s.writeAccepted(w, accepted)
	}
}

// AnalyzeTextHandler accepts pre-extracted resume text plus job description.
func (s *Server) AnalyzeTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rejectNonJSONAccept(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			ResumeText     string `json:"resume_text" validate:"required,min=50"`
			JobDescription string `json:"job_description" validate:"required,min=20,max=20000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}

		accepted, err := s.Analyze.AnalyzeText(r.Context(), req.ResumeText, req.JobDescription)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		s.writeAccepted(w, accepted)
	}
}

// writeAccepted renders the acceptance response: 200 with the full record on
// a cache hit, 202 with id and status otherwise.
func (s *Server) writeAccepted(w http.ResponseWriter, accepted usecase.AcceptedAnalysis) {
	if accepted.FromCache {
		writeJSON(w, http.StatusOK, accepted.Result)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     accepted.Result.ID,
		"status": string(accepted.Result.Status),
	})
}

// ResultHandler returns the stored analysis, honoring If-None-Match.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rejectNonJSONAccept(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		res, etag, err := s.Results.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if etag != "" {
			w.Header().Set("ETag", etag)
			if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// StatusHandler returns only the lifecycle state of an analysis.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		info, err := s.Results.Status(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// DeleteHandler removes a stored analysis.
func (s *Server) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		if err := s.Results.Delete(r.Context(), id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "deleted": "true"})
	}
}

// AnalyticsSummaryHandler returns the rollup over stored analyses.
func (s *Server) AnalyticsSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := s.Results.Summary(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// SupportedFormatsHandler lists the accepted resume document formats.
func (s *Server) SupportedFormatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"formats":       []string{domain.FileTypePDF, domain.FileTypeDOCX},
			"max_upload_mb": s.Cfg.MaxUploadMB,
		})
	}
}

// HealthzHandler reports process liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports dependency readiness: database, cache, and broker.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]func(context.Context) error{
			"db":     s.DBCheck,
			"redis":  s.RedisCheck,
			"broker": s.BrokerCheck,
		}
		statuses := map[string]string{}
		healthy := true
		for name, check := range checks {
			if check == nil {
				statuses[name] = "not configured"
				healthy = false
				continue
			}
			if err := check(r.Context()); err != nil {
				statuses[name] = err.Error()
				healthy = false
				continue
			}
			statuses[name] = "ok"
		}
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, statuses)
	}
}
