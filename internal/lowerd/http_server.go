package lowerd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/utils"
)

// RequestIDHeader carries the per-request ID assigned by the HTTP server.
const RequestIDHeader = "X-Request-Id"

// maxBodyBytes bounds submitted request bodies.
const maxBodyBytes = 8 << 20

type HTTPServer struct {
	mux      *http.ServeMux
	store    *JobStore
	Executor *Executor
}

func NewHTTPServer(executor *Executor) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    executor.Store(),
		Executor: executor,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/lower", s.handleLower)
	s.mux.HandleFunc("/v1/jobs", s.handleJobs)
	s.mux.HandleFunc("/v1/jobs/", s.handleJobByID)

	return s
}

// Handler returns the server's handler. Every response carries a request ID
// and every request is logged.
func (s *HTTPServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateTraceID()
		}
		w.Header().Set(RequestIDHeader, requestID)
		start := time.Now()
		s.mux.ServeHTTP(w, r)
		logger.Debug("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

func (s *HTTPServer) decodeInput(w http.ResponseWriter, r *http.Request) (*JobInput, bool) {
	var input JobInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	if input.ModelYAML == "" {
		s.writeError(w, http.StatusBadRequest, "model_yaml is required")
		return nil, false
	}
	return &input, true
}

// handleLower lowers a model synchronously
func (s *HTTPServer) handleLower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	res, err := s.Executor.Lower(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidModel):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"output":      res.Output,
		"diagnostics": convertDiagnostics(res.Diagnostics),
		"metrics":     res.Metrics,
	})
}

// handleJobs handles /v1/jobs endpoint
func (s *HTTPServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJobByID handles /v1/jobs/{id}, /v1/jobs/{id}:cancel and /v1/jobs/{id}/output
func (s *HTTPServer) handleJobByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	if strings.HasSuffix(path, ":cancel") {
		jobID := strings.TrimSuffix(path, ":cancel")
		if r.Method == http.MethodPost {
			s.handleCancelJob(w, r, jobID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/output") {
		jobID := strings.TrimSuffix(path, "/output")
		if r.Method == http.MethodGet {
			s.handleJobOutput(w, r, jobID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.Contains(path, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetJob(w, r, path)
}

func (s *HTTPServer) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	job, err := s.Executor.Submit(input)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("job submitted (HTTP)", "job_id", job.ID)
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"job": job,
	})
}

func (s *HTTPServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, 1000)
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	jobs := s.store.List(limit, offset, ParseJobStatus(r.URL.Query().Get("status")))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"jobs": jobs,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(jobs),
		},
	})
}

func (s *HTTPServer) handleGetJob(w http.ResponseWriter, _ *http.Request, jobID string) {
	job, ok := s.store.Get(jobID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"job": job,
	})
}

func (s *HTTPServer) handleCancelJob(w http.ResponseWriter, _ *http.Request, jobID string) {
	job, err := s.Executor.Cancel(jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrJobNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrJobTerminal):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	logger.Info("job cancelled (HTTP)", "job_id", jobID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"job": job,
	})
}

// handleJobOutput returns the generated CSPM script as plain text
func (s *HTTPServer) handleJobOutput(w http.ResponseWriter, _ *http.Request, jobID string) {
	out, err := s.store.Output(jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrJobNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrJobRunning):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out)); err != nil {
		logger.Error("failed to write output", "job_id", jobID, "error", err)
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
