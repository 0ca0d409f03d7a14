// Package api exposes batch ingestion and review over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fjacquet/bank-movements/internal/ingest"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/review"
)

// Default request ceiling when none is configured.
const defaultMaxRequestSize int64 = 64 << 20

// Server serves the upload and review endpoints.
type Server struct {
	pipeline       *ingest.Pipeline
	engine         *review.Engine
	logger         logging.Logger
	maxRequestSize int64
	mux            *http.ServeMux
}

// New creates a Server with its routes registered.
func New(pipeline *ingest.Pipeline, engine *review.Engine, logger logging.Logger, maxRequestSize int64) *Server {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if maxRequestSize <= 0 {
		maxRequestSize = defaultMaxRequestSize
	}
	s := &Server{
		pipeline:       pipeline,
		engine:         engine,
		logger:         logger.WithField(logging.FieldComponent, "api"),
		maxRequestSize: maxRequestSize,
		mux:            http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.F("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/upload", s.withLogging(s.handleUpload))
	s.mux.HandleFunc("/api/review/pending", s.withLogging(s.handlePending))
	s.mux.HandleFunc("/api/review/commit", s.withLogging(s.handleCommit))
	s.mux.HandleFunc("/api/concepts", s.withLogging(s.handleConcepts))
}

// handleUpload runs one batch. Only a request that cannot be read as a
// multipart stream fails as a whole; per-file failures are in the batch result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestSize)
	uploads, err := readUploads(r, s.pipeline.MaxFileSize())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read upload", err)
		return
	}

	result := s.pipeline.Process(r.Context(), uploads)
	if err := s.writeJSON(w, result.HTTPStatus(), result); err != nil {
		s.logger.WithError(err).Warn("Failed to write upload response")
	}
}

type pendingResponse struct {
	Scope     string            `json:"scope"`
	Count     int               `json:"count"`
	Movements []models.Movement `json:"movements"`
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "expenses"
	}

	var (
		movements []models.Movement
		err       error
	)
	switch scope {
	case "expenses":
		movements, err = s.engine.ListExpenseCandidates(r.Context())
	case "all":
		movements, err = s.engine.ListPending(r.Context())
	default:
		s.respondError(w, r, http.StatusBadRequest, "scope must be 'expenses' or 'all'", nil)
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to list pending movements", err)
		return
	}
	if movements == nil {
		movements = []models.Movement{}
	}

	_ = s.writeJSON(w, http.StatusOK, pendingResponse{Scope: scope, Count: len(movements), Movements: movements})
}

func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	concepts, err := s.engine.Concepts(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to list concepts", err)
		return
	}
	if concepts == nil {
		concepts = []models.Concept{}
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]interface{}{"concepts": concepts})
}

type commitRequest struct {
	Decisions []review.Decision `json:"decisions"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req commitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxRequestSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Decisions) == 0 {
		s.respondError(w, r, http.StatusBadRequest, "at least one decision is required", nil)
		return
	}

	result, err := s.engine.Commit(r.Context(), req.Decisions)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to commit review", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondError logs the error and writes {success:false, error, details}.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	log := s.logger.WithFields(
		logging.F("status", status),
		logging.F("method", r.Method),
		logging.F("path", r.URL.Path))
	body := errorResponse{Error: message}
	if err != nil {
		log = log.WithError(err)
		body.Details = err.Error()
	}
	log.Warn("Request failed: " + message)
	_ = s.writeJSON(w, status, body)
}

// withLogging logs each request and turns a panic into a 500.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Debug("HTTP request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("remote", r.RemoteAddr))
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered",
					logging.F("panic", rec),
					logging.F("method", r.Method),
					logging.F("path", r.URL.Path))
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
				return
			}
			s.logger.Debug("HTTP request done",
				logging.F("path", r.URL.Path),
				logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		}()
		next(w, r)
	}
}
