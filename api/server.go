// Package api provides the HTTP REST API for the news analysis pipeline.
//
// It exposes endpoints for running analyses, browsing and resetting session
// history, fetching per-article audio, and a WebSocket stream of run progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Nikita-NA/News-sentiment-analysis/internal/config"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/discovery"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/pipeline"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	pipe    *pipeline.Pipeline
	hub     *Hub
	logger  *slog.Logger
	version string
}

// NewServer wires the pipeline from configuration and builds the router.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	hub := NewHub(logger)

	pipe, err := pipeline.FromConfig(ctx, cfg, logger,
		pipeline.WithProgress(func(ev pipeline.Progress) {
			hub.Broadcast(Message{Type: "progress", Data: ev})
		}))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	srv := &Server{
		cfg:     cfg,
		pipe:    pipe,
		hub:     hub,
		logger:  logger.With("component", "api"),
		version: version,
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// NewServerWithPipeline builds a server around an existing pipeline. Used by
// tests to inject stub stages.
func NewServerWithPipeline(cfg *config.Config, pipe *pipeline.Pipeline, logger *slog.Logger, version string) *Server {
	srv := &Server{
		cfg:     cfg,
		pipe:    pipe,
		hub:     NewHub(logger),
		logger:  logger.With("component", "api"),
		version: version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub so callers can forward progress events.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // analysis runs can be slow
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)

		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleReset)
		r.Get("/history/{query}", s.handleHistoryByQuery)
		r.Get("/history/{query}/{index}/audio/{n}", s.handleAudio)

		r.Get("/config", s.handleConfig)

		r.Get("/stream", s.handleStream)
	})

	return r
}

// requestLogger is slog-backed request logging middleware.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// HistoryEntry is one recorded run in history responses. Audio payloads are
// omitted; they are served separately as audio/mpeg.
type HistoryEntry struct {
	Query    string    `json:"query"`
	AddedAt  time.Time `json:"added_at"`
	Articles int       `json:"articles"`
}

// ConfigResponse is the body of GET /api/v1/config. Secrets are reported as
// masked statuses, never as values.
type ConfigResponse struct {
	Config  config.Config         `json:"config"`
	Secrets []config.SecretStatus `json:"secrets"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.pipe.Run(ctx, req.Query, req.Limit)
	if err != nil {
		var derr *discovery.Error
		switch {
		case errors.Is(err, pipeline.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "query is required")
		case errors.As(err, &derr):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.pipe.History().Entries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{Query: e.Query, AddedAt: e.AddedAt, Articles: e.Batch.Len()}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleHistoryByQuery(w http.ResponseWriter, r *http.Request) {
	query, err := url.PathUnescape(chi.URLParam(r, "query"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query")
		return
	}

	entries, err := s.pipe.History().ByQuery(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no history for %q", query))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.pipe.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("session history reset")
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// handleAudio serves the MP3 for article n of run index under a query.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	query, err := url.PathUnescape(chi.URLParam(r, "query"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid run index")
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid article index")
		return
	}

	entries, err := s.pipe.History().ByQuery(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if index >= len(entries) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	batch := entries[index].Batch
	if n >= batch.Len() {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	article := batch.Articles[n]
	if !article.HasAudio() {
		writeError(w, http.StatusNotFound, "no audio for this article")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(article.Audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(article.Audio) //nolint:errcheck
}

// handleConfig returns the running configuration with secrets blanked and
// reported separately as masked statuses.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	sanitized := *s.cfg
	sanitized.Summarize.OpenAIKey = ""
	sanitized.History.RedisURL = ""

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:  sanitized,
			Secrets: config.CheckSecrets(s.cfg),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
