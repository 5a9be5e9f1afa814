// Package server provides the HTTP REST API for the talent pool.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/talent-pool/internal/server/ratelimit"
	"github.com/jonathan/talent-pool/internal/talentpool"
)

// maxBodyBytes caps request bodies, feeds included.
const maxBodyBytes = 8 << 20

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	engine      *talentpool.Engine
	rateLimiter *ratelimit.Limiter
	logger      *log.Logger
	onShutdown  func(context.Context) error
}

// Config holds server configuration
type Config struct {
	Port      int
	RateLimit *ratelimit.Config // nil loads RATE_LIMIT_* from the environment
	Logger    *log.Logger
	// OnShutdown runs after the engine has stopped, e.g. to save a snapshot.
	OnShutdown func(context.Context) error
}

// New creates a new server around engine
func New(engine *talentpool.Engine, cfg Config) *Server {
	rl := cfg.RateLimit
	if rl == nil {
		rl = ratelimit.LoadConfig(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		engine:      engine,
		rateLimiter: ratelimit.NewLimiter(rl),
		logger:      logger,
		onShutdown:  cfg.OnShutdown,
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: batch streams stay open until the batch ends
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Folders
	mux.HandleFunc("GET /folders", s.handleListFolders)
	mux.HandleFunc("POST /folders", s.handleCreateFolder)
	mux.HandleFunc("GET /folders/{id}", s.handleGetFolder)
	mux.HandleFunc("PATCH /folders/{id}", s.handleEditFolder)
	mux.HandleFunc("DELETE /folders/{id}", s.handleDeleteFolder)

	// Candidates
	mux.HandleFunc("GET /candidates", s.handleQueryCandidates)
	mux.HandleFunc("POST /candidates", s.handleIngestCandidates)
	mux.HandleFunc("POST /candidates/move", s.handleMoveMany)
	mux.HandleFunc("GET /candidates/{id}", s.handleGetCandidate)
	mux.HandleFunc("POST /candidates/{id}/move", s.handleMoveOne)

	// Selection
	mux.HandleFunc("GET /selection", s.handleGetSelection)
	mux.HandleFunc("POST /selection/view", s.handleSetView)
	mux.HandleFunc("POST /selection/toggle/{id}", s.handleToggle)
	mux.HandleFunc("POST /selection/select-all", s.handleSelectAll)
	mux.HandleFunc("DELETE /selection", s.handleClearSelection)
	mux.HandleFunc("POST /selection/move", s.handleMoveSelection)
	mux.HandleFunc("POST /selection/screen", s.handleScreenSelection)

	// Screening batches
	mux.HandleFunc("POST /batches", s.handleStartBatch)
	mux.HandleFunc("GET /batches", s.handleListBatches)
	mux.HandleFunc("GET /batches/{id}", s.handleGetBatch)
	mux.HandleFunc("POST /batches/{id}/cancel", s.handleCancelBatch)
	mux.HandleFunc("GET /batches/{id}/stream", s.handleStreamBatch)

	mux.HandleFunc("GET /events", s.handleEvents)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start listens until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run listens until ctx is done, then stops accepting requests, cancels
// running batches and waits for them to reconcile.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logf("server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	s.logf("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown failed: %w", err))
	}
	s.rateLimiter.Stop()
	if err := s.engine.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop screening: %w", err))
	}
	if s.onShutdown != nil {
		if err := s.onShutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	s.logf("server stopped")
	return errors.Join(errs...)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logf("error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) logf(format string, args ...any) {
	s.logger.Printf("[server] "+format, args...)
}
