// Package api exposes the HTTP interface for the pipeline service.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/metrics"
)

// Runner executes one named pipeline run to completion.
type Runner func(ctx context.Context) error

// Server wires HTTP handlers to the pipeline runners. Each runner is
// single-flight: a trigger while the previous run is still going gets
// a conflict response.
type Server struct {
	router  chi.Router
	runners map[string]Runner
	logger  *zap.Logger

	mu   sync.Mutex
	busy map[string]bool
}

// NewServer constructs a Server with middleware and routes. The
// runners map keys become the /v1/runs/{name} names.
func NewServer(runners map[string]Runner, logger *zap.Logger) *Server {
	s := &Server{
		runners: runners,
		logger:  logger,
		busy:    make(map[string]bool),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs/{name}", s.triggerRun)
		r.Get("/runs", s.listRuns)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// triggerRun starts the named pipeline in the background and returns
// immediately. The run detaches from the request context; progress is
// visible through logs and /metrics.
func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	runner, ok := s.runners[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}

	s.mu.Lock()
	if s.busy[name] {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "run already in progress")
		return
	}
	s.busy[name] = true
	s.mu.Unlock()

	runID := uuid.NewString()
	go func() {
		defer func() {
			s.mu.Lock()
			s.busy[name] = false
			s.mu.Unlock()
		}()
		if err := runner(context.Background()); err != nil {
			s.logger.Error("run failed",
				zap.String("run", name),
				zap.String("run_id", runID),
				zap.Error(err),
			)
			return
		}
		s.logger.Info("run finished",
			zap.String("run", name),
			zap.String("run_id", runID),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run":    name,
		"run_id": runID,
		"status": "started",
	})
}

// listRuns reports the known run names and whether each is busy.
func (s *Server) listRuns(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.runners))
	for name := range s.runners {
		state := "idle"
		if s.busy[name] {
			state = "running"
		}
		out[name] = state
	}
	writeJSON(w, http.StatusOK, out)
}
