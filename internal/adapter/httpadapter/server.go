package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobRunner runs a single ingestion cycle for a named job.
type JobRunner interface {
	RunJob(ctx context.Context, name string) (domain.RunResult, error)
}

// Server exposes health, readiness, metrics, and manual job trigger endpoints.
type Server struct {
	httpServer *http.Server
	runner     JobRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /jobs/{name}/run routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, runner JobRunner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /jobs/{name}/run", s.handleRunJob)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRunJob runs one cycle synchronously and reports its RunResult. The
// cycle is bounded by the runner's job timeout, not the server write timeout.
// A job that is already mid-cycle answers 409.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Warn("clear write deadline", "error", err)
	}

	result, err := s.runner.RunJob(r.Context(), name)
	if errors.Is(err, domain.ErrUnknownJob) {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{
			"status": "not found",
			"error":  err.Error(),
		})
		return
	}
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	if result.Outcome == domain.OutcomeSkipped {
		sharedobs.WriteJSON(w, http.StatusConflict, result)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}
