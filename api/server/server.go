package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"converteasy/api"
	"converteasy/api/middleware"
	"converteasy/config"
	"converteasy/logger"
	"converteasy/tasks/orchestrator"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps http.Server with graceful shutdown capabilities
type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     *logger.Logger
}

// New creates a new server with all HTTP configuration. Metrics are served
// from gatherer when it is not nil.
func New(orch orchestrator.Orchestrator, gatherer prometheus.Gatherer, workload api.Workload, cfg *config.Config, lg *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      NewRouter(orch, gatherer, workload, cfg, lg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		config: cfg,
		logger: lg,
	}
}

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(orch orchestrator.Orchestrator, gatherer prometheus.Gatherer, workload api.Workload, cfg *config.Config, lg *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(lg))
	r.Use(chimiddleware.Recoverer)

	r.Post("/convert", api.NewConvertHandler(orch, api.NewPathRoots(cfg), lg))
	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Get("/", api.NewTaskStatusHandler(orch, lg))
		r.Delete("/", api.NewTaskDeleteHandler(orch, lg))
	})
	r.Get("/stats", api.NewStatsHandler(orch, lg))
	r.Get("/health", api.NewHealthHandler(cfg, orch, workload, lg))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an already open listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", map[string]any{
			"address": ln.Addr().String(),
		})

		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("Server failed", map[string]any{
				"error": err.Error(),
			})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	return s.shutdown()
}

// shutdown gracefully shuts down the server
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})

		return err
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
