// Package core provides the API chassis for FloatDeck. It builds the chi
// router and enforces the cross-cutting concerns (recovery, request IDs,
// logging, CORS, compression, metrics) before requests reach the domain
// handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/config"
)

// MetricsCollector records API telemetry. The CloudWatch implementation
// lives in metrics.go; tests inject recording fakes.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a domain handler's routes onto the /v1 group. The
// indirection keeps core free of handler imports.
type RouteRegistrar func(r chi.Router)

// Server bundles the API dependencies so tests can inject fakes and
// environments can differ in wiring only.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics MetricsCollector

	HealthProbes      []HealthProbe
	V1RouteRegistrars []RouteRegistrar

	router   *chi.Mux
	cleanups []func() error
}

// NewServer validates the critical dependencies and prepares the router.
// The caller mounts routes afterwards via MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler for ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// OnShutdown registers a cleanup function to run during Shutdown, in
// registration order. Used for closing the database pool and flushing
// telemetry.
func (s *Server) OnShutdown(fn func() error) {
	s.cleanups = append(s.cleanups, fn)
}

// Shutdown runs the registered cleanup functions. The first failure is
// returned after all cleanups have been attempted.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var firstErr error
	for _, fn := range s.cleanups {
		if err := fn(); err != nil {
			s.Logger.Error("shutdown cleanup failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.Logger.Info("server shutdown complete")
	return firstErr
}
