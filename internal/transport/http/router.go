// Package httptransport assembles the service's HTTP surface: the global
// middleware stack, the mounted API handlers, and the operational
// endpoints (health, metrics).
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vellum/internal/platform/metrics"
	"vellum/internal/platform/middleware"
)

// Registrar mounts a group of routes onto the router. Each API handler
// package implements it.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router needs wired in.
type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar
	Health   []HealthCheck
}

// NewRouter builds the top-level router. Handlers own their route
// prefixes and auth; the router owns the cross-cutting stack and the
// operational endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(cfg.Metrics))

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	r.Get("/healthz", healthHandler(logger, cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
