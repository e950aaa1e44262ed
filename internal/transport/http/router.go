// Package httptransport assembles the HTTP surface: the shared middleware
// stack, the probes and metrics endpoints, and the gated API routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsgate/internal/admin"
	"opsgate/internal/gating"
	"opsgate/internal/platform/health"
	"opsgate/internal/platform/middleware"
	"opsgate/pkg/platform/audit"
	"opsgate/pkg/platform/middleware/metadata"
	"opsgate/pkg/platform/middleware/request"
	"opsgate/pkg/platform/validation"
)

// Config holds router level settings.
type Config struct {
	APIPrefix      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Deps are the components the router mounts. Audit, Latency and Gatherer
// are optional.
type Deps struct {
	Logger   *slog.Logger
	Audit    *audit.Logger
	Metadata *metadata.Middleware
	Latency  *request.Metrics
	Gatherer prometheus.Gatherer
	Health   *health.Handler
	Pipeline *gating.Pipeline
	Admin    *admin.Handler
}

// NewRouter wires all endpoints with middleware. Everything under the API
// prefix passes through the gating pipeline; probes and /metrics do not.
func NewRouter(cfg Config, d Deps) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = validation.MaxBodySize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metadata == nil {
		d.Metadata = metadata.NewMiddleware(nil)
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(d.Metadata.Handler)
	r.Use(middleware.Logger(d.Logger))
	r.Use(request.Latency(d.Latency))
	r.Use(middleware.RequestLog(d.Audit))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(request.BodyLimit(cfg.MaxBodyBytes))
	r.Use(request.ContentTypeJSON)

	d.Health.Register(r)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(cfg.APIPrefix, func(api chi.Router) {
		api.Use(gating.Middleware(d.Pipeline))
		api.Get("/health", d.Health.HandleStatus)
		d.Admin.Register(api)
	})

	return r
}
