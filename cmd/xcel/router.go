package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xcel-dev/xcel/internal/config"
	"github.com/xcel-dev/xcel/pkg/admin"
	"github.com/xcel-dev/xcel/pkg/middleware"
)

// routerOptions controls what the main router exposes.
type routerOptions struct {
	// serveMetrics mounts /metrics on the main router.
	serveMetrics bool

	// registry overrides the Prometheus registry.
	registry *prometheus.Registry

	// metrics names the collected metrics.
	metrics []middleware.MetricsOption

	// deployment is recorded on every request span when set.
	deployment string
}

// metricsOptions maps the metrics section of the configuration onto the
// middleware options.
func metricsOptions(cfg config.MetricsConfig) []middleware.MetricsOption {
	var opts []middleware.MetricsOption
	if cfg.Namespace != "" {
		opts = append(opts, middleware.WithNamespace(cfg.Namespace))
	}
	if cfg.Subsystem != "" {
		opts = append(opts, middleware.WithSubsystem(cfg.Subsystem))
	}
	if len(cfg.ConstLabels) > 0 {
		opts = append(opts, middleware.WithConstLabels(prometheus.Labels(cfg.ConstLabels)))
	}
	if len(cfg.Buckets) > 0 {
		opts = append(opts, middleware.WithBuckets(cfg.Buckets))
	}
	return opts
}

// newRouter builds the HTTP router: request plumbing, observability,
// health and metrics endpoints, and the admin routes under /admin.
func newRouter(h *admin.Handler, opts routerOptions) http.Handler {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.registry != nil {
		registerer, gatherer = opts.registry, opts.registry
	}

	metricsOpts := append([]middleware.MetricsOption{middleware.WithRegistry(registerer)}, opts.metrics...)
	tracingOpts := []middleware.OTelOption{middleware.WithRequestFilter(traced)}
	if opts.deployment != "" {
		deployment := attribute.String("xcel.deployment", opts.deployment)
		tracingOpts = append(tracingOpts, middleware.WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{deployment}
		}))
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Prometheus(metricsOpts...))
	r.Use(middleware.OpenTelemetry(tracingOpts...))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if opts.serveMetrics {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/upload", http.StatusFound)
	})
	r.Mount("/admin", h.Routes())

	return r
}

// metricsHandler serves /metrics on its own listener.
func metricsHandler(registry *prometheus.Registry) http.Handler {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registry != nil {
		gatherer = registry
	}
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// traced skips health checks and scrapes.
func traced(r *http.Request) bool {
	return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
}
