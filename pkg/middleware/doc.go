// Package middleware provides observability middleware for the admin
// HTTP server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus metrics middleware
//   - Upload and retention recording functions
//
// Both middlewares have the standard func(http.Handler) http.Handler shape
// and label by chi route pattern when mounted on a chi router.
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware opens a server span for every request and
// stores it in the request context:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// Handlers annotate the active span with trace.SpanFromContext:
//
//	trace.SpanFromContext(r.Context()).SetAttributes(
//	    attribute.String("upload.kind", "MissingFile"),
//	)
//
// # Prometheus Metrics
//
//	r.Use(middleware.Prometheus(
//	    middleware.WithNamespace("xcel"),
//	    middleware.WithConstLabels(prometheus.Labels{"region": "eu"}),
//	))
//	r.Handle("/metrics", promhttp.Handler())
//
// The upload handler reports outcomes with RecordUpload, and the archive
// retention loop reports sweeps with RecordCleanup. Both are no-ops until
// Prometheus has been called once.
package middleware
