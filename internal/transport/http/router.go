// Package httptransport assembles the HTTP surface: the export pipeline,
// health checks and Prometheus metrics behind the shared middleware chain.
package httptransport

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	exporthandler "fieldbook/internal/export/handler"
	"fieldbook/internal/transport/http/shared"
	"fieldbook/pkg/platform/middleware/metadata"
	"fieldbook/pkg/platform/sentinel"
)

// HealthChecker reports whether one infrastructure dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthFunc adapts a plain function to HealthChecker.
type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Health(ctx context.Context) error { return f(ctx) }

// NewRouter wires all public endpoints. checks maps component names to their
// health probes; nil checkers are skipped so optional dependencies (Redis
// without a URL) drop out cleanly.
func NewRouter(export *exporthandler.Handler, checks map[string]HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recoverer)

	export.RegisterRoutes(r)

	r.Get("/healthz", healthz(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func healthz(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if check == nil {
				continue
			}
			err := check.Health(r.Context())
			switch {
			case err == nil:
				components[name] = "ok"
			case errors.Is(err, sentinel.ErrUnavailable):
				components[name] = "unavailable"
				healthy = false
			default:
				components[name] = "error"
				healthy = false
			}
		}

		status := http.StatusOK
		body := map[string]any{"status": "ok", "components": components}
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		shared.WriteJSON(w, status, body)
	}
}
