package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"vellum/pkg/platform/httputil"
)

// healthCheckTimeout caps the whole dependency sweep. Probes are cheap
// pings; anything slower counts as down.
const healthCheckTimeout = 2 * time.Second

// HealthCheck names one dependency and how to ping it.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// healthHandler reports liveness plus the reachability of each wired
// dependency. Any failing dependency turns the response into a 503 so
// orchestration keeps traffic away until the dependency recovers.
func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		if len(checks) > 0 {
			resp.Dependencies = make(map[string]string, len(checks))
		}
		status := http.StatusOK
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"dependency", check.Name,
					"error", err,
				)
				resp.Dependencies[check.Name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[check.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
