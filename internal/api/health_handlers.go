package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readinessTimeout bounds all dependency checks for one /ready request.
const readinessTimeout = 5 * time.Second

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides health and readiness check endpoints for Kubernetes liveness and readiness checks.
type HealthHandlers struct {
	// Both checkers are optional: the in-memory store has no database and
	// the geocode cache runs without Redis.
	dbChecker    HealthChecker
	redisChecker HealthChecker

	metricsEnabled bool
	now            func() time.Time
}

// HealthHandlersConfig configures the health check handlers.
type HealthHandlersConfig struct {
	DBChecker      HealthChecker
	RedisChecker   HealthChecker
	MetricsEnabled bool
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		dbChecker:      config.DBChecker,
		redisChecker:   config.RedisChecker,
		metricsEnabled: config.MetricsEnabled,
		now:            time.Now,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness check).
// Returns 200 whenever the process can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness check).
// Returns 503 if a configured backing store is unreachable. Geocoding is not
// checked: an unavailable geocoder only zeroes the location component.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	for _, dep := range []struct {
		name    string
		checker HealthChecker
	}{
		{"database", h.dbChecker},
		{"redis", h.redisChecker},
	} {
		// Unconfigured dependencies are reported as ok.
		if dep.checker == nil {
			checks[dep.name] = "ok"
			continue
		}
		if err := dep.checker.HealthCheck(ctx); err != nil {
			checks[dep.name] = "error"
			healthy = false
			slog.WarnContext(ctx, "health check failed", "dependency", dep.name, "error", err)
			continue
		}
		checks[dep.name] = "ok"
	}

	if h.metricsEnabled {
		checks["metrics"] = "ok"
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, r.Context(), statusCode, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
