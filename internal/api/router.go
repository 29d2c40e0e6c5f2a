package api

import (
	"log/slog"
	"net/http"

	"github.com/onnwee/skillmatch/internal/middleware"
)

// ServiceName identifies the API in traces and on the root endpoint.
const ServiceName = "skillmatch-api"

// RouterConfig holds the collaborators needed to build the HTTP handler.
type RouterConfig struct {
	Recommendations *RecommendationHandlers
	Health          *HealthHandlers
	Tokens          middleware.AccessTokenValidator

	RateLimitStore middleware.RateLimitStore
	RateLimit      middleware.RateLimitConfig

	// Metrics is required; MetricsHandler serves /metrics when set.
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler

	Version string
	Logger  *slog.Logger
}

// NewRouter registers all routes and wraps them in the middleware chain
// RequestID -> Tracing -> Logging -> HTTPMetrics. Recommendation routes are
// additionally wrapped in RequireAuth -> RateLimiter, keyed by user id.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	protect := func(h http.HandlerFunc) http.Handler {
		limited := middleware.RateLimiter(cfg.RateLimitStore, cfg.RateLimit, middleware.UserKeyFunc(), cfg.Metrics, logger)(h)
		return middleware.RequireAuth(cfg.Tokens, cfg.Metrics, logger)(limited)
	}

	mux := http.NewServeMux()
	mux.Handle("/recommendations", protect(cfg.Recommendations.List))
	mux.Handle("/recommendations/detailed", protect(cfg.Recommendations.Detailed))
	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		mux.Handle("/metrics", cfg.MetricsHandler)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		writeJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": ServiceName,
			"version": version,
		})
	})

	var handler http.Handler = mux
	handler = middleware.HTTPMetrics(cfg.Metrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing(ServiceName)(handler)
	return middleware.RequestID(handler)
}
