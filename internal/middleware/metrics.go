package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRateLimitRequests     = "rate_limit_requests_total"
	MetricRateLimitBlocked      = "rate_limit_blocked_total"
	MetricRateLimitStoreErrors  = "rate_limit_store_errors_total"
	MetricHTTPRequestDuration   = "http_request_duration_seconds"
	MetricHTTPRequestsTotal     = "http_requests_total"
	MetricHTTPResponseSizeBytes = "http_response_size_bytes"
	MetricAuthFailures          = "http_auth_failures_total"
)

// Metrics contains Prometheus metrics for middleware operations.
// All operations are thread-safe.
type Metrics struct {
	rateLimitRequests    *prometheus.CounterVec
	rateLimitBlocked     *prometheus.CounterVec
	rateLimitStoreErrors prometheus.Counter
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	httpResponseSize     *prometheus.HistogramVec
	authFailures         *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rateLimitRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitRequests,
				Help: "Total number of rate limit checks by route",
			},
			[]string{"route", "key_type"},
		),
		rateLimitBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitBlocked,
				Help: "Total number of requests rejected by the rate limiter by route",
			},
			[]string{"route", "key_type"},
		),
		rateLimitStoreErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitStoreErrors,
				Help: "Total number of rate limit store errors (fail-open events)",
			},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPResponseSizeBytes,
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 4, 8),
			},
			[]string{"method", "path", "status"},
		),
		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricAuthFailures,
				Help: "Total number of rejected bearer tokens by reason",
			},
			[]string{"reason"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rateLimitRequests,
		m.rateLimitBlocked,
		m.rateLimitStoreErrors,
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpResponseSize,
		m.authFailures,
	}
}

// IncRateLimitRequests increments the rate limit checks counter.
func (m *Metrics) IncRateLimitRequests(route, keyType string) {
	m.rateLimitRequests.WithLabelValues(route, keyType).Inc()
}

// IncRateLimitBlocked increments the rate limit rejections counter.
func (m *Metrics) IncRateLimitBlocked(route, keyType string) {
	m.rateLimitBlocked.WithLabelValues(route, keyType).Inc()
}

// IncRateLimitStoreErrors counts requests let through because the store failed.
func (m *Metrics) IncRateLimitStoreErrors() {
	m.rateLimitStoreErrors.Inc()
}

// IncAuthFailures counts a rejected request by reason.
func (m *Metrics) IncAuthFailures(reason string) {
	m.authFailures.WithLabelValues(reason).Inc()
}

// ObserveHTTPRequest records HTTP request metrics.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration float64, responseSize int64) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": status,
	}
	m.httpRequestDuration.With(labels).Observe(duration)
	m.httpRequestsTotal.With(labels).Inc()
	m.httpResponseSize.With(labels).Observe(float64(responseSize))
}
