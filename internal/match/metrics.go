package match

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRecommendRequests   = "recommend_requests_total"
	MetricRecommendDuration   = "recommend_duration_seconds"
	MetricRecommendCandidates = "recommend_candidates"
	MetricRecommendFilterMode = "recommend_filter_mode_total"
)

// Metrics contains Prometheus metrics for ranking.
// All operations are thread-safe.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   prometheus.Histogram
	candidates prometheus.Histogram
	filterMode *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecommendRequests,
			Help: "Total number of ranking runs by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecommendDuration,
			Help:    "Histogram of ranking duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecommendCandidates,
			Help:    "Histogram of compatible candidates per ranking run",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		}),
		filterMode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecommendFilterMode,
			Help: "Total number of ranking runs by compatibility rule applied",
		}, []string{"mode"}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRequests increments the ranking counter for an outcome.
func (m *Metrics) IncRequests(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveDuration records a ranking duration sample.
func (m *Metrics) ObserveDuration(seconds float64) {
	m.duration.Observe(seconds)
}

// ObserveCandidates records the number of compatible candidates.
func (m *Metrics) ObserveCandidates(n float64) {
	m.candidates.Observe(n)
}

// IncFilterMode increments the counter for the compatibility rule applied.
func (m *Metrics) IncFilterMode(mode string) {
	m.filterMode.WithLabelValues(mode).Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requests,
		m.duration,
		m.candidates,
		m.filterMode,
	}
}
