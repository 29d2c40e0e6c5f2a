package reputation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricReputationBatchSize   = "reputation_rating_batch_size"
	MetricReputationFetchErrors = "reputation_rating_fetch_errors_total"
)

// Metrics contains Prometheus metrics for rating loads.
// All operations are thread-safe.
type Metrics struct {
	batchSize   prometheus.Histogram
	fetchErrors prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricReputationBatchSize,
			Help:    "Histogram of user ids per batched rating query",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricReputationFetchErrors,
			Help: "Total number of failed rating queries",
		}),
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

// ObserveBatchSize records the number of keys in a batched query.
func (m *Metrics) ObserveBatchSize(n float64) {
	m.batchSize.Observe(n)
}

// IncFetchErrors increments the fetch error counter.
func (m *Metrics) IncFetchErrors() {
	m.fetchErrors.Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.batchSize,
		m.fetchErrors,
	}
}
