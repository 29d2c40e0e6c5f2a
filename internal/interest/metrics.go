package interest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricUniverseRefreshTotal         = "interest_universe_refresh_total"
	MetricUniverseRefreshErrors        = "interest_universe_refresh_errors_total"
	MetricUniverseRefreshDuration      = "interest_universe_refresh_duration_seconds"
	MetricUniverseLastRefreshTimestamp = "interest_universe_last_refresh_timestamp"
	MetricUniverseSize                 = "interest_universe_size"
)

// Metrics contains Prometheus metrics for hobby universe refreshes.
// All operations are thread-safe.
type Metrics struct {
	refreshTotal         prometheus.Counter
	refreshErrors        prometheus.Counter
	refreshDuration      prometheus.Histogram
	lastRefreshTimestamp prometheus.Gauge
	universeSize         prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		refreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricUniverseRefreshTotal,
			Help: "Total number of hobby universe refresh operations",
		}),
		refreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricUniverseRefreshErrors,
			Help: "Total number of hobby universe refresh errors",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricUniverseRefreshDuration,
			Help:    "Histogram of hobby universe refresh duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		lastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricUniverseLastRefreshTimestamp,
			Help: "Unix timestamp of the last successful hobby universe refresh",
		}),
		universeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricUniverseSize,
			Help: "Number of distinct hobbies across all users",
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

// IncRefreshTotal increments the refresh total counter.
func (m *Metrics) IncRefreshTotal() {
	m.refreshTotal.Inc()
}

// IncRefreshErrors increments the refresh errors counter.
func (m *Metrics) IncRefreshErrors() {
	m.refreshErrors.Inc()
}

// ObserveRefreshDuration records a refresh duration sample.
func (m *Metrics) ObserveRefreshDuration(seconds float64) {
	m.refreshDuration.Observe(seconds)
}

// SetLastRefreshTimestamp sets the last refresh timestamp gauge.
func (m *Metrics) SetLastRefreshTimestamp(timestamp float64) {
	m.lastRefreshTimestamp.Set(timestamp)
}

// SetUniverseSize sets the universe size gauge.
func (m *Metrics) SetUniverseSize(size float64) {
	m.universeSize.Set(size)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.refreshTotal,
		m.refreshErrors,
		m.refreshDuration,
		m.lastRefreshTimestamp,
		m.universeSize,
	}
}
