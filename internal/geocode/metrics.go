package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricGeocodeCacheHits       = "geocode_cache_hits_total"
	MetricGeocodeCacheMisses     = "geocode_cache_misses_total"
	MetricGeocodeUpstreamFailures = "geocode_upstream_failures_total"
	MetricGeocodeUpstreamDuration = "geocode_upstream_duration_seconds"
)

// Metrics contains Prometheus metrics for geocoding.
// All operations are thread-safe.
type Metrics struct {
	cacheHits        *prometheus.CounterVec
	cacheMisses      prometheus.Counter
	upstreamFailures *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricGeocodeCacheHits,
			Help: "Total number of geocode cache hits by tier",
		}, []string{"tier"}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricGeocodeCacheMisses,
			Help: "Total number of geocode lookups that reached the upstream",
		}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricGeocodeUpstreamFailures,
			Help: "Total number of failed upstream geocode lookups by reason",
		}, []string{"reason"}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricGeocodeUpstreamDuration,
			Help:    "Histogram of upstream geocode lookup duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
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

// IncCacheHit increments the hit counter for a cache tier.
func (m *Metrics) IncCacheHit(tier string) {
	m.cacheHits.WithLabelValues(tier).Inc()
}

// IncCacheMiss increments the miss counter.
func (m *Metrics) IncCacheMiss() {
	m.cacheMisses.Inc()
}

// IncUpstreamFailure increments the failure counter for a reason.
func (m *Metrics) IncUpstreamFailure(reason string) {
	m.upstreamFailures.WithLabelValues(reason).Inc()
}

// ObserveUpstreamDuration records an upstream lookup duration sample.
func (m *Metrics) ObserveUpstreamDuration(seconds float64) {
	m.upstreamDuration.Observe(seconds)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.cacheHits,
		m.cacheMisses,
		m.upstreamFailures,
		m.upstreamDuration,
	}
}
