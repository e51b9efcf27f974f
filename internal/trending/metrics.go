package trending

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRecomputeTotal         = "trending_recompute_total"
	MetricRecomputeErrors        = "trending_recompute_errors_total"
	MetricRecomputeDuration      = "trending_recompute_duration_seconds"
	MetricLastRecomputeTimestamp = "trending_last_recompute_timestamp"
	MetricLastRecomputeItemCount = "trending_last_recompute_item_count"
	MetricTrendingItems          = "trending_items"
)

// Metrics contains Prometheus metrics for trending recomputation.
// All operations are thread-safe.
type Metrics struct {
	recomputeTotal         prometheus.Counter
	recomputeErrors        prometheus.Counter
	recomputeDuration      prometheus.Histogram
	lastRecomputeTimestamp prometheus.Gauge
	lastRecomputeItemCount prometheus.Gauge
	trendingItems          prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecomputeTotal,
			Help: "Total number of trending recomputation cycles",
		}),
		recomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecomputeErrors,
			Help: "Total number of trending recomputation errors",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecomputeDuration,
			Help:    "Histogram of trending recomputation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}),
		lastRecomputeTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRecomputeTimestamp,
			Help: "Unix timestamp of the last trending recomputation",
		}),
		lastRecomputeItemCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRecomputeItemCount,
			Help: "Number of items processed in the last trending recomputation",
		}),
		trendingItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrendingItems,
			Help: "Number of items currently flagged trending",
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

// IncRecomputeTotal increments the recompute total counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncRecomputeErrors increments the recompute errors counter.
func (m *Metrics) IncRecomputeErrors() {
	m.recomputeErrors.Inc()
}

// ObserveRecomputeDuration records a recompute duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// SetLastRecomputeTimestamp sets the last recompute timestamp gauge.
func (m *Metrics) SetLastRecomputeTimestamp(timestamp float64) {
	m.lastRecomputeTimestamp.Set(timestamp)
}

// SetLastRecomputeItemCount sets the last recompute item count gauge.
func (m *Metrics) SetLastRecomputeItemCount(count float64) {
	m.lastRecomputeItemCount.Set(count)
}

// SetTrendingItems sets the currently-trending item count gauge.
func (m *Metrics) SetTrendingItems(count float64) {
	m.trendingItems.Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recomputeTotal,
		m.recomputeErrors,
		m.recomputeDuration,
		m.lastRecomputeTimestamp,
		m.lastRecomputeItemCount,
		m.trendingItems,
	}
}
