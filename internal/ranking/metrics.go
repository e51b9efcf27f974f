package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRankDuration     = "ranking_pass_duration_seconds"
	MetricItemsRankedTotal = "ranking_items_ranked_total"
	MetricRankPassesTotal  = "ranking_passes_total"
)

// Metrics contains Prometheus metrics for ranking passes.
// All operations are thread-safe.
type Metrics struct {
	rankDuration prometheus.Histogram
	itemsRanked  prometheus.Counter
	rankPasses   prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of full ranking pass duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		itemsRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricItemsRankedTotal,
			Help: "Total number of items scored across all ranking passes",
		}),
		rankPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankPassesTotal,
			Help: "Total number of ranking passes executed",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.rankDuration,
		m.itemsRanked,
		m.rankPasses,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRankDuration records the duration of a ranking pass in seconds.
func (m *Metrics) ObserveRankDuration(seconds float64) {
	m.rankDuration.Observe(seconds)
	m.rankPasses.Inc()
}

// AddItemsRanked adds to the items-ranked counter.
func (m *Metrics) AddItemsRanked(n int) {
	m.itemsRanked.Add(float64(n))
}
