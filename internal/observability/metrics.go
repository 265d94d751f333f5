package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for data loading and map sessions.
type Metrics struct {
	// Loader metrics.
	Loads        *prometheus.CounterVec   // labels: source={districts,boundaries}, outcome={success,data_unavailable,malformed_records,malformed_geometry}
	LoadDuration *prometheus.HistogramVec // labels: source

	// Reconciliation metrics.
	MatchedFeatures   prometheus.Gauge
	UnmatchedFeatures prometheus.Gauge
	DuplicateMatches  prometheus.Counter

	// Session metrics.
	ActiveSessions prometheus.Gauge
	StreamClients  prometheus.Gauge
	StyleCache     *prometheus.CounterVec // labels: result={hit,miss}
	FlyToIgnored   prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Loads,
		m.LoadDuration,
		m.MatchedFeatures,
		m.UnmatchedFeatures,
		m.DuplicateMatches,
		m.ActiveSessions,
		m.StreamClients,
		m.StyleCache,
		m.FlyToIgnored,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resilience",
			Name:      "loads_total",
			Help:      "Data source loads by source and outcome.",
		}, []string{"source", "outcome"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resilience",
			Name:      "load_duration_seconds",
			Help:      "Duration of a single data source load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		MatchedFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "resilience",
			Name:      "matched_features",
			Help:      "Boundary features matched to a district record in the latest merge.",
		}),
		UnmatchedFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "resilience",
			Name:      "unmatched_features",
			Help:      "Boundary features without a district record in the latest merge.",
		}),
		DuplicateMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "resilience",
			Name:      "duplicate_matches_total",
			Help:      "Loads that found two records normalizing to the same district name.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "resilience",
			Name:      "active_sessions",
			Help:      "Open map sessions.",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "resilience",
			Name:      "stream_clients",
			Help:      "Connected live map clients.",
		}),
		StyleCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resilience",
			Name:      "style_cache_total",
			Help:      "Style memo lookups by result.",
		}, []string{"result"}),
		FlyToIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "resilience",
			Name:      "fly_to_ignored_total",
			Help:      "Camera commands dropped because no map was mounted.",
		}),
	}
}
