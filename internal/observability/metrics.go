package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	FeedRequests        *prometheus.CounterVec   // labels: endpoint={incidents,counties}, outcome={success,error}
	FeedRequestDuration *prometheus.HistogramVec // labels: endpoint={incidents,counties}
	FeedCache           *prometheus.CounterVec   // labels: result={hit,miss}

	ClosuresServed  prometheus.Counter
	RequestsCreated prometheus.Counter

	// Out-of-band snapshot refresher metrics.
	SnapshotRefreshes *prometheus.CounterVec // labels: outcome={success,error}
	SnapshotRunning   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedRequestDuration,
		m.FeedCache,
		m.ClosuresServed,
		m.RequestsCreated,
		m.SnapshotRefreshes,
		m.SnapshotRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_status",
			Name:      "feed_requests_total",
			Help:      "NCDOT feed requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FeedRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storm_status",
			Name:      "feed_request_duration_seconds",
			Help:      "NCDOT feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_status",
			Name:      "feed_cache_total",
			Help:      "Incident cache lookups by result.",
		}, []string{"result"}),
		ClosuresServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_status",
			Name:      "closures_served_total",
			Help:      "Total normalized closures returned to API callers.",
		}),
		RequestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_status",
			Name:      "debris_requests_created_total",
			Help:      "Total debris pickup requests created.",
		}),
		SnapshotRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_status",
			Name:      "snapshot_refreshes_total",
			Help:      "Out-of-band closure snapshot refreshes by outcome.",
		}, []string{"outcome"}),
		SnapshotRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_status",
			Name:      "snapshot_refresher_running",
			Help:      "1 when the snapshot refresher is active, 0 when shut down.",
		}),
	}
}
