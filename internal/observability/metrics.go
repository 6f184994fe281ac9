package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_notify"

// Metrics holds the Prometheus counters, histograms, and gauges for a run.
type Metrics struct {
	registry *prometheus.Registry

	LocationsProcessed *prometheus.CounterVec // labels: status={notified,would_notify,already_notified,no_alert,disabled,error}
	NotificationsSent  *prometheus.CounterVec // labels: kind={rain,weather}
	SendErrors         prometheus.Counter
	DedupStoreErrors   prometheus.Counter
	LastRunTimestamp   prometheus.Gauge

	// Forecast provider metrics.
	ForecastRequests    *prometheus.CounterVec // labels: outcome={success,error}
	ForecastCache       *prometheus.CounterVec // labels: result={hit,miss}
	ForecastAPIDuration prometheus.Histogram
}

// NewMetrics creates all run metrics and registers them with a fresh
// registry, so tests can create as many as they need. The registry is
// exported through WriteTextfile.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry.MustRegister(
		m.LocationsProcessed,
		m.NotificationsSent,
		m.SendErrors,
		m.DedupStoreErrors,
		m.LastRunTimestamp,
		m.ForecastRequests,
		m.ForecastCache,
		m.ForecastAPIDuration,
	)
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		registry: prometheus.NewRegistry(),
		LocationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_processed_total",
			Help:      "Per-location outcomes by status.",
		}, []string{"status"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Webhook notifications delivered by kind.",
		}, []string{"kind"}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Total failed webhook posts.",
		}),
		DedupStoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_store_errors_total",
			Help:      "Total failed reads or writes of dedup state.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_requests_total",
			Help:      "Forecast provider requests by outcome.",
		}, []string{"outcome"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Prefecture document cache lookups by result.",
		}, []string{"result"}),
		ForecastAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_api_duration_seconds",
			Help:      "Forecast provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// WriteTextfile writes the current metric values in the Prometheus text
// format to path, for a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
