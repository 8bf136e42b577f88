// Package metrics holds the Prometheus collectors for the service.
// Collectors are constructed against an injected Registerer so tests
// can use isolated registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "runway"

// Metrics bundles every collector the service records into.
type Metrics struct {
	ImportRows *prometheus.CounterVec

	ForecastBuilds   prometheus.Counter
	ForecastDuration prometheus.Histogram

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	JobsProcessed *prometheus.CounterVec
}

// New registers all collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ImportRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_rows_total",
				Help:      "Import rows by outcome (unique, duplicate, errored).",
			},
			[]string{"outcome"},
		),
		ForecastBuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecast_builds_total",
				Help:      "Forecast recomputations.",
			},
		),
		ForecastDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forecast_build_duration_seconds",
				Help:      "Time spent building one forecast.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, path and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		JobsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_processed_total",
				Help:      "Background jobs by type and result.",
			},
			[]string{"type", "result"},
		),
	}

	reg.MustRegister(
		m.ImportRows,
		m.ForecastBuilds,
		m.ForecastDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.JobsProcessed,
	)
	return m
}

// ObserveImport records the outcome counts of one import preview.
func (m *Metrics) ObserveImport(unique, duplicate, errored int) {
	m.ImportRows.WithLabelValues("unique").Add(float64(unique))
	m.ImportRows.WithLabelValues("duplicate").Add(float64(duplicate))
	m.ImportRows.WithLabelValues("errored").Add(float64(errored))
}
