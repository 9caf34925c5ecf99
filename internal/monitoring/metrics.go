// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics for the task manager and
// exporter.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for scrape task lifecycle and
// export activity.
type Metrics struct {
	registry *prometheus.Registry

	tasksTotal     *prometheus.CounterVec
	tasksActive    prometheus.Gauge
	taskDuration   prometheus.Histogram
	itemsScraped   prometheus.Counter
	exportDuration *prometheus.HistogramVec
	exportErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a private registry so
// multiple instances (e.g. in tests) never collide.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "scrapeflow"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Number of scrape tasks by terminal status.",
		}, []string{"status"}),
		tasksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_active",
			Help:      "Number of scrape tasks currently running.",
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of scrape tasks from start to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		itemsScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_scraped_total",
			Help:      "Total field records extracted by completed tasks.",
		}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent writing export files by format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		exportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_errors_total",
			Help:      "Export failures by format.",
		}, []string{"format"}),
	}

	registry.MustRegister(
		m.tasksTotal,
		m.tasksActive,
		m.taskDuration,
		m.itemsScraped,
		m.exportDuration,
		m.exportErrors,
	)

	return m
}

// TaskStarted records a task transitioning to running.
func (m *Metrics) TaskStarted() {
	m.tasksActive.Inc()
}

// TaskFinished records a terminal transition with its duration and, for
// completed tasks, the number of extracted items.
func (m *Metrics) TaskFinished(status string, seconds float64, items int) {
	m.tasksActive.Dec()
	m.tasksTotal.WithLabelValues(status).Inc()
	m.taskDuration.Observe(seconds)
	if items > 0 {
		m.itemsScraped.Add(float64(items))
	}
}

// ExportObserved records one export attempt.
func (m *Metrics) ExportObserved(format string, seconds float64, err error) {
	m.exportDuration.WithLabelValues(format).Observe(seconds)
	if err != nil {
		m.exportErrors.WithLabelValues(format).Inc()
	}
}

// Handler returns the /metrics HTTP handler for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather exposes the underlying registry for tests.
func (m *Metrics) Gather() prometheus.Gatherer {
	return m.registry
}
