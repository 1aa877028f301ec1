package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	weeklyRunsTotal  *prometheus.CounterVec
	reportFanoutErrs prometheus.Counter
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total number of HTTP requests rejected with a domain error.",
			},
			[]string{"method", "path", "code"},
		),
		weeklyRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weekly_report_runs_total",
				Help: "Weekly report aggregation runs by outcome.",
			},
			[]string{"outcome"},
		),
		reportFanoutErrs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "weekly_report_fanout_failures_total",
				Help: "Per-location failures during weekly report fan-out.",
			},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.weeklyRunsTotal,
		m.reportFanoutErrs,
	)
	return m
}

// RecordRequest observes a completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError counts a domain-error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordWeeklyRun counts a scheduler run with its outcome
// (created, skipped, empty, failed).
func (m *Metrics) RecordWeeklyRun(outcome string) {
	if m == nil {
		return
	}
	m.weeklyRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordFanoutFailure counts one failed per-location step.
func (m *Metrics) RecordFanoutFailure() {
	if m == nil {
		return
	}
	m.reportFanoutErrs.Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
