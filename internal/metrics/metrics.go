// Package metrics owns the Prometheus registry and the ledger counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rentledger"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, so callers and tests can omit it.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ChargesCreated    *prometheus.CounterVec
	PaymentsAllocated prometheus.Counter
	MigrationErrors   *prometheus.CounterVec
	MigrationRuns     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	m.ChargesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charges_created_total",
			Help:      "Charges inserted by the charge-ledger migration",
		},
		[]string{"type"},
	)

	m.PaymentsAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_allocated_total",
			Help:      "Payments allocated by the charge-ledger migration",
		},
	)

	m.MigrationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_item_errors_total",
			Help:      "Per-item failures recorded during migrations",
		},
		[]string{"step"},
	)

	m.MigrationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_runs_total",
			Help:      "Migration checks by key and outcome",
		},
		[]string{"key", "outcome"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ChargesCreated,
		m.PaymentsAllocated,
		m.MigrationErrors,
		m.MigrationRuns,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordChargeCreated(chargeType string) {
	if m == nil {
		return
	}
	m.ChargesCreated.WithLabelValues(chargeType).Inc()
}

func (m *Metrics) RecordPaymentAllocated() {
	if m == nil {
		return
	}
	m.PaymentsAllocated.Inc()
}

func (m *Metrics) RecordMigrationError(step string) {
	if m == nil {
		return
	}
	m.MigrationErrors.WithLabelValues(step).Inc()
}

func (m *Metrics) RecordMigrationRun(key, outcome string) {
	if m == nil {
		return
	}
	m.MigrationRuns.WithLabelValues(key, outcome).Inc()
}
