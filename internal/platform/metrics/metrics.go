package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Resolutions      *prometheus.CounterVec
	Enrollments      prometheus.Counter
	Deregistrations  prometheus.Counter
	LedgerOperations *prometheus.CounterVec
	CASRetries       prometheus.Counter
	OperationLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "facepos_resolutions_total",
			Help: "Identity resolutions by outcome (resolved, unknown, error).",
		}, []string{"outcome"}),
		Enrollments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facepos_enrollments_total",
			Help: "Total identities enrolled.",
		}),
		Deregistrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facepos_deregistrations_total",
			Help: "Total identities deregistered.",
		}),
		LedgerOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "facepos_ledger_operations_total",
			Help: "Ledger operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CASRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facepos_ledger_cas_retries_total",
			Help: "Balance commits retried after a version conflict.",
		}),
		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facepos_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveResolution records a resolution outcome.
func (m *Metrics) ObserveResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}

// ObserveLedgerOp records a ledger operation outcome.
func (m *Metrics) ObserveLedgerOp(kind, outcome string) {
	m.LedgerOperations.WithLabelValues(kind, outcome).Inc()
}
