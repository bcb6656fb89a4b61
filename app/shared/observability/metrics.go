package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics records service/handler level counters and latencies.
// Modules depend on this interface; tests use NoOpMetrics.
type OperationMetrics interface {
	RecordOperationAttempt(operation string)
	RecordOperationSuccess(operation string)
	RecordOperationFailure(operation string)
	RecordOperationDuration(operation string, d time.Duration)
}

type promMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewOperationMetrics registers and returns Prometheus-backed metrics for a
// module. The subsystem becomes part of the metric names, e.g.
// covalic_submission_operation_attempts_total.
func NewOperationMetrics(reg prometheus.Registerer, subsystem string) OperationMetrics {
	m := &promMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covalic",
			Subsystem: subsystem,
			Name:      "operation_attempts_total",
			Help:      "Number of attempted operations.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covalic",
			Subsystem: subsystem,
			Name:      "operation_successes_total",
			Help:      "Number of operations that completed successfully.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covalic",
			Subsystem: subsystem,
			Name:      "operation_failures_total",
			Help:      "Number of operations that failed.",
		}, []string{"operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covalic",
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations)
	return m
}

func (m *promMetrics) RecordOperationAttempt(op string) { m.attempts.WithLabelValues(op).Inc() }
func (m *promMetrics) RecordOperationSuccess(op string) { m.successes.WithLabelValues(op).Inc() }
func (m *promMetrics) RecordOperationFailure(op string) { m.failures.WithLabelValues(op).Inc() }
func (m *promMetrics) RecordOperationDuration(op string, d time.Duration) {
	m.durations.WithLabelValues(op).Observe(d.Seconds())
}

// NoOpMetrics discards all measurements.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(string)                 {}
func (NoOpMetrics) RecordOperationSuccess(string)                 {}
func (NoOpMetrics) RecordOperationFailure(string)                 {}
func (NoOpMetrics) RecordOperationDuration(string, time.Duration) {}
