package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckMetrics counts checking outcomes and durations per task.
type CheckMetrics struct {
	registry      *prometheus.Registry
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
}

func NewCheckMetrics() *CheckMetrics {
	registry := prometheus.NewRegistry()

	checksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checks_total",
		Help: "Completed result checks by task and verdict reason.",
	}, []string{"task", "reason"})

	checkDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "check_duration_seconds",
		Help: "Wall-clock duration of a full check, queueing excluded.",
		// Checks are GPU-bound and sequential; durations run into minutes.
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"task"})

	registry.MustRegister(checksTotal, checkDuration)
	return &CheckMetrics{
		registry:      registry,
		checksTotal:   checksTotal,
		checkDuration: checkDuration,
	}
}

func (m *CheckMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *CheckMetrics) ObserveCheck(task, reason string, seconds float64) {
	m.checksTotal.WithLabelValues(task, reason).Inc()
	m.checkDuration.WithLabelValues(task).Observe(seconds)
}
