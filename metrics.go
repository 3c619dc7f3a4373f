package nolead

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the optional Prometheus instrumentation. All observe methods
// are nil-receiver safe so the engine path needs no enabled checks.
type metrics struct {
	executions *prometheus.CounterVec
	cacheHits  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nolead",
			Name:      "task_executions_total",
			Help:      "Number of completed task body executions, by task.",
		}, []string{"task"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nolead",
			Name:      "task_cache_hits_total",
			Help:      "Number of task requests served from the memoization store, by task.",
		}, []string{"task"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nolead",
			Name:      "task_failures_total",
			Help:      "Number of failed task body executions, by task.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nolead",
			Name:      "task_duration_seconds",
			Help:      "Task body execution time, by task.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
	}
	reg.MustRegister(m.executions, m.cacheHits, m.failures, m.duration)
	return m
}

func (m *metrics) observeExecution(task string, d time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(task).Inc()
	m.duration.WithLabelValues(task).Observe(d.Seconds())
}

func (m *metrics) observeCacheHit(task string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(task).Inc()
}

func (m *metrics) observeFailure(task string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(task).Inc()
}
