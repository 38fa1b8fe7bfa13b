package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "iris"
	metricsSubsystem = "gateway"
)

var (
	inFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "in_flight",
		Help:      "Number of inference requests currently executing.",
	})

	queueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "queue_depth",
		Help:      "Number of inference requests waiting in the pending queue.",
	})

	admittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "admitted_total",
		Help:      "Total submissions admitted for execution, by admission mode.",
	}, []string{"mode"})

	rejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "rejected_total",
		Help:      "Total submissions rejected because the queue was full.",
	})

	expiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "expired_total",
		Help:      "Total queued submissions that timed out before execution.",
	})

	completedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "completed_total",
		Help:      "Total executed submissions, by outcome.",
	}, []string{"outcome"})

	workDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "work_duration_seconds",
		Help:      "Execution time of admitted inference work.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

// Admission mode label values for admittedTotal.
const (
	admissionModeImmediate = "immediate"
	admissionModeQueued    = "queued"
)

// Outcome label values for completedTotal.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

func init() {
	prometheus.MustRegister(
		inFlightGauge,
		queueDepthGauge,
		admittedTotal,
		rejectedTotal,
		expiredTotal,
		completedTotal,
		workDurationSeconds,
	)
}
