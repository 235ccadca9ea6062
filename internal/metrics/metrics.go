package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "floodguard"

var (
	MessagesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "messages_evaluated_total",
		Help:      "Total number of evaluated messages by outcome",
	}, []string{"outcome"})

	Violations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "violations_total",
		Help:      "Total number of recorded violations",
	}, []string{"type"})

	WarningsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "warnings_issued_total",
		Help:      "Total number of warnings issued",
	})

	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "storage_errors_total",
		Help:      "Total number of storage failures by operation",
	}, []string{"operation"})

	MaintenanceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "maintenance_runs_total",
		Help:      "Total number of maintenance actions by status",
	}, []string{"action", "status"})

	EvaluateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "evaluate_duration_seconds",
		Help:      "Duration of message evaluation",
		Buckets:   prometheus.DefBuckets,
	})

	ActiveMutes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "active_mutes",
		Help:      "Number of currently active mutes",
	})

	TrackerKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "tracker_keys",
		Help:      "Number of user and chat pairs currently tracked",
	})

	TrackerMessages = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "tracker_messages",
		Help:      "Number of message timestamps currently buffered",
	})
)

func IncMessageEvaluated(outcome string) {
	MessagesEvaluated.WithLabelValues(outcome).Inc()
}

func IncViolation(violationType string) {
	Violations.WithLabelValues(violationType).Inc()
}

func IncWarningIssued() {
	WarningsIssued.Inc()
}

func IncStorageError(operation string) {
	StorageErrors.WithLabelValues(operation).Inc()
}

func IncMaintenanceRun(action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MaintenanceRuns.WithLabelValues(action, status).Inc()
}

// TimeEvaluate starts a timer against the evaluation histogram; call
// ObserveDuration on the result when done.
func TimeEvaluate() *prometheus.Timer {
	return prometheus.NewTimer(EvaluateDuration)
}

func SetActiveMutes(count float64) {
	ActiveMutes.Set(count)
}

func SetTrackerStats(keys, messages float64) {
	TrackerKeys.Set(keys)
	TrackerMessages.Set(messages)
}
