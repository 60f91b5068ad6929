// Package metrics provides Prometheus metrics for monitoring the meeting bot.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// dispatchTotal records notification dispatch attempts.
	// Labels:
	//   - kind: Notification kind (e.g., "create", "moved", "cancel", "digest")
	//   - status: "success" or the failing step ("resolve", "permission", "send")
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetbot_dispatch_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"kind", "status"},
	)

	// dispatchDuration records how long a dispatch blocked the caller.
	// Buckets: 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meetbot_dispatch_duration_seconds",
			Help:    "Duration of notification dispatches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	// commandsTotal records handled chat commands.
	// Labels:
	//   - command: "/add", "/delete", "/update", "/list", "/themes", "help"
	//   - result: "ok", "usage", "rejected", "error"
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetbot_commands_total",
			Help: "Total number of chat commands handled",
		},
		[]string{"command", "result"},
	)

	conversationEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meetbot_conversation_evictions_total",
			Help: "Conversation sessions dropped after the idle timeout",
		},
	)

	// digestRunsTotal records daily digest executions by outcome ("sent", "empty", "error").
	digestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetbot_digest_runs_total",
			Help: "Total number of daily digest runs",
		},
		[]string{"status"},
	)

	// storeErrorsTotal records meeting store faults by operation ("load", "save").
	storeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetbot_store_errors_total",
			Help: "Total number of meeting store read/write faults",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(dispatchTotal)
	prometheus.MustRegister(dispatchDuration)
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(conversationEvictions)
	prometheus.MustRegister(digestRunsTotal)
	prometheus.MustRegister(storeErrorsTotal)
}

// RecordDispatch records one dispatch attempt and its duration.
func RecordDispatch(kind, status string, durationSeconds float64) {
	dispatchTotal.WithLabelValues(kind, status).Inc()
	dispatchDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordCommand records a handled chat command.
func RecordCommand(command, result string) {
	commandsTotal.WithLabelValues(command, result).Inc()
}

// RecordEviction records an idle conversation eviction.
func RecordEviction() {
	conversationEvictions.Inc()
}

// RecordDigestRun records a digest run outcome.
func RecordDigestRun(status string) {
	digestRunsTotal.WithLabelValues(status).Inc()
}

// RecordStoreError records a store fault for the given operation.
func RecordStoreError(op string) {
	storeErrorsTotal.WithLabelValues(op).Inc()
}
