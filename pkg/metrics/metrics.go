package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Execution metrics
	ExecutionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foreman_executions_total",
			Help: "Total number of job executions by status",
		},
		[]string{"status"},
	)

	ExecutionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_executions_started_total",
			Help: "Total number of job executions started",
		},
	)

	ExecutionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_executions_completed_total",
			Help: "Total number of job executions completed successfully",
		},
	)

	ExecutionsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_executions_failed_total",
			Help: "Total number of job executions that failed, by error category",
		},
		[]string{"category"},
	)

	ExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foreman_execution_duration_seconds",
			Help:    "Time from execution start to terminal status in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Task metrics
	TasksRunningTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foreman_tasks_running_total",
			Help: "Total number of in-flight tasks by kind",
		},
		[]string{"kind"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foreman_task_duration_seconds",
			Help:    "Task duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Node back-pressure metrics
	NodesPausedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "foreman_nodes_paused_total",
			Help: "Total number of nodes currently paused due to failure rate",
		},
	)

	NodePauseEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_node_pause_events_total",
			Help: "Total number of node pause events triggered by back-pressure",
		},
	)

	// Purge cascade metrics
	PurgeCascadeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foreman_purge_cascade_duration_seconds",
			Help:    "Time taken for a source file's purge cascade to complete in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecipesDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_recipes_deleted_total",
			Help: "Total number of recipes deleted by the purge cascade",
		},
	)

	// Command bus metrics
	BusMessagesDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_bus_messages_dispatched_total",
			Help: "Total number of command bus messages dispatched by type",
		},
		[]string{"type"},
	)

	BusMessagesFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_bus_messages_failed_total",
			Help: "Total number of command bus messages that exhausted redelivery attempts",
		},
		[]string{"type"},
	)

	BusMessageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foreman_bus_message_duration_seconds",
			Help:    "Command message execution duration in seconds by type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// Scheduler metrics
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foreman_scheduling_latency_seconds",
			Help:    "Time taken to dispatch a queued execution's next task in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foreman_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_reconciliation_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	ExecutionsTimedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_executions_timed_out_total",
			Help: "Total number of executions marked timed out by the reconciler",
		},
	)

	ExecutionsLostTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_executions_lost_total",
			Help: "Total number of executions marked lost by the reconciler",
		},
	)
)

func init() {
	prometheus.MustRegister(ExecutionsTotal)
	prometheus.MustRegister(ExecutionsStartedTotal)
	prometheus.MustRegister(ExecutionsCompletedTotal)
	prometheus.MustRegister(ExecutionsFailedTotal)
	prometheus.MustRegister(ExecutionDuration)

	prometheus.MustRegister(TasksRunningTotal)
	prometheus.MustRegister(TaskDuration)

	prometheus.MustRegister(NodesPausedTotal)
	prometheus.MustRegister(NodePauseEventsTotal)

	prometheus.MustRegister(PurgeCascadeDuration)
	prometheus.MustRegister(RecipesDeletedTotal)

	prometheus.MustRegister(BusMessagesDispatchedTotal)
	prometheus.MustRegister(BusMessagesFailedTotal)
	prometheus.MustRegister(BusMessageDuration)

	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ExecutionsTimedOutTotal)
	prometheus.MustRegister(ExecutionsLostTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
