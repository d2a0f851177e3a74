package host

import "github.com/prometheus/client_golang/prometheus"

var (
	tasksHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guflow",
		Subsystem: "host",
		Name:      "decision_tasks_total",
		Help:      "Total number of decision tasks handled.",
	}, []string{"workflow"})

	taskErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guflow",
		Subsystem: "host",
		Name:      "decision_task_errors_total",
		Help:      "Total number of decision tasks that failed to be decided or responded.",
	}, []string{"workflow"})

	decideLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "guflow",
		Subsystem: "host",
		Name:      "decide_duration_seconds",
		Help:      "Decision task decide and respond duration in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"workflow"})
)

func init() {
	prometheus.MustRegister(
		tasksHandled,
		taskErrors,
		decideLatency,
	)
}
