package guflow

import "github.com/prometheus/client_golang/prometheus"

var (
	passTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guflow",
		Subsystem: "engine",
		Name:      "decision_pass_total",
		Help:      "Total number of decision passes.",
	}, []string{"workflow"})

	passErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guflow",
		Subsystem: "engine",
		Name:      "decision_pass_errors_total",
		Help:      "Total number of decision passes that returned an error.",
	}, []string{"workflow"})

	decisionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guflow",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Total number of decisions returned by decision passes.",
	}, []string{"workflow", "type"})
)

func init() {
	prometheus.MustRegister(
		passTotal,
		passErrors,
		decisionTotal,
	)
}
