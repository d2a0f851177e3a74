package guflow

import "github.com/gurmitteotia/guflow-sub003/decision"

type options struct {
	registry *Registry
	metrics  func(workflow string) Metrics
}

type option func(*options)

// WithRegistry returns an option to define the registration defaults of
// the workflow's items.
func WithRegistry(r *Registry) option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMetrics returns an option to define decision pass metrics.
// It overrides the default prometheus metrics.
func WithMetrics(m func(workflow string) Metrics) option {
	return func(o *options) {
		o.metrics = m
	}
}

type Metrics struct {
	IncPass     func()
	IncErrors   func()
	IncDecision func(decision.Type)
}

func defaultOptions() options {
	return options{
		metrics: func(workflow string) Metrics {
			return Metrics{
				IncPass:   passTotal.WithLabelValues(workflow).Inc,
				IncErrors: passErrors.WithLabelValues(workflow).Inc,
				IncDecision: func(t decision.Type) {
					decisionTotal.WithLabelValues(workflow, string(t)).Inc()
				},
			}
		},
	}
}
