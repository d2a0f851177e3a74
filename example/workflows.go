// Package example provides example workflows declared with guflow.
package example

import (
	"time"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/host"
)

const version = "1"

// Register registers the example workflows with the host. The registry
// provides the registration defaults of their items and may be nil.
func Register(h *host.Host, r *guflow.Registry) {
	for name, fn := range Workflows() {
		fn := fn
		h.Register(name, version, func() *guflow.Workflow {
			return fn(r)
		})
	}
}

// Workflows returns the example workflows by name.
func Workflows() map[string]func(*guflow.Registry) *guflow.Workflow {
	return map[string]func(*guflow.Registry) *guflow.Workflow{
		"greeting": Greeting,
		"media":    Media,
		"payment":  Payment,
		"approval": Approval,
		"deadline": Deadline,
	}
}

// Greeting enriches the name given as input and prints the greeting.
func Greeting(r *guflow.Registry) *guflow.Workflow {
	w := guflow.NewWorkflow(guflow.WithRegistry(r))

	w.ScheduleActivity("EnrichGreeting", version).
		WithInput(func(h *guflow.History) interface{} { return h.Input() })

	w.ScheduleActivity("PrintGreeting", version).
		AfterActivity("EnrichGreeting", version).
		WithInput(func(h *guflow.History) interface{} {
			res, _ := h.Activity("EnrichGreeting", version).Result()
			return res.String()
		})

	return w
}

// Media downloads a video and fetches a watermark concurrently, transcodes
// the video once both are done and publishes the result.
func Media(r *guflow.Registry) *guflow.Workflow {
	w := guflow.NewWorkflow(guflow.WithRegistry(r))

	w.ScheduleActivity("Download", version).
		WithInput(func(h *guflow.History) interface{} { return h.Input() })

	w.ScheduleActivity("FetchWatermark", version)

	w.ScheduleActivity("Transcode", version).
		AfterActivity("Download", version).
		AfterActivity("FetchWatermark", version).
		WithInput(func(h *guflow.History) interface{} {
			video, _ := h.Activity("Download", version).Result()
			mark, _ := h.Activity("FetchWatermark", version).Result()
			return map[string]string{"video": video.String(), "watermark": mark.String()}
		}).
		OnTimedOut(func(e *guflow.ActivityTimedOutEvent) guflow.Action {
			return guflow.Reschedule(e).After(time.Minute)
		})

	w.ScheduleLambda("Publish").
		AfterActivity("Transcode", version).
		WithInput(func(h *guflow.History) interface{} {
			res, _ := h.Activity("Transcode", version).Result()
			return res.String()
		})

	return w
}

// Payment charges a card, retrying declined charges. It ships the order once
// charged and notifies the customer once the retries are exhausted.
func Payment(r *guflow.Registry) *guflow.Workflow {
	w := guflow.NewWorkflow(guflow.WithRegistry(r))

	w.ScheduleActivity("Charge", version).
		WithInput(func(h *guflow.History) interface{} { return h.Input() }).
		OnFailure(func(e *guflow.ActivityFailedEvent) guflow.Action {
			return guflow.Reschedule(e).After(time.Minute).UpTo(3)
		})

	w.ScheduleActivity("Ship", version).
		AfterActivity("Charge", version).
		When(charged)

	w.ScheduleLambda("NotifyDeclined").
		AfterActivity("Charge", version).
		When(func(h *guflow.History) bool { return !charged(h) })

	return w
}

func charged(h *guflow.History) bool {
	_, ok := h.Activity("Charge", version).Result()
	return ok
}

// Approval submits a document and waits for the legal and finance
// approvals before publishing it. A rejection fails the workflow.
func Approval(r *guflow.Registry) *guflow.Workflow {
	w := guflow.NewWorkflow(guflow.WithRegistry(r))

	w.ScheduleActivity("Submit", version).
		WithInput(func(h *guflow.History) interface{} { return h.Input() }).
		OnCompletion(func(e *guflow.ActivityCompletedEvent) guflow.Action {
			return guflow.WaitForAllSignals(e, "LegalApproved", "FinanceApproved").For(48 * time.Hour)
		}).
		OnSignalsTimedOut(func(e *guflow.SignalsTimedOutEvent) guflow.Action {
			return guflow.FailWorkflow("APPROVAL_TIMED_OUT", e.Waiting)
		})

	w.ScheduleActivity("Publish", version).
		AfterActivity("Submit", version)

	w.OnSignal("Rejected", func(e *guflow.WorkflowSignaledEvent) guflow.Action {
		return guflow.FailWorkflow("REJECTED", e.Input)
	})

	return w
}

// Deadline processes the input within an hour. The deadline is extended by
// an Extend signal.
func Deadline(r *guflow.Registry) *guflow.Workflow {
	w := guflow.NewWorkflow(guflow.WithRegistry(r))

	w.ScheduleTimer("Deadline").
		FireAfter(time.Hour).
		OnFired(func(e *guflow.TimerFiredEvent) guflow.Action {
			return guflow.FailWorkflow("DEADLINE_EXCEEDED", nil)
		})

	w.ScheduleActivity("Process", version).
		WithInput(func(h *guflow.History) interface{} { return h.Input() }).
		OnCompletion(func(e *guflow.ActivityCompletedEvent) guflow.Action {
			return guflow.CompleteWorkflow(e.Result.String())
		})

	w.OnSignal("Extend", func(e *guflow.WorkflowSignaledEvent) guflow.Action {
		return e.History().Timer("Deadline").Reset()
	})

	return w
}
