package guflow

import (
	"strings"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
)

// Decide interprets the new events of the task's history and returns the
// decisions the coordination service should perform next. The result only
// depends on the workflow declaration and the task history.
func (w *Workflow) Decide(task history.Task) ([]decision.Decision, error) {
	m := w.o.metrics(task.WorkflowName)
	m.IncPass()

	ds, err := w.decide(task)
	if err != nil {
		m.IncErrors()
		return nil, err
	}

	for _, d := range ds {
		m.IncDecision(d.Type())
	}

	return ds, nil
}

func (w *Workflow) decide(task history.Task) ([]decision.Decision, error) {
	if err := w.resolve(); err != nil {
		return nil, err
	}

	p, err := history.Project(task.Events, task.PreviousStartedEventID)
	if err != nil {
		return nil, err
	}

	h := newHistory(w, task, p)
	if err := h.checkCompatible(); err != nil {
		return nil, err
	}

	var r resolution
	for _, entry := range p.NewEntries() {
		a, err := h.interpret(entry)
		if err != nil {
			return nil, err
		} else if a == nil {
			continue
		}

		res, err := a.resolve()
		if err != nil {
			return nil, err
		}

		h.record(res.decisions)
		r.add(res)
	}

	return h.compact(r), nil
}

// interpret returns the action of a new history entry or nil if the entry
// requires no action.
func (h *History) interpret(entry history.Entry) (Action, error) {
	if entry.Key == history.WorkflowKey {
		return h.interpretWorkflow(entry), nil
	}

	it, err := h.lookup(entry.Key)
	if err != nil {
		return nil, err
	}

	switch entry.Role {
	case history.RoleMarker:
		return nil, nil

	case history.RoleReschedule:
		switch entry.Type() {
		case history.TimerFired:
			return &scheduleAction{h: h, it: it}, nil
		case history.StartTimerFailed:
			return FailWorkflow(ReasonRescheduleTimerStartFailed, entry.Event.Attributes.Cause), nil
		case history.CancelTimerFailed:
			return FailWorkflow(ReasonRescheduleTimerCancellationFailed, entry.Event.Attributes.Cause), nil
		}
		return nil, nil

	case history.RoleSignalTimeout:
		switch entry.Type() {
		case history.TimerFired:
			return h.signalTimerFired(it, entry), nil
		case history.StartTimerFailed:
			return FailWorkflow(ReasonTimerStartFailed, entry.Event.Attributes.Cause), nil
		}
		return nil, nil
	}

	if entry.Type().IsOutstanding() {
		return nil, nil
	}

	if entry.Type() == history.TimerCanceled && entry.ItemID() != h.view(it).LatestTimerID() {
		// Cancellation of a timer superseded by a reset.
		return nil, nil
	}

	e, o, ok := newItemEvent(h, it, entry)
	if !ok {
		return nil, nil
	}

	return h.handlerAction(it, e, o), nil
}

func (h *History) interpretWorkflow(entry history.Entry) Action {
	w := h.w
	e := entry.Event
	a := e.Attributes

	switch e.Type {
	case history.WorkflowExecutionStarted:
		ev := &WorkflowStartedEvent{
			h:                h,
			e:                e,
			Input:            a.Input,
			ParentWorkflowID: a.ParentWorkflowID,
			ParentRunID:      a.ParentRunID,
			ContinuedRunID:   a.ContinuedRunID,
			Tags:             a.Tags,
		}
		if w.onStart != nil {
			return orIgnore(w.onStart(ev))
		}
		return ev.defaultAction()

	case history.WorkflowExecutionSignaled:
		ev := &WorkflowSignaledEvent{
			h:                  h,
			e:                  e,
			SignalName:         a.SignalName,
			Input:              a.Input,
			ExternalWorkflowID: a.WorkflowID,
		}

		handler := ev.defaultAction()
		if fn, ok := w.onSignal[strings.ToLower(a.SignalName)]; ok {
			handler = orIgnore(fn(ev))
		}
		return composite{h.signalArrived(entry), handler}

	case history.WorkflowExecutionCancelRequested:
		ev := &WorkflowCancelRequestedEvent{h: h, e: e, Cause: a.Cause, ExternalWorkflowID: a.WorkflowID}
		if w.onCancelRequest != nil {
			return orIgnore(w.onCancelRequest(ev))
		}
		return ev.defaultAction()

	case history.SignalExternalWorkflowExecutionFailed:
		ev := &SignalFailedEvent{h: h, e: e, WorkflowID: a.WorkflowID, RunID: a.RunID, Cause: a.Cause}
		if w.onSignalFailed != nil {
			return orIgnore(w.onSignalFailed(ev))
		}
		return ev.defaultAction()

	case history.RecordMarkerFailed:
		ev := &RecordMarkerFailedEvent{h: h, e: e, MarkerName: a.MarkerName, Cause: a.Cause}
		if w.onRecordMarkerFailed != nil {
			return orIgnore(w.onRecordMarkerFailed(ev))
		}
		return ev.defaultAction()

	case history.CompleteWorkflowExecutionFailed, history.FailWorkflowExecutionFailed,
		history.CancelWorkflowExecutionFailed, history.ContinueAsNewWorkflowExecutionFailed:
		ev := &WorkflowActionFailedEvent{h: h, e: e, Type: e.Type, Cause: a.Cause}
		if w.onActionFailed != nil {
			return orIgnore(w.onActionFailed(ev))
		}
		return ev.defaultAction()

	default:
		return nil
	}
}

func orIgnore(a Action) Action {
	if a == nil {
		return Ignore()
	}
	return a
}

// compact returns the final decisions of the pass. The first close decision
// supersedes everything else. A completion proposal is only decided if the
// pass scheduled nothing and no item is active or waiting for signals.
func (h *History) compact(r resolution) []decision.Decision {
	for _, d := range r.decisions {
		if decision.IsClose(d) {
			return []decision.Decision{d}
		}
	}

	ds := decision.Dedupe(r.decisions)
	if r.complete == nil || blocks(ds) || h.IsActive() || h.isWaiting() {
		return ds
	}

	return append(ds, *r.complete)
}

// blocks returns true if any decision keeps the execution running.
func blocks(ds []decision.Decision) bool {
	for _, d := range ds {
		switch d.(type) {
		case decision.ScheduleActivity, decision.ScheduleTimer, decision.ScheduleLambda, decision.ScheduleChildWorkflow:
			return true
		}
	}
	return false
}
