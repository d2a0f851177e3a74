// Package test provides a minimal coordination service simulator that
// builds workflow histories for tests.
package test

import (
	"testing"
	"time"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
)

// Decider decides a decision task.
type Decider interface {
	Decide(task history.Task) ([]decision.Decision, error)
}

// History simulates the history of one workflow execution. Decisions are
// applied the way the coordination service records them and every external
// event schedules a decision task.
type History struct {
	t testing.TB

	WorkflowID   string
	RunID        string
	WorkflowName string

	events      []history.Event
	clock       time.Time
	prevStarted int64
	scheduled   int64
	started     int64
	closed      decision.Decision
}

func NewHistory(t testing.TB, workflowID, runID string) *History {
	return &History{
		t:            t,
		WorkflowID:   workflowID,
		RunID:        runID,
		WorkflowName: "test",
		clock:        time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Events returns a copy of the events so far.
func (h *History) Events() []history.Event {
	return append([]history.Event(nil), h.events...)
}

// Closed returns the decision that closed the execution, if any.
func (h *History) Closed() (decision.Decision, bool) {
	return h.closed, h.closed != nil
}

func (h *History) add(typ history.EventType, a history.Attributes) *history.Event {
	h.clock = h.clock.Add(time.Second)
	h.events = append(h.events, history.Event{
		ID:         int64(len(h.events) + 1),
		Type:       typ,
		Timestamp:  h.clock,
		Attributes: a,
	})
	return &h.events[len(h.events)-1]
}

// external appends an event raised outside of a decision task and schedules
// a decision task if none is pending.
func (h *History) external(typ history.EventType, a history.Attributes) *history.Event {
	e := *h.add(typ, a)
	if h.scheduled == 0 {
		h.scheduled = h.add(history.DecisionTaskScheduled, history.Attributes{}).ID
	}
	return &e
}

// Start records the start of the execution.
func (h *History) Start(input string, tags ...string) *History {
	h.external(history.WorkflowExecutionStarted, history.Attributes{
		Name:                         h.WorkflowName,
		Input:                        input,
		Tags:                         tags,
		TaskList:                     "default",
		ExecutionStartToCloseTimeout: time.Hour,
		TaskStartToCloseTimeout:      time.Minute,
	})
	return h
}

// Task starts the pending decision task and returns it.
func (h *History) Task() history.Task {
	h.t.Helper()
	require.NotZero(h.t, h.scheduled, "no decision task scheduled")

	if h.started == 0 {
		h.started = h.add(history.DecisionTaskStarted, history.Attributes{ScheduledEventID: h.scheduled}).ID
	}

	return history.Task{
		TaskToken:              h.WorkflowID + "/" + h.RunID,
		WorkflowID:             h.WorkflowID,
		RunID:                  h.RunID,
		WorkflowName:           h.WorkflowName,
		Events:                 h.Events(),
		PreviousStartedEventID: h.prevStarted,
		StartedEventID:         h.started,
	}
}

// Decide runs the pending decision task through d and applies the result.
func (h *History) Decide(d Decider) []decision.Decision {
	h.t.Helper()

	ds, err := d.Decide(h.Task())
	jtest.RequireNil(h.t, err)

	h.Apply(ds)
	return ds
}

// Apply completes the started decision task with the decisions.
func (h *History) Apply(ds []decision.Decision) {
	h.t.Helper()
	require.NotZero(h.t, h.started, "no decision task started")

	h.add(history.DecisionTaskCompleted, history.Attributes{
		ScheduledEventID: h.scheduled,
		StartedEventID:   h.started,
	})
	h.prevStarted = h.started
	h.scheduled, h.started = 0, 0

	for _, d := range ds {
		jtest.RequireNil(h.t, decision.Validate(d))
		h.apply(d)
	}
}

func (h *History) apply(d decision.Decision) {
	switch d := d.(type) {
	case decision.ScheduleActivity:
		h.add(history.ActivityTaskScheduled, history.Attributes{
			ActivityID:          d.ActivityID,
			Name:                d.Name,
			Version:             d.Version,
			Control:             d.Control,
			Input:               d.Input,
			TaskList:            d.TaskList,
			StartToCloseTimeout: d.StartToCloseTimeout,
		})

	case decision.RequestCancelActivity:
		if h.open(history.ActivityTaskScheduled, d.ActivityID) == nil {
			h.external(history.RequestCancelActivityTaskFailed, history.Attributes{
				ActivityID: d.ActivityID,
				Cause:      "ACTIVITY_ID_UNKNOWN",
			})
			return
		}
		h.add(history.ActivityTaskCancelRequested, history.Attributes{ActivityID: d.ActivityID})

	case decision.ScheduleTimer:
		h.add(history.TimerStarted, history.Attributes{
			TimerID:            d.TimerID,
			Control:            d.Control,
			StartToFireTimeout: d.StartToFire,
		})

	case decision.CancelTimer:
		s := h.open(history.TimerStarted, d.TimerID)
		if s == nil {
			h.external(history.CancelTimerFailed, history.Attributes{TimerID: d.TimerID, Cause: "TIMER_ID_UNKNOWN"})
			return
		}
		h.add(history.TimerCanceled, history.Attributes{TimerID: d.TimerID, StartedEventID: s.ID})

	case decision.ScheduleLambda:
		h.add(history.LambdaFunctionScheduled, history.Attributes{
			LambdaID:            d.LambdaID,
			Name:                d.Name,
			Control:             d.Control,
			Input:               d.Input,
			StartToCloseTimeout: d.StartToCloseTimeout,
		})

	case decision.ScheduleChildWorkflow:
		h.add(history.StartChildWorkflowExecutionInitiated, history.Attributes{
			WorkflowID: d.WorkflowID,
			Name:       d.Name,
			Version:    d.Version,
			Control:    d.Control,
			Input:      d.Input,
			Tags:       d.Tags,
		})

	case decision.RecordMarker:
		h.add(history.MarkerRecorded, history.Attributes{MarkerName: d.MarkerName, Details: d.Details})

	case decision.SignalExternalWorkflow:
		h.add(history.SignalExternalWorkflowExecutionInitiated, history.Attributes{
			WorkflowID: d.WorkflowID,
			RunID:      d.RunID,
			SignalName: d.SignalName,
			Input:      d.Input,
		})

	case decision.CompleteWorkflow, decision.FailWorkflow, decision.CancelWorkflow, decision.ContinueAsNew:
		h.closed = d
	}
}

// open returns the scheduling event of the item instance with the id if it
// has not closed yet.
func (h *History) open(typ history.EventType, id string) *history.Event {
	var (
		res  *history.Event
		done = make(map[int64]bool)
	)
	for i := range h.events {
		e := &h.events[i]
		switch {
		case e.Type == typ && itemID(e) == id:
			res = e
		case isClosing(e.Type):
			done[ref(e)] = true
		}
	}

	if res == nil || done[res.ID] {
		return nil
	}
	return res
}

func itemID(e *history.Event) string {
	a := e.Attributes
	switch {
	case a.TimerID != "":
		return a.TimerID
	case a.ActivityID != "":
		return a.ActivityID
	case a.LambdaID != "":
		return a.LambdaID
	default:
		return a.WorkflowID
	}
}

func isClosing(t history.EventType) bool {
	switch t {
	case history.ActivityTaskCompleted, history.ActivityTaskFailed, history.ActivityTaskTimedOut, history.ActivityTaskCanceled,
		history.TimerFired, history.TimerCanceled,
		history.LambdaFunctionCompleted, history.LambdaFunctionFailed, history.LambdaFunctionTimedOut, history.StartLambdaFunctionFailed,
		history.ChildWorkflowExecutionCompleted, history.ChildWorkflowExecutionFailed, history.ChildWorkflowExecutionTimedOut,
		history.ChildWorkflowExecutionCanceled, history.ChildWorkflowExecutionTerminated:
		return true
	default:
		return false
	}
}

// ref returns the scheduling event a closing event refers to.
func ref(e *history.Event) int64 {
	a := e.Attributes
	switch {
	case a.ScheduledEventID != 0:
		return a.ScheduledEventID
	case a.InitiatedEventID != 0:
		return a.InitiatedEventID
	default:
		return a.StartedEventID
	}
}

func (h *History) mustOpen(typ history.EventType, id string) *history.Event {
	h.t.Helper()
	s := h.open(typ, id)
	require.NotNil(h.t, s, "no open %s with id %s", typ, id)
	return s
}

// StartActivity records that a worker picked up the activity.
func (h *History) StartActivity(activityID string) *History {
	s := h.mustOpen(history.ActivityTaskScheduled, activityID)
	h.add(history.ActivityTaskStarted, history.Attributes{ScheduledEventID: s.ID, Identity: "worker"})
	return h
}

func (h *History) activityStarted(activityID string) (scheduled, started int64) {
	h.t.Helper()
	s := h.mustOpen(history.ActivityTaskScheduled, activityID)
	for i := len(h.events) - 1; i >= 0; i-- {
		e := h.events[i]
		if e.Type == history.ActivityTaskStarted && e.Attributes.ScheduledEventID == s.ID {
			return s.ID, e.ID
		}
	}
	return s.ID, h.add(history.ActivityTaskStarted, history.Attributes{ScheduledEventID: s.ID, Identity: "worker"}).ID
}

func (h *History) CompleteActivity(activityID, result string) *History {
	s, st := h.activityStarted(activityID)
	h.external(history.ActivityTaskCompleted, history.Attributes{ScheduledEventID: s, StartedEventID: st, Result: result})
	return h
}

func (h *History) FailActivity(activityID, reason, details string) *History {
	s, st := h.activityStarted(activityID)
	h.external(history.ActivityTaskFailed, history.Attributes{ScheduledEventID: s, StartedEventID: st, Reason: reason, Details: details})
	return h
}

func (h *History) TimeoutActivity(activityID, timeoutType string) *History {
	s, st := h.activityStarted(activityID)
	h.external(history.ActivityTaskTimedOut, history.Attributes{ScheduledEventID: s, StartedEventID: st, TimeoutType: timeoutType})
	return h
}

func (h *History) CancelActivity(activityID, details string) *History {
	s, st := h.activityStarted(activityID)
	h.external(history.ActivityTaskCanceled, history.Attributes{ScheduledEventID: s, StartedEventID: st, Details: details})
	return h
}

// FireTimer fires the open timer with the id.
func (h *History) FireTimer(timerID string) *History {
	s := h.mustOpen(history.TimerStarted, timerID)
	h.external(history.TimerFired, history.Attributes{TimerID: timerID, StartedEventID: s.ID})
	return h
}

func (h *History) CompleteLambda(lambdaID, result string) *History {
	s := h.mustOpen(history.LambdaFunctionScheduled, lambdaID)
	st := h.add(history.LambdaFunctionStarted, history.Attributes{ScheduledEventID: s.ID}).ID
	h.external(history.LambdaFunctionCompleted, history.Attributes{ScheduledEventID: s.ID, StartedEventID: st, Result: result})
	return h
}

func (h *History) FailLambda(lambdaID, reason, details string) *History {
	s := h.mustOpen(history.LambdaFunctionScheduled, lambdaID)
	st := h.add(history.LambdaFunctionStarted, history.Attributes{ScheduledEventID: s.ID}).ID
	h.external(history.LambdaFunctionFailed, history.Attributes{ScheduledEventID: s.ID, StartedEventID: st, Reason: reason, Details: details})
	return h
}

// StartChild records the start of the initiated child workflow.
func (h *History) StartChild(workflowID, runID string) *History {
	s := h.mustOpen(history.StartChildWorkflowExecutionInitiated, workflowID)
	h.external(history.ChildWorkflowExecutionStarted, history.Attributes{WorkflowID: workflowID, RunID: runID, InitiatedEventID: s.ID})
	return h
}

func (h *History) childStarted(workflowID string) (initiated, started int64, runID string) {
	h.t.Helper()
	s := h.mustOpen(history.StartChildWorkflowExecutionInitiated, workflowID)
	for i := len(h.events) - 1; i >= 0; i-- {
		e := h.events[i]
		if e.Type == history.ChildWorkflowExecutionStarted && e.Attributes.InitiatedEventID == s.ID {
			return s.ID, e.ID, e.Attributes.RunID
		}
	}
	require.Fail(h.t, "child workflow not started", workflowID)
	return 0, 0, ""
}

func (h *History) CompleteChild(workflowID, result string) *History {
	i, s, run := h.childStarted(workflowID)
	h.external(history.ChildWorkflowExecutionCompleted, history.Attributes{
		WorkflowID:       workflowID,
		RunID:            run,
		InitiatedEventID: i,
		StartedEventID:   s,
		Result:           result,
	})
	return h
}

func (h *History) TerminateChild(workflowID string) *History {
	i, s, run := h.childStarted(workflowID)
	h.external(history.ChildWorkflowExecutionTerminated, history.Attributes{
		WorkflowID:       workflowID,
		RunID:            run,
		InitiatedEventID: i,
		StartedEventID:   s,
	})
	return h
}

// Signal delivers a signal to the execution.
func (h *History) Signal(name, input string) *History {
	h.external(history.WorkflowExecutionSignaled, history.Attributes{SignalName: name, Input: input})
	return h
}

// RequestCancel requests cancellation of the execution.
func (h *History) RequestCancel(cause string) *History {
	h.external(history.WorkflowExecutionCancelRequested, history.Attributes{Cause: cause})
	return h
}
