package guflow

import (
	"fmt"

	"github.com/gurmitteotia/guflow-sub003/history"
)

// Event is an interpreted history event passed to a handler.
type Event interface {
	// History returns the history of the decision pass the event belongs to.
	History() *History

	// EventID returns the id of the history event the event was built from.
	EventID() int64

	defaultAction() Action
}

// ItemEvent is the common part of the events of workflow items.
type ItemEvent struct {
	h     *History
	it    *item
	entry history.Entry
}

func (e *ItemEvent) History() *History {
	return e.h
}

func (e *ItemEvent) EventID() int64 {
	return e.entry.ID()
}

func (e *ItemEvent) Name() string {
	return e.it.id.Name
}

func (e *ItemEvent) Version() string {
	return e.it.id.Version
}

func (e *ItemEvent) PositionalName() string {
	return e.it.id.PositionalName
}

// ItemID returns the id the item instance was scheduled with.
func (e *ItemEvent) ItemID() string {
	return e.entry.ItemID()
}

func (e *ItemEvent) base() *ItemEvent {
	return e
}

func (e *ItemEvent) describe() string {
	return fmt.Sprintf("%s %q", e.it.kind, e.it.id.Name)
}

type itemEventer interface {
	base() *ItemEvent
}

// itemOf returns the item event underlying e or nil for workflow events.
func itemOf(e Event) *ItemEvent {
	ie, ok := e.(itemEventer)
	if !ok {
		return nil
	}
	return ie.base()
}

type ActivityCompletedEvent struct {
	ItemEvent
	Result         Result
	Input          string
	WorkerIdentity string
}

func (e *ActivityCompletedEvent) defaultAction() Action {
	return Continue(e)
}

type ActivityFailedEvent struct {
	ItemEvent
	Reason         string
	Details        string
	Input          string
	WorkerIdentity string
}

func (e *ActivityFailedEvent) defaultAction() Action {
	return FailWorkflow(e.Reason, e.Details)
}

type ActivityTimedOutEvent struct {
	ItemEvent
	TimeoutType string
	Details     string
}

func (e *ActivityTimedOutEvent) defaultAction() Action {
	return FailWorkflow(e.TimeoutType, timedOutDetails(&e.ItemEvent, e.TimeoutType, e.Details))
}

type ActivityCancelledEvent struct {
	ItemEvent
	Details string
}

func (e *ActivityCancelledEvent) defaultAction() Action {
	return CancelWorkflow(e.Details)
}

type ActivitySchedulingFailedEvent struct {
	ItemEvent
	Cause string
}

func (e *ActivitySchedulingFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonActivitySchedulingFailed, e.Cause)
}

type ActivityCancellationFailedEvent struct {
	ItemEvent
	Cause string
}

func (e *ActivityCancellationFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonActivityCancellationFailed, e.Cause)
}

// ActivityCancelRequestedEvent is raised when a cancellation of a running
// activity was requested. The activity stays active until the worker
// acknowledges the cancellation.
type ActivityCancelRequestedEvent struct {
	ItemEvent
}

func (e *ActivityCancelRequestedEvent) defaultAction() Action {
	return Ignore()
}

type TimerFiredEvent struct {
	ItemEvent
}

func (e *TimerFiredEvent) defaultAction() Action {
	return Continue(e)
}

type TimerCancelledEvent struct {
	ItemEvent
}

func (e *TimerCancelledEvent) defaultAction() Action {
	return CancelWorkflow("")
}

type TimerStartFailedEvent struct {
	ItemEvent
	Cause string
}

func (e *TimerStartFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonTimerStartFailed, e.Cause)
}

type TimerCancellationFailedEvent struct {
	ItemEvent
	Cause string
}

func (e *TimerCancellationFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonTimerCancellationFailed, e.Cause)
}

type LambdaCompletedEvent struct {
	ItemEvent
	Result Result
	Input  string
}

func (e *LambdaCompletedEvent) defaultAction() Action {
	return Continue(e)
}

type LambdaFailedEvent struct {
	ItemEvent
	Reason  string
	Details string
}

func (e *LambdaFailedEvent) defaultAction() Action {
	return FailWorkflow(e.Reason, e.Details)
}

type LambdaTimedOutEvent struct {
	ItemEvent
	TimeoutType string
}

func (e *LambdaTimedOutEvent) defaultAction() Action {
	return FailWorkflow(e.TimeoutType, timedOutDetails(&e.ItemEvent, e.TimeoutType, ""))
}

type LambdaSchedulingFailedEvent struct {
	ItemEvent
	Cause string
}

func (e *LambdaSchedulingFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonLambdaSchedulingFailed, e.Cause)
}

type LambdaStartFailedEvent struct {
	ItemEvent
	Cause   string
	Message string
}

func (e *LambdaStartFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonLambdaStartFailed, e.Cause)
}

type ChildWorkflowCompletedEvent struct {
	ItemEvent
	Result Result
	Input  string
	RunID  string
}

func (e *ChildWorkflowCompletedEvent) defaultAction() Action {
	return Continue(e)
}

type ChildWorkflowFailedEvent struct {
	ItemEvent
	Reason  string
	Details string
	RunID   string
}

func (e *ChildWorkflowFailedEvent) defaultAction() Action {
	return FailWorkflow(e.Reason, e.Details)
}

type ChildWorkflowTimedOutEvent struct {
	ItemEvent
	TimeoutType string
	RunID       string
}

func (e *ChildWorkflowTimedOutEvent) defaultAction() Action {
	return FailWorkflow(e.TimeoutType, timedOutDetails(&e.ItemEvent, e.TimeoutType, ""))
}

type ChildWorkflowCancelledEvent struct {
	ItemEvent
	Details string
	RunID   string
}

func (e *ChildWorkflowCancelledEvent) defaultAction() Action {
	return CancelWorkflow(e.Details)
}

type ChildWorkflowTerminatedEvent struct {
	ItemEvent
	RunID string
}

func (e *ChildWorkflowTerminatedEvent) defaultAction() Action {
	return FailWorkflow(ReasonChildWorkflowTerminated, e.RunID)
}

type ChildWorkflowStartFailedEvent struct {
	ItemEvent
	Cause string
}

func (e *ChildWorkflowStartFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonChildWorkflowStartFailed, e.Cause)
}

// SignalsTimedOutEvent is raised when an item waiting for signals times out
// before the wait is satisfied.
type SignalsTimedOutEvent struct {
	ItemEvent
	Expected []string
	Waiting  []string
	next     string
}

func (e *SignalsTimedOutEvent) defaultAction() Action {
	return resume(e.h, e.it, e.next)
}

func timedOutDetails(e *ItemEvent, timeoutType, details string) string {
	if details != "" {
		return details
	}
	return fmt.Sprintf("%s timed out: %s", e.describe(), timeoutType)
}

// newItemEvent builds the typed event of an item entry. It returns false if
// the entry does not represent an outcome of the item.
func newItemEvent(h *History, it *item, entry history.Entry) (Event, Outcome, bool) {
	base := ItemEvent{h: h, it: it, entry: entry}
	a := entry.Event.Attributes

	var input, identity string
	if entry.Scheduled != nil {
		input = entry.Scheduled.Attributes.Input
	}
	if entry.Started != nil {
		identity = entry.Started.Attributes.Identity
	}

	var runID string
	if it.kind == history.KindChildWorkflow {
		runID = a.RunID
		if entry.Started != nil {
			runID = entry.Started.Attributes.RunID
		}
	}

	switch entry.Type() {
	case history.ActivityTaskCompleted:
		return &ActivityCompletedEvent{ItemEvent: base, Result: NewResult(a.Result), Input: input, WorkerIdentity: identity}, OutcomeCompleted, true
	case history.ActivityTaskFailed:
		return &ActivityFailedEvent{ItemEvent: base, Reason: a.Reason, Details: a.Details, Input: input, WorkerIdentity: identity}, OutcomeFailed, true
	case history.ActivityTaskTimedOut:
		return &ActivityTimedOutEvent{ItemEvent: base, TimeoutType: a.TimeoutType, Details: a.Details}, OutcomeTimedOut, true
	case history.ActivityTaskCanceled:
		return &ActivityCancelledEvent{ItemEvent: base, Details: a.Details}, OutcomeCancelled, true
	case history.ScheduleActivityTaskFailed:
		return &ActivitySchedulingFailedEvent{ItemEvent: base, Cause: a.Cause}, OutcomeSchedulingFailed, true
	case history.RequestCancelActivityTaskFailed:
		return &ActivityCancellationFailedEvent{ItemEvent: base, Cause: a.Cause}, OutcomeCancellationFailed, true
	case history.ActivityTaskCancelRequested:
		return &ActivityCancelRequestedEvent{ItemEvent: base}, OutcomeCancelRequested, true

	case history.TimerFired:
		return &TimerFiredEvent{ItemEvent: base}, OutcomeFired, true
	case history.TimerCanceled:
		return &TimerCancelledEvent{ItemEvent: base}, OutcomeCancelled, true
	case history.StartTimerFailed:
		return &TimerStartFailedEvent{ItemEvent: base, Cause: a.Cause}, OutcomeStartFailed, true
	case history.CancelTimerFailed:
		return &TimerCancellationFailedEvent{ItemEvent: base, Cause: a.Cause}, OutcomeCancellationFailed, true

	case history.LambdaFunctionCompleted:
		return &LambdaCompletedEvent{ItemEvent: base, Result: NewResult(a.Result), Input: input}, OutcomeCompleted, true
	case history.LambdaFunctionFailed:
		return &LambdaFailedEvent{ItemEvent: base, Reason: a.Reason, Details: a.Details}, OutcomeFailed, true
	case history.LambdaFunctionTimedOut:
		return &LambdaTimedOutEvent{ItemEvent: base, TimeoutType: a.TimeoutType}, OutcomeTimedOut, true
	case history.ScheduleLambdaFunctionFailed:
		return &LambdaSchedulingFailedEvent{ItemEvent: base, Cause: a.Cause}, OutcomeSchedulingFailed, true
	case history.StartLambdaFunctionFailed:
		return &LambdaStartFailedEvent{ItemEvent: base, Cause: a.Cause, Message: a.Details}, OutcomeStartFailed, true

	case history.ChildWorkflowExecutionCompleted:
		return &ChildWorkflowCompletedEvent{ItemEvent: base, Result: NewResult(a.Result), Input: input, RunID: runID}, OutcomeCompleted, true
	case history.ChildWorkflowExecutionFailed:
		return &ChildWorkflowFailedEvent{ItemEvent: base, Reason: a.Reason, Details: a.Details, RunID: runID}, OutcomeFailed, true
	case history.ChildWorkflowExecutionTimedOut:
		return &ChildWorkflowTimedOutEvent{ItemEvent: base, TimeoutType: a.TimeoutType, RunID: runID}, OutcomeTimedOut, true
	case history.ChildWorkflowExecutionCanceled:
		return &ChildWorkflowCancelledEvent{ItemEvent: base, Details: a.Details, RunID: runID}, OutcomeCancelled, true
	case history.ChildWorkflowExecutionTerminated:
		return &ChildWorkflowTerminatedEvent{ItemEvent: base, RunID: runID}, OutcomeTerminated, true
	case history.StartChildWorkflowExecutionFailed:
		return &ChildWorkflowStartFailedEvent{ItemEvent: base, Cause: a.Cause}, OutcomeStartFailed, true

	default:
		return nil, 0, false
	}
}

// WorkflowStartedEvent is raised when the execution starts.
type WorkflowStartedEvent struct {
	h *History
	e *history.Event

	Input            string
	ParentWorkflowID string
	ParentRunID      string
	ContinuedRunID   string
	Tags             []string
}

func (e *WorkflowStartedEvent) History() *History { return e.h }
func (e *WorkflowStartedEvent) EventID() int64     { return e.e.ID }

func (e *WorkflowStartedEvent) defaultAction() Action {
	return StartWorkflow(e)
}

// WorkflowSignaledEvent is raised when a signal is delivered to the execution.
type WorkflowSignaledEvent struct {
	h *History
	e *history.Event

	SignalName         string
	Input              string
	ExternalWorkflowID string
}

func (e *WorkflowSignaledEvent) History() *History { return e.h }
func (e *WorkflowSignaledEvent) EventID() int64     { return e.e.ID }

func (e *WorkflowSignaledEvent) defaultAction() Action {
	return Ignore()
}

// WorkflowCancelRequestedEvent is raised when cancellation of the execution
// is requested.
type WorkflowCancelRequestedEvent struct {
	h *History
	e *history.Event

	Cause              string
	ExternalWorkflowID string
}

func (e *WorkflowCancelRequestedEvent) History() *History { return e.h }
func (e *WorkflowCancelRequestedEvent) EventID() int64     { return e.e.ID }

func (e *WorkflowCancelRequestedEvent) defaultAction() Action {
	return CancelWorkflow(e.Cause)
}

// SignalFailedEvent is raised when signalling an external workflow failed.
type SignalFailedEvent struct {
	h *History
	e *history.Event

	WorkflowID string
	RunID      string
	Cause      string
}

func (e *SignalFailedEvent) History() *History { return e.h }
func (e *SignalFailedEvent) EventID() int64     { return e.e.ID }

func (e *SignalFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonSignalExternalWorkflowFailed, e.Cause)
}

// RecordMarkerFailedEvent is raised when recording a marker failed.
type RecordMarkerFailedEvent struct {
	h *History
	e *history.Event

	MarkerName string
	Cause      string
}

func (e *RecordMarkerFailedEvent) History() *History { return e.h }
func (e *RecordMarkerFailedEvent) EventID() int64     { return e.e.ID }

func (e *RecordMarkerFailedEvent) defaultAction() Action {
	return FailWorkflow(ReasonRecordMarkerFailed, e.Cause)
}

// WorkflowActionFailedEvent is raised when a complete, fail, cancel or
// continue-as-new decision was rejected by the coordination service. By
// default it is ignored: the rejection is usually caused by new events that
// the next decision pass interprets.
type WorkflowActionFailedEvent struct {
	h *History
	e *history.Event

	Type  history.EventType
	Cause string
}

func (e *WorkflowActionFailedEvent) History() *History { return e.h }
func (e *WorkflowActionFailedEvent) EventID() int64     { return e.e.ID }

func (e *WorkflowActionFailedEvent) defaultAction() Action {
	return Ignore()
}
