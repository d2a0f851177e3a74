// Package history provides the history event model of a workflow execution
// and the per item projection of that history used by the decision engine.
package history

import (
	"strconv"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// EventType identifies the kind of a history event.
type EventType int

// ReflexType allows history events to be streamed as reflex events.
func (t EventType) ReflexType() int {
	return int(t)
}

const (
	WorkflowExecutionStarted                 EventType = 1
	WorkflowExecutionCancelRequested         EventType = 2
	WorkflowExecutionSignaled                EventType = 3
	DecisionTaskScheduled                    EventType = 4
	DecisionTaskStarted                      EventType = 5
	DecisionTaskCompleted                    EventType = 6
	DecisionTaskTimedOut                     EventType = 7
	ActivityTaskScheduled                    EventType = 8
	ScheduleActivityTaskFailed               EventType = 9
	ActivityTaskStarted                      EventType = 10
	ActivityTaskCompleted                    EventType = 11
	ActivityTaskFailed                       EventType = 12
	ActivityTaskTimedOut                     EventType = 13
	ActivityTaskCanceled                     EventType = 14
	ActivityTaskCancelRequested              EventType = 15
	RequestCancelActivityTaskFailed          EventType = 16
	TimerStarted                             EventType = 17
	StartTimerFailed                         EventType = 18
	TimerFired                               EventType = 19
	TimerCanceled                            EventType = 20
	CancelTimerFailed                        EventType = 21
	LambdaFunctionScheduled                  EventType = 22
	ScheduleLambdaFunctionFailed             EventType = 23
	LambdaFunctionStarted                    EventType = 24
	StartLambdaFunctionFailed                EventType = 25
	LambdaFunctionCompleted                  EventType = 26
	LambdaFunctionFailed                     EventType = 27
	LambdaFunctionTimedOut                   EventType = 28
	StartChildWorkflowExecutionInitiated     EventType = 29
	StartChildWorkflowExecutionFailed        EventType = 30
	ChildWorkflowExecutionStarted            EventType = 31
	ChildWorkflowExecutionCompleted          EventType = 32
	ChildWorkflowExecutionFailed             EventType = 33
	ChildWorkflowExecutionTimedOut           EventType = 34
	ChildWorkflowExecutionCanceled           EventType = 35
	ChildWorkflowExecutionTerminated         EventType = 36
	MarkerRecorded                           EventType = 37
	RecordMarkerFailed                       EventType = 38
	SignalExternalWorkflowExecutionInitiated EventType = 39
	SignalExternalWorkflowExecutionFailed    EventType = 40
	ExternalWorkflowExecutionSignaled        EventType = 41
	CompleteWorkflowExecutionFailed          EventType = 42
	FailWorkflowExecutionFailed              EventType = 43
	CancelWorkflowExecutionFailed            EventType = 44
	ContinueAsNewWorkflowExecutionFailed     EventType = 45
)

var typeNames = map[EventType]string{
	WorkflowExecutionStarted:                 "WorkflowExecutionStarted",
	WorkflowExecutionCancelRequested:         "WorkflowExecutionCancelRequested",
	WorkflowExecutionSignaled:                "WorkflowExecutionSignaled",
	DecisionTaskScheduled:                    "DecisionTaskScheduled",
	DecisionTaskStarted:                      "DecisionTaskStarted",
	DecisionTaskCompleted:                    "DecisionTaskCompleted",
	DecisionTaskTimedOut:                     "DecisionTaskTimedOut",
	ActivityTaskScheduled:                    "ActivityTaskScheduled",
	ScheduleActivityTaskFailed:               "ScheduleActivityTaskFailed",
	ActivityTaskStarted:                      "ActivityTaskStarted",
	ActivityTaskCompleted:                    "ActivityTaskCompleted",
	ActivityTaskFailed:                       "ActivityTaskFailed",
	ActivityTaskTimedOut:                     "ActivityTaskTimedOut",
	ActivityTaskCanceled:                     "ActivityTaskCanceled",
	ActivityTaskCancelRequested:              "ActivityTaskCancelRequested",
	RequestCancelActivityTaskFailed:          "RequestCancelActivityTaskFailed",
	TimerStarted:                             "TimerStarted",
	StartTimerFailed:                         "StartTimerFailed",
	TimerFired:                               "TimerFired",
	TimerCanceled:                            "TimerCanceled",
	CancelTimerFailed:                        "CancelTimerFailed",
	LambdaFunctionScheduled:                  "LambdaFunctionScheduled",
	ScheduleLambdaFunctionFailed:             "ScheduleLambdaFunctionFailed",
	LambdaFunctionStarted:                    "LambdaFunctionStarted",
	StartLambdaFunctionFailed:                "StartLambdaFunctionFailed",
	LambdaFunctionCompleted:                  "LambdaFunctionCompleted",
	LambdaFunctionFailed:                     "LambdaFunctionFailed",
	LambdaFunctionTimedOut:                   "LambdaFunctionTimedOut",
	StartChildWorkflowExecutionInitiated:     "StartChildWorkflowExecutionInitiated",
	StartChildWorkflowExecutionFailed:        "StartChildWorkflowExecutionFailed",
	ChildWorkflowExecutionStarted:            "ChildWorkflowExecutionStarted",
	ChildWorkflowExecutionCompleted:          "ChildWorkflowExecutionCompleted",
	ChildWorkflowExecutionFailed:             "ChildWorkflowExecutionFailed",
	ChildWorkflowExecutionTimedOut:           "ChildWorkflowExecutionTimedOut",
	ChildWorkflowExecutionCanceled:           "ChildWorkflowExecutionCanceled",
	ChildWorkflowExecutionTerminated:         "ChildWorkflowExecutionTerminated",
	MarkerRecorded:                           "MarkerRecorded",
	RecordMarkerFailed:                       "RecordMarkerFailed",
	SignalExternalWorkflowExecutionInitiated: "SignalExternalWorkflowExecutionInitiated",
	SignalExternalWorkflowExecutionFailed:    "SignalExternalWorkflowExecutionFailed",
	ExternalWorkflowExecutionSignaled:        "ExternalWorkflowExecutionSignaled",
	CompleteWorkflowExecutionFailed:          "CompleteWorkflowExecutionFailed",
	FailWorkflowExecutionFailed:              "FailWorkflowExecutionFailed",
	CancelWorkflowExecutionFailed:            "CancelWorkflowExecutionFailed",
	ContinueAsNewWorkflowExecutionFailed:     "ContinueAsNewWorkflowExecutionFailed",
}

var typeValues = func() map[string]EventType {
	m := make(map[string]EventType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

func (t EventType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "EventType(" + strconv.Itoa(int(t)) + ")"
}

// Valid returns true if t is a known event type.
func (t EventType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t EventType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.New("unknown event type", j.KV("type", int(t)))
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	v, ok := typeValues[string(b)]
	if !ok {
		return errors.New("unknown event type", j.KS("type", string(b)))
	}
	*t = v
	return nil
}

// Event is an immutable fact in the history of a workflow execution.
type Event struct {
	ID         int64      `json:"id"`
	Type       EventType  `json:"type"`
	Timestamp  time.Time  `json:"timestamp"`
	Attributes Attributes `json:"attributes"`
}

// Attributes holds the type specific attributes of an event. Only the
// attributes relevant to the event type are populated.
type Attributes struct {
	// Correlation ids.
	ActivityID string `json:"activity_id,omitempty"`
	TimerID    string `json:"timer_id,omitempty"`
	LambdaID   string `json:"lambda_id,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty"`
	RunID      string `json:"run_id,omitempty"`

	// Back references to the events an event completes.
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`
	StartedEventID   int64 `json:"started_event_id,omitempty"`
	InitiatedEventID int64 `json:"initiated_event_id,omitempty"`

	// Activity, lambda or workflow type.
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`

	Control     string `json:"control,omitempty"`
	Input       string `json:"input,omitempty"`
	Result      string `json:"result,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Details     string `json:"details,omitempty"`
	Cause       string `json:"cause,omitempty"`
	Identity    string `json:"identity,omitempty"`
	TimeoutType string `json:"timeout_type,omitempty"`
	MarkerName  string `json:"marker_name,omitempty"`
	SignalName  string `json:"signal_name,omitempty"`

	StartToFireTimeout time.Duration `json:"start_to_fire_timeout,omitempty"`

	// Workflow execution configuration.
	TaskList                     string        `json:"task_list,omitempty"`
	TaskPriority                 int           `json:"task_priority,omitempty"`
	Tags                         []string      `json:"tags,omitempty"`
	ChildPolicy                  string        `json:"child_policy,omitempty"`
	LambdaRole                   string        `json:"lambda_role,omitempty"`
	ExecutionStartToCloseTimeout time.Duration `json:"execution_start_to_close_timeout,omitempty"`
	TaskStartToCloseTimeout      time.Duration `json:"task_start_to_close_timeout,omitempty"`
	ParentWorkflowID             string        `json:"parent_workflow_id,omitempty"`
	ParentRunID                  string        `json:"parent_run_id,omitempty"`
	ContinuedRunID               string        `json:"continued_run_id,omitempty"`

	// Activity and lambda timeouts.
	ScheduleToStartTimeout time.Duration `json:"schedule_to_start_timeout,omitempty"`
	ScheduleToCloseTimeout time.Duration `json:"schedule_to_close_timeout,omitempty"`
	StartToCloseTimeout    time.Duration `json:"start_to_close_timeout,omitempty"`
	HeartbeatTimeout       time.Duration `json:"heartbeat_timeout,omitempty"`
}

// IsDecisionTaskEvent returns true for the decision task bookkeeping events.
func (t EventType) IsDecisionTaskEvent() bool {
	switch t {
	case DecisionTaskScheduled, DecisionTaskStarted, DecisionTaskCompleted, DecisionTaskTimedOut:
		return true
	default:
		return false
	}
}

// IsOutstanding returns true if an item whose last event is of this type is
// still outstanding with the coordination service.
func (t EventType) IsOutstanding() bool {
	switch t {
	case ActivityTaskScheduled, ActivityTaskStarted,
		TimerStarted,
		LambdaFunctionScheduled, LambdaFunctionStarted,
		StartChildWorkflowExecutionInitiated, ChildWorkflowExecutionStarted:
		return true
	default:
		return false
	}
}
