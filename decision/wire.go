package decision

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidDecision is returned when a decision does not satisfy the
// coordination service's constraints.
var ErrInvalidDecision = errors.New("invalid decision", j.C("ERR_7a0f6d2c41e9b835"))

type wireDecision struct {
	DecisionType string `json:"decisionType"`

	ScheduleActivityTask            *scheduleActivityAttrs `json:"scheduleActivityTaskDecisionAttributes,omitempty"`
	RequestCancelActivityTask       *cancelActivityAttrs   `json:"requestCancelActivityTaskDecisionAttributes,omitempty"`
	StartTimer                      *startTimerAttrs       `json:"startTimerDecisionAttributes,omitempty"`
	CancelTimer                     *cancelTimerAttrs      `json:"cancelTimerDecisionAttributes,omitempty"`
	ScheduleLambdaFunction          *scheduleLambdaAttrs   `json:"scheduleLambdaFunctionDecisionAttributes,omitempty"`
	StartChildWorkflowExecution     *startChildAttrs       `json:"startChildWorkflowExecutionDecisionAttributes,omitempty"`
	CompleteWorkflowExecution       *completeAttrs         `json:"completeWorkflowExecutionDecisionAttributes,omitempty"`
	FailWorkflowExecution           *failAttrs             `json:"failWorkflowExecutionDecisionAttributes,omitempty"`
	CancelWorkflowExecution         *cancelAttrs           `json:"cancelWorkflowExecutionDecisionAttributes,omitempty"`
	SignalExternalWorkflowExecution *signalAttrs           `json:"signalExternalWorkflowExecutionDecisionAttributes,omitempty"`
	RecordMarker                    *markerAttrs           `json:"recordMarkerDecisionAttributes,omitempty"`
	ContinueAsNewWorkflowExecution  *continueAttrs         `json:"continueAsNewWorkflowExecutionDecisionAttributes,omitempty"`
}

type typeAttrs struct {
	Name    string `json:"name" validate:"required,max=256"`
	Version string `json:"version,omitempty" validate:"max=64"`
}

type taskList struct {
	Name string `json:"name" validate:"required,max=256"`
}

type scheduleActivityAttrs struct {
	ActivityID             string    `json:"activityId" validate:"required,max=256"`
	ActivityType           typeAttrs `json:"activityType"`
	Control                string    `json:"control,omitempty" validate:"max=32768"`
	Input                  string    `json:"input,omitempty" validate:"max=32768"`
	TaskList               *taskList `json:"taskList,omitempty"`
	TaskPriority           string    `json:"taskPriority,omitempty"`
	ScheduleToStartTimeout string    `json:"scheduleToStartTimeout,omitempty"`
	ScheduleToCloseTimeout string    `json:"scheduleToCloseTimeout,omitempty"`
	StartToCloseTimeout    string    `json:"startToCloseTimeout,omitempty"`
	HeartbeatTimeout       string    `json:"heartbeatTimeout,omitempty"`
}

type cancelActivityAttrs struct {
	ActivityID string `json:"activityId" validate:"required,max=256"`
}

type startTimerAttrs struct {
	TimerID            string `json:"timerId" validate:"required,max=256"`
	Control            string `json:"control,omitempty" validate:"max=32768"`
	StartToFireTimeout string `json:"startToFireTimeout"`
}

type cancelTimerAttrs struct {
	TimerID string `json:"timerId" validate:"required,max=256"`
}

type scheduleLambdaAttrs struct {
	ID                  string `json:"id" validate:"required,max=256"`
	Name                string `json:"name" validate:"required,max=64"`
	Control             string `json:"control,omitempty" validate:"max=32768"`
	Input               string `json:"input,omitempty" validate:"max=32768"`
	StartToCloseTimeout string `json:"startToCloseTimeout,omitempty"`
}

type startChildAttrs struct {
	WorkflowID                   string    `json:"workflowId" validate:"required,max=256"`
	WorkflowType                 typeAttrs `json:"workflowType"`
	Control                      string    `json:"control,omitempty" validate:"max=32768"`
	Input                        string    `json:"input,omitempty" validate:"max=32768"`
	TaskList                     *taskList `json:"taskList,omitempty"`
	TaskPriority                 string    `json:"taskPriority,omitempty"`
	ChildPolicy                  string    `json:"childPolicy,omitempty" validate:"omitempty,oneof=TERMINATE REQUEST_CANCEL ABANDON"`
	LambdaRole                   string    `json:"lambdaRole,omitempty"`
	TagList                      []string  `json:"tagList,omitempty" validate:"max=5,dive,max=256"`
	ExecutionStartToCloseTimeout string    `json:"executionStartToCloseTimeout,omitempty"`
	TaskStartToCloseTimeout      string    `json:"taskStartToCloseTimeout,omitempty"`
}

type completeAttrs struct {
	Result string `json:"result,omitempty" validate:"max=32768"`
}

type failAttrs struct {
	Reason  string `json:"reason,omitempty" validate:"max=256"`
	Details string `json:"details,omitempty" validate:"max=32768"`
}

type cancelAttrs struct {
	Details string `json:"details,omitempty" validate:"max=32768"`
}

type signalAttrs struct {
	WorkflowID string `json:"workflowId" validate:"required,max=256"`
	RunID      string `json:"runId,omitempty" validate:"max=64"`
	SignalName string `json:"signalName" validate:"required,max=256"`
	Input      string `json:"input,omitempty" validate:"max=32768"`
	Control    string `json:"control,omitempty" validate:"max=32768"`
}

type markerAttrs struct {
	MarkerName string `json:"markerName" validate:"required,max=256"`
	Details    string `json:"details,omitempty" validate:"max=32768"`
}

type continueAttrs struct {
	Input                        string    `json:"input,omitempty" validate:"max=32768"`
	WorkflowTypeVersion          string    `json:"workflowTypeVersion,omitempty" validate:"max=64"`
	TaskList                     *taskList `json:"taskList,omitempty"`
	TaskPriority                 string    `json:"taskPriority,omitempty"`
	ChildPolicy                  string    `json:"childPolicy,omitempty" validate:"omitempty,oneof=TERMINATE REQUEST_CANCEL ABANDON"`
	LambdaRole                   string    `json:"lambdaRole,omitempty"`
	TagList                      []string  `json:"tagList,omitempty" validate:"max=5,dive,max=256"`
	ExecutionStartToCloseTimeout string    `json:"executionStartToCloseTimeout,omitempty"`
	TaskStartToCloseTimeout      string    `json:"taskStartToCloseTimeout,omitempty"`
}

// Seconds returns d in whole seconds, the wire unit of timeouts. Partial
// seconds round up so a positive duration never renders as zero.
func Seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

// seconds renders a duration in wire seconds.
// Zero durations are omitted so the registered defaults apply.
func seconds(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return strconv.FormatInt(Seconds(d), 10)
}

func priority(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}

func list(name string) *taskList {
	if name == "" {
		return nil
	}
	return &taskList{Name: name}
}

func (d ScheduleActivity) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		ScheduleActivityTask: &scheduleActivityAttrs{
			ActivityID:             d.ActivityID,
			ActivityType:           typeAttrs{Name: d.Name, Version: d.Version},
			Control:                d.Control,
			Input:                  d.Input,
			TaskList:               list(d.TaskList),
			TaskPriority:           priority(d.TaskPriority),
			ScheduleToStartTimeout: seconds(d.ScheduleToStartTimeout),
			ScheduleToCloseTimeout: seconds(d.ScheduleToCloseTimeout),
			StartToCloseTimeout:    seconds(d.StartToCloseTimeout),
			HeartbeatTimeout:       seconds(d.HeartbeatTimeout),
		},
	}
}

func (d RequestCancelActivity) wire() wireDecision {
	return wireDecision{
		DecisionType:              string(d.Type()),
		RequestCancelActivityTask: &cancelActivityAttrs{ActivityID: d.ActivityID},
	}
}

func (d ScheduleTimer) wire() wireDecision {
	// A zero timer fires immediately.
	fire := seconds(d.StartToFire)
	if fire == "" {
		fire = "0"
	}
	return wireDecision{
		DecisionType: string(d.Type()),
		StartTimer: &startTimerAttrs{
			TimerID:            d.TimerID,
			Control:            d.Control,
			StartToFireTimeout: fire,
		},
	}
}

func (d CancelTimer) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		CancelTimer:  &cancelTimerAttrs{TimerID: d.TimerID},
	}
}

func (d ScheduleLambda) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		ScheduleLambdaFunction: &scheduleLambdaAttrs{
			ID:                  d.LambdaID,
			Name:                d.Name,
			Control:             d.Control,
			Input:               d.Input,
			StartToCloseTimeout: seconds(d.StartToCloseTimeout),
		},
	}
}

func (d ScheduleChildWorkflow) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		StartChildWorkflowExecution: &startChildAttrs{
			WorkflowID:                   d.WorkflowID,
			WorkflowType:                 typeAttrs{Name: d.Name, Version: d.Version},
			Control:                      d.Control,
			Input:                        d.Input,
			TaskList:                     list(d.TaskList),
			TaskPriority:                 priority(d.TaskPriority),
			ChildPolicy:                  d.ChildPolicy,
			LambdaRole:                   d.LambdaRole,
			TagList:                      d.Tags,
			ExecutionStartToCloseTimeout: seconds(d.ExecutionStartToCloseTimeout),
			TaskStartToCloseTimeout:      seconds(d.TaskStartToCloseTimeout),
		},
	}
}

func (d CompleteWorkflow) wire() wireDecision {
	return wireDecision{
		DecisionType:              string(d.Type()),
		CompleteWorkflowExecution: &completeAttrs{Result: d.Result},
	}
}

func (d FailWorkflow) wire() wireDecision {
	return wireDecision{
		DecisionType:          string(d.Type()),
		FailWorkflowExecution: &failAttrs{Reason: d.Reason, Details: d.Details},
	}
}

func (d CancelWorkflow) wire() wireDecision {
	return wireDecision{
		DecisionType:            string(d.Type()),
		CancelWorkflowExecution: &cancelAttrs{Details: d.Details},
	}
}

func (d SignalExternalWorkflow) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		SignalExternalWorkflowExecution: &signalAttrs{
			WorkflowID: d.WorkflowID,
			RunID:      d.RunID,
			SignalName: d.SignalName,
			Input:      d.Input,
			Control:    d.Control,
		},
	}
}

func (d RecordMarker) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		RecordMarker: &markerAttrs{MarkerName: d.MarkerName, Details: d.Details},
	}
}

func (d ContinueAsNew) wire() wireDecision {
	return wireDecision{
		DecisionType: string(d.Type()),
		ContinueAsNewWorkflowExecution: &continueAttrs{
			Input:                        d.Input,
			WorkflowTypeVersion:          d.WorkflowVersion,
			TaskList:                     list(d.TaskList),
			TaskPriority:                 priority(d.TaskPriority),
			ChildPolicy:                  d.ChildPolicy,
			LambdaRole:                   d.LambdaRole,
			TagList:                      d.Tags,
			ExecutionStartToCloseTimeout: seconds(d.ExecutionStartToCloseTimeout),
			TaskStartToCloseTimeout:      seconds(d.TaskStartToCloseTimeout),
		},
	}
}

// Validate returns ErrInvalidDecision if the decision does not satisfy the
// coordination service's constraints.
func Validate(d Decision) error {
	if err := validate.Struct(d.wire()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Wrap(ErrInvalidDecision, "", j.MKV{
				"decision": string(d.Type()),
				"field":    verrs[0].Namespace(),
				"tag":      verrs[0].Tag(),
			})
		}
		return errors.Wrap(err, "validate decision")
	}
	return nil
}

// Marshal validates the decisions and renders them as the JSON decision
// list of the coordination service.
func Marshal(ds []Decision) ([]byte, error) {
	res := make([]wireDecision, 0, len(ds))
	for _, d := range ds {
		if err := Validate(d); err != nil {
			return nil, err
		}
		res = append(res, d.wire())
	}

	b, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(err, "marshal decisions")
	}
	return b, nil
}
