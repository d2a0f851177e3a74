// Package decision defines the decisions a decision pass returns to the
// coordination service and their wire rendering.
package decision

import "time"

// Type is the coordination service's decision type.
type Type string

const (
	TypeScheduleActivity       Type = "ScheduleActivityTask"
	TypeRequestCancelActivity  Type = "RequestCancelActivityTask"
	TypeStartTimer             Type = "StartTimer"
	TypeCancelTimer            Type = "CancelTimer"
	TypeScheduleLambda         Type = "ScheduleLambdaFunction"
	TypeStartChildWorkflow     Type = "StartChildWorkflowExecution"
	TypeCompleteWorkflow       Type = "CompleteWorkflowExecution"
	TypeFailWorkflow           Type = "FailWorkflowExecution"
	TypeCancelWorkflow         Type = "CancelWorkflowExecution"
	TypeSignalExternalWorkflow Type = "SignalExternalWorkflowExecution"
	TypeRecordMarker           Type = "RecordMarker"
	TypeContinueAsNew          Type = "ContinueAsNewWorkflowExecution"
)

// Decision is one side effect the coordination service should perform.
type Decision interface {
	Type() Type

	// Target identifies what the decision acts on. Two decisions with the
	// same type and target are duplicates within one pass.
	Target() string

	wire() wireDecision
}

type ScheduleActivity struct {
	ActivityID string
	Name       string
	Version    string
	Control    string
	Input      string

	TaskList               string
	TaskPriority           int
	ScheduleToStartTimeout time.Duration
	ScheduleToCloseTimeout time.Duration
	StartToCloseTimeout    time.Duration
	HeartbeatTimeout       time.Duration
}

func (ScheduleActivity) Type() Type        { return TypeScheduleActivity }
func (d ScheduleActivity) Target() string { return d.ActivityID }

type RequestCancelActivity struct {
	ActivityID string
}

func (RequestCancelActivity) Type() Type        { return TypeRequestCancelActivity }
func (d RequestCancelActivity) Target() string { return d.ActivityID }

// ScheduleTimer starts a timer firing after StartToFire.
type ScheduleTimer struct {
	TimerID     string
	Control     string
	StartToFire time.Duration
}

func (ScheduleTimer) Type() Type        { return TypeStartTimer }
func (d ScheduleTimer) Target() string { return d.TimerID }

type CancelTimer struct {
	TimerID string
}

func (CancelTimer) Type() Type        { return TypeCancelTimer }
func (d CancelTimer) Target() string { return d.TimerID }

type ScheduleLambda struct {
	LambdaID            string
	Name                string
	Control             string
	Input               string
	StartToCloseTimeout time.Duration
}

func (ScheduleLambda) Type() Type        { return TypeScheduleLambda }
func (d ScheduleLambda) Target() string { return d.LambdaID }

type ScheduleChildWorkflow struct {
	WorkflowID string
	Name       string
	Version    string
	Control    string
	Input      string

	TaskList                     string
	TaskPriority                 int
	ChildPolicy                  string
	LambdaRole                   string
	Tags                         []string
	ExecutionStartToCloseTimeout time.Duration
	TaskStartToCloseTimeout      time.Duration
}

func (ScheduleChildWorkflow) Type() Type        { return TypeStartChildWorkflow }
func (d ScheduleChildWorkflow) Target() string { return d.WorkflowID }

type CompleteWorkflow struct {
	Result string
}

func (CompleteWorkflow) Type() Type      { return TypeCompleteWorkflow }
func (CompleteWorkflow) Target() string { return "" }

type FailWorkflow struct {
	Reason  string
	Details string
}

func (FailWorkflow) Type() Type      { return TypeFailWorkflow }
func (FailWorkflow) Target() string { return "" }

type CancelWorkflow struct {
	Details string
}

func (CancelWorkflow) Type() Type      { return TypeCancelWorkflow }
func (CancelWorkflow) Target() string { return "" }

type SignalExternalWorkflow struct {
	WorkflowID string
	RunID      string
	SignalName string
	Input      string
	Control    string
}

func (SignalExternalWorkflow) Type() Type { return TypeSignalExternalWorkflow }
func (d SignalExternalWorkflow) Target() string {
	return d.WorkflowID + "/" + d.RunID + "/" + d.SignalName
}

type RecordMarker struct {
	MarkerName string
	Details    string
}

func (RecordMarker) Type() Type { return TypeRecordMarker }

// Target includes the details since engine markers share a name.
func (d RecordMarker) Target() string { return d.MarkerName + "/" + d.Details }

// ContinueAsNew closes the execution and starts a new run of it.
type ContinueAsNew struct {
	Input           string
	WorkflowVersion string

	TaskList                     string
	TaskPriority                 int
	ChildPolicy                  string
	LambdaRole                   string
	Tags                         []string
	ExecutionStartToCloseTimeout time.Duration
	TaskStartToCloseTimeout      time.Duration
}

func (ContinueAsNew) Type() Type      { return TypeContinueAsNew }
func (ContinueAsNew) Target() string { return "" }

// IsClose returns true if the decision closes the workflow execution.
func IsClose(d Decision) bool {
	switch d.Type() {
	case TypeCompleteWorkflow, TypeFailWorkflow, TypeCancelWorkflow, TypeContinueAsNew:
		return true
	default:
		return false
	}
}

// Dedupe returns the decisions without duplicates, keeping the first of each
// type and target in order.
func Dedupe(ds []Decision) []Decision {
	type key struct {
		Type   Type
		Target string
	}

	seen := make(map[key]bool)
	var res []Decision
	for _, d := range ds {
		k := key{Type: d.Type(), Target: d.Target()}
		if seen[k] {
			continue
		}
		seen[k] = true
		res = append(res, d)
	}
	return res
}
