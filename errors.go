package guflow

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var (
	// ErrIncompatibleWorkflow indicates that the history references an item
	// that is not declared by the workflow.
	ErrIncompatibleWorkflow = errors.New("incompatible workflow", j.C("ERR_5d0c9b7e1a24f386"))

	// ErrOutOfBranchJump indicates a jump to an item outside the branch of
	// the jumping item.
	ErrOutOfBranchJump = errors.New("out of branch jump", j.C("ERR_e6a13f08c95b7d42"))

	// ErrTimerNotActive indicates a reset of a timer that is not running.
	ErrTimerNotActive = errors.New("timer not active", j.C("ERR_0b7e52d4a18c6f93"))

	// ErrInvalidHandler is the panic value when a nil handler is registered.
	ErrInvalidHandler = errors.New("invalid handler", j.C("ERR_93c4e7a6b0d2158f"))

	// ErrInvalidGraph indicates a duplicate declaration, a dependency on an
	// undeclared item or a dependency cycle.
	ErrInvalidGraph = errors.New("invalid workflow graph", j.C("ERR_48f1d6c2e0a97b35"))

	// ErrUnknownItem indicates an action targeting an undeclared item.
	ErrUnknownItem = errors.New("unknown workflow item", j.C("ERR_a7d3508be6f1c249"))

	// ErrNotItemEvent indicates an item action built from a workflow level event.
	ErrNotItemEvent = errors.New("not an item event", j.C("ERR_1e8b4f6a3c7d0925"))
)

// Fixed failure reasons of the default handlers.
const (
	ReasonActivitySchedulingFailed          = "ACTIVITY_SCHEDULING_FAILED"
	ReasonActivityCancellationFailed        = "ACTIVITY_CANCELLATION_FAILED"
	ReasonTimerStartFailed                  = "TIMER_START_FAILED"
	ReasonTimerCancellationFailed           = "TIMER_CANCELLATION_FAILED"
	ReasonLambdaSchedulingFailed            = "LAMBDA_SCHEDULING_FAILED"
	ReasonLambdaStartFailed                 = "LAMBDA_START_FAILED"
	ReasonChildWorkflowStartFailed          = "CHILD_WORKFLOW_START_FAILED"
	ReasonChildWorkflowTerminated           = "CHILD_WORKFLOW_TERMINATED"
	ReasonRescheduleTimerStartFailed        = "RESCHEDULE_TIMER_START_FAILED"
	ReasonRescheduleTimerCancellationFailed = "RESCHEDULE_TIMER_CANCELLATION_FAILED"
	ReasonSignalExternalWorkflowFailed      = "SIGNAL_EXTERNAL_WORKFLOW_FAILED"
	ReasonRecordMarkerFailed                = "RECORD_MARKER_FAILED"
)

// ResultNoSchedulableItem is the completion result of a workflow that has no
// item to schedule when it starts.
const ResultNoSchedulableItem = "guflow: workflow completed, no schedulable item found on start"
