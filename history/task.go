package history

import (
	"path"
	"strings"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// ExecutionKey identifies a workflow execution.
type ExecutionKey struct {
	WorkflowID string
	RunID      string
}

// Encode returns the path encoded key.
func (k ExecutionKey) Encode() string {
	return path.Join(k.WorkflowID, k.RunID)
}

// DecodeExecutionKey returns the execution key encoded in s.
func DecodeExecutionKey(s string) (ExecutionKey, error) {
	split := strings.Split(s, "/")
	if len(split) != 2 || split[0] == "" || split[1] == "" {
		return ExecutionKey{}, errors.New("invalid execution key", j.KS("key", s))
	}

	return ExecutionKey{WorkflowID: split[0], RunID: split[1]}, nil
}

// Task is one decision task: the history of an execution split into the
// events already processed by previous decision tasks and the new events.
type Task struct {
	TaskToken       string
	WorkflowID      string
	RunID           string
	WorkflowName    string
	WorkflowVersion string

	// Events is the ordered history of the execution.
	Events []Event

	// PreviousStartedEventID is the id of the DecisionTaskStarted event of
	// the previously completed decision task. Events after it are new.
	PreviousStartedEventID int64

	// StartedEventID is the id of the DecisionTaskStarted event of this task.
	StartedEventID int64
}

// Key returns the execution key of the task.
func (t Task) Key() ExecutionKey {
	return ExecutionKey{WorkflowID: t.WorkflowID, RunID: t.RunID}
}

// NewEvents returns the events not yet processed by a previous decision task.
func (t Task) NewEvents() []Event {
	var res []Event
	for _, e := range t.Events {
		if e.ID > t.PreviousStartedEventID {
			res = append(res, e)
		}
	}
	return res
}

// PreviousStartedEventID returns the started event id of the last decision
// task that completed before the event with id upTo. It returns zero if no
// decision task completed yet.
func PreviousStartedEventID(events []Event, upTo int64) int64 {
	var prev int64
	for _, e := range events {
		if e.ID >= upTo {
			break
		}
		if e.Type == DecisionTaskCompleted {
			prev = e.Attributes.StartedEventID
		}
	}
	return prev
}
