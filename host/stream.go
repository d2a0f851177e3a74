package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/luno/fate"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"github.com/luno/reflex"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/history"
)

// definitionErrs fail every decision of a history until the workflow
// definition changes, so the stream moves past them.
var definitionErrs = []error{
	ErrUnknownWorkflow,
	guflow.ErrIncompatibleWorkflow,
	guflow.ErrOutOfBranchJump,
	guflow.ErrTimerNotActive,
	guflow.ErrInvalidGraph,
	guflow.ErrUnknownItem,
	guflow.ErrNotItemEvent,
}

// HistoryLoader returns the ordered history of an execution.
type HistoryLoader interface {
	ListEvents(ctx context.Context, key history.ExecutionKey) ([]history.Event, error)
}

// RegisterStream starts a reflex consumer of a stream of history events and
// decides a task whenever a decision task is started. Stream events carry
// the encoded execution key as foreign id and the JSON history event as
// metadata. It returns once getCtx returns false.
func RegisterStream(getCtx func() (context.Context, bool), h *Host, stream reflex.StreamFunc,
	cstore reflex.CursorStore, loader HistoryLoader, name string, opts ...option,
) {
	o := h.o
	for _, opt := range opts {
		opt(&o)
	}

	c := streamConsumer{h: h, loader: loader, shardFunc: o.shardFunc}
	spec := reflex.NewSpec(stream, cstore, reflex.NewConsumer(name, c.consume))
	go runForever(getCtx, spec)
}

type streamConsumer struct {
	h         *Host
	loader    HistoryLoader
	shardFunc func(workflowID string) bool
}

func (c streamConsumer) consume(ctx context.Context, f fate.Fate, e *reflex.Event) error {
	if !reflex.IsType(e.Type, history.DecisionTaskStarted) {
		return nil
	}

	key, err := history.DecodeExecutionKey(e.ForeignID)
	if err != nil {
		return err
	}

	if !c.shardFunc(key.WorkflowID) {
		return nil
	}

	var started history.Event
	if err := json.Unmarshal(e.MetaData, &started); err != nil {
		return errors.Wrap(err, "decode event", j.KS("key", e.ForeignID))
	}

	events, err := c.loader.ListEvents(ctx, key)
	if err != nil {
		return errors.Wrap(err, "list events", j.KS("key", e.ForeignID))
	}

	task, ok, err := taskOf(key, events, started.ID)
	if err != nil {
		return err
	} else if !ok {
		// Already decided or timed out.
		return nil
	}

	if err := f.Tempt(); err != nil {
		return err
	}

	ctx = log.ContextWith(ctx, j.MKS{"workflow_id": key.WorkflowID, "run_id": key.RunID})

	err = c.h.Handle(ctx, task)
	if isDefinitionErr(err) {
		log.Error(ctx, errors.Wrap(err, "skip decision task"))
		return nil
	}

	return err
}

func isDefinitionErr(err error) bool {
	for _, target := range definitionErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// taskOf returns the decision task started by event startedID. It returns
// false if the task is no longer outstanding.
func taskOf(key history.ExecutionKey, events []history.Event, startedID int64) (history.Task, bool, error) {
	task := history.Task{
		TaskToken:      fmt.Sprintf("%s/%d", key.Encode(), startedID),
		WorkflowID:     key.WorkflowID,
		RunID:          key.RunID,
		StartedEventID: startedID,
	}

	var found bool
	for _, e := range events {
		switch {
		case e.Type == history.WorkflowExecutionStarted:
			task.WorkflowName = e.Attributes.Name
			task.WorkflowVersion = e.Attributes.Version
		case e.ID == startedID && e.Type == history.DecisionTaskStarted:
			found = true
		case e.Attributes.StartedEventID == startedID &&
			(e.Type == history.DecisionTaskCompleted || e.Type == history.DecisionTaskTimedOut):
			return history.Task{}, false, nil
		}

		if e.ID <= startedID {
			task.Events = append(task.Events, e)
		}
	}

	if !found {
		return history.Task{}, false, errors.Wrap(history.ErrIncompleteHistory, "decision task not found",
			j.MKV{"key": key.Encode(), "started_event_id": startedID})
	}

	task.PreviousStartedEventID = history.PreviousStartedEventID(events, startedID)

	return task, true, nil
}

func runForever(getCtx func() (context.Context, bool), req reflex.Spec) {
	for {
		ctx, ok := getCtx()
		if !ok {
			return
		}

		ctx = log.ContextWith(ctx, j.KS("consumer", req.Name()))

		err := reflex.Run(ctx, req)
		if reflex.IsExpected(err) {
			time.Sleep(time.Millisecond * 100) // Don't spin
			continue
		}

		log.Error(ctx, errors.Wrap(err, "run forever error"))
		time.Sleep(time.Second)
	}
}
