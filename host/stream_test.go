package host

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/test"
)

// oneCtx returns a getCtx func that returns a context once.
func oneCtx(t *testing.T) func() (context.Context, bool) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var calls int32
	return func() (context.Context, bool) {
		if atomic.AddInt32(&calls, 1) > 1 {
			return nil, false
		}
		return ctx, true
	}
}

func TestStream(t *testing.T) {
	r := newResponder()
	h := New(nil, r)
	h.Register("test", "", download)

	th := test.NewHistory(t, "wf", "run").Start("")
	task := th.Task()

	stream := test.NewMemStream()
	stream.Publish(t, th.Key(), th.Events()...)

	cstore := new(test.MemCursorStore)
	RegisterStream(oneCtx(t), h, stream.Stream, cstore, th, "decider")

	token := fmt.Sprintf("wf/run/%d", task.StartedEventID)
	require.Equal(t, token, <-r.ch)
	ds := r.get(token)
	require.Len(t, ds, 1)
	require.Equal(t, "Download.1.", ds[0].Target())

	require.Eventually(t, func() bool {
		return cstore.Cursor("decider") == "3"
	}, time.Second, time.Millisecond)
}

func TestStreamShard(t *testing.T) {
	r := newResponder()
	h := New(nil, r)
	h.Register("test", "", download)

	stream := test.NewMemStream()
	var tokens []string
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		th := test.NewHistory(t, id, "run").Start("")
		task := th.Task()
		stream.Publish(t, th.Key(), th.Events()...)

		if shardOf(id, 2) == 0 {
			tokens = append(tokens, fmt.Sprintf("%s/run/%d", id, task.StartedEventID))
		}
	}

	loader := loaderFunc(func(key history.ExecutionKey) []history.Event {
		th := test.NewHistory(t, key.WorkflowID, key.RunID).Start("")
		th.Task()
		return th.Events()
	})

	RegisterStream(oneCtx(t), h, stream.Stream, new(test.MemCursorStore), loader, "decider", WithHashedShard(0, 2))

	for _, token := range tokens {
		require.Equal(t, token, <-r.ch)
	}
}

func TestStreamSkipsDefinitionErrors(t *testing.T) {
	r := newResponder()
	h := New(nil, r)
	h.Register("test", "", download)

	broken := test.NewHistory(t, "broken", "run")
	broken.WorkflowName = "missing"
	broken.Start("")
	broken.Task()

	ok := test.NewHistory(t, "ok", "run").Start("")
	task := ok.Task()

	stream := test.NewMemStream()
	stream.Publish(t, broken.Key(), broken.Events()...)
	stream.Publish(t, ok.Key(), ok.Events()...)

	loader := loaderFunc(func(key history.ExecutionKey) []history.Event {
		if key.WorkflowID == "broken" {
			return broken.Events()
		}
		return ok.Events()
	})

	cstore := new(test.MemCursorStore)
	RegisterStream(oneCtx(t), h, stream.Stream, cstore, loader, "decider")

	require.Equal(t, fmt.Sprintf("ok/run/%d", task.StartedEventID), <-r.ch)
	require.Eventually(t, func() bool {
		return cstore.Cursor("decider") == "6"
	}, time.Second, time.Millisecond)
}

func TestIsDefinitionErr(t *testing.T) {
	require.True(t, isDefinitionErr(errors.Wrap(guflow.ErrIncompatibleWorkflow, "decide")))
	require.True(t, isDefinitionErr(ErrUnknownWorkflow))
	require.False(t, isDefinitionErr(errors.New("connection reset")))
	require.False(t, isDefinitionErr(nil))
}

type loaderFunc func(key history.ExecutionKey) []history.Event

func (fn loaderFunc) ListEvents(_ context.Context, key history.ExecutionKey) ([]history.Event, error) {
	return fn(key), nil
}

func TestTaskOf(t *testing.T) {
	th := test.NewHistory(t, "wf", "run").Start("")
	first := th.Task()
	h := New(nil, nil)
	h.Register("test", "", download)
	th.Decide(h)
	th.StartActivity("Download.1.")
	th.CompleteActivity("Download.1.", "ok")
	second := th.Task()
	th.Signal("late", "")

	key := th.Key()
	events := th.Events()

	_, ok, err := taskOf(key, events, first.StartedEventID)
	jtest.RequireNil(t, err)
	require.False(t, ok)

	task, ok, err := taskOf(key, events, second.StartedEventID)
	jtest.RequireNil(t, err)
	require.True(t, ok)
	require.Equal(t, "test", task.WorkflowName)
	require.Equal(t, first.StartedEventID, task.PreviousStartedEventID)
	require.Equal(t, second.StartedEventID, task.Events[len(task.Events)-1].ID)
	require.Less(t, len(task.Events), len(events))

	_, _, err = taskOf(key, events, 1000)
	jtest.Require(t, history.ErrIncompleteHistory, err)
}
