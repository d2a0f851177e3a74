package host

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/test"
)

func TestSharding(t *testing.T) {
	runs := []interface{}{1, 2, 3, 1.1, 2.2, time.Now(), time.Now().Unix(), time.Now().UnixNano()}
	for _, shards := range []int{1, 4, 16} {
		for _, run := range runs {
			var found bool
			for m := 0; m < shards; m++ {
				o := defaultOptions()
				WithHashedShard(m, shards)(&o)
				if o.shardFunc(fmt.Sprint(run)) {
					if found {
						require.Fail(t, "duplicate shard")
					}
					found = true
				}
			}
			if !found {
				require.Fail(t, "missing shard")
			}
		}
	}
}

func TestShardOf(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("order-%d", i)
		s := shardOf(id, 8)
		require.True(t, s >= 0 && s < 8)
		require.Equal(t, s, shardOf(id, 8))
		require.Zero(t, shardOf(id, 1))
	}
}

type responder struct {
	mu        sync.Mutex
	responses map[string][]decision.Decision
	ch        chan string
	err       error
}

func newResponder() *responder {
	return &responder{responses: make(map[string][]decision.Decision), ch: make(chan string, 100)}
}

func (r *responder) RespondDecisions(_ context.Context, token string, ds []decision.Decision) error {
	if r.err != nil {
		return r.err
	}

	r.mu.Lock()
	r.responses[token] = ds
	r.mu.Unlock()

	r.ch <- token
	return nil
}

func (r *responder) get(token string) []decision.Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responses[token]
}

type poller struct {
	tasks chan history.Task
	err   chan error
}

func (p *poller) PollDecisionTask(ctx context.Context, _ string) (history.Task, error) {
	select {
	case task := <-p.tasks:
		return task, nil
	case err := <-p.err:
		return history.Task{}, err
	case <-ctx.Done():
		return history.Task{}, ctx.Err()
	}
}

func download() *guflow.Workflow {
	w := guflow.NewWorkflow()
	w.ScheduleActivity("Download", "1")
	return w
}

func TestDecide(t *testing.T) {
	h := New(nil, newResponder())
	h.Register("test", "", download)

	th := test.NewHistory(t, "wf", "run").Start("")
	ds := th.Decide(h)
	require.Len(t, ds, 1)
	require.Equal(t, "Download.1.", ds[0].Target())

	task := test.NewHistory(t, "wf2", "run").Start("").Task()
	task.WorkflowName = "unknown"
	_, err := h.Decide(task)
	jtest.Require(t, ErrUnknownWorkflow, err)
}

func TestDecideVersion(t *testing.T) {
	h := New(nil, newResponder())
	h.Register("test", "", download)
	h.Register("test", "2", func() *guflow.Workflow {
		w := guflow.NewWorkflow()
		w.ScheduleTimer("Wait")
		return w
	})

	task := test.NewHistory(t, "wf", "run").Start("").Task()

	ds, err := h.Decide(task)
	jtest.RequireNil(t, err)
	require.Equal(t, "Download.1.", ds[0].Target())

	task.WorkflowVersion = "2"
	ds, err = h.Decide(task)
	jtest.RequireNil(t, err)
	require.Equal(t, "Wait..", ds[0].Target())
}

func TestHandle(t *testing.T) {
	var handled, errs int
	r := newResponder()
	h := New(nil, r, WithHostMetrics(func(workflow string) Metrics {
		require.Equal(t, "test", workflow)
		return Metrics{
			IncHandled:    func() { handled++ },
			IncErrors:     func() { errs++ },
			ObserveDecide: func(time.Duration) {},
		}
	}))
	h.Register("test", "", download)

	task := test.NewHistory(t, "wf", "run").Start("").Task()
	jtest.RequireNil(t, h.Handle(context.Background(), task))
	require.Len(t, r.get(task.TaskToken), 1)
	require.Equal(t, 1, handled)
	require.Zero(t, errs)

	r.err = errors.New("unavailable")
	jtest.Require(t, r.err, h.Handle(context.Background(), task))
	require.Equal(t, 2, handled)
	require.Equal(t, 1, errs)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &poller{tasks: make(chan history.Task), err: make(chan error)}
	r := newResponder()
	h := New(p, r, WithShards(4), WithIdentity("decider"), WithPollBackoff(time.Millisecond))
	h.Register("test", "", download)
	require.Equal(t, "decider", h.Identity())

	done := make(chan error)
	go func() {
		done <- h.Run(ctx)
	}()

	p.err <- errors.New("throttled")
	p.tasks <- history.Task{}

	for i := 0; i < 10; i++ {
		task := test.NewHistory(t, fmt.Sprintf("wf%d", i), "run").Start("").Task()
		p.tasks <- task
		require.Equal(t, task.TaskToken, <-r.ch)
		require.Equal(t, "Download.1.", r.get(task.TaskToken)[0].Target())
	}

	cancel()
	require.Equal(t, context.Canceled, <-done)
}
