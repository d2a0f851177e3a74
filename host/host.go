// Package host runs workflow decision passes for the decision tasks of a
// coordination service. Tasks are polled through a Poller, decided by a
// freshly built workflow and the decisions returned through a Responder.
package host

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dgryski/go-jump"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
)

// ErrUnknownWorkflow indicates a decision task of a workflow type without a
// registered factory.
var ErrUnknownWorkflow = errors.New("unknown workflow type", j.C("ERR_c2f07a9d4e6b1385"))

// Poller polls the coordination service for decision tasks. An empty task
// token indicates that no task was available.
type Poller interface {
	PollDecisionTask(ctx context.Context, identity string) (history.Task, error)
}

// Responder returns the decisions of a decision task to the coordination
// service.
type Responder interface {
	RespondDecisions(ctx context.Context, taskToken string, ds []decision.Decision) error
}

// Factory returns a new workflow declaration. Factories are called for every
// decision task, so a workflow is never shared between passes.
type Factory func() *guflow.Workflow

// Host decides decision tasks using registered workflow factories.
type Host struct {
	o         options
	poller    Poller
	responder Responder

	mu        sync.RWMutex
	factories map[guflow.TypeKey]Factory
}

func New(p Poller, r Responder, opts ...option) *Host {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Host{
		o:         o,
		poller:    p,
		responder: r,
		factories: make(map[guflow.TypeKey]Factory),
	}
}

// Identity returns the identity the host polls with.
func (h *Host) Identity() string {
	return h.o.identity
}

// Register registers the factory of a workflow type. An empty version
// matches decision tasks of any version of the named workflow.
func (h *Host) Register(name, version string, f Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.factories[guflow.TypeKey{Name: name, Version: version}] = f
}

func (h *Host) factory(name, version string) (Factory, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if f, ok := h.factories[guflow.TypeKey{Name: name, Version: version}]; ok {
		return f, nil
	}
	if f, ok := h.factories[guflow.TypeKey{Name: name}]; ok {
		return f, nil
	}

	return nil, errors.Wrap(ErrUnknownWorkflow, "lookup factory", j.MKS{"workflow": name, "version": version})
}

// Decide runs a decision pass for the task with a new workflow of the task's
// type.
func (h *Host) Decide(task history.Task) ([]decision.Decision, error) {
	f, err := h.factory(task.WorkflowName, task.WorkflowVersion)
	if err != nil {
		return nil, err
	}

	return f().Decide(task)
}

// Handle decides the task and responds with its decisions.
func (h *Host) Handle(ctx context.Context, task history.Task) (err error) {
	metrics := h.o.metrics(task.WorkflowName)
	defer func(t0 time.Time) {
		metrics.IncHandled()
		metrics.ObserveDecide(time.Since(t0))
		if err != nil {
			metrics.IncErrors() // NoReturnErr: Just incrementing metrics here.
		}
	}(time.Now())

	ds, err := h.Decide(task)
	if err != nil {
		return errors.Wrap(err, "decide", j.KS("key", task.Key().Encode()))
	}

	return h.responder.RespondDecisions(ctx, task.TaskToken, ds)
}

// Run polls decision tasks until the context is canceled. Tasks are
// dispatched to a fixed number of goroutines routed by workflow id, so the
// tasks of one execution are decided in order.
func (h *Host) Run(ctx context.Context) error {
	ctx = log.ContextWith(ctx, j.KS("identity", h.o.identity))

	shards := make([]chan history.Task, h.o.shards)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan history.Task)
		wg.Add(1)
		go func(tasks <-chan history.Task) {
			defer wg.Done()
			for task := range tasks {
				h.dispatch(ctx, task)
			}
		}(shards[i])
	}
	defer func() {
		for _, tasks := range shards {
			close(tasks)
		}
		wg.Wait()
	}()

	for {
		task, err := h.poller.PollDecisionTask(ctx, h.o.identity)
		if ctx.Err() != nil {
			return ctx.Err()
		} else if err != nil {
			log.Error(ctx, errors.Wrap(err, "poll decision task"))
			if !sleep(ctx, h.o.backoff) {
				return ctx.Err()
			}
			continue
		} else if task.TaskToken == "" {
			continue
		}

		select {
		case shards[shardOf(task.WorkflowID, len(shards))] <- task:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Host) dispatch(ctx context.Context, task history.Task) {
	ctx = log.ContextWith(ctx, j.MKS{"workflow_id": task.WorkflowID, "run_id": task.RunID})

	if err := h.Handle(ctx, task); err != nil {
		log.Error(ctx, errors.Wrap(err, "handle decision task"))
	}
}

// shardOf returns the shard of a workflow id out of n shards.
func shardOf(workflowID string, n int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(workflowID))
	return int(jump.Hash(h.Sum64(), n))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
