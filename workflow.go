package guflow

import (
	"strings"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/ident"
)

// Workflow is the declaration of a workflow: a graph of items and the
// handlers of workflow level events. A Workflow is built once per decision
// task and must not be modified while a decision pass runs.
type Workflow struct {
	o options

	items []*item
	byKey map[itemKey]*item
	errs  []error

	children [][]int
	roots    []int

	onStart              func(*WorkflowStartedEvent) Action
	onSignal             map[string]func(*WorkflowSignaledEvent) Action
	onCancelRequest      func(*WorkflowCancelRequestedEvent) Action
	onSignalFailed       func(*SignalFailedEvent) Action
	onRecordMarkerFailed func(*RecordMarkerFailedEvent) Action
	onActionFailed       func(*WorkflowActionFailedEvent) Action
}

func NewWorkflow(opts ...option) *Workflow {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Workflow{
		o:        o,
		byKey:    make(map[itemKey]*item),
		onSignal: make(map[string]func(*WorkflowSignaledEvent) Action),
	}
}

// declare adds the item to the graph. A duplicate declaration is reported
// by the next decision pass and returns the existing item.
func (w *Workflow) declare(kind history.Kind, name, version string, pos []string) *item {
	id := ident.Resolve(name, version, positional(pos))
	key := itemKey{kind: kind, id: id}

	if it, ok := w.byKey[key]; ok {
		w.errs = append(w.errs, errors.Wrap(ErrInvalidGraph, "duplicate item", j.MKS{
			"kind": string(kind),
			"name": name,
			"id":   id.ScheduleID().String(),
		}))
		return it
	}

	it := newItem(kind, id)
	it.index = len(w.items)
	w.items = append(w.items, it)
	w.byKey[key] = it

	return it
}

// ScheduleActivity declares an activity. The positional name distinguishes
// several declarations of the same activity type.
func (w *Workflow) ScheduleActivity(name, version string, pos ...string) *ActivityItem {
	return &ActivityItem{it: w.declare(history.KindActivity, name, version, pos)}
}

func (w *Workflow) ScheduleTimer(name string, pos ...string) *TimerItem {
	return &TimerItem{it: w.declare(history.KindTimer, name, "", pos)}
}

func (w *Workflow) ScheduleLambda(name string, pos ...string) *LambdaItem {
	return &LambdaItem{it: w.declare(history.KindLambda, name, "", pos)}
}

func (w *Workflow) ScheduleChildWorkflow(name, version string, pos ...string) *ChildWorkflowItem {
	return &ChildWorkflowItem{it: w.declare(history.KindChildWorkflow, name, version, pos)}
}

// OnStart overrides the default start handler which schedules the items
// without parents.
func (w *Workflow) OnStart(fn func(*WorkflowStartedEvent) Action) *Workflow {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	w.onStart = fn
	return w
}

// OnSignal registers the handler of signals with the name. Names are
// compared case insensitively.
func (w *Workflow) OnSignal(name string, fn func(*WorkflowSignaledEvent) Action) *Workflow {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	w.onSignal[strings.ToLower(name)] = fn
	return w
}

func (w *Workflow) OnCancelRequest(fn func(*WorkflowCancelRequestedEvent) Action) *Workflow {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	w.onCancelRequest = fn
	return w
}

func (w *Workflow) OnSignalFailed(fn func(*SignalFailedEvent) Action) *Workflow {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	w.onSignalFailed = fn
	return w
}

func (w *Workflow) OnRecordMarkerFailed(fn func(*RecordMarkerFailedEvent) Action) *Workflow {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	w.onRecordMarkerFailed = fn
	return w
}

// OnActionFailed registers the handler of rejected complete, fail, cancel
// and continue-as-new decisions.
func (w *Workflow) OnActionFailed(fn func(*WorkflowActionFailedEvent) Action) *Workflow {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	w.onActionFailed = fn
	return w
}

// resolve converts parent keys to arena indices and validates the graph.
func (w *Workflow) resolve() error {
	if len(w.errs) > 0 {
		return w.errs[0]
	}

	w.children = make([][]int, len(w.items))
	w.roots = nil

	for _, it := range w.items {
		it.parentIdx = it.parentIdx[:0]
		for _, pk := range it.parents {
			p, ok := w.byKey[pk]
			if !ok {
				return errors.Wrap(ErrInvalidGraph, "undeclared parent", j.MKS{
					"item":   it.id.ScheduleID().String(),
					"parent": pk.id.ScheduleID().String(),
				})
			}
			it.parentIdx = append(it.parentIdx, p.index)
			w.children[p.index] = append(w.children[p.index], it.index)
		}

		if len(it.parents) == 0 {
			w.roots = append(w.roots, it.index)
		}
	}

	return w.checkAcyclic()
}

// checkAcyclic removes items without unresolved parents until none are
// left. Items that remain are part of a cycle.
func (w *Workflow) checkAcyclic() error {
	pending := make([]int, len(w.items))
	var queue []int
	for _, it := range w.items {
		pending[it.index] = len(it.parentIdx)
		if pending[it.index] == 0 {
			queue = append(queue, it.index)
		}
	}

	var visited int
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		visited++

		for _, c := range w.children[i] {
			pending[c]--
			if pending[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	if visited == len(w.items) {
		return nil
	}

	for _, it := range w.items {
		if pending[it.index] > 0 {
			return errors.Wrap(ErrInvalidGraph, "dependency cycle", j.KS("item", it.id.ScheduleID().String()))
		}
	}
	return nil
}

// inBranch returns true if target is from, one of its ancestors or one of
// its descendants.
func (w *Workflow) inBranch(from, target *item) bool {
	if from == target {
		return true
	}

	parents := func(i int) []int { return w.items[i].parentIdx }
	children := func(i int) []int { return w.children[i] }

	return w.reaches(from.index, target.index, parents) ||
		w.reaches(from.index, target.index, children)
}

func (w *Workflow) reaches(from, target int, next func(int) []int) bool {
	seen := make(map[int]bool)
	stack := []int{from}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range next(i) {
			if n == target {
				return true
			}
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return false
}
