package guflow

import (
	"strings"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/ident"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

// History is the state of one decision pass: the projected history of the
// execution plus the engine markers recorded by the pass so far. It is
// passed to predicates, input builders and handlers.
type History struct {
	w    *Workflow
	task history.Task
	p    *history.Projection

	overlay map[history.Key][]recorded
}

// recorded is an engine marker decided in the current pass.
type recorded struct {
	name    string
	details string
}

func newHistory(w *Workflow, task history.Task, p *history.Projection) *History {
	return &History{
		w:       w,
		task:    task,
		p:       p,
		overlay: make(map[history.Key][]recorded),
	}
}

func (h *History) WorkflowID() string {
	return h.task.WorkflowID
}

func (h *History) RunID() string {
	return h.task.RunID
}

// Input returns the input the execution was started with.
func (h *History) Input() string {
	e, ok := h.p.Started()
	if !ok {
		return ""
	}
	return e.Attributes.Input
}

func (h *History) view(it *item) history.View {
	return h.p.View(it.historyKey(h))
}

// lookup returns the declared item of a projection key.
func (h *History) lookup(key history.Key) (*item, error) {
	id, err := ident.Decode(ident.ScheduleID(key.ID))
	if err != nil {
		return nil, errors.Wrap(ErrIncompatibleWorkflow, "undecodable item id", j.MKS{"kind": string(key.Kind), "id": key.ID})
	}

	it, ok := h.w.byKey[itemKey{kind: key.Kind, id: id}]
	if !ok {
		return nil, errors.Wrap(ErrIncompatibleWorkflow, "item not declared", j.MKS{"kind": string(key.Kind), "id": key.ID})
	}

	return it, nil
}

// itemFor returns the declared item or a transient undeclared item that can
// only be queried.
func (h *History) itemFor(kind history.Kind, id ident.Identity) *item {
	if it, ok := h.w.byKey[itemKey{kind: kind, id: id}]; ok {
		return it
	}
	return newItem(kind, id)
}

func (h *History) checkCompatible() error {
	for _, key := range h.p.Keys() {
		if _, err := h.lookup(key); err != nil {
			return err
		}
	}
	return nil
}

// record adds the engine markers among the decisions to the overlay so
// later interpretations in the pass observe them.
func (h *History) record(ds []decision.Decision) {
	for _, d := range ds {
		m, ok := d.(decision.RecordMarker)
		if !ok {
			continue
		}

		kind, id, ok := marker.Owner(m.MarkerName, m.Details)
		if !ok {
			continue
		}

		key := history.Key{Kind: history.Kind(kind), ID: id}
		h.overlay[key] = append(h.overlay[key], recorded{name: m.MarkerName, details: m.Details})
	}
}

// handlerAction returns the action of the registered handler or the
// default action of the event.
func (h *History) handlerAction(it *item, e Event, o Outcome) Action {
	fn, ok := it.handlers[o]
	if !ok {
		return e.defaultAction()
	}

	if a := fn(e); a != nil {
		return a
	}
	return Ignore()
}

// isReady returns true if the item's most recent outcome allows its
// children to be scheduled.
func (h *History) isReady(it *item) bool {
	last, ok := h.view(it).Last(true)
	if !ok || last.Role != history.RoleItem || last.Type().IsOutstanding() {
		return false
	}

	e, o, ok := newItemEvent(h, it, last)
	if !ok {
		return false
	}

	return h.handlerAction(it, e, o).ready()
}

func (h *History) parentsReady(c, from *item) bool {
	for _, i := range c.parentIdx {
		p := h.w.items[i]
		if p == from {
			continue
		}
		if !h.isReady(p) {
			return false
		}
	}
	return true
}

// IsActive returns true if any declared item is outstanding.
func (h *History) IsActive() bool {
	for _, it := range h.w.items {
		if h.view(it).IsActive() {
			return true
		}
	}
	return false
}

// WaitingSignals returns the signals any item is waiting for, in
// declaration order.
func (h *History) WaitingSignals() []string {
	var res []string
	for _, it := range h.w.items {
		res = append(res, h.waitState(it).waiting()...)
	}
	return res
}

func (h *History) isWaiting() bool {
	for _, it := range h.w.items {
		if h.waitState(it).pending() {
			return true
		}
	}
	return false
}

func (h *History) Activity(name, version string, pos ...string) *ItemView {
	return &ItemView{h: h, it: h.itemFor(history.KindActivity, ident.Resolve(name, version, positional(pos)))}
}

func (h *History) Lambda(name string, pos ...string) *ItemView {
	return &ItemView{h: h, it: h.itemFor(history.KindLambda, ident.Resolve(name, "", positional(pos)))}
}

func (h *History) Timer(name string, pos ...string) *TimerView {
	return &TimerView{ItemView{h: h, it: h.itemFor(history.KindTimer, ident.Resolve(name, "", positional(pos)))}}
}

func (h *History) ChildWorkflow(name, version string, pos ...string) *ChildWorkflowView {
	return &ChildWorkflowView{ItemView{h: h, it: h.itemFor(history.KindChildWorkflow, ident.Resolve(name, version, positional(pos)))}}
}

// Signal returns the view of the signals with the name.
func (h *History) Signal(name string) SignalView {
	return SignalView{h: h, name: name}
}

// ItemView queries the history of one item.
type ItemView struct {
	h  *History
	it *item
}

func (v *ItemView) ScheduleID() string {
	return v.it.scheduleID(v.h).String()
}

// IsActive returns true if the item or its reschedule timer is outstanding.
func (v *ItemView) IsActive() bool {
	return v.h.view(v.it).IsActive()
}

// LastEvent returns the most recent outcome of the item.
func (v *ItemView) LastEvent() (Event, bool) {
	last, ok := v.h.view(v.it).Last(false)
	if !ok {
		return nil, false
	}

	e, _, ok := newItemEvent(v.h, v.it, last)
	return e, ok
}

// AllEvents returns the outcomes of the item, newest first.
func (v *ItemView) AllEvents() []Event {
	var res []Event
	for _, entry := range v.h.view(v.it).All(false) {
		if e, _, ok := newItemEvent(v.h, v.it, entry); ok {
			res = append(res, e)
		}
	}
	return res
}

// Result returns the result of the most recent completion of the item.
func (v *ItemView) Result() (Result, bool) {
	for _, entry := range v.h.view(v.it).All(false) {
		switch entry.Type() {
		case history.ActivityTaskCompleted, history.LambdaFunctionCompleted, history.ChildWorkflowExecutionCompleted:
			return NewResult(entry.Event.Attributes.Result), true
		}
	}
	return Result{}, false
}

// IsWaitingForSignals returns true if the item paused to wait for signals
// and the wait is neither satisfied nor timed out.
func (v *ItemView) IsWaitingForSignals() bool {
	return v.h.waitState(v.it).pending()
}

// WaitingSignals returns the signals the item is still waiting for.
func (v *ItemView) WaitingSignals() []string {
	return v.h.waitState(v.it).waiting()
}

// CancelRequest returns an action requesting cancellation of the item if it
// is active.
func (v *ItemView) CancelRequest() Action {
	return &cancelAction{h: v.h, it: v.it}
}

// TimerView queries the history of a timer item.
type TimerView struct {
	ItemView
}

// Reset returns an action restarting the running timer under its other id.
// The timer restarts with d if given, otherwise with its configured duration.
func (v *TimerView) Reset(d ...time.Duration) Action {
	a := &resetAction{h: v.h, it: v.it}
	if len(d) > 0 {
		a.d = &d[0]
	}
	return a
}

// ChildWorkflowView queries the history of a child workflow item.
type ChildWorkflowView struct {
	ItemView
}

// RunID returns the run id of the most recently started child execution.
func (v *ChildWorkflowView) RunID() string {
	for _, entry := range v.h.view(v.it).All(false) {
		if entry.Type() == history.ChildWorkflowExecutionStarted {
			return entry.Event.Attributes.RunID
		}
		if entry.Started != nil {
			return entry.Started.Attributes.RunID
		}
	}
	return ""
}

// Signal returns an action signalling the child workflow.
func (v *ChildWorkflowView) Signal(name string, input interface{}) Action {
	return Signal(name, input).ForWorkflow(v.ScheduleID(), v.RunID())
}

// SignalView queries the signals delivered to the execution.
type SignalView struct {
	h    *History
	name string
}

func (v SignalView) events() []history.Entry {
	var res []history.Entry
	for _, entry := range v.h.p.View(history.WorkflowKey).Raw() {
		if entry.Type() != history.WorkflowExecutionSignaled {
			continue
		}
		if strings.EqualFold(entry.Event.Attributes.SignalName, v.name) {
			res = append(res, entry)
		}
	}
	return res
}

// IsReceived returns true if a signal with the name, compared case
// insensitively, was delivered at any point of the execution.
func (v SignalView) IsReceived() bool {
	return len(v.events()) > 0
}

// Count returns the number of deliveries of the signal.
func (v SignalView) Count() int {
	return len(v.events())
}

// Input returns the input of the most recent delivery of the signal.
func (v SignalView) Input() string {
	es := v.events()
	if len(es) == 0 {
		return ""
	}
	return es[len(es)-1].Event.Attributes.Input
}
