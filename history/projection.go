package history

import (
	"sort"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/internal/ident"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

// ErrIncompleteHistory indicates that an event references an event missing
// from the supplied history. It points to a truncated or corrupted history
// slice rather than to a problem with the workflow definition.
var ErrIncompleteHistory = errors.New("incomplete history", j.C("ERR_3f5b0e9a7d1c2e48"))

// ErrUnorderedHistory indicates that event ids are not strictly increasing.
var ErrUnorderedHistory = errors.New("unordered history", j.C("ERR_c81d2a6f90e4b713"))

// Kind identifies the kind of item an event belongs to.
type Kind string

const (
	KindWorkflow      Kind = "workflow"
	KindActivity      Kind = "activity"
	KindTimer         Kind = "timer"
	KindLambda        Kind = "lambda"
	KindChildWorkflow Kind = "child_workflow"
)

// Key identifies the events of one item.
type Key struct {
	Kind Kind
	ID   string
}

// WorkflowKey is the key of workflow level events.
var WorkflowKey = Key{Kind: KindWorkflow}

// Role distinguishes engine bookkeeping events from the item's own events.
type Role string

const (
	RoleItem          Role = "item"
	RoleReschedule    Role = "reschedule"
	RoleSignalTimeout Role = "signal_timeout"
	RoleMarker        Role = "marker"
)

// Entry is a classified history event.
type Entry struct {
	Event *Event
	Key   Key
	Role  Role

	// Scheduled is the event that scheduled, initiated or started the item
	// instance this event belongs to.
	Scheduled *Event

	// Started is the started event referenced by a completing event.
	Started *Event
}

// ID returns the event id.
func (e Entry) ID() int64 {
	return e.Event.ID
}

// Type returns the event type.
func (e Entry) Type() EventType {
	return e.Event.Type
}

// ItemID returns the correlation id of the item instance: the activity,
// timer or lambda id or the child workflow id.
func (e Entry) ItemID() string {
	src := e.Event
	if e.Scheduled != nil {
		src = e.Scheduled
	}

	a := src.Attributes
	switch {
	case a.TimerID != "":
		return a.TimerID
	case a.ActivityID != "":
		return a.ActivityID
	case a.LambdaID != "":
		return a.LambdaID
	default:
		return a.WorkflowID
	}
}

// Control returns the control payload of the scheduling event.
func (e Entry) Control() string {
	if e.Scheduled != nil {
		return e.Scheduled.Attributes.Control
	}
	return e.Event.Attributes.Control
}

// Projection is the per item view of one history slice. It is built once per
// decision pass and never modified.
type Projection struct {
	byID    map[int64]*Event
	entries []Entry
	byKey   map[Key][]int
	cutoff  int64
	started *Event
}

// Project classifies the ordered events and returns the projection. Events
// with ids greater than cutoff are new.
func Project(events []Event, cutoff int64) (*Projection, error) {
	p := &Projection{
		byID:   make(map[int64]*Event, len(events)),
		byKey:  make(map[Key][]int),
		cutoff: cutoff,
	}

	var prev int64
	for i := range events {
		e := &events[i]
		if e.ID <= prev {
			return nil, errors.Wrap(ErrUnorderedHistory, "", j.MKV{"id": e.ID, "prev": prev})
		}
		prev = e.ID
		p.byID[e.ID] = e

		entry, ok, err := p.classify(e)
		if err != nil {
			return nil, err
		} else if !ok {
			continue
		}

		if e.Type == WorkflowExecutionStarted && p.started == nil {
			p.started = e
		}

		p.byKey[entry.Key] = append(p.byKey[entry.Key], len(p.entries))
		p.entries = append(p.entries, entry)
	}

	return p, nil
}

// Cutoff returns the id of the last already processed event.
func (p *Projection) Cutoff() int64 {
	return p.cutoff
}

// IsNew returns true if the event was not processed by a previous decision task.
func (p *Projection) IsNew(e Entry) bool {
	return e.ID() > p.cutoff
}

// Entries returns all classified events in history order.
func (p *Projection) Entries() []Entry {
	return p.entries
}

// NewEntries returns the classified new events in history order.
func (p *Projection) NewEntries() []Entry {
	var res []Entry
	for _, e := range p.entries {
		if p.IsNew(e) {
			res = append(res, e)
		}
	}
	return res
}

// Started returns the WorkflowExecutionStarted event if present.
func (p *Projection) Started() (*Event, bool) {
	return p.started, p.started != nil
}

// Event returns the event with the id.
func (p *Projection) Event(id int64) (*Event, bool) {
	e, ok := p.byID[id]
	return e, ok
}

// Keys returns the keys of all items with events, sorted.
func (p *Projection) Keys() []Key {
	var res []Key
	for k := range p.byKey {
		if k.Kind == KindWorkflow {
			continue
		}
		res = append(res, k)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Kind != res[j].Kind {
			return res[i].Kind < res[j].Kind
		}
		return res[i].ID < res[j].ID
	})
	return res
}

// View returns the merged view of the events of the keys.
func (p *Projection) View(keys ...Key) View {
	var idx []int
	for _, k := range keys {
		idx = append(idx, p.byKey[k]...)
	}
	sort.Ints(idx)
	return View{p: p, idx: idx}
}

func (p *Projection) classify(e *Event) (Entry, bool, error) {
	a := e.Attributes
	item := func(kind Kind, id string, scheduled *Event) (Entry, bool, error) {
		return Entry{Event: e, Key: Key{Kind: kind, ID: id}, Role: RoleItem, Scheduled: scheduled}, true, nil
	}

	if e.Type.IsDecisionTaskEvent() {
		return Entry{}, false, nil
	}

	switch e.Type {
	case WorkflowExecutionStarted, WorkflowExecutionCancelRequested, WorkflowExecutionSignaled,
		RecordMarkerFailed, SignalExternalWorkflowExecutionInitiated, SignalExternalWorkflowExecutionFailed,
		ExternalWorkflowExecutionSignaled, CompleteWorkflowExecutionFailed, FailWorkflowExecutionFailed,
		CancelWorkflowExecutionFailed, ContinueAsNewWorkflowExecutionFailed:
		return Entry{Event: e, Key: WorkflowKey, Role: RoleItem}, true, nil

	case ActivityTaskScheduled:
		return item(KindActivity, a.ActivityID, e)

	case ScheduleActivityTaskFailed, ActivityTaskCancelRequested, RequestCancelActivityTaskFailed:
		key := Key{Kind: KindActivity, ID: a.ActivityID}
		return item(key.Kind, key.ID, p.lastOf(key, ActivityTaskScheduled))

	case ActivityTaskStarted, ActivityTaskCompleted, ActivityTaskFailed, ActivityTaskTimedOut, ActivityTaskCanceled:
		s, err := p.ref(e, a.ScheduledEventID, ActivityTaskScheduled)
		if err != nil {
			return Entry{}, false, err
		}
		entry, ok, _ := item(KindActivity, s.Attributes.ActivityID, s)
		if e.Type != ActivityTaskStarted && a.StartedEventID != 0 {
			entry.Started, err = p.ref(e, a.StartedEventID, ActivityTaskStarted)
			if err != nil {
				return Entry{}, false, err
			}
		}
		return entry, ok, nil

	case TimerStarted, StartTimerFailed:
		entry := timerEntry(e, a.TimerID, a.Control)
		if e.Type == TimerStarted {
			entry.Scheduled = e
		}
		return entry, true, nil

	case TimerFired, TimerCanceled:
		s, err := p.ref(e, a.StartedEventID, TimerStarted)
		if err != nil {
			return Entry{}, false, err
		}
		entry := timerEntry(e, s.Attributes.TimerID, s.Attributes.Control)
		entry.Scheduled = s
		return entry, true, nil

	case CancelTimerFailed:
		s := p.lastTimerStarted(a.TimerID)
		if s == nil {
			return timerEntry(e, a.TimerID, ""), true, nil
		}
		entry := timerEntry(e, s.Attributes.TimerID, s.Attributes.Control)
		entry.Scheduled = s
		return entry, true, nil

	case LambdaFunctionScheduled:
		return item(KindLambda, a.LambdaID, e)

	case ScheduleLambdaFunctionFailed:
		return item(KindLambda, a.LambdaID, nil)

	case LambdaFunctionStarted, StartLambdaFunctionFailed, LambdaFunctionCompleted, LambdaFunctionFailed, LambdaFunctionTimedOut:
		s, err := p.ref(e, a.ScheduledEventID, LambdaFunctionScheduled)
		if err != nil {
			return Entry{}, false, err
		}
		entry, ok, _ := item(KindLambda, s.Attributes.LambdaID, s)
		if e.Type != LambdaFunctionStarted && e.Type != StartLambdaFunctionFailed && a.StartedEventID != 0 {
			entry.Started, err = p.ref(e, a.StartedEventID, LambdaFunctionStarted)
			if err != nil {
				return Entry{}, false, err
			}
		}
		return entry, ok, nil

	case StartChildWorkflowExecutionInitiated:
		return item(KindChildWorkflow, a.WorkflowID, e)

	case StartChildWorkflowExecutionFailed:
		var s *Event
		if a.InitiatedEventID != 0 {
			var err error
			s, err = p.ref(e, a.InitiatedEventID, StartChildWorkflowExecutionInitiated)
			if err != nil {
				return Entry{}, false, err
			}
		}
		return item(KindChildWorkflow, a.WorkflowID, s)

	case ChildWorkflowExecutionStarted, ChildWorkflowExecutionCompleted, ChildWorkflowExecutionFailed,
		ChildWorkflowExecutionTimedOut, ChildWorkflowExecutionCanceled, ChildWorkflowExecutionTerminated:
		s, err := p.ref(e, a.InitiatedEventID, StartChildWorkflowExecutionInitiated)
		if err != nil {
			return Entry{}, false, err
		}
		entry, ok, _ := item(KindChildWorkflow, s.Attributes.WorkflowID, s)
		if e.Type != ChildWorkflowExecutionStarted && a.StartedEventID != 0 {
			entry.Started, err = p.ref(e, a.StartedEventID, ChildWorkflowExecutionStarted)
			if err != nil {
				return Entry{}, false, err
			}
		}
		return entry, ok, nil

	case MarkerRecorded:
		if kind, id, ok := marker.Owner(a.MarkerName, a.Details); ok {
			return Entry{Event: e, Key: Key{Kind: Kind(kind), ID: id}, Role: RoleMarker}, true, nil
		}
		return Entry{Event: e, Key: WorkflowKey, Role: RoleItem}, true, nil

	default:
		return Entry{}, false, errors.New("unknown event type", j.MKV{"id": e.ID, "type": int(e.Type)})
	}
}

// ref returns the referenced event and ensures it is of the expected type.
func (p *Projection) ref(e *Event, id int64, typ EventType) (*Event, error) {
	r, ok := p.byID[id]
	if !ok || r.Type != typ {
		return nil, errors.Wrap(ErrIncompleteHistory, "missing referenced event", j.MKV{
			"event_id":      e.ID,
			"event_type":    e.Type.String(),
			"referenced_id": id,
			"expected_type": typ.String(),
		})
	}
	return r, nil
}

func (p *Projection) lastOf(key Key, typ EventType) *Event {
	idx := p.byKey[key]
	for i := len(idx) - 1; i >= 0; i-- {
		if e := p.entries[idx[i]]; e.Type() == typ {
			return e.Event
		}
	}
	return nil
}

func (p *Projection) lastTimerStarted(timerID string) *Event {
	for i := len(p.entries) - 1; i >= 0; i-- {
		e := p.entries[i]
		if e.Type() == TimerStarted && e.Event.Attributes.TimerID == timerID {
			return e.Event
		}
	}
	return nil
}

// timerEntry files timer events under their owner. Engine timers carry the
// owner in their control payload; other timers are timer items keyed by
// their base id so that the base and reset ids share one view.
func timerEntry(e *Event, timerID, control string) Entry {
	c, ok := marker.DecodeControl(control)
	if ok && c.ID != "" {
		role := RoleItem
		switch c.Role {
		case marker.RoleReschedule:
			role = RoleReschedule
		case marker.RoleSignalTimeout:
			role = RoleSignalTimeout
		}
		return Entry{Event: e, Key: Key{Kind: Kind(c.Kind), ID: c.ID}, Role: role}
	}

	return Entry{
		Event: e,
		Key:   Key{Kind: KindTimer, ID: string(ident.ScheduleID(timerID).Base())},
		Role:  RoleItem,
	}
}

// View is the merged, ordered event list of one item.
type View struct {
	p   *Projection
	idx []int
}

// isState returns true if the entry contributes to the item's state.
func isState(e Entry, includeReschedule bool) bool {
	switch e.Role {
	case RoleMarker, RoleSignalTimeout:
		return false
	case RoleReschedule:
		if !includeReschedule {
			return false
		}
	}

	switch e.Type() {
	case ActivityTaskCancelRequested, RequestCancelActivityTaskFailed, CancelTimerFailed:
		// A cancel request does not change state until it is honoured.
		return false
	}

	return true
}

// Last returns the most recent state event of the item.
func (v View) Last(includeReschedule bool) (Entry, bool) {
	for i := len(v.idx) - 1; i >= 0; i-- {
		e := v.p.entries[v.idx[i]]
		if isState(e, includeReschedule) {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns the state events of the item, newest first.
func (v View) All(includeReschedule bool) []Entry {
	var res []Entry
	for i := len(v.idx) - 1; i >= 0; i-- {
		e := v.p.entries[v.idx[i]]
		if isState(e, includeReschedule) {
			res = append(res, e)
		}
	}
	return res
}

// Raw returns all events of the item, including bookkeeping, in history order.
func (v View) Raw() []Entry {
	res := make([]Entry, 0, len(v.idx))
	for _, i := range v.idx {
		res = append(res, v.p.entries[i])
	}
	return res
}

// Markers returns the engine markers of the item in history order.
func (v View) Markers() []Entry {
	return v.filter(func(e Entry) bool { return e.Role == RoleMarker })
}

// SignalTimers returns the signal timeout timer events of the item in
// history order.
func (v View) SignalTimers() []Entry {
	return v.filter(func(e Entry) bool { return e.Role == RoleSignalTimeout })
}

func (v View) filter(fn func(Entry) bool) []Entry {
	var res []Entry
	for _, i := range v.idx {
		if e := v.p.entries[i]; fn(e) {
			res = append(res, e)
		}
	}
	return res
}

// IsActive returns true if the item, or its reschedule timer, is
// outstanding with the coordination service.
func (v View) IsActive() bool {
	last, ok := v.Last(true)
	return ok && last.Type().IsOutstanding()
}

// ActiveEntry returns the last entry if the item is active.
func (v View) ActiveEntry() (Entry, bool) {
	last, ok := v.Last(true)
	if !ok || !last.Type().IsOutstanding() {
		return Entry{}, false
	}
	return last, true
}

// LatestTimerID returns the id of the most recently started item timer or
// empty if no item timer was started.
func (v View) LatestTimerID() string {
	for i := len(v.idx) - 1; i >= 0; i-- {
		e := v.p.entries[v.idx[i]]
		if e.Role == RoleItem && e.Type() == TimerStarted {
			return e.Event.Attributes.TimerID
		}
	}
	return ""
}
