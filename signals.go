package guflow

import (
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/canon"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

// WaitType defines when a signal wait is satisfied.
type WaitType string

const (
	// AnySignal is satisfied by the first expected signal.
	AnySignal WaitType = "any"

	// AllSignals is satisfied once every expected signal was received.
	AllSignals WaitType = "all"
)

const (
	nextContinue   = "continue"
	nextReschedule = "reschedule"
)

// WaitForSignalsAction pauses the item of an event until the expected
// signals are received or the wait times out.
type WaitForSignalsAction struct {
	e        Event
	signals  []string
	waitType WaitType
	timeout  time.Duration
	next     string
}

// WaitForSignal pauses the item of e until the signal is received.
func WaitForSignal(e Event, name string) *WaitForSignalsAction {
	return WaitForAnySignal(e, name)
}

func WaitForAnySignal(e Event, names ...string) *WaitForSignalsAction {
	return &WaitForSignalsAction{e: e, signals: names, waitType: AnySignal, next: nextContinue}
}

func WaitForAllSignals(e Event, names ...string) *WaitForSignalsAction {
	return &WaitForSignalsAction{e: e, signals: names, waitType: AllSignals, next: nextContinue}
}

// For times the wait out after d.
func (a *WaitForSignalsAction) For(d time.Duration) *WaitForSignalsAction {
	a.timeout = d
	return a
}

// ToReschedule runs the item again once the wait ends.
func (a *WaitForSignalsAction) ToReschedule() *WaitForSignalsAction {
	a.next = nextReschedule
	return a
}

// ToContinue continues to the item's children once the wait ends. This is
// the default.
func (a *WaitForSignalsAction) ToContinue() *WaitForSignalsAction {
	a.next = nextContinue
	return a
}

func (a *WaitForSignalsAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }

func (a *WaitForSignalsAction) ready() bool {
	ie := itemOf(a.e)
	if ie == nil || a.next != nextContinue {
		return false
	}

	s := ie.h.waitState(ie.it)
	return s.satisfied() || s.timedOut
}

func (a *WaitForSignalsAction) resolve() (resolution, error) {
	ie := itemOf(a.e)
	if ie == nil {
		return resolution{}, errors.Wrap(ErrNotItemEvent, "wait for signals", j.KV("event_id", a.e.EventID()))
	}
	h, it := ie.h, ie.it

	if len(a.signals) == 0 {
		return resume(h, it, a.next).resolve()
	}

	w := marker.Wait{
		Kind:           string(it.kind),
		ID:             it.scheduleID(h).String(),
		EventID:        a.e.EventID(),
		Signals:        a.signals,
		WaitType:       string(a.waitType),
		Next:           a.next,
		TimeoutSeconds: decision.Seconds(a.timeout),
	}
	if a.timeout > 0 {
		w.TimerID = it.signalTimerID(h)
	}

	ds := []decision.Decision{decision.RecordMarker{MarkerName: marker.WaitSignals, Details: canon.MustText(w)}}
	if a.timeout > 0 {
		ds = append(ds, decision.ScheduleTimer{
			TimerID:     w.TimerID,
			Control:     it.control(h, marker.RoleSignalTimeout),
			StartToFire: a.timeout,
		})
	}

	return resolution{decisions: ds}, nil
}

// waitState is the state of an item's most recent signal wait.
type waitState struct {
	wait     *marker.Wait
	received []string
	timedOut bool
}

func (s waitState) waiting() []string {
	if s.wait == nil || s.timedOut {
		return nil
	}

	if WaitType(s.wait.WaitType) == AnySignal {
		if len(s.received) > 0 {
			return nil
		}
		return s.wait.Signals
	}

	var res []string
	for _, name := range s.wait.Signals {
		if !contains(s.received, name) {
			res = append(res, name)
		}
	}
	return res
}

// pending returns true while the item is paused.
func (s waitState) pending() bool {
	return s.wait != nil && !s.timedOut && len(s.waiting()) > 0
}

func (s waitState) satisfied() bool {
	return s.wait != nil && !s.timedOut && len(s.waiting()) == 0
}

// waitState replays the item's engine markers, followed by the markers
// decided earlier in the pass, from its most recent wait marker.
func (h *History) waitState(it *item) waitState {
	key := it.historyKey(h)

	var ms []recorded
	for _, e := range h.p.View(key).Markers() {
		a := e.Event.Attributes
		ms = append(ms, recorded{name: a.MarkerName, details: a.Details})
	}
	ms = append(ms, h.overlay[key]...)

	var s waitState
	for _, m := range ms {
		switch m.name {
		case marker.WaitSignals:
			w, err := marker.DecodeWait(m.details)
			if err != nil {
				continue
			}
			s = waitState{wait: &w}

		case marker.SignalResumed:
			r, err := marker.DecodeResumed(m.details)
			if err != nil || s.wait == nil {
				continue
			}
			s.received = append(s.received, r.Signal)

		case marker.SignalsTimedOut:
			if s.wait != nil {
				s.timedOut = true
			}
		}
	}

	return s
}

// signalArrived resumes the items waiting for the delivered signal.
func (h *History) signalArrived(entry history.Entry) Action {
	name := entry.Event.Attributes.SignalName

	var c composite
	for _, it := range h.w.items {
		s := h.waitState(it)
		if !s.pending() || entry.ID() <= s.wait.EventID || !contains(s.waiting(), name) {
			continue
		}

		c = append(c, RecordMarker(marker.SignalResumed, marker.Resumed{
			Kind:    string(it.kind),
			ID:      it.scheduleID(h).String(),
			EventID: entry.ID(),
			Signal:  name,
		}))

		s.received = append(s.received, name)
		if !s.satisfied() {
			continue
		}

		if h.signalTimerActive(it) {
			c = append(c, &decisionAction{ds: []decision.Decision{decision.CancelTimer{TimerID: it.signalTimerID(h)}}})
		}
		c = append(c, resume(h, it, s.wait.Next))
	}

	return c
}

// signalTimerFired times out the item's wait if it is still pending.
func (h *History) signalTimerFired(it *item, entry history.Entry) Action {
	s := h.waitState(it)
	if !s.pending() {
		return nil
	}

	timedOut := RecordMarker(marker.SignalsTimedOut, marker.TimedOut{
		Kind:    string(it.kind),
		ID:      it.scheduleID(h).String(),
		EventID: entry.ID(),
	})

	e := &SignalsTimedOutEvent{
		ItemEvent: ItemEvent{h: h, it: it, entry: entry},
		Expected:  s.wait.Signals,
		Waiting:   s.waiting(),
		next:      s.wait.Next,
	}

	return composite{timedOut, h.handlerAction(it, e, OutcomeSignalsTimedOut)}
}

func (h *History) signalTimerActive(it *item) bool {
	ts := h.view(it).SignalTimers()
	return len(ts) > 0 && ts[len(ts)-1].Type() == history.TimerStarted
}

// resume ends an item's pause with the configured next action.
func resume(h *History, it *item, next string) Action {
	if next == nextReschedule {
		return &scheduleAction{h: h, it: it}
	}

	var result string
	if r, ok := (&ItemView{h: h, it: it}).Result(); ok {
		result = r.String()
	}
	return &continueAction{h: h, it: it, result: result}
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
