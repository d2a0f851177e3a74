package guflow

import (
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/ident"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

// RescheduleAction runs the item of an event again, optionally after a
// delay and up to a number of retries.
type RescheduleAction struct {
	e     Event
	after time.Duration
	limit int
}

// Reschedule returns the action scheduling the item of e again. Without a
// limit the item is rescheduled indefinitely.
func Reschedule(e Event) *RescheduleAction {
	return &RescheduleAction{e: e, limit: -1}
}

// After delays the reschedule.
func (a *RescheduleAction) After(d time.Duration) *RescheduleAction {
	a.after = d
	return a
}

// UpTo limits the number of retries. Once the limit is reached the event
// continues to the item's children.
func (a *RescheduleAction) UpTo(limit int) *RescheduleAction {
	a.limit = limit
	return a
}

func (a *RescheduleAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }

func (a *RescheduleAction) ready() bool {
	return a.exhausted()
}

func (a *RescheduleAction) exhausted() bool {
	ie := itemOf(a.e)
	if ie == nil || a.limit < 0 {
		return false
	}
	return ie.h.retries(ie.it, ie.entry) >= a.limit
}

func (a *RescheduleAction) resolve() (resolution, error) {
	ie := itemOf(a.e)
	if ie == nil {
		return resolution{}, errors.Wrap(ErrNotItemEvent, "reschedule", j.KV("event_id", a.e.EventID()))
	}

	if a.exhausted() {
		return Continue(a.e).resolve()
	}

	return resolution{decisions: ie.h.rescheduleTimer(ie.it, a.after)}, nil
}

// retries returns the number of times the item was retried after outcomes
// of the same type as entry: the run length of consecutive terminal events
// of that type, ending at entry, minus the first occurrence.
func (h *History) retries(it *item, entry history.Entry) int {
	var (
		run     int
		started bool
	)
	for _, e := range h.view(it).All(false) {
		if !started {
			started = e.ID() == entry.ID()
			if !started {
				continue
			}
		}

		if e.Type().IsOutstanding() {
			continue
		}
		if e.Type() != entry.Type() {
			break
		}
		run++
	}

	if run == 0 {
		return 0
	}
	return run - 1
}

// rescheduleTimer returns the decisions starting the item's reschedule
// timer. A running reschedule timer is replaced under its other id.
func (h *History) rescheduleTimer(it *item, delay time.Duration) []decision.Decision {
	id := it.rescheduleTimerID(h)
	control := it.control(h, marker.RoleReschedule)

	active, ok := h.view(it).ActiveEntry()
	if !ok || active.Role != history.RoleReschedule {
		return []decision.Decision{decision.ScheduleTimer{TimerID: id, Control: control, StartToFire: delay}}
	}

	current := active.ItemID()
	return []decision.Decision{
		decision.CancelTimer{TimerID: current},
		decision.ScheduleTimer{
			TimerID:     ident.ScheduleID(current).Toggle().String(),
			Control:     control,
			StartToFire: delay,
		},
	}
}
