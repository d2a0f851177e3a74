package guflow

import (
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/ident"
)

// JumpBuilder selects the target of a jump.
type JumpBuilder struct {
	e Event
}

// Jump returns the builder of an action scheduling another item of the
// branch of e regardless of its When predicate.
func Jump(e Event) *JumpBuilder {
	return &JumpBuilder{e: e}
}

func (b *JumpBuilder) ToActivity(name, version string, pos ...string) *JumpAction {
	return b.to(history.KindActivity, name, version, pos)
}

func (b *JumpBuilder) ToTimer(name string, pos ...string) *JumpAction {
	return b.to(history.KindTimer, name, "", pos)
}

func (b *JumpBuilder) ToLambda(name string, pos ...string) *JumpAction {
	return b.to(history.KindLambda, name, "", pos)
}

func (b *JumpBuilder) ToChildWorkflow(name, version string, pos ...string) *JumpAction {
	return b.to(history.KindChildWorkflow, name, version, pos)
}

func (b *JumpBuilder) to(kind history.Kind, name, version string, pos []string) *JumpAction {
	return &JumpAction{
		e:      b.e,
		target: itemKey{kind: kind, id: ident.Resolve(name, version, positional(pos))},
	}
}

// JumpAction schedules the target item now or after a delay.
type JumpAction struct {
	e      Event
	target itemKey
	after  time.Duration
}

// After delays the jump by starting a reschedule timer for the target.
func (a *JumpAction) After(d time.Duration) *JumpAction {
	a.after = d
	return a
}

func (a *JumpAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *JumpAction) ready() bool                             { return false }

func (a *JumpAction) resolve() (resolution, error) {
	h := a.e.History()

	target, ok := h.w.byKey[a.target]
	if !ok {
		return resolution{}, errors.Wrap(ErrUnknownItem, "jump target", j.MKS{
			"kind": string(a.target.kind),
			"id":   a.target.id.ScheduleID().String(),
		})
	}

	if from := itemOf(a.e); from != nil && !h.w.inBranch(from.it, target) {
		return resolution{}, errors.Wrap(ErrOutOfBranchJump, "", j.MKS{
			"from": from.it.id.ScheduleID().String(),
			"to":   target.id.ScheduleID().String(),
		})
	}

	if a.after > 0 {
		return resolution{decisions: h.rescheduleTimer(target, a.after)}, nil
	}

	active, ok := h.view(target).ActiveEntry()
	if ok && active.Role == history.RoleItem {
		return resolution{}, nil
	}

	var ds []decision.Decision
	if ok {
		ds = append(ds, decision.CancelTimer{TimerID: active.ItemID()})
	}

	d, err := target.schedule(h)
	if err != nil {
		return resolution{}, err
	}

	return resolution{decisions: append(ds, d)}, nil
}
