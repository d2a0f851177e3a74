package guflow

import (
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/canon"
	"github.com/gurmitteotia/guflow-sub003/internal/ident"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

// Action is the outcome of interpreting an event: a pure function from the
// workflow graph and the pass history to decisions.
type Action interface {
	// Decisions returns the decisions of the action. It may be called any
	// number of times and always returns the same decisions.
	Decisions() ([]decision.Decision, error)

	resolve() (resolution, error)

	// ready returns true if the action lets the item's children be scheduled.
	ready() bool
}

// resolution is the result of resolving an action. A completion proposal is
// only decided if nothing else in the pass keeps the workflow going.
type resolution struct {
	decisions []decision.Decision
	complete  *decision.CompleteWorkflow
}

func (r *resolution) add(o resolution) {
	r.decisions = append(r.decisions, o.decisions...)
	if r.complete == nil {
		r.complete = o.complete
	}
}

func decisionsOf(a Action) ([]decision.Decision, error) {
	r, err := a.resolve()
	if err != nil {
		return nil, err
	}
	if len(r.decisions) == 0 && r.complete != nil {
		return []decision.Decision{*r.complete}, nil
	}
	return r.decisions, nil
}

type continueAction struct {
	h      *History
	it     *item
	start  bool
	result string
}

// Continue returns the action scheduling the children of the event's item
// whose parents are all ready. A workflow started event continues with the
// items that have no parents.
func Continue(e Event) Action {
	if ie := itemOf(e); ie != nil {
		return &continueAction{h: ie.h, it: ie.it, result: resultOf(e)}
	}
	if _, ok := e.(*WorkflowStartedEvent); ok {
		return StartWorkflow(e)
	}
	return Ignore()
}

// StartWorkflow returns the action scheduling the items without parents.
// If none can be scheduled the workflow completes.
func StartWorkflow(e Event) Action {
	return &continueAction{h: e.History(), start: true}
}

func (a *continueAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *continueAction) ready() bool                             { return true }

func (a *continueAction) resolve() (resolution, error) {
	if a.start {
		return a.h.continueFrom(nil, ResultNoSchedulableItem)
	}
	return a.h.continueFrom(a.it, a.result)
}

// continueFrom schedules the children of from, or the roots if from is nil.
// It proposes completion if no child passes its When predicate.
func (h *History) continueFrom(from *item, result string) (resolution, error) {
	candidates := h.w.roots
	if from != nil {
		candidates = h.w.children[from.index]
	}

	var (
		r       resolution
		pending bool
	)
	for _, i := range candidates {
		c := h.w.items[i]
		if !c.isWhenTrue(h) {
			continue
		}
		pending = true

		if !h.parentsReady(c, from) || h.view(c).IsActive() {
			continue
		}

		d, err := c.schedule(h)
		if err != nil {
			return resolution{}, err
		}
		r.decisions = append(r.decisions, d)
	}

	if !pending {
		r.complete = &decision.CompleteWorkflow{Result: result}
	}

	return r, nil
}

func resultOf(e Event) string {
	switch ev := e.(type) {
	case *ActivityCompletedEvent:
		return ev.Result.String()
	case *LambdaCompletedEvent:
		return ev.Result.String()
	case *ChildWorkflowCompletedEvent:
		return ev.Result.String()
	default:
		return ""
	}
}

type ignoreAction struct{}

// Ignore returns the action with no decisions. The item's branch stays
// pending until a signal, jump or reschedule resumes it.
func Ignore() Action {
	return ignoreAction{}
}

func (a ignoreAction) Decisions() ([]decision.Decision, error) { return nil, nil }
func (a ignoreAction) resolve() (resolution, error)             { return resolution{}, nil }
func (a ignoreAction) ready() bool                               { return false }

// decisionAction returns fixed decisions.
type decisionAction struct {
	ds  []decision.Decision
	err error
}

func (a *decisionAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *decisionAction) ready() bool                             { return false }

func (a *decisionAction) resolve() (resolution, error) {
	if a.err != nil {
		return resolution{}, a.err
	}
	return resolution{decisions: a.ds}, nil
}

// CompleteWorkflow returns the action completing the execution. Non string
// results are rendered as canonical JSON.
func CompleteWorkflow(result interface{}) Action {
	text, err := canon.Text(result)
	return &decisionAction{ds: []decision.Decision{decision.CompleteWorkflow{Result: text}}, err: err}
}

// FailWorkflow returns the action failing the execution.
func FailWorkflow(reason string, details interface{}) Action {
	text, err := canon.Text(details)
	return &decisionAction{ds: []decision.Decision{decision.FailWorkflow{Reason: reason, Details: text}}, err: err}
}

// CancelWorkflow returns the action cancelling the execution.
func CancelWorkflow(details interface{}) Action {
	text, err := canon.Text(details)
	return &decisionAction{ds: []decision.Decision{decision.CancelWorkflow{Details: text}}, err: err}
}

// RecordMarker returns the action recording a marker in the history.
func RecordMarker(name string, details interface{}) Action {
	text, err := canon.Text(details)
	return &decisionAction{ds: []decision.Decision{decision.RecordMarker{MarkerName: name, Details: text}}, err: err}
}

// SignalBuilder builds the action signalling another workflow execution.
type SignalBuilder struct {
	name  string
	input interface{}
}

func Signal(name string, input interface{}) *SignalBuilder {
	return &SignalBuilder{name: name, input: input}
}

// ForWorkflow returns the action signalling the execution. An empty run id
// signals the current run of the workflow id.
func (b *SignalBuilder) ForWorkflow(workflowID, runID string) Action {
	text, err := canon.Text(b.input)
	return &decisionAction{
		ds: []decision.Decision{decision.SignalExternalWorkflow{
			WorkflowID: workflowID,
			RunID:      runID,
			SignalName: b.name,
			Input:      text,
		}},
		err: err,
	}
}

// composite resolves several actions as one.
type composite []Action

func (c composite) Decisions() ([]decision.Decision, error) { return decisionsOf(c) }
func (c composite) ready() bool                             { return false }

func (c composite) resolve() (resolution, error) {
	var r resolution
	for _, a := range c {
		o, err := a.resolve()
		if err != nil {
			return resolution{}, err
		}
		r.add(o)
	}
	return r, nil
}

// RestartAction continues the execution as a new run carrying the
// configuration of the current run forward.
type RestartAction struct {
	h         *History
	overrides []func(*decision.ContinueAsNew) error
}

// RestartWorkflow returns the action restarting the execution as a new run
// with the input and configuration it was started with.
func RestartWorkflow(e Event) *RestartAction {
	return &RestartAction{h: e.History()}
}

func (a *RestartAction) WithInput(input interface{}) *RestartAction {
	a.overrides = append(a.overrides, func(d *decision.ContinueAsNew) error {
		text, err := canon.Text(input)
		d.Input = text
		return err
	})
	return a
}

func (a *RestartAction) WithTaskList(taskList string) *RestartAction {
	a.overrides = append(a.overrides, func(d *decision.ContinueAsNew) error {
		d.TaskList = taskList
		return nil
	})
	return a
}

func (a *RestartAction) WithTaskPriority(priority int) *RestartAction {
	a.overrides = append(a.overrides, func(d *decision.ContinueAsNew) error {
		d.TaskPriority = priority
		return nil
	})
	return a
}

func (a *RestartAction) WithTags(tags ...string) *RestartAction {
	a.overrides = append(a.overrides, func(d *decision.ContinueAsNew) error {
		d.Tags = tags
		return nil
	})
	return a
}

func (a *RestartAction) WithVersion(version string) *RestartAction {
	a.overrides = append(a.overrides, func(d *decision.ContinueAsNew) error {
		d.WorkflowVersion = version
		return nil
	})
	return a
}

func (a *RestartAction) WithExecutionStartToCloseTimeout(t time.Duration) *RestartAction {
	a.overrides = append(a.overrides, func(d *decision.ContinueAsNew) error {
		d.ExecutionStartToCloseTimeout = t
		return nil
	})
	return a
}

func (a *RestartAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *RestartAction) ready() bool                             { return false }

func (a *RestartAction) resolve() (resolution, error) {
	started, ok := a.h.p.Started()
	if !ok {
		return resolution{}, errors.Wrap(history.ErrIncompleteHistory, "workflow started event missing")
	}

	s := started.Attributes
	d := decision.ContinueAsNew{
		Input:                        s.Input,
		TaskList:                     s.TaskList,
		TaskPriority:                 s.TaskPriority,
		ChildPolicy:                  s.ChildPolicy,
		LambdaRole:                   s.LambdaRole,
		Tags:                         s.Tags,
		ExecutionStartToCloseTimeout: s.ExecutionStartToCloseTimeout,
		TaskStartToCloseTimeout:      s.TaskStartToCloseTimeout,
	}
	for _, o := range a.overrides {
		if err := o(&d); err != nil {
			return resolution{}, err
		}
	}

	return resolution{decisions: []decision.Decision{d}}, nil
}

// CancelRequestBuilder builds actions cancelling running items.
type CancelRequestBuilder struct {
	h *History
}

func CancelRequest(e Event) *CancelRequestBuilder {
	return &CancelRequestBuilder{h: e.History()}
}

func (b *CancelRequestBuilder) ForActivity(name, version string, pos ...string) Action {
	return b.h.Activity(name, version, pos...).CancelRequest()
}

func (b *CancelRequestBuilder) ForTimer(name string, pos ...string) Action {
	return b.h.Timer(name, pos...).CancelRequest()
}

// cancelAction cancels an active item and its pending reschedule timer.
type cancelAction struct {
	h  *History
	it *item
}

func (a *cancelAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *cancelAction) ready() bool                             { return false }

func (a *cancelAction) resolve() (resolution, error) {
	active, ok := a.h.view(a.it).ActiveEntry()
	if !ok {
		return resolution{}, nil
	}

	var ds []decision.Decision
	switch {
	case active.Role == history.RoleReschedule:
		ds = append(ds, decision.CancelTimer{TimerID: active.ItemID()})
	case a.it.kind == history.KindActivity:
		ds = append(ds, decision.RequestCancelActivity{ActivityID: active.ItemID()})
	case a.it.kind == history.KindTimer:
		ds = append(ds, decision.CancelTimer{TimerID: active.ItemID()})
	}

	return resolution{decisions: ds}, nil
}

// resetAction restarts a running timer item under its other id.
type resetAction struct {
	h  *History
	it *item
	d  *time.Duration
}

func (a *resetAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *resetAction) ready() bool                             { return false }

func (a *resetAction) resolve() (resolution, error) {
	active, ok := a.h.view(a.it).ActiveEntry()
	if !ok || active.Role != history.RoleItem {
		return resolution{}, errors.Wrap(ErrTimerNotActive, "", j.KS("timer", a.it.scheduleID(a.h).String()))
	}

	d := a.it.fireAfterDuration(a.h)
	if a.d != nil {
		d = *a.d
	}

	current := active.ItemID()
	return resolution{decisions: []decision.Decision{
		decision.CancelTimer{TimerID: current},
		decision.ScheduleTimer{
			TimerID:     ident.ScheduleID(current).Toggle().String(),
			Control:     a.it.control(a.h, marker.RoleItem),
			StartToFire: d,
		},
	}}, nil
}

// scheduleAction schedules an item now, ignoring its When predicate.
type scheduleAction struct {
	h  *History
	it *item
}

func (a *scheduleAction) Decisions() ([]decision.Decision, error) { return decisionsOf(a) }
func (a *scheduleAction) ready() bool                             { return false }

func (a *scheduleAction) resolve() (resolution, error) {
	if a.h.view(a.it).IsActive() {
		return resolution{}, nil
	}

	d, err := a.it.schedule(a.h)
	if err != nil {
		return resolution{}, err
	}
	return resolution{decisions: []decision.Decision{d}}, nil
}
