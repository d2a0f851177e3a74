package guflow

import (
	"time"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/history"
	"github.com/gurmitteotia/guflow-sub003/internal/canon"
	"github.com/gurmitteotia/guflow-sub003/internal/ident"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

// Outcome identifies the kind of item event a handler is registered for.
type Outcome int

const (
	OutcomeCompleted          Outcome = 1
	OutcomeFailed             Outcome = 2
	OutcomeTimedOut           Outcome = 3
	OutcomeCancelled          Outcome = 4
	OutcomeSchedulingFailed   Outcome = 5
	OutcomeStartFailed        Outcome = 6
	OutcomeCancellationFailed Outcome = 7
	OutcomeFired              Outcome = 8
	OutcomeSignalsTimedOut    Outcome = 9
	OutcomeTerminated         Outcome = 10
	OutcomeCancelRequested    Outcome = 11
)

// itemKey identifies a declared item independently of the execution.
type itemKey struct {
	kind history.Kind
	id   ident.Identity
}

func positional(pos []string) string {
	if len(pos) == 0 {
		return ""
	}
	return pos[0]
}

// item is a node of the workflow graph. Items are stored in the workflow's
// arena and reference their parents by key; keys are resolved to arena
// indices when the graph is validated.
type item struct {
	index int
	kind  history.Kind
	id    ident.Identity

	parents   []itemKey
	parentIdx []int

	when      func(*History) bool
	input     func(*History) interface{}
	fireAfter func(*History) time.Duration

	activity ActivityDefaults
	lambda   LambdaDefaults
	child    ChildWorkflowDefaults
	tags     []string

	handlers map[Outcome]func(Event) Action
}

func newItem(kind history.Kind, id ident.Identity) *item {
	return &item{
		kind:     kind,
		id:       id,
		handlers: make(map[Outcome]func(Event) Action),
	}
}

func (it *item) after(kind history.Kind, name, version string, pos []string) {
	it.parents = append(it.parents, itemKey{kind: kind, id: ident.Resolve(name, version, positional(pos))})
}

func (it *item) handle(o Outcome, fn func(Event) Action) {
	it.handlers[o] = fn
}

func (it *item) key() itemKey {
	return itemKey{kind: it.kind, id: it.id}
}

// scheduleID returns the base id of the item in the execution.
func (it *item) scheduleID(h *History) ident.ScheduleID {
	if it.kind == history.KindChildWorkflow {
		return it.id.ChildScheduleID(h.task.RunID)
	}
	return it.id.ScheduleID()
}

// historyKey returns the key of the item's events in the projection.
func (it *item) historyKey(h *History) history.Key {
	return history.Key{Kind: it.kind, ID: it.scheduleID(h).String()}
}

func (it *item) control(h *History, role marker.Role) string {
	return marker.Control{
		Role:       role,
		Kind:       string(it.kind),
		ID:         it.scheduleID(h).String(),
		Name:       it.id.Name,
		Version:    it.id.Version,
		Positional: it.id.PositionalName,
	}.Encode()
}

func (it *item) isWhenTrue(h *History) bool {
	if it.when == nil {
		return true
	}
	return it.when(h)
}

func (it *item) inputText(h *History) (string, error) {
	if it.input == nil {
		return "", nil
	}
	return canon.Text(it.input(h))
}

// timerID returns the id a timer item is scheduled with: the id of its most
// recent timer if one was started, otherwise the base id.
func (it *item) timerID(h *History) string {
	if id := h.view(it).LatestTimerID(); id != "" {
		return id
	}
	return it.scheduleID(h).String()
}

// rescheduleTimerID returns the base id of the item's reschedule timers.
func (it *item) rescheduleTimerID(h *History) string {
	return it.scheduleID(h).String() + "@reschedule"
}

func (it *item) signalTimerID(h *History) string {
	return it.scheduleID(h).String() + marker.SignalTimeoutSuffix
}

// schedule returns the decision scheduling the item now.
func (it *item) schedule(h *History) (decision.Decision, error) {
	input, err := it.inputText(h)
	if err != nil {
		return nil, err
	}

	reg := h.w.o.registry
	control := it.control(h, marker.RoleItem)

	switch it.kind {
	case history.KindActivity:
		def := mergeActivity(it.activity, reg.Activity(it.id.Name, it.id.Version))
		return decision.ScheduleActivity{
			ActivityID:             it.scheduleID(h).String(),
			Name:                   it.id.Name,
			Version:                it.id.Version,
			Control:                control,
			Input:                  input,
			TaskList:               def.TaskList,
			TaskPriority:           def.TaskPriority,
			ScheduleToStartTimeout: def.ScheduleToStartTimeout,
			ScheduleToCloseTimeout: def.ScheduleToCloseTimeout,
			StartToCloseTimeout:    def.StartToCloseTimeout,
			HeartbeatTimeout:       def.HeartbeatTimeout,
		}, nil

	case history.KindTimer:
		return decision.ScheduleTimer{
			TimerID:     it.timerID(h),
			Control:     control,
			StartToFire: it.fireAfterDuration(h),
		}, nil

	case history.KindLambda:
		def := it.lambda
		if def.StartToCloseTimeout == 0 {
			def = reg.Lambda(it.id.Name)
		}
		return decision.ScheduleLambda{
			LambdaID:            it.scheduleID(h).String(),
			Name:                it.id.Name,
			Control:             control,
			Input:               input,
			StartToCloseTimeout: def.StartToCloseTimeout,
		}, nil

	default:
		def := mergeChild(it.child, reg.ChildWorkflow(it.id.Name, it.id.Version))
		return decision.ScheduleChildWorkflow{
			WorkflowID:                   it.scheduleID(h).String(),
			Name:                         it.id.Name,
			Version:                      it.id.Version,
			Control:                      control,
			Input:                        input,
			TaskList:                     def.TaskList,
			TaskPriority:                 def.TaskPriority,
			ChildPolicy:                  def.ChildPolicy,
			LambdaRole:                   def.LambdaRole,
			Tags:                         it.tags,
			ExecutionStartToCloseTimeout: def.ExecutionStartToCloseTimeout,
			TaskStartToCloseTimeout:      def.TaskStartToCloseTimeout,
		}, nil
	}
}

func (it *item) fireAfterDuration(h *History) time.Duration {
	if it.fireAfter == nil {
		return 0
	}
	return it.fireAfter(h)
}

func mergeActivity(o, d ActivityDefaults) ActivityDefaults {
	if o.TaskList != "" {
		d.TaskList = o.TaskList
	}
	if o.TaskPriority != 0 {
		d.TaskPriority = o.TaskPriority
	}
	if o.ScheduleToStartTimeout != 0 {
		d.ScheduleToStartTimeout = o.ScheduleToStartTimeout
	}
	if o.ScheduleToCloseTimeout != 0 {
		d.ScheduleToCloseTimeout = o.ScheduleToCloseTimeout
	}
	if o.StartToCloseTimeout != 0 {
		d.StartToCloseTimeout = o.StartToCloseTimeout
	}
	if o.HeartbeatTimeout != 0 {
		d.HeartbeatTimeout = o.HeartbeatTimeout
	}
	return d
}

func mergeChild(o, d ChildWorkflowDefaults) ChildWorkflowDefaults {
	if o.TaskList != "" {
		d.TaskList = o.TaskList
	}
	if o.TaskPriority != 0 {
		d.TaskPriority = o.TaskPriority
	}
	if o.ChildPolicy != "" {
		d.ChildPolicy = o.ChildPolicy
	}
	if o.LambdaRole != "" {
		d.LambdaRole = o.LambdaRole
	}
	if o.ExecutionStartToCloseTimeout != 0 {
		d.ExecutionStartToCloseTimeout = o.ExecutionStartToCloseTimeout
	}
	if o.TaskStartToCloseTimeout != 0 {
		d.TaskStartToCloseTimeout = o.TaskStartToCloseTimeout
	}
	return d
}
