package guflow

import (
	"time"

	"github.com/gurmitteotia/guflow-sub003/history"
)

// ActivityItem declares an activity of the workflow.
type ActivityItem struct {
	it *item
}

func (a *ActivityItem) AfterActivity(name, version string, pos ...string) *ActivityItem {
	a.it.after(history.KindActivity, name, version, pos)
	return a
}

func (a *ActivityItem) AfterTimer(name string, pos ...string) *ActivityItem {
	a.it.after(history.KindTimer, name, "", pos)
	return a
}

func (a *ActivityItem) AfterLambda(name string, pos ...string) *ActivityItem {
	a.it.after(history.KindLambda, name, "", pos)
	return a
}

func (a *ActivityItem) AfterChildWorkflow(name, version string, pos ...string) *ActivityItem {
	a.it.after(history.KindChildWorkflow, name, version, pos)
	return a
}

// When sets the predicate that must hold for the activity to be scheduled
// by a continue. Jumps and reschedules ignore it.
func (a *ActivityItem) When(fn func(*History) bool) *ActivityItem {
	a.it.when = fn
	return a
}

// WithInput sets the input builder. Non string inputs are rendered as JSON.
func (a *ActivityItem) WithInput(fn func(*History) interface{}) *ActivityItem {
	a.it.input = fn
	return a
}

func (a *ActivityItem) WithTaskList(taskList string) *ActivityItem {
	a.it.activity.TaskList = taskList
	return a
}

func (a *ActivityItem) WithTaskPriority(priority int) *ActivityItem {
	a.it.activity.TaskPriority = priority
	return a
}

func (a *ActivityItem) WithScheduleToStartTimeout(d time.Duration) *ActivityItem {
	a.it.activity.ScheduleToStartTimeout = d
	return a
}

func (a *ActivityItem) WithScheduleToCloseTimeout(d time.Duration) *ActivityItem {
	a.it.activity.ScheduleToCloseTimeout = d
	return a
}

func (a *ActivityItem) WithStartToCloseTimeout(d time.Duration) *ActivityItem {
	a.it.activity.StartToCloseTimeout = d
	return a
}

func (a *ActivityItem) WithHeartbeatTimeout(d time.Duration) *ActivityItem {
	a.it.activity.HeartbeatTimeout = d
	return a
}

func (a *ActivityItem) OnCompletion(fn func(*ActivityCompletedEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeCompleted, func(e Event) Action { return fn(e.(*ActivityCompletedEvent)) })
	return a
}

func (a *ActivityItem) OnFailure(fn func(*ActivityFailedEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeFailed, func(e Event) Action { return fn(e.(*ActivityFailedEvent)) })
	return a
}

func (a *ActivityItem) OnTimedOut(fn func(*ActivityTimedOutEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeTimedOut, func(e Event) Action { return fn(e.(*ActivityTimedOutEvent)) })
	return a
}

func (a *ActivityItem) OnCancelled(fn func(*ActivityCancelledEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeCancelled, func(e Event) Action { return fn(e.(*ActivityCancelledEvent)) })
	return a
}

func (a *ActivityItem) OnSchedulingFailed(fn func(*ActivitySchedulingFailedEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeSchedulingFailed, func(e Event) Action { return fn(e.(*ActivitySchedulingFailedEvent)) })
	return a
}

func (a *ActivityItem) OnCancellationFailed(fn func(*ActivityCancellationFailedEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeCancellationFailed, func(e Event) Action { return fn(e.(*ActivityCancellationFailedEvent)) })
	return a
}

func (a *ActivityItem) OnCancelRequested(fn func(*ActivityCancelRequestedEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeCancelRequested, func(e Event) Action { return fn(e.(*ActivityCancelRequestedEvent)) })
	return a
}

func (a *ActivityItem) OnSignalsTimedOut(fn func(*SignalsTimedOutEvent) Action) *ActivityItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	a.it.handle(OutcomeSignalsTimedOut, func(e Event) Action { return fn(e.(*SignalsTimedOutEvent)) })
	return a
}

// TimerItem declares a timer of the workflow.
type TimerItem struct {
	it *item
}

func (t *TimerItem) AfterActivity(name, version string, pos ...string) *TimerItem {
	t.it.after(history.KindActivity, name, version, pos)
	return t
}

func (t *TimerItem) AfterTimer(name string, pos ...string) *TimerItem {
	t.it.after(history.KindTimer, name, "", pos)
	return t
}

func (t *TimerItem) AfterLambda(name string, pos ...string) *TimerItem {
	t.it.after(history.KindLambda, name, "", pos)
	return t
}

func (t *TimerItem) AfterChildWorkflow(name, version string, pos ...string) *TimerItem {
	t.it.after(history.KindChildWorkflow, name, version, pos)
	return t
}

func (t *TimerItem) When(fn func(*History) bool) *TimerItem {
	t.it.when = fn
	return t
}

// FireAfter sets a fixed timer duration.
func (t *TimerItem) FireAfter(d time.Duration) *TimerItem {
	t.it.fireAfter = func(*History) time.Duration { return d }
	return t
}

// FireAfterFunc sets a timer duration derived from history.
func (t *TimerItem) FireAfterFunc(fn func(*History) time.Duration) *TimerItem {
	t.it.fireAfter = fn
	return t
}

func (t *TimerItem) OnFired(fn func(*TimerFiredEvent) Action) *TimerItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	t.it.handle(OutcomeFired, func(e Event) Action { return fn(e.(*TimerFiredEvent)) })
	return t
}

func (t *TimerItem) OnCancelled(fn func(*TimerCancelledEvent) Action) *TimerItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	t.it.handle(OutcomeCancelled, func(e Event) Action { return fn(e.(*TimerCancelledEvent)) })
	return t
}

func (t *TimerItem) OnStartFailed(fn func(*TimerStartFailedEvent) Action) *TimerItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	t.it.handle(OutcomeStartFailed, func(e Event) Action { return fn(e.(*TimerStartFailedEvent)) })
	return t
}

func (t *TimerItem) OnCancellationFailed(fn func(*TimerCancellationFailedEvent) Action) *TimerItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	t.it.handle(OutcomeCancellationFailed, func(e Event) Action { return fn(e.(*TimerCancellationFailedEvent)) })
	return t
}

func (t *TimerItem) OnSignalsTimedOut(fn func(*SignalsTimedOutEvent) Action) *TimerItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	t.it.handle(OutcomeSignalsTimedOut, func(e Event) Action { return fn(e.(*SignalsTimedOutEvent)) })
	return t
}

// LambdaItem declares a lambda function of the workflow.
type LambdaItem struct {
	it *item
}

func (l *LambdaItem) AfterActivity(name, version string, pos ...string) *LambdaItem {
	l.it.after(history.KindActivity, name, version, pos)
	return l
}

func (l *LambdaItem) AfterTimer(name string, pos ...string) *LambdaItem {
	l.it.after(history.KindTimer, name, "", pos)
	return l
}

func (l *LambdaItem) AfterLambda(name string, pos ...string) *LambdaItem {
	l.it.after(history.KindLambda, name, "", pos)
	return l
}

func (l *LambdaItem) AfterChildWorkflow(name, version string, pos ...string) *LambdaItem {
	l.it.after(history.KindChildWorkflow, name, version, pos)
	return l
}

func (l *LambdaItem) When(fn func(*History) bool) *LambdaItem {
	l.it.when = fn
	return l
}

func (l *LambdaItem) WithInput(fn func(*History) interface{}) *LambdaItem {
	l.it.input = fn
	return l
}

func (l *LambdaItem) WithStartToCloseTimeout(d time.Duration) *LambdaItem {
	l.it.lambda.StartToCloseTimeout = d
	return l
}

func (l *LambdaItem) OnCompletion(fn func(*LambdaCompletedEvent) Action) *LambdaItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	l.it.handle(OutcomeCompleted, func(e Event) Action { return fn(e.(*LambdaCompletedEvent)) })
	return l
}

func (l *LambdaItem) OnFailure(fn func(*LambdaFailedEvent) Action) *LambdaItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	l.it.handle(OutcomeFailed, func(e Event) Action { return fn(e.(*LambdaFailedEvent)) })
	return l
}

func (l *LambdaItem) OnTimedOut(fn func(*LambdaTimedOutEvent) Action) *LambdaItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	l.it.handle(OutcomeTimedOut, func(e Event) Action { return fn(e.(*LambdaTimedOutEvent)) })
	return l
}

func (l *LambdaItem) OnSchedulingFailed(fn func(*LambdaSchedulingFailedEvent) Action) *LambdaItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	l.it.handle(OutcomeSchedulingFailed, func(e Event) Action { return fn(e.(*LambdaSchedulingFailedEvent)) })
	return l
}

func (l *LambdaItem) OnStartFailed(fn func(*LambdaStartFailedEvent) Action) *LambdaItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	l.it.handle(OutcomeStartFailed, func(e Event) Action { return fn(e.(*LambdaStartFailedEvent)) })
	return l
}

func (l *LambdaItem) OnSignalsTimedOut(fn func(*SignalsTimedOutEvent) Action) *LambdaItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	l.it.handle(OutcomeSignalsTimedOut, func(e Event) Action { return fn(e.(*SignalsTimedOutEvent)) })
	return l
}

// ChildWorkflowItem declares a child workflow of the workflow.
type ChildWorkflowItem struct {
	it *item
}

func (c *ChildWorkflowItem) AfterActivity(name, version string, pos ...string) *ChildWorkflowItem {
	c.it.after(history.KindActivity, name, version, pos)
	return c
}

func (c *ChildWorkflowItem) AfterTimer(name string, pos ...string) *ChildWorkflowItem {
	c.it.after(history.KindTimer, name, "", pos)
	return c
}

func (c *ChildWorkflowItem) AfterLambda(name string, pos ...string) *ChildWorkflowItem {
	c.it.after(history.KindLambda, name, "", pos)
	return c
}

func (c *ChildWorkflowItem) AfterChildWorkflow(name, version string, pos ...string) *ChildWorkflowItem {
	c.it.after(history.KindChildWorkflow, name, version, pos)
	return c
}

func (c *ChildWorkflowItem) When(fn func(*History) bool) *ChildWorkflowItem {
	c.it.when = fn
	return c
}

func (c *ChildWorkflowItem) WithInput(fn func(*History) interface{}) *ChildWorkflowItem {
	c.it.input = fn
	return c
}

func (c *ChildWorkflowItem) WithTaskList(taskList string) *ChildWorkflowItem {
	c.it.child.TaskList = taskList
	return c
}

func (c *ChildWorkflowItem) WithTaskPriority(priority int) *ChildWorkflowItem {
	c.it.child.TaskPriority = priority
	return c
}

// WithChildPolicy sets the policy applied to the child when the parent
// closes: TERMINATE, REQUEST_CANCEL or ABANDON.
func (c *ChildWorkflowItem) WithChildPolicy(policy string) *ChildWorkflowItem {
	c.it.child.ChildPolicy = policy
	return c
}

func (c *ChildWorkflowItem) WithLambdaRole(role string) *ChildWorkflowItem {
	c.it.child.LambdaRole = role
	return c
}

func (c *ChildWorkflowItem) WithTags(tags ...string) *ChildWorkflowItem {
	c.it.tags = tags
	return c
}

func (c *ChildWorkflowItem) WithExecutionStartToCloseTimeout(d time.Duration) *ChildWorkflowItem {
	c.it.child.ExecutionStartToCloseTimeout = d
	return c
}

func (c *ChildWorkflowItem) WithTaskStartToCloseTimeout(d time.Duration) *ChildWorkflowItem {
	c.it.child.TaskStartToCloseTimeout = d
	return c
}

func (c *ChildWorkflowItem) OnCompletion(fn func(*ChildWorkflowCompletedEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeCompleted, func(e Event) Action { return fn(e.(*ChildWorkflowCompletedEvent)) })
	return c
}

func (c *ChildWorkflowItem) OnFailure(fn func(*ChildWorkflowFailedEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeFailed, func(e Event) Action { return fn(e.(*ChildWorkflowFailedEvent)) })
	return c
}

func (c *ChildWorkflowItem) OnTimedOut(fn func(*ChildWorkflowTimedOutEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeTimedOut, func(e Event) Action { return fn(e.(*ChildWorkflowTimedOutEvent)) })
	return c
}

func (c *ChildWorkflowItem) OnCancelled(fn func(*ChildWorkflowCancelledEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeCancelled, func(e Event) Action { return fn(e.(*ChildWorkflowCancelledEvent)) })
	return c
}

func (c *ChildWorkflowItem) OnTerminated(fn func(*ChildWorkflowTerminatedEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeTerminated, func(e Event) Action { return fn(e.(*ChildWorkflowTerminatedEvent)) })
	return c
}

func (c *ChildWorkflowItem) OnStartFailed(fn func(*ChildWorkflowStartFailedEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeStartFailed, func(e Event) Action { return fn(e.(*ChildWorkflowStartFailedEvent)) })
	return c
}

func (c *ChildWorkflowItem) OnSignalsTimedOut(fn func(*SignalsTimedOutEvent) Action) *ChildWorkflowItem {
	if fn == nil {
		panic(ErrInvalidHandler)
	}
	c.it.handle(OutcomeSignalsTimedOut, func(e Event) Action { return fn(e.(*SignalsTimedOutEvent)) })
	return c
}
