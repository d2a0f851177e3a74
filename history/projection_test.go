package history

import (
	"testing"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003/internal/marker"
)

func ev(id int64, typ EventType, a Attributes) Event {
	return Event{ID: id, Type: typ, Attributes: a}
}

func TestProjectActivity(t *testing.T) {
	events := []Event{
		ev(1, WorkflowExecutionStarted, Attributes{Input: "in"}),
		ev(2, DecisionTaskScheduled, Attributes{}),
		ev(3, DecisionTaskStarted, Attributes{}),
		ev(4, DecisionTaskCompleted, Attributes{StartedEventID: 3}),
		ev(5, ActivityTaskScheduled, Attributes{ActivityID: "Download.1.", Input: "url"}),
		ev(6, ActivityTaskStarted, Attributes{ScheduledEventID: 5, Identity: "worker1"}),
		ev(7, ActivityTaskCompleted, Attributes{ScheduledEventID: 5, StartedEventID: 6, Result: "done"}),
	}

	p, err := Project(events, 3)
	jtest.RequireNil(t, err)

	started, ok := p.Started()
	require.True(t, ok)
	require.Equal(t, "in", started.Attributes.Input)

	v := p.View(Key{Kind: KindActivity, ID: "Download.1."})
	last, ok := v.Last(false)
	require.True(t, ok)
	require.Equal(t, ActivityTaskCompleted, last.Type())
	require.Equal(t, "url", last.Scheduled.Attributes.Input)
	require.Equal(t, "worker1", last.Started.Attributes.Identity)
	require.Equal(t, "Download.1.", last.ItemID())
	require.False(t, v.IsActive())
	require.True(t, p.IsNew(last))

	all := v.All(false)
	require.Len(t, all, 3)
	require.Equal(t, int64(7), all[0].ID())
	require.Equal(t, int64(5), all[2].ID())

	require.Len(t, p.NewEntries(), 3)
	require.Equal(t, []Key{{Kind: KindActivity, ID: "Download.1."}}, p.Keys())
}

func TestProjectCancelRequestedStillStarted(t *testing.T) {
	events := []Event{
		ev(1, WorkflowExecutionStarted, Attributes{}),
		ev(2, ActivityTaskScheduled, Attributes{ActivityID: "a"}),
		ev(3, ActivityTaskStarted, Attributes{ScheduledEventID: 2}),
		ev(4, ActivityTaskCancelRequested, Attributes{ActivityID: "a"}),
	}

	p, err := Project(events, 0)
	jtest.RequireNil(t, err)

	v := p.View(Key{Kind: KindActivity, ID: "a"})
	last, ok := v.Last(true)
	require.True(t, ok)
	require.Equal(t, ActivityTaskStarted, last.Type())
	require.True(t, v.IsActive())
	require.Len(t, v.Raw(), 3)
}

func TestProjectIncomplete(t *testing.T) {
	events := []Event{
		ev(10, ActivityTaskCompleted, Attributes{ScheduledEventID: 5, StartedEventID: 6}),
	}

	_, err := Project(events, 0)
	jtest.Require(t, ErrIncompleteHistory, err)
}

func TestProjectWrongReferenceType(t *testing.T) {
	events := []Event{
		ev(1, TimerStarted, Attributes{TimerID: "t"}),
		ev(2, ActivityTaskCompleted, Attributes{ScheduledEventID: 1}),
	}

	_, err := Project(events, 0)
	require.True(t, errors.Is(err, ErrIncompleteHistory))
}

func TestProjectUnordered(t *testing.T) {
	events := []Event{
		ev(2, WorkflowExecutionStarted, Attributes{}),
		ev(2, WorkflowExecutionSignaled, Attributes{SignalName: "s"}),
	}

	_, err := Project(events, 0)
	jtest.Require(t, ErrUnorderedHistory, err)
}

func TestProjectTimers(t *testing.T) {
	resched := marker.Control{Role: marker.RoleReschedule, Kind: string(KindActivity), ID: "a"}.Encode()
	sigTimeout := marker.Control{Role: marker.RoleSignalTimeout, Kind: string(KindActivity), ID: "a"}.Encode()

	events := []Event{
		ev(1, ActivityTaskScheduled, Attributes{ActivityID: "a"}),
		ev(2, ActivityTaskFailed, Attributes{ScheduledEventID: 1}),
		ev(3, TimerStarted, Attributes{TimerID: "a", Control: resched}),
		ev(4, TimerStarted, Attributes{TimerID: "aSignalTimeout", Control: sigTimeout}),
		ev(5, TimerStarted, Attributes{TimerID: "Reminder.."}),
		ev(6, TimerCanceled, Attributes{TimerID: "Reminder..", StartedEventID: 5}),
		ev(7, TimerStarted, Attributes{TimerID: "Reminder..Reset"}),
	}

	p, err := Project(events, 0)
	jtest.RequireNil(t, err)

	a := p.View(Key{Kind: KindActivity, ID: "a"})
	last, ok := a.Last(false)
	require.True(t, ok)
	require.Equal(t, ActivityTaskFailed, last.Type())

	last, ok = a.Last(true)
	require.True(t, ok)
	require.Equal(t, TimerStarted, last.Type())
	require.Equal(t, RoleReschedule, last.Role)
	require.True(t, a.IsActive())
	require.Len(t, a.SignalTimers(), 1)

	timer := p.View(Key{Kind: KindTimer, ID: "Reminder.."})
	require.True(t, timer.IsActive())
	require.Equal(t, "Reminder..Reset", timer.LatestTimerID())
	require.Len(t, timer.All(false), 3)
}

func TestProjectMarkers(t *testing.T) {
	details := `{"kind":"activity","id":"a","event_id":2,"signals":["x"],"wait_type":"any","next":"continue"}`
	events := []Event{
		ev(1, ActivityTaskScheduled, Attributes{ActivityID: "a"}),
		ev(2, ActivityTaskCompleted, Attributes{ScheduledEventID: 1}),
		ev(3, MarkerRecorded, Attributes{MarkerName: marker.WaitSignals, Details: details}),
		ev(4, MarkerRecorded, Attributes{MarkerName: "user", Details: "d"}),
	}

	p, err := Project(events, 0)
	jtest.RequireNil(t, err)

	a := p.View(Key{Kind: KindActivity, ID: "a"})
	require.Len(t, a.Markers(), 1)
	last, _ := a.Last(true)
	require.Equal(t, ActivityTaskCompleted, last.Type())

	w := p.View(WorkflowKey)
	require.Len(t, w.Raw(), 1)
	require.Equal(t, "user", w.Raw()[0].Event.Attributes.MarkerName)
}

func TestDecodeExecutionKey(t *testing.T) {
	k := ExecutionKey{WorkflowID: "wf", RunID: "run"}
	actual, err := DecodeExecutionKey(k.Encode())
	jtest.RequireNil(t, err)
	require.Equal(t, k, actual)

	_, err = DecodeExecutionKey("nope")
	require.Error(t, err)
}

func TestPreviousStartedEventID(t *testing.T) {
	events := []Event{
		ev(1, WorkflowExecutionStarted, Attributes{}),
		ev(2, DecisionTaskScheduled, Attributes{}),
		ev(3, DecisionTaskStarted, Attributes{}),
		ev(4, DecisionTaskCompleted, Attributes{StartedEventID: 3}),
		ev(5, ActivityTaskScheduled, Attributes{ActivityID: "a"}),
		ev(6, DecisionTaskScheduled, Attributes{}),
		ev(7, DecisionTaskStarted, Attributes{}),
	}

	require.Equal(t, int64(3), PreviousStartedEventID(events, 7))
	require.Equal(t, int64(0), PreviousStartedEventID(events, 3))

	task := Task{Events: events, PreviousStartedEventID: 3}
	require.Len(t, task.NewEvents(), 4)
}

func TestEventTypeText(t *testing.T) {
	b, err := ActivityTaskCompleted.MarshalText()
	jtest.RequireNil(t, err)
	require.Equal(t, "ActivityTaskCompleted", string(b))

	var typ EventType
	jtest.RequireNil(t, typ.UnmarshalText(b))
	require.Equal(t, ActivityTaskCompleted, typ)

	require.Error(t, typ.UnmarshalText([]byte("Bogus")))
	require.False(t, EventType(99).Valid())
	require.Equal(t, "EventType(99)", EventType(99).String())
}
