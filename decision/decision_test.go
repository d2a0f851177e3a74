package decision

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/luno/jettison/jtest"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

//go:generate go test -update

func TestMarshal(t *testing.T) {
	ds := []Decision{
		ScheduleActivity{
			ActivityID:          "Download.1.",
			Name:                "Download",
			Version:             "1",
			Control:             "ctl",
			Input:               "url",
			TaskList:            "files",
			TaskPriority:        2,
			StartToCloseTimeout: 30 * time.Second,
		},
		ScheduleTimer{TimerID: "Reminder..", StartToFire: 2 * time.Minute},
		ScheduleTimer{TimerID: "Download.1.", Control: "resched"},
		CancelTimer{TimerID: "Reminder..Reset"},
		ScheduleLambda{LambdaID: "Resize..", Name: "Resize", Input: "img", StartToCloseTimeout: 5 * time.Second},
		ScheduleChildWorkflow{
			WorkflowID:                   "Child.1.@abc",
			Name:                         "Child",
			Version:                      "1",
			ChildPolicy:                  "TERMINATE",
			Tags:                         []string{"a", "b"},
			ExecutionStartToCloseTimeout: time.Hour,
		},
		SignalExternalWorkflow{WorkflowID: "wf", RunID: "run", SignalName: "Approved", Input: "yes"},
		RecordMarker{MarkerName: "m", Details: "d"},
		RequestCancelActivity{ActivityID: "Download.1."},
		ContinueAsNew{Input: "in", TaskList: "main", TaskStartToCloseTimeout: 10 * time.Second},
		FailWorkflow{Reason: "boom", Details: "bad"},
	}

	b, err := Marshal(ds)
	jtest.RequireNil(t, err)

	var actual []interface{}
	require.NoError(t, json.Unmarshal(b, &actual))

	goldie.New(t, goldie.WithNameSuffix(".json")).AssertJson(t, "wire", actual)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		Name     string
		Decision Decision
		Valid    bool
	}{
		{
			Name:     "timer",
			Decision: ScheduleTimer{TimerID: "t"},
			Valid:    true,
		}, {
			Name:     "missing timer id",
			Decision: ScheduleTimer{},
		}, {
			Name:     "missing activity name",
			Decision: ScheduleActivity{ActivityID: "a"},
		}, {
			Name:     "long reason",
			Decision: FailWorkflow{Reason: strings.Repeat("x", 257)},
		}, {
			Name:     "bad child policy",
			Decision: ScheduleChildWorkflow{WorkflowID: "c", Name: "c", ChildPolicy: "KILL"},
		}, {
			Name:     "too many tags",
			Decision: ContinueAsNew{Tags: []string{"1", "2", "3", "4", "5", "6"}},
		}, {
			Name:     "complete",
			Decision: CompleteWorkflow{},
			Valid:    true,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := Validate(test.Decision)
			if test.Valid {
				jtest.RequireNil(t, err)
				return
			}
			jtest.Require(t, ErrInvalidDecision, err)
		})
	}
}

func TestDedupe(t *testing.T) {
	ds := []Decision{
		ScheduleTimer{TimerID: "t", StartToFire: time.Second},
		ScheduleActivity{ActivityID: "a", Name: "a"},
		ScheduleTimer{TimerID: "t", StartToFire: time.Minute},
		CancelTimer{TimerID: "t"},
		ScheduleActivity{ActivityID: "a", Name: "a"},
	}

	require.Equal(t, []Decision{
		ScheduleTimer{TimerID: "t", StartToFire: time.Second},
		ScheduleActivity{ActivityID: "a", Name: "a"},
		CancelTimer{TimerID: "t"},
	}, Dedupe(ds))
}

func TestIsClose(t *testing.T) {
	require.True(t, IsClose(CompleteWorkflow{}))
	require.True(t, IsClose(FailWorkflow{}))
	require.True(t, IsClose(CancelWorkflow{}))
	require.True(t, IsClose(ContinueAsNew{}))
	require.False(t, IsClose(ScheduleTimer{}))
	require.False(t, IsClose(RecordMarker{}))
}

func TestSeconds(t *testing.T) {
	require.Equal(t, int64(0), Seconds(0))
	require.Equal(t, int64(1), Seconds(500*time.Millisecond))
	require.Equal(t, int64(2), Seconds(1500*time.Millisecond))
	require.Equal(t, int64(60), Seconds(time.Minute))

	b, err := Marshal([]Decision{ScheduleTimer{TimerID: "Retry..", StartToFire: 500 * time.Millisecond}})
	jtest.RequireNil(t, err)
	require.Contains(t, string(b), `"startToFireTimeout":"1"`)
}
