package host

import (
	"testing"
	"time"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/test"
)

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig("testdata/host.yaml")
	jtest.RequireNil(t, err)

	require.Equal(t, "decider-1", c.Identity)
	require.Equal(t, 4, c.Shards)
	require.Equal(t, 2*time.Second, c.PollBackoff)

	r := c.Registry()
	require.Equal(t, guflow.ActivityDefaults{
		TaskList:               "media",
		TaskPriority:           2,
		ScheduleToStartTimeout: time.Minute,
		StartToCloseTimeout:    10 * time.Minute,
		HeartbeatTimeout:       30 * time.Second,
	}, r.Activity("Download", "1"))
	require.Equal(t, 5*time.Second, r.Lambda("notify").StartToCloseTimeout)
	require.Equal(t, "TERMINATE", r.ChildWorkflow("transcode", "2").ChildPolicy)
	require.Zero(t, r.Activity("Download", "2"))

	h := New(nil, nil, c.Options()...)
	require.Equal(t, "decider-1", h.Identity())
	require.Equal(t, 4, h.o.shards)
	require.Equal(t, 2*time.Second, h.o.backoff)
}

func TestConfigDefaults(t *testing.T) {
	c, err := LoadConfig("testdata/host.yaml")
	jtest.RequireNil(t, err)

	h := New(nil, nil)
	h.Register("test", "", func() *guflow.Workflow {
		w := guflow.NewWorkflow(guflow.WithRegistry(c.Registry()))
		w.ScheduleActivity("Download", "1")
		return w
	})

	ds := test.NewHistory(t, "wf", "run").Start("").Decide(h)
	require.Len(t, ds, 1)

	a := ds[0].(decision.ScheduleActivity)
	require.Equal(t, "media", a.TaskList)
	require.Equal(t, 2, a.TaskPriority)
	require.Equal(t, 10*time.Minute, a.StartToCloseTimeout)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "syntax", yaml: "shards: [1"},
		{name: "negative shards", yaml: "shards: -1"},
		{name: "activity without name", yaml: "activities:\n  - version: \"1\""},
		{name: "lambda without name", yaml: "lambdas:\n  - start_to_close_timeout: 1s"},
		{name: "child policy", yaml: "child_workflows:\n  - name: x\n    child_policy: KEEP"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			require.Error(t, err)
		})
	}

	_, err := LoadConfig("testdata/missing.yaml")
	require.Error(t, err)
}
