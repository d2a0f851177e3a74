package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003/example"
	"github.com/gurmitteotia/guflow-sub003/host"
	"github.com/gurmitteotia/guflow-sub003/test"
)

//go:generate go test -update

// mediaHistory writes the history of a media workflow whose download and
// watermark completed and returns its path.
func mediaHistory(t *testing.T) string {
	h := test.NewHistory(t, "guflow", "guflow")
	h.WorkflowName = "media"
	h.Start("s3://videos/cat.mp4")
	h.Decide(example.Media(nil))
	h.CompleteActivity("Download.1.", "/tmp/cat.mp4")
	h.CompleteActivity("FetchWatermark.1.", "/tmp/mark.png")
	h.Task()

	b, err := json.Marshal(h.Events())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func run(t *testing.T, args ...string) []byte {
	var buf bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &buf

	jtest.RequireNil(t, cmd.Run(context.Background(), append([]string{"guflow"}, args...)))
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	out := run(t, "inspect", "--history", mediaHistory(t))
	goldie.New(t).Assert(t, "inspect", out)
}

func TestInspectCutoff(t *testing.T) {
	out := run(t, "inspect", "--history", mediaHistory(t), "--cutoff", "12")
	require.Equal(t, "workflow=media events=12 cutoff=12 started=12\n"+
		"activity:Download.1. last=ActivityTaskCompleted active=false\n"+
		"activity:FetchWatermark.1. last=ActivityTaskCompleted active=false\n", string(out))
}

func TestDecide(t *testing.T) {
	config := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(config, []byte("activities:\n  - name: Transcode\n    version: \"1\"\n    task_list: gpu\n"), 0o644))

	out := run(t, "decide", "--history", mediaHistory(t), "--config", config)

	var ds []struct {
		DecisionType string `json:"decisionType"`
		Attrs        struct {
			ActivityID string `json:"activityId"`
			Input      string `json:"input"`
			TaskList   struct {
				Name string `json:"name"`
			} `json:"taskList"`
		} `json:"scheduleActivityTaskDecisionAttributes"`
	}
	require.NoError(t, json.Unmarshal(out, &ds))
	require.Len(t, ds, 1)
	require.Equal(t, "ScheduleActivityTask", ds[0].DecisionType)
	require.Equal(t, "Transcode.1.", ds[0].Attrs.ActivityID)
	require.Equal(t, `{"video":"/tmp/cat.mp4","watermark":"/tmp/mark.png"}`, ds[0].Attrs.Input)
	require.Equal(t, "gpu", ds[0].Attrs.TaskList.Name)
}

func TestDecideErrors(t *testing.T) {
	cmd := newCommand()
	cmd.Writer = new(bytes.Buffer)
	err := cmd.Run(context.Background(), []string{"guflow", "decide", "--history", mediaHistory(t), "--workflow-version", "2"})
	jtest.Require(t, host.ErrUnknownWorkflow, err)

	cmd = newCommand()
	cmd.Writer = new(bytes.Buffer)
	err = cmd.Run(context.Background(), []string{"guflow", "decide", "--history", "missing.json"})
	require.Error(t, err)
}
