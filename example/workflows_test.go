package example

import (
	"testing"
	"time"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/host"
	"github.com/gurmitteotia/guflow-sub003/internal/marker"
	"github.com/gurmitteotia/guflow-sub003/test"
)

func summary(ds []decision.Decision) []string {
	var res []string
	for _, d := range ds {
		if m, ok := d.(decision.RecordMarker); ok {
			res = append(res, "marker:"+m.MarkerName)
			continue
		}
		res = append(res, string(d.Type())+":"+d.Target())
	}
	return res
}

func TestGreeting(t *testing.T) {
	w := Greeting(nil)
	h := test.NewHistory(t, "greeting", "run").Start("Alice")

	ds := h.Decide(w)
	require.Equal(t, []string{"ScheduleActivityTask:EnrichGreeting.1."}, summary(ds))
	require.Equal(t, "Alice", ds[0].(decision.ScheduleActivity).Input)

	h.CompleteActivity("EnrichGreeting.1.", "Hello Alice")
	ds = h.Decide(w)
	require.Equal(t, []string{"ScheduleActivityTask:PrintGreeting.1."}, summary(ds))
	require.Equal(t, "Hello Alice", ds[0].(decision.ScheduleActivity).Input)

	h.CompleteActivity("PrintGreeting.1.", "")
	require.Equal(t, []decision.Decision{decision.CompleteWorkflow{}}, h.Decide(w))
}

func TestMedia(t *testing.T) {
	h := test.NewHistory(t, "media", "run").Start("s3://videos/cat.mp4")
	require.Equal(t, []string{
		"ScheduleActivityTask:Download.1.",
		"ScheduleActivityTask:FetchWatermark.1.",
	}, summary(h.Decide(Media(nil))))

	h.CompleteActivity("Download.1.", "/tmp/cat.mp4")
	require.Empty(t, h.Decide(Media(nil)))

	h.CompleteActivity("FetchWatermark.1.", "/tmp/mark.png")
	ds := h.Decide(Media(nil))
	require.Equal(t, []string{"ScheduleActivityTask:Transcode.1."}, summary(ds))
	require.Equal(t, `{"video":"/tmp/cat.mp4","watermark":"/tmp/mark.png"}`, ds[0].(decision.ScheduleActivity).Input)

	h.TimeoutActivity("Transcode.1.", "START_TO_CLOSE")
	require.Equal(t, []string{"StartTimer:Transcode.1.@reschedule"}, summary(h.Decide(Media(nil))))

	h.FireTimer("Transcode.1.@reschedule")
	require.Equal(t, []string{"ScheduleActivityTask:Transcode.1."}, summary(h.Decide(Media(nil))))

	h.CompleteActivity("Transcode.1.", "/tmp/out.mp4")
	ds = h.Decide(Media(nil))
	require.Equal(t, []string{"ScheduleLambdaFunction:Publish.."}, summary(ds))
	require.Equal(t, "/tmp/out.mp4", ds[0].(decision.ScheduleLambda).Input)

	h.CompleteLambda("Publish..", "https://cdn/cat.mp4")
	require.Equal(t, []decision.Decision{decision.CompleteWorkflow{Result: "https://cdn/cat.mp4"}}, h.Decide(Media(nil)))
}

func TestMediaJoinOrder(t *testing.T) {
	h := test.NewHistory(t, "media", "run").Start("")
	h.Decide(Media(nil))

	// Both parents complete in the same decision task.
	h.CompleteActivity("FetchWatermark.1.", "mark")
	h.CompleteActivity("Download.1.", "video")
	require.Equal(t, []string{"ScheduleActivityTask:Transcode.1."}, summary(h.Decide(Media(nil))))
}

func TestPaymentCharged(t *testing.T) {
	h := test.NewHistory(t, "payment", "run").Start(`{"amount":100}`)
	require.Equal(t, []string{"ScheduleActivityTask:Charge.1."}, summary(h.Decide(Payment(nil))))

	h.FailActivity("Charge.1.", "declined", "")
	ds := h.Decide(Payment(nil))
	require.Equal(t, []string{"StartTimer:Charge.1.@reschedule"}, summary(ds))
	require.Equal(t, time.Minute, ds[0].(decision.ScheduleTimer).StartToFire)

	h.FireTimer("Charge.1.@reschedule")
	ds = h.Decide(Payment(nil))
	require.Equal(t, []string{"ScheduleActivityTask:Charge.1."}, summary(ds))
	require.Equal(t, `{"amount":100}`, ds[0].(decision.ScheduleActivity).Input)

	h.CompleteActivity("Charge.1.", "ch_1")
	require.Equal(t, []string{"ScheduleActivityTask:Ship.1."}, summary(h.Decide(Payment(nil))))

	h.CompleteActivity("Ship.1.", "shipped")
	require.Equal(t, []decision.Decision{decision.CompleteWorkflow{Result: "shipped"}}, h.Decide(Payment(nil)))
}

func TestPaymentDeclined(t *testing.T) {
	h := test.NewHistory(t, "payment", "run").Start("")
	h.Decide(Payment(nil))

	for i := 0; i < 3; i++ {
		h.FailActivity("Charge.1.", "declined", "")
		require.Equal(t, []string{"StartTimer:Charge.1.@reschedule"}, summary(h.Decide(Payment(nil))))

		h.FireTimer("Charge.1.@reschedule")
		require.Equal(t, []string{"ScheduleActivityTask:Charge.1."}, summary(h.Decide(Payment(nil))))
	}

	h.FailActivity("Charge.1.", "declined", "")
	require.Equal(t, []string{"ScheduleLambdaFunction:NotifyDeclined.."}, summary(h.Decide(Payment(nil))))

	h.CompleteLambda("NotifyDeclined..", "sent")
	require.Equal(t, []decision.Decision{decision.CompleteWorkflow{Result: "sent"}}, h.Decide(Payment(nil)))
}

func TestApproval(t *testing.T) {
	h := test.NewHistory(t, "approval", "run").Start("contract.pdf")
	h.Decide(Approval(nil))

	h.CompleteActivity("Submit.1.", "doc-1")
	ds := h.Decide(Approval(nil))
	require.Equal(t, []string{"marker:" + marker.WaitSignals, "StartTimer:Submit.1.SignalTimeout"}, summary(ds))
	require.Equal(t, 48*time.Hour, ds[1].(decision.ScheduleTimer).StartToFire)

	h.Signal("LegalApproved", "")
	require.Equal(t, []string{"marker:" + marker.SignalResumed}, summary(h.Decide(Approval(nil))))

	h.Signal("FinanceApproved", "")
	require.Equal(t, []string{
		"marker:" + marker.SignalResumed,
		"CancelTimer:Submit.1.SignalTimeout",
		"ScheduleActivityTask:Publish.1.",
	}, summary(h.Decide(Approval(nil))))

	h.CompleteActivity("Publish.1.", "published")
	require.Equal(t, []decision.Decision{decision.CompleteWorkflow{Result: "published"}}, h.Decide(Approval(nil)))
}

func TestApprovalTimedOut(t *testing.T) {
	h := test.NewHistory(t, "approval", "run").Start("")
	h.Decide(Approval(nil))
	h.CompleteActivity("Submit.1.", "")
	h.Decide(Approval(nil))

	h.Signal("FinanceApproved", "")
	h.Decide(Approval(nil))

	h.FireTimer("Submit.1.SignalTimeout")
	require.Equal(t, []decision.Decision{
		decision.FailWorkflow{Reason: "APPROVAL_TIMED_OUT", Details: `["LegalApproved"]`},
	}, h.Decide(Approval(nil)))
}

func TestApprovalRejected(t *testing.T) {
	h := test.NewHistory(t, "approval", "run").Start("")
	h.Decide(Approval(nil))

	h.Signal("Rejected", "missing signature")
	require.Equal(t, []decision.Decision{
		decision.FailWorkflow{Reason: "REJECTED", Details: "missing signature"},
	}, h.Decide(Approval(nil)))
}

func TestDeadline(t *testing.T) {
	h := test.NewHistory(t, "deadline", "run").Start("job")
	require.Equal(t, []string{
		"StartTimer:Deadline..",
		"ScheduleActivityTask:Process.1.",
	}, summary(h.Decide(Deadline(nil))))

	h.Signal("Extend", "")
	ds := h.Decide(Deadline(nil))
	require.Equal(t, []string{"CancelTimer:Deadline..", "StartTimer:Deadline..Reset"}, summary(ds))
	require.Equal(t, time.Hour, ds[1].(decision.ScheduleTimer).StartToFire)

	h.CompleteActivity("Process.1.", "done")
	require.Equal(t, []decision.Decision{decision.CompleteWorkflow{Result: "done"}}, h.Decide(Deadline(nil)))
}

func TestDeadlineExceeded(t *testing.T) {
	h := test.NewHistory(t, "deadline", "run").Start("job")
	h.Decide(Deadline(nil))

	h.FireTimer("Deadline..")
	require.Equal(t, []decision.Decision{
		decision.FailWorkflow{Reason: "DEADLINE_EXCEEDED"},
	}, h.Decide(Deadline(nil)))
}

func TestRegister(t *testing.T) {
	c, err := host.ParseConfig([]byte("activities:\n  - name: Download\n    version: \"1\"\n    task_list: media\n"))
	jtest.RequireNil(t, err)

	hst := host.New(nil, nil)
	Register(hst, c.Registry())

	for name := range Workflows() {
		th := test.NewHistory(t, name, "run")
		th.WorkflowName = name
		task := th.Start("").Task()
		task.WorkflowVersion = version

		ds, err := hst.Decide(task)
		jtest.RequireNil(t, err)
		require.NotEmpty(t, ds, name)

		if name == "media" {
			require.Equal(t, "media", ds[0].(decision.ScheduleActivity).TaskList)
		}
	}
}
