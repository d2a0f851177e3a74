package marker

import (
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003/internal/canon"
)

func TestControl(t *testing.T) {
	c := Control{Role: RoleReschedule, Kind: "activity", ID: "Download.1.0.", Name: "Download", Version: "1.0"}
	s := c.Encode()
	require.Equal(t, `{"role":"reschedule","kind":"activity","id":"Download.1.0.","name":"Download","version":"1.0"}`, s)

	actual, ok := DecodeControl(s)
	require.True(t, ok)
	require.Equal(t, c, actual)

	for _, s := range []string{"", "user control", "{}", "{bad json", `["a"]`} {
		_, ok := DecodeControl(s)
		require.False(t, ok, s)
	}
}

func TestOwner(t *testing.T) {
	w := Wait{
		Kind:           "activity",
		ID:             "Approve.1.0.",
		EventID:        7,
		Signals:        []string{"HRApproved", "ManagerApproved"},
		WaitType:       "all",
		Next:           "continue",
		TimeoutSeconds: 60,
	}
	details := canon.MustText(w)

	kind, id, ok := Owner(WaitSignals, details)
	require.True(t, ok)
	require.Equal(t, "activity", kind)
	require.Equal(t, "Approve.1.0.", id)

	_, _, ok = Owner("user_marker", details)
	require.False(t, ok)

	actual, err := DecodeWait(details)
	jtest.RequireNil(t, err)
	require.Equal(t, w, actual)

	_, err = DecodeResumed("nope")
	require.Error(t, err)
}
