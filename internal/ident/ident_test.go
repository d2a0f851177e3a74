package ident

import (
	"fmt"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"
)

func TestScheduleIDRoundTrip(t *testing.T) {
	tests := []Identity{
		Resolve("Download", "1.0", ""),
		Resolve("Download", "1.0", "first"),
		Resolve("a.b", "c%d", "e@f"),
		Resolve("Timer", "", "Reset"),
		Resolve("Timer", "", "x%74"),
		Resolve("", "", ""),
	}

	for i, test := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			id := test.ScheduleID()
			require.False(t, id.IsReset())

			actual, err := Decode(id)
			jtest.RequireNil(t, err)
			require.Equal(t, test, actual)

			actual, err = Decode(id.Toggle())
			jtest.RequireNil(t, err)
			require.Equal(t, test, actual)

			actual, err = Decode(test.ChildScheduleID("run"))
			jtest.RequireNil(t, err)
			require.Equal(t, test, actual)
		})
	}
}

func TestScheduleIDInjective(t *testing.T) {
	ids := []Identity{
		Resolve("a", "b", "c"),
		Resolve("a.b", "", "c"),
		Resolve("a", "b.c", ""),
		Resolve("a", "b", "cReset"),
		Resolve("a", "b", "c@x"),
		Resolve("a", "b", ""),
	}

	seen := make(map[ScheduleID]Identity)
	for _, i := range ids {
		for _, id := range []ScheduleID{i.ScheduleID(), i.ScheduleID().Toggle(), i.ChildScheduleID("r1")} {
			other, ok := seen[id]
			require.False(t, ok, "collision %s: %v and %v", id, i, other)
			seen[id] = i
		}
	}
}

func TestToggle(t *testing.T) {
	id := Resolve("Reminder", "", "").ScheduleID()
	require.Equal(t, ScheduleID("Reminder..Reset"), id.Toggle())
	require.Equal(t, id, id.Toggle().Toggle())
	require.Equal(t, id, id.Toggle().Base())
	require.True(t, id.Toggle().IsReset())
}

func TestChildScheduleID(t *testing.T) {
	i := Resolve("Child", "1", "")
	require.Equal(t, i.ChildScheduleID("run1"), i.ChildScheduleID("run1"))
	require.NotEqual(t, i.ChildScheduleID("run1"), i.ChildScheduleID("run2"))
	require.NotEqual(t, i.ScheduleID(), i.ChildScheduleID("run1"))
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode("nodots")
	require.Error(t, err)
}
