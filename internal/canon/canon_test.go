package canon

import (
	"fmt"
	"testing"
	"time"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"
)

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestText(t *testing.T) {
	tests := []struct {
		Name     string
		In       interface{}
		Expected string
	}{
		{Name: "nil", In: nil, Expected: ""},
		{Name: "string", In: "plain <text>", Expected: "plain <text>"},
		{Name: "bytes", In: []byte("raw"), Expected: "raw"},
		{Name: "stringer", In: stringer{}, Expected: "stringer"},
		{Name: "error", In: fmt.Errorf("card declined: %s", "insufficient funds"), Expected: "card declined: insufficient funds"},
		{Name: "duration", In: time.Minute, Expected: "1m0s"},
		{Name: "number", In: 42, Expected: "42"},
		{
			Name:     "map sorted",
			In:       map[string]interface{}{"b": 1, "a": "<x>"},
			Expected: `{"a":"<x>","b":1}`,
		},
		{
			Name: "struct",
			In: struct {
				Reason string `json:"reason"`
				Code   int    `json:"code"`
			}{Reason: "r", Code: 7},
			Expected: `{"reason":"r","code":7}`,
		},
		{
			Name: "struct field order",
			In: struct {
				B int
				A int
			}{B: 1, A: 2},
			Expected: `{"B":1,"A":2}`,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			actual, err := Text(test.In)
			jtest.RequireNil(t, err)
			require.Equal(t, test.Expected, actual)
		})
	}
}

func TestTextError(t *testing.T) {
	_, err := Text(make(chan int))
	require.Error(t, err)
	require.Panics(t, func() { MustText(func() {}) })
}
