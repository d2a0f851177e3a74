// Package marker defines the engine metadata that is round-tripped through
// history: control payloads of scheduling decisions and the details of the
// signal wait markers.
package marker

import (
	"encoding/json"
	"strings"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/gurmitteotia/guflow-sub003/internal/canon"
)

// Role identifies why a timer was started.
type Role string

const (
	RoleItem          Role = "item"
	RoleReschedule    Role = "reschedule"
	RoleSignalTimeout Role = "signal_timeout"
)

// Marker names recorded by the signal wait sub-engine.
const (
	WaitSignals     = "guflow_wait_signals"
	SignalResumed   = "guflow_signal_resumed"
	SignalsTimedOut = "guflow_signals_timed_out"
)

// SignalTimeoutSuffix is appended to an item's schedule id to form the id
// of its signal timeout timer.
const SignalTimeoutSuffix = "SignalTimeout"

// Control is carried in the control field of scheduling decisions and
// returned in the matching history events.
type Control struct {
	Role       Role   `json:"role,omitempty"`
	Kind       string `json:"kind,omitempty"`
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Version    string `json:"version,omitempty"`
	Positional string `json:"pos,omitempty"`
}

// Encode returns the canonical text of the control.
func (c Control) Encode() string {
	return canon.MustText(c)
}

// DecodeControl returns the control encoded in s and true, or false if s is
// not an engine control payload.
func DecodeControl(s string) (Control, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return Control{}, false
	}

	var c Control
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Control{}, false
	}

	return c, c.Role != "" || c.Kind != ""
}

// Wait is recorded when an item pauses to wait for signals.
type Wait struct {
	Kind           string   `json:"kind"`
	ID             string   `json:"id"`
	EventID        int64    `json:"event_id"`
	Signals        []string `json:"signals"`
	WaitType       string   `json:"wait_type"`
	Next           string   `json:"next"`
	TimeoutSeconds int64    `json:"timeout_seconds,omitempty"`
	TimerID        string   `json:"timer_id,omitempty"`
}

// Resumed is recorded for each received signal an item was waiting for.
type Resumed struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	EventID int64  `json:"event_id"`
	Signal  string `json:"signal"`
}

// TimedOut is recorded when a signal wait times out.
type TimedOut struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	EventID int64  `json:"event_id"`
}

// Owner returns the kind and id of the item a marker belongs to, or false if
// the marker is not an engine marker.
func Owner(name, details string) (kind string, id string, ok bool) {
	var o struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}

	switch name {
	case WaitSignals, SignalResumed, SignalsTimedOut:
	default:
		return "", "", false
	}

	if err := json.Unmarshal([]byte(details), &o); err != nil {
		return "", "", false
	}

	return o.Kind, o.ID, true
}

// DecodeWait decodes the details of a WaitSignals marker.
func DecodeWait(details string) (Wait, error) {
	var w Wait
	if err := json.Unmarshal([]byte(details), &w); err != nil {
		return Wait{}, errors.Wrap(err, "decode wait marker", j.KS("marker", WaitSignals))
	}
	return w, nil
}

// DecodeResumed decodes the details of a SignalResumed marker.
func DecodeResumed(details string) (Resumed, error) {
	var r Resumed
	if err := json.Unmarshal([]byte(details), &r); err != nil {
		return Resumed{}, errors.Wrap(err, "decode resumed marker", j.KS("marker", SignalResumed))
	}
	return r, nil
}
