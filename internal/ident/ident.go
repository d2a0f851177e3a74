// Package ident provides the identity of workflow items and the schedule ids
// derived from it. Schedule ids correlate declared items with their history
// events and must be stable across replays of the same history.
package ident

import (
	"encoding/hex"
	"hash/fnv"
	"strings"

	"github.com/luno/jettison/errors"
)

// ResetSuffix is appended to a timer's base schedule id by a reset.
const ResetSuffix = "Reset"

const (
	sep      = "."
	saltSep  = "@"
	escChar  = "%"
	escReset = "Rese%74"
)

var escaper = strings.NewReplacer(
	escChar, "%25",
	sep, "%2E",
	saltSep, "%40",
)

var unescaper = strings.NewReplacer(
	"%25", escChar,
	"%2E", sep,
	"%40", saltSep,
	"%74", "t",
)

// Identity identifies a declared workflow item.
type Identity struct {
	Name           string
	Version        string
	PositionalName string
}

// Resolve returns the identity of an item.
func Resolve(name, version, positionalName string) Identity {
	return Identity{
		Name:           name,
		Version:        version,
		PositionalName: positionalName,
	}
}

// ScheduleID is the id under which an item is scheduled with the
// coordination service.
type ScheduleID string

func (s ScheduleID) String() string {
	return string(s)
}

// ScheduleID returns the base schedule id of the identity.
func (i Identity) ScheduleID() ScheduleID {
	last := escaper.Replace(i.PositionalName)
	if strings.HasSuffix(last, ResetSuffix) {
		// Ensure base+ResetSuffix never equals another base id.
		last = strings.TrimSuffix(last, ResetSuffix) + escReset
	}

	return ScheduleID(strings.Join([]string{
		escaper.Replace(i.Name),
		escaper.Replace(i.Version),
		last,
	}, sep))
}

// ChildScheduleID returns the schedule id of a child workflow started by the
// execution with the given run id.
func (i Identity) ChildScheduleID(parentRunID string) ScheduleID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(parentRunID))
	return ScheduleID(string(i.ScheduleID()) + saltSep + hex.EncodeToString(h.Sum(nil)))
}

// Toggle flips between the base id and the reset id.
func (s ScheduleID) Toggle() ScheduleID {
	if s.IsReset() {
		return ScheduleID(strings.TrimSuffix(string(s), ResetSuffix))
	}
	return s + ResetSuffix
}

// IsReset returns true if the id is the reset variant of a base id.
func (s ScheduleID) IsReset() bool {
	return strings.HasSuffix(string(s), ResetSuffix)
}

// Base returns the base id, stripping the reset suffix if present.
func (s ScheduleID) Base() ScheduleID {
	if s.IsReset() {
		return s.Toggle()
	}
	return s
}

// Decode returns the identity encoded in a base or reset schedule id. Child
// workflow ids are decoded without their salt.
func Decode(id ScheduleID) (Identity, error) {
	s := string(id.Base())
	if i := strings.Index(s, saltSep); i >= 0 {
		s = s[:i]
	}

	split := strings.Split(s, sep)
	if len(split) != 3 {
		return Identity{}, errors.New("invalid schedule id")
	}

	return Identity{
		Name:           unescaper.Replace(split[0]),
		Version:        unescaper.Replace(split[1]),
		PositionalName: unescaper.Replace(split[2]),
	}, nil
}
