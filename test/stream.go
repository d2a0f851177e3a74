package test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/reflex"
	"github.com/stretchr/testify/require"

	"github.com/gurmitteotia/guflow-sub003/history"
)

// MemStream is an in-memory reflex stream of history events. Event ids are
// the one based position in the stream.
type MemStream struct {
	mu     sync.Mutex
	events []*reflex.Event
	notify chan struct{}
}

func NewMemStream() *MemStream {
	return &MemStream{notify: make(chan struct{})}
}

// Publish appends history events of the execution to the stream.
func (s *MemStream) Publish(t testing.TB, key history.ExecutionKey, events ...history.Event) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		b, err := json.Marshal(e)
		require.NoError(t, err)

		s.events = append(s.events, &reflex.Event{
			ID:        strconv.Itoa(len(s.events) + 1),
			Type:      e.Type,
			ForeignID: key.Encode(),
			Timestamp: e.Timestamp,
			MetaData:  b,
		})
	}

	close(s.notify)
	s.notify = make(chan struct{})
}

// Stream implements reflex.StreamFunc. Stream options are ignored.
func (s *MemStream) Stream(ctx context.Context, after string, _ ...reflex.StreamOption) (reflex.StreamClient, error) {
	var next int
	if after != "" {
		n, err := strconv.Atoi(after)
		if err != nil {
			return nil, errors.Wrap(err, "invalid cursor", j.KS("after", after))
		}
		next = n
	}

	return &memClient{ctx: ctx, s: s, next: next}, nil
}

type memClient struct {
	ctx  context.Context
	s    *MemStream
	next int
}

func (c *memClient) Recv() (*reflex.Event, error) {
	for {
		c.s.mu.Lock()
		if c.next < len(c.s.events) {
			e := c.s.events[c.next]
			c.s.mu.Unlock()
			c.next++
			return e, nil
		}
		notify := c.s.notify
		c.s.mu.Unlock()

		select {
		case <-notify:
		case <-c.ctx.Done():
			return nil, c.ctx.Err()
		}
	}
}

// ListEvents returns the history if key identifies its execution.
func (h *History) ListEvents(_ context.Context, key history.ExecutionKey) ([]history.Event, error) {
	if key.WorkflowID != h.WorkflowID || key.RunID != h.RunID {
		return nil, errors.New("unknown execution", j.KS("key", key.Encode()))
	}
	return h.Events(), nil
}

// Key returns the execution key of the history.
func (h *History) Key() history.ExecutionKey {
	return history.ExecutionKey{WorkflowID: h.WorkflowID, RunID: h.RunID}
}
