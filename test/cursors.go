package test

import (
	"context"
	"sync"
)

// MemCursorStore is an in-memory reflex.CursorStore. The zero value is ready
// to use.
type MemCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

func (m *MemCursorStore) GetCursor(_ context.Context, consumerName string) (string, error) {
	return m.Cursor(consumerName), nil
}

func (m *MemCursorStore) SetCursor(_ context.Context, consumerName string, cursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cursors == nil {
		m.cursors = make(map[string]string)
	}
	m.cursors[consumerName] = cursor
	return nil
}

func (m *MemCursorStore) Flush(_ context.Context) error { return nil }

// Cursor returns the last cursor set by the consumer.
func (m *MemCursorStore) Cursor(consumerName string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cursors[consumerName]
}
