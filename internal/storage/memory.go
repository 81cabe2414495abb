package storage

import (
	"context"
	"sync"
)

// MemorySlot provides an in-memory implementation useful for testing and local development.
type MemorySlot struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemorySlot constructs an empty memory-backed slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

// Load implements the Slot interface.
func (s *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Store implements the Slot interface.
func (s *MemorySlot) Store(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}
