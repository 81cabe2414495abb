package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Slot is a durable key-value store holding one opaque blob per key. Each call
// reads or writes the whole value; implementations never expose partial writes.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, value []byte) error
}
