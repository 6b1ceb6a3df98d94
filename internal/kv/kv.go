// Package kv provides durable key-value slots for application state.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Backend stores opaque values under string keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// StorageError describes a failed backend operation.
type StorageError struct {
	Op   string // "open", "migrate", "read", "write"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Memory is an in-process Backend, mostly useful in tests.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int

	// FailWrites makes every Put return an error when set.
	FailWrites error
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{values: map[string][]byte{}}
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements Backend.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &StorageError{Op: "write", Path: key, Err: m.FailWrites}
	}
	m.values[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes reports how many successful Put calls were made.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
