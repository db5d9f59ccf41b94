// Package testfixtures provides in-memory collaborators for exercising
// the reconcile pipeline in tests.
package testfixtures

import (
	"context"
	"fmt"
	"sync"

	"dconfsync.dev/cli/internal/core/store"
)

// MemoryStore is an in-memory store.Store that records every call and
// can be told to fail specific operations. It wraps failures in the
// same error taxonomy a real store adapter uses.
type MemoryStore struct {
	mu   sync.Mutex
	data store.Snapshot

	// Calls lists operations in invocation order: "read",
	// "write <path>=<value>", "delete <path>".
	Calls []string

	// ReadErr, FailWrites and FailDeletes inject failures.
	ReadErr     error
	FailWrites  map[string]error
	FailDeletes map[string]error
}

// NewMemoryStore seeds a store with a copy of initial.
func NewMemoryStore(initial store.Snapshot) *MemoryStore {
	return &MemoryStore{
		data:        initial.Clone(),
		FailWrites:  make(map[string]error),
		FailDeletes: make(map[string]error),
	}
}

func (m *MemoryStore) ReadAll(ctx context.Context) (store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "read")
	if m.ReadErr != nil {
		return nil, &store.ReadError{Err: m.ReadErr}
	}
	return m.data.Clone(), nil
}

func (m *MemoryStore) Write(ctx context.Context, path string, value store.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf("write %s=%s", path, value))
	if err := m.FailWrites[path]; err != nil {
		return &store.WriteError{Path: path, Value: value, Err: err}
	}
	m.data[path] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "delete "+path)
	if err := m.FailDeletes[path]; err != nil {
		return &store.DeleteError{Path: path, Err: err}
	}
	delete(m.data, path)
	return nil
}

// Contents returns a copy of the current store state.
func (m *MemoryStore) Contents() store.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.Clone()
}
