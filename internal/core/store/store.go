// Package store defines the settings-store port and the value vocabulary
// shared by the diff and apply layers. Values are opaque serialized
// strings compared only for equality; interpreting them is the store's
// business, never this tool's.
package store

import (
	"context"
	"sort"
)

// Value is a serialized settings value. Type annotations and quoting
// pass through verbatim ("uint32 4", "'none'"); two values are the same
// exactly when their serialized forms are equal.
type Value string

// String returns the serialized form.
func (v Value) String() string {
	return string(v)
}

// Snapshot is the full path-to-value mapping read from a store subtree.
// Paths are relative to the configured root, with the empty path
// denoting the root itself. A snapshot is never mutated once read; code
// that needs a variant works on a Clone.
type Snapshot map[string]Value

// Get returns the value at path and whether it exists.
func (s Snapshot) Get(path string) (Value, bool) {
	v, ok := s[path]
	return v, ok
}

// Paths returns every path in the snapshot, sorted.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for p, v := range s {
		out[p] = v
	}
	return out
}

// Store is the external settings store the tool reconciles against.
// Implementations are synchronous; every method surfaces its failure
// through the package error types.
type Store interface {
	// ReadAll returns the full snapshot of the configured subtree.
	ReadAll(ctx context.Context) (Snapshot, error)

	// Write sets the value at a single relative path.
	Write(ctx context.Context, path string, value Value) error

	// Delete removes the value at a single relative path.
	Delete(ctx context.Context, path string) error
}
