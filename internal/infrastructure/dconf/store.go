package dconf

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"dconfsync.dev/cli/internal/core/manifest"
	"dconfsync.dev/cli/internal/core/store"
)

// DefaultBinary is the dconf executable looked up on PATH when no
// explicit binary is configured.
const DefaultBinary = "dconf"

// Store reconciles against a dconf database through the dconf binary.
// Every path crossing the interface is relative to the configured root.
type Store struct {
	root   string
	binary string
	runner CommandRunner
}

// New returns a store rooted at the given absolute path. An empty
// binary selects DefaultBinary and a nil runner the host ExecRunner.
func New(root, binary string, runner CommandRunner) (*Store, error) {
	norm, err := NormalizeRoot(root)
	if err != nil {
		return nil, err
	}
	if binary == "" {
		binary = DefaultBinary
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Store{root: norm, binary: binary, runner: runner}, nil
}

// Root returns the normalized absolute root.
func (s *Store) Root() string {
	return s.root
}

/// NormalizeRoot validates an absolute store root and canonicalizes it:
// duplicate and trailing slashes are dropped, "/" stays itself.
func NormalizeRoot(root string) (string, error) {
	if root == "" || root[0] != '/' {
		return "", fmt.Errorf("store root %q must be an absolute path", root)
	}
	return path.Clean(root), nil
}

func (s *Store) ReadAll(ctx context.Context) (store.Snapshot, error) {
	out, err := s.runner.Output(ctx, s.binary, "dump", s.dumpArg())
	if err != nil {
		return nil, &store.ReadError{Err: err}
	}
	snap, err := manifest.ParseSnapshot(bytes.NewReader(out), s.binary+" dump")
	if err != nil {
		return nil, &store.ReadError{Err: err}
	}
	return snap, nil
}

func (s *Store) Write(ctx context.Context, relPath string, value store.Value) error {
	if err := s.runner.Run(ctx, s.binary, "write", s.abs(relPath), value.String()); err != nil {
		return &store.WriteError{Path: relPath, Value: value, Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, relPath string) error {
	if err := s.runner.Run(ctx, s.binary, "reset", s.abs(relPath)); err != nil {
		return &store.DeleteError{Path: relPath, Err: err}
	}
	return nil
}

// dconf dump wants a directory path, which must end in a slash.
func (s *Store) dumpArg() string {
	if s.root == "/" {
		return "/"
	}
	return s.root + "/"
}

func (s *Store) abs(relPath string) string {
	if s.root == "/" {
		return "/" + relPath
	}
	return s.root + "/" + relPath
}
