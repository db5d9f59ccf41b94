// Package dconf adapts the dconf command-line tool to the store port:
// ReadAll shells out to `dconf dump`, Write to `dconf write` and Delete
// to `dconf reset`.
package dconf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRunner abstracts process execution so tests can substitute a
// recording fake.
type CommandRunner interface {
	// Run executes a command, discarding output on success.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("command %s failed: %w: %s", name, err, out)
	}
	return nil
}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("command %s failed: %w: %s", name, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("command %s failed: %w", name, err)
	}
	return out, nil
}
