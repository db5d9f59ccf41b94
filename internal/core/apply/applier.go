// Package apply executes change sets against the settings store.
package apply

import (
	"context"
	"fmt"
	"io"
	"log"

	"dconfsync.dev/cli/internal/core/diff"
	"dconfsync.dev/cli/internal/core/store"
)

// Policy controls how the applier reacts to a failed operation.
type Policy string

const (
	// PolicyFailFast stops at the first failure and leaves the rest of
	// the change set unattempted.
	PolicyFailFast Policy = "fail-fast"

	// PolicyKeepGoing attempts every operation and reports all failures.
	PolicyKeepGoing Policy = "keep-going"
)

// ParsePolicy validates a policy name coming from flags or settings.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFailFast, PolicyKeepGoing:
		return p, nil
	default:
		return "", fmt.Errorf("unknown apply policy %q (want %q or %q)", s, PolicyFailFast, PolicyKeepGoing)
	}
}

// Status classifies the outcome of one operation.
type Status uint8

const (
	StatusApplied Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// OpResult pairs an operation with its outcome. Err is set only when
// the status is StatusFailed.
type OpResult struct {
	Op     diff.Op
	Status Status
	Err    error
}

// Result is the complete outcome of one apply run, in change-set order.
type Result struct {
	Ops []OpResult
}

// Applied counts operations that succeeded.
func (r Result) Applied() int { return r.count(StatusApplied) }

// Failed counts operations that were attempted and failed.
func (r Result) Failed() int { return r.count(StatusFailed) }

// Skipped counts operations never attempted because an earlier failure
// halted the run.
func (r Result) Skipped() int { return r.count(StatusSkipped) }

func (r Result) count(status Status) int {
	n := 0
	for _, op := range r.Ops {
		if op.Status == status {
			n++
		}
	}
	return n
}

// OK reports whether every operation was applied.
func (r Result) OK() bool {
	return r.Failed() == 0 && r.Skipped() == 0
}

// Err returns the first failure, or nil when the run was clean.
func (r Result) Err() error {
	for _, op := range r.Ops {
		if op.Status == StatusFailed {
			return op.Err
		}
	}
	return nil
}

// Applier executes change sets against a store.
type Applier struct {
	store  store.Store
	policy Policy
	logger *log.Logger
}

// New returns an applier using the given failure policy. The logger
// receives a per-operation trace and may be nil.
func New(st store.Store, policy Policy, logger *log.Logger) *Applier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Applier{store: st, policy: policy, logger: logger}
}

// Apply executes the change set in order: Add and Modify write, Remove
// deletes. Under fail-fast the first failure marks every remaining
// operation skipped; under keep-going every operation is attempted.
// Context cancellation counts as a failure of the pending operation.
func (a *Applier) Apply(ctx context.Context, cs diff.ChangeSet) Result {
	result := Result{Ops: make([]OpResult, 0, len(cs))}
	halted := false
	for _, op := range cs {
		if halted {
			result.Ops = append(result.Ops, OpResult{Op: op, Status: StatusSkipped})
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Ops = append(result.Ops, OpResult{Op: op, Status: StatusFailed, Err: err})
			halted = true
			continue
		}
		if err := a.run(ctx, op); err != nil {
			a.logger.Printf("apply failed: %s: %v", op, err)
			result.Ops = append(result.Ops, OpResult{Op: op, Status: StatusFailed, Err: err})
			if a.policy == PolicyFailFast {
				halted = true
			}
			continue
		}
		a.logger.Printf("applied: %s", op)
		result.Ops = append(result.Ops, OpResult{Op: op, Status: StatusApplied})
	}
	return result
}

func (a *Applier) run(ctx context.Context, op diff.Op) error {
	switch op.Kind {
	case diff.KindAdd, diff.KindModify:
		return a.store.Write(ctx, op.Path, op.New)
	case diff.KindRemove:
		return a.store.Delete(ctx, op.Path)
	default:
		return fmt.Errorf("unknown operation kind %v", op.Kind)
	}
}
