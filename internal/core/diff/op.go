// Package diff computes the ordered change set that reconciles a
// settings snapshot with a declared configuration document.
package diff

import (
	"fmt"

	"dconfsync.dev/cli/internal/core/store"
)

// Kind enumerates the change operations.
type Kind uint8

const (
	KindAdd Kind = iota
	KindRemove
	KindModify
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindModify:
		return "modify"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Op is a single reconciliation step. Section is the declared section
// (or purge marker) that produced it, Path the full store-relative
// path. Old is set for Remove and Modify, New for Add and Modify.
type Op struct {
	Kind    Kind
	Section string
	Path    string
	Old     store.Value
	New     store.Value
}

func (o Op) String() string {
	switch o.Kind {
	case KindAdd:
		return fmt.Sprintf("add %s=%s", o.Path, o.New)
	case KindRemove:
		return fmt.Sprintf("remove %s=%s", o.Path, o.Old)
	case KindModify:
		return fmt.Sprintf("modify %s=%s -> %s", o.Path, o.Old, o.New)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Path)
	}
}

// ChangeSet is the ordered list of operations for one reconcile run.
type ChangeSet []Op

// Empty reports whether there is nothing to do.
func (cs ChangeSet) Empty() bool {
	return len(cs) == 0
}

// ApplyTo projects the change set onto a snapshot, returning the state
// the store reaches if every operation succeeds. The input snapshot is
// not modified.
func (cs ChangeSet) ApplyTo(snap store.Snapshot) store.Snapshot {
	out := snap.Clone()
	for _, op := range cs {
		switch op.Kind {
		case KindAdd, KindModify:
			out[op.Path] = op.New
		case KindRemove:
			delete(out, op.Path)
		}
	}
	return out
}
