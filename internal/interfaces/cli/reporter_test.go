package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dconfsync.dev/cli/internal/core/apply"
	"dconfsync.dev/cli/internal/core/diff"
	"dconfsync.dev/cli/internal/core/store"
)

func TestRenderPlain(t *testing.T) {
	rep := NewReporter(false)

	out := rep.Render(diff.ChangeSet{
		{Kind: diff.KindRemove, Section: "a", Path: "a/gone", Old: "1"},
		{Kind: diff.KindAdd, Section: "a", Path: "a/new", New: "2"},
		{Kind: diff.KindModify, Section: "b", Path: "b/k", Old: "3", New: "4"},
	}, []diff.UnmanagedEntry{{Path: "z/w", Value: "9"}})

	assert.Equal(t, "< a/gone=1\n> a/new=2\n< b/k=3\n> b/k=4\n? z/w=9\n", out)
}

func TestRenderColored(t *testing.T) {
	rep := NewReporter(true)

	out := rep.Render(diff.ChangeSet{
		{Kind: diff.KindRemove, Section: "a", Path: "a/gone", Old: "1"},
		{Kind: diff.KindAdd, Section: "a", Path: "a/new", New: "2"},
	}, []diff.UnmanagedEntry{{Path: "z/w", Value: "9"}})

	assert.Equal(t,
		"\x1b[31m< a/gone=1\x1b[0m\n"+
			"\x1b[32m> a/new=2\x1b[0m\n"+
			"\x1b[38;5;244m? z/w=9\x1b[0m\n",
		out)
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", NewReporter(false).Render(nil, nil))
}

func TestRenderUnified(t *testing.T) {
	rep := NewReporter(false)

	out, err := rep.RenderUnified(store.Snapshot{"a/k": "1"}, store.Snapshot{"a/k": "2"})
	require.NoError(t, err)

	assert.Equal(t, "--- current\n+++ desired\n@@ -1,3 +1,3 @@\n [a]\n-k=1\n+k=2\n \n", out)
}

func TestRenderUnifiedNoChanges(t *testing.T) {
	snap := store.Snapshot{"a/k": "1"}

	out, err := NewReporter(false).RenderUnified(snap, snap)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRenderResultPartialFailure(t *testing.T) {
	res := apply.Result{Ops: []apply.OpResult{
		{Op: diff.Op{Kind: diff.KindAdd, Path: "a/k", New: "1"}, Status: apply.StatusApplied},
		{Op: diff.Op{Kind: diff.KindRemove, Path: "a/x", Old: "2"}, Status: apply.StatusFailed, Err: errors.New("bus gone")},
		{Op: diff.Op{Kind: diff.KindModify, Path: "b/k", Old: "3", New: "4"}, Status: apply.StatusSkipped},
	}}

	out := NewReporter(false).RenderResult(res)

	assert.Equal(t,
		"Applied 1 of 3 operations: 1 failed, 1 not attempted.\n"+
			"  failed: remove a/x=2: bus gone\n"+
			"  not attempted: modify b/k=3 -> 4\n",
		out)
}

func TestRenderResultOK(t *testing.T) {
	res := apply.Result{Ops: []apply.OpResult{
		{Op: diff.Op{Kind: diff.KindAdd, Path: "a/k", New: "1"}, Status: apply.StatusApplied},
	}}

	assert.Equal(t, "Applied 1 operation.\n", NewReporter(false).RenderResult(res))
}
