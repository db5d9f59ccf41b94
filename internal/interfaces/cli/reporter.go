package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"

	"dconfsync.dev/cli/internal/core/apply"
	"dconfsync.dev/cli/internal/core/diff"
	"dconfsync.dev/cli/internal/core/manifest"
	"dconfsync.dev/cli/internal/core/store"
)

// Reporter renders change sets for the terminal: removals red, added
// and changed values green, unmanaged entries gray.
type Reporter struct {
	remove  lipgloss.Style
	add     lipgloss.Style
	ignore  lipgloss.Style
	colored bool
}

// NewReporter returns a reporter with color forced on or off, so output
// stays stable regardless of the terminal the process inherited.
func NewReporter(colored bool) *Reporter {
	r := lipgloss.NewRenderer(io.Discard)
	if colored {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Reporter{
		remove:  r.NewStyle().Foreground(lipgloss.Color("1")),
		add:     r.NewStyle().Foreground(lipgloss.Color("2")),
		ignore:  r.NewStyle().Foreground(lipgloss.Color("244")),
		colored: colored,
	}
}

// Render returns the diff-style listing in change-set order: removals
// as "< path=value" lines, additions as "> path=value" lines, and a
// modify as the old value's removal line followed by the new value's
// addition line. Unmanaged entries follow as "? " lines.
func (r *Reporter) Render(cs diff.ChangeSet, unmanaged []diff.UnmanagedEntry) string {
	var b strings.Builder
	for _, op := range cs {
		switch op.Kind {
		case diff.KindAdd:
			b.WriteString(r.add.Render("> "+formatKV(op.Path, op.New)) + "\n")
		case diff.KindRemove:
			b.WriteString(r.remove.Render("< "+formatKV(op.Path, op.Old)) + "\n")
		case diff.KindModify:
			b.WriteString(r.remove.Render("< "+formatKV(op.Path, op.Old)) + "\n")
			b.WriteString(r.add.Render("> "+formatKV(op.Path, op.New)) + "\n")
		}
	}
	for _, u := range unmanaged {
		b.WriteString(r.ignore.Render("? "+formatKV(u.Path, u.Value)) + "\n")
	}
	return b.String()
}

// RenderUnified renders the current and projected snapshots as keyfile
// documents and returns their unified diff.
func (r *Reporter) RenderUnified(current, desired store.Snapshot) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(manifest.Serialize(current)),
		B:        difflib.SplitLines(manifest.Serialize(desired)),
		FromFile: "current",
		ToFile:   "desired",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// RenderResult summarizes a failed or partial apply run, listing failed
// and unattempted operations.
func (r *Reporter) RenderResult(res apply.Result) string {
	if res.OK() {
		return fmt.Sprintf("Applied %s.\n", count(res.Applied(), "operation", "operations"))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Applied %d of %d operations: %d failed, %d not attempted.\n",
		res.Applied(), len(res.Ops), res.Failed(), res.Skipped())
	for _, op := range res.Ops {
		switch op.Status {
		case apply.StatusFailed:
			fmt.Fprintf(&b, "  failed: %s: %v\n", op.Op, op.Err)
		case apply.StatusSkipped:
			fmt.Fprintf(&b, "  not attempted: %s\n", op.Op)
		}
	}
	return b.String()
}

func formatKV(path string, v store.Value) string {
	return path + "=" + string(v)
}
