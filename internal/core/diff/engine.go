package diff

import (
	"sort"
	"strings"

	"dconfsync.dev/cli/internal/core/manifest"
	"dconfsync.dev/cli/internal/core/pathset"
	"dconfsync.dev/cli/internal/core/store"
)

// Compute builds the change set that reconciles snap with doc.
//
// Sections contribute in declaration order. A declared entry whose path
// is absent from the snapshot becomes an Add, a differing value a
// Modify, an equal value nothing. A purge marker removes every covered
// snapshot path that no entry re-declares, sorted by path, at the
// marker's position. Each path yields at most one operation: when the
// same path is declared more than once the last declaration wins, a
// declared path is never removed, and overlapping purges do not repeat
// a removal. Paths under an exclusion are never touched at all.
//
// The snapshot is read, never modified.
func Compute(doc *manifest.Document, snap store.Snapshot) ChangeSet {
	excl := doc.Excluded()

	type winner struct {
		sec, ent int
	}
	keep := make(map[string]winner)
	for si, sec := range doc.Sections {
		for ei, e := range sec.Entries {
			keep[sec.EntryPath(e)] = winner{sec: si, ent: ei}
		}
	}

	var cs ChangeSet
	claimed := make(map[string]bool)
	for si, sec := range doc.Sections {
		if sec.IsPurge() {
			var removals []string
			for path := range snap {
				if !covers(sec.Path, path) || claimed[path] || excl.Contains(path) {
					continue
				}
				if _, kept := keep[path]; kept {
					continue
				}
				removals = append(removals, path)
			}
			sort.Strings(removals)
			for _, path := range removals {
				claimed[path] = true
				cs = append(cs, Op{Kind: KindRemove, Section: sec.Path, Path: path, Old: snap[path]})
			}
			continue
		}

		for ei, e := range sec.Entries {
			path := sec.EntryPath(e)
			if w := keep[path]; w.sec != si || w.ent != ei {
				continue
			}
			if excl.Contains(path) {
				continue
			}
			old, exists := snap.Get(path)
			switch {
			case !exists:
				cs = append(cs, Op{Kind: KindAdd, Section: sec.Path, Path: path, New: e.Value})
			case old != e.Value:
				cs = append(cs, Op{Kind: KindModify, Section: sec.Path, Path: path, Old: old, New: e.Value})
			}
		}
	}
	return cs
}

// UnmanagedEntry is a snapshot entry the document leaves alone.
type UnmanagedEntry struct {
	Path  string
	Value store.Value
}

// Unmanaged lists the snapshot entries doc does not manage: everything
// under an exclusion, plus paths neither declared nor covered by a
// purge marker. Sorted by path.
func Unmanaged(doc *manifest.Document, snap store.Snapshot) []UnmanagedEntry {
	excl := doc.Excluded()

	purged := pathset.New()
	declared := make(map[string]bool)
	for _, sec := range doc.Sections {
		if sec.IsPurge() {
			purged.Add(sec.Path)
			continue
		}
		for _, e := range sec.Entries {
			if p := sec.EntryPath(e); !excl.Contains(p) {
				declared[p] = true
			}
		}
	}

	var out []UnmanagedEntry
	for _, path := range snap.Paths() {
		if !excl.Contains(path) && (declared[path] || purged.Contains(path)) {
			continue
		}
		out = append(out, UnmanagedEntry{Path: path, Value: snap[path]})
	}
	return out
}

// covers reports whether path sits at or below prefix, matching whole
// components only. The empty prefix is the root and covers everything.
func covers(prefix, path string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
