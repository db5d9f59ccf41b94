// Package manifest parses declarative configuration documents and the
// keyfile text the settings store dumps, and serializes snapshots back
// into that format.
//
// A document is INI-like: `[path/prefix]` headers group `key=value`
// entries. Section paths are relative to the store root, `[/]` is the
// root itself. A section with no entries is a purge marker (everything
// under its prefix that is not re-declared gets removed), and a header
// starting with `-` excludes its subtree from management entirely.
package manifest

import (
	"dconfsync.dev/cli/internal/core/pathset"
	"dconfsync.dev/cli/internal/core/store"
)

// Document is a parsed (or merged) configuration in declaration order,
// with exclusion markers split out of the section list.
type Document struct {
	Sections   []Section
	Exclusions []string
}

// Section is one `[path]` group. An empty entry list makes it a purge
// marker.
type Section struct {
	Path    string
	Entries []Entry
}

// Entry is one declared key=value pair. The key may itself contain
// slashes, declaring a path deeper than the section prefix.
type Entry struct {
	Key   string
	Value store.Value
}

// IsPurge reports whether the section is a purge marker.
func (s Section) IsPurge() bool {
	return len(s.Entries) == 0
}

// EntryPath returns the full store path an entry declares within s.
func (s Section) EntryPath(e Entry) string {
	return pathset.Child(s.Path, e.Key)
}

// Excluded returns the exclusion prefixes as a prefix set.
func (d *Document) Excluded() *pathset.Set {
	set := pathset.New()
	for _, p := range d.Exclusions {
		set.Add(p)
	}
	return set
}

// Shadowed returns declared entry paths that an exclusion prevents from
// ever being written, in declaration order.
func (d *Document) Shadowed() []string {
	excl := d.Excluded()
	if excl.Empty() {
		return nil
	}
	var out []string
	for _, sec := range d.Sections {
		for _, e := range sec.Entries {
			if p := sec.EntryPath(e); excl.Contains(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Merge combines documents in argument order. A section keeps the
// position of its first appearance; a later document re-declaring a key
// overrides its value in place and appends new keys, so a section is a
// purge marker only if every document declares it empty. Exclusions are
// the union.
func Merge(docs ...*Document) *Document {
	merged := &Document{}
	secIdx := make(map[string]int)
	exclSeen := make(map[string]bool)

	for _, d := range docs {
		for _, sec := range d.Sections {
			i, ok := secIdx[sec.Path]
			if !ok {
				secIdx[sec.Path] = len(merged.Sections)
				merged.Sections = append(merged.Sections, Section{
					Path:    sec.Path,
					Entries: append([]Entry(nil), sec.Entries...),
				})
				continue
			}
			for _, e := range sec.Entries {
				if j := entryIndex(merged.Sections[i].Entries, e.Key); j >= 0 {
					merged.Sections[i].Entries[j].Value = e.Value
				} else {
					merged.Sections[i].Entries = append(merged.Sections[i].Entries, e)
				}
			}
		}
		for _, x := range d.Exclusions {
			if !exclSeen[x] {
				exclSeen[x] = true
				merged.Exclusions = append(merged.Exclusions, x)
			}
		}
	}
	return merged
}

func entryIndex(entries []Entry, key string) int {
	for i, e := range entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}
