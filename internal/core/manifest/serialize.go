package manifest

import (
	"fmt"
	"sort"
	"strings"

	"dconfsync.dev/cli/internal/core/pathset"
	"dconfsync.dev/cli/internal/core/store"
)

// Serialize renders a snapshot as keyfile text: one section per parent
// prefix in sorted order, keys sorted within each section, root-level
// keys under a [/] header. The output parses back to the same snapshot
// through ParseSnapshot.
func Serialize(snap store.Snapshot) string {
	if len(snap) == 0 {
		return ""
	}

	groups := make(map[string][]string)
	for _, p := range snap.Paths() {
		prefix, name := pathset.Split(p)
		groups[prefix] = append(groups[prefix], name)
	}
	prefixes := make([]string, 0, len(groups))
	for prefix := range groups {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var b strings.Builder
	for i, prefix := range prefixes {
		if i > 0 {
			b.WriteString("\n")
		}
		if prefix == "" {
			b.WriteString("[/]\n")
		} else {
			fmt.Fprintf(&b, "[%s]\n", prefix)
		}
		for _, name := range groups[prefix] {
			fmt.Fprintf(&b, "%s=%s\n", name, snap[pathset.Child(prefix, name)])
		}
	}
	return b.String()
}
