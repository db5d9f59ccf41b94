package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dconfsync.dev/cli/internal/core/store"
)

func TestSerialize(t *testing.T) {
	snap := store.Snapshot{
		"b/two":    "2",
		"b/one":    "uint32 1",
		"a/x/deep": "'quoted'",
		"top":      "true",
	}

	want := strings.Join([]string{
		"[/]",
		"top=true",
		"",
		"[a/x]",
		"deep='quoted'",
		"",
		"[b]",
		"one=uint32 1",
		"two=2",
		"",
	}, "\n")

	assert.Equal(t, want, Serialize(snap))
}

func TestSerializeEmptySnapshot(t *testing.T) {
	assert.Equal(t, "", Serialize(store.Snapshot{}))
}

func TestSerializeRoundTrips(t *testing.T) {
	snap := store.Snapshot{
		"a/b/k":      "1",
		"a/b/c/deep": "[1, 2, 3]",
		"root-key":   "'v'",
		"-dash/k":    "2",
	}

	parsed, err := ParseSnapshot(strings.NewReader(Serialize(snap)), "round-trip")
	require.NoError(t, err)
	assert.Equal(t, snap, parsed)
}
