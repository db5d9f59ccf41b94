package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dconfsync.dev/cli/internal/core/apply"
	"dconfsync.dev/cli/internal/core/diff"
	"dconfsync.dev/cli/internal/core/manifest"
	"dconfsync.dev/cli/internal/core/store"
	"dconfsync.dev/cli/internal/core/testfixtures"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifestMergesFiles(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "base.ini", "[s]\na=1\nb=2\n")
	site := writeConfig(t, dir, "site.ini", "[s]\nb=20\n[extra]\nc=3\n")

	doc, err := LoadManifest(base, site)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, []manifest.Entry{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "20"},
	}, doc.Sections[0].Entries)
}

func TestLoadManifestReportsFileInParseError(t *testing.T) {
	dir := t.TempDir()
	bad := writeConfig(t, dir, "bad.ini", "key-without-section=1\n")

	_, err := LoadManifest(bad)

	var parseErr *manifest.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, bad, parseErr.File)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.ini"))
	assert.ErrorContains(t, err, "open config")
}

func TestPlanComputesChangesAndUnmanaged(t *testing.T) {
	st := testfixtures.NewMemoryStore(store.Snapshot{
		"s/k":     "2",
		"stray/x": "9",
	})
	svc := NewReconcileService(st, nil)

	dir := t.TempDir()
	cfg := writeConfig(t, dir, "c.ini", "[s]\nk=1\n")
	doc, err := LoadManifest(cfg)
	require.NoError(t, err)

	plan, err := svc.Plan(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, diff.ChangeSet{
		{Kind: diff.KindModify, Section: "s", Path: "s/k", Old: "2", New: "1"},
	}, plan.Changes)
	assert.Equal(t, []diff.UnmanagedEntry{{Path: "stray/x", Value: "9"}}, plan.Unmanaged)
	assert.Equal(t, store.Snapshot{"s/k": "2", "stray/x": "9"}, plan.Snapshot)
}

func TestPlanSurfacesReadError(t *testing.T) {
	st := testfixtures.NewMemoryStore(nil)
	st.ReadErr = errors.New("no bus")
	svc := NewReconcileService(st, nil)

	_, err := svc.Plan(context.Background(), &manifest.Document{})

	var readErr *store.ReadError
	assert.True(t, errors.As(err, &readErr))
}

func TestApplyWritesBackupFirst(t *testing.T) {
	st := testfixtures.NewMemoryStore(store.Snapshot{"old/k": "1"})
	svc := NewReconcileService(st, nil)

	plan, err := svc.Plan(context.Background(), &manifest.Document{
		Sections: []manifest.Section{{Path: "new", Entries: []manifest.Entry{{Key: "k", Value: "2"}}}},
	})
	require.NoError(t, err)

	backup := filepath.Join(t.TempDir(), "nested", "backup.ini")
	result, err := svc.Apply(context.Background(), plan, ApplyOptions{
		Policy:     apply.PolicyFailFast,
		BackupPath: backup,
	})
	require.NoError(t, err)
	assert.True(t, result.OK())

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "[old]\nk=1\n", string(data))
	assert.Equal(t, store.Value("2"), st.Contents()["new/k"])
}

func TestApplyAbortsWhenBackupFails(t *testing.T) {
	st := testfixtures.NewMemoryStore(store.Snapshot{"p/x": "1"})
	svc := NewReconcileService(st, nil)

	plan, err := svc.Plan(context.Background(), &manifest.Document{
		Sections: []manifest.Section{{Path: "p"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Changes)

	// A directory at the backup path makes the write fail.
	_, err = svc.Apply(context.Background(), plan, ApplyOptions{
		Policy:     apply.PolicyFailFast,
		BackupPath: t.TempDir(),
	})
	require.Error(t, err)

	// Only the planning read reached the store.
	assert.Equal(t, []string{"read"}, st.Calls)
	assert.Equal(t, store.Value("1"), st.Contents()["p/x"])
}

func TestExportSerializesSnapshot(t *testing.T) {
	st := testfixtures.NewMemoryStore(store.Snapshot{"a/k": "1", "top": "2"})
	svc := NewReconcileService(st, nil)

	out, err := svc.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "[/]\ntop=2\n\n[a]\nk=1\n", out)
}

func TestBackupFilename(t *testing.T) {
	now := time.Date(2026, 8, 25, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("/var/backups", "dconfsync-20260825-150405.ini"),
		BackupFilename("/var/backups", now))
}
