// Package services orchestrates reconcile runs: loading manifests,
// planning against a store snapshot, applying change sets and exporting
// store state.
package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"dconfsync.dev/cli/internal/core/apply"
	"dconfsync.dev/cli/internal/core/diff"
	"dconfsync.dev/cli/internal/core/manifest"
	"dconfsync.dev/cli/internal/core/store"
)

// ReconcileService drives reconcile runs against a single store.
type ReconcileService struct {
	store  store.Store
	logger *log.Logger
}

// NewReconcileService wires a service to a store. The logger receives
// a debug trace and may be nil.
func NewReconcileService(st store.Store, logger *log.Logger) *ReconcileService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ReconcileService{store: st, logger: logger}
}

// LoadManifest parses the given configuration files and merges them in
// argument order, later files overriding earlier ones.
func LoadManifest(paths ...string) (*manifest.Document, error) {
	docs := make([]*manifest.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := parseManifestFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return manifest.Merge(docs...), nil
}

func parseManifestFile(path string) (*manifest.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return manifest.Parse(f, path)
}

// Plan is the computed outcome of a run before any mutation: the
// change set, the snapshot it was computed against, and the snapshot
// entries the document leaves unmanaged.
type Plan struct {
	Changes   diff.ChangeSet
	Unmanaged []diff.UnmanagedEntry
	Snapshot  store.Snapshot
}

// Plan reads the store snapshot and computes the change set for doc.
func (s *ReconcileService) Plan(ctx context.Context, doc *manifest.Document) (*Plan, error) {
	snap, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Changes:   diff.Compute(doc, snap),
		Unmanaged: diff.Unmanaged(doc, snap),
		Snapshot:  snap,
	}
	s.logger.Printf("planned %d ops against %d snapshot entries, %d unmanaged",
		len(plan.Changes), len(plan.Snapshot), len(plan.Unmanaged))
	return plan, nil
}

// ApplyOptions selects the failure policy and an optional pre-apply
// snapshot backup.
type ApplyOptions struct {
	Policy     apply.Policy
	BackupPath string
}

// Apply executes the plan's change set. When a backup path is set the
// plan's snapshot is serialized there first, and a backup failure
// aborts the run before the store is touched.
func (s *ReconcileService) Apply(ctx context.Context, plan *Plan, opts ApplyOptions) (apply.Result, error) {
	if opts.BackupPath != "" {
		if err := s.writeBackup(opts.BackupPath, plan.Snapshot); err != nil {
			return apply.Result{}, err
		}
	}
	applier := apply.New(s.store, opts.Policy, s.logger)
	return applier.Apply(ctx, plan.Changes), nil
}

func (s *ReconcileService) writeBackup(path string, snap store.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(manifest.Serialize(snap)), 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	s.logger.Printf("backup written: %s (%d entries)", path, len(snap))
	return nil
}

// BackupFilename names a timestamped backup file inside dir.
func BackupFilename(dir string, now time.Time) string {
	return filepath.Join(dir, "dconfsync-"+now.Format("20060102-150405")+".ini")
}

// Export reads the snapshot and serializes it as keyfile text.
func (s *ReconcileService) Export(ctx context.Context) (string, error) {
	snap, err := s.store.ReadAll(ctx)
	if err != nil {
		return "", err
	}
	return manifest.Serialize(snap), nil
}
