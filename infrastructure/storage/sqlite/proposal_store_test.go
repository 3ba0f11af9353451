package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/sqlite"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/storetest"
)

func newTestStore(t *testing.T) *sqlite.ProposalStore {
	t.Helper()
	cfg := sqlite.DefaultConfig()
	cfg.DSN = "file:" + filepath.Join(t.TempDir(), "proposals.db") + "?mode=rwc"

	store, err := sqlite.NewProposalStore(cfg)
	if err != nil {
		t.Fatalf("NewProposalStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProposalStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) proposal.Store {
		return newTestStore(t)
	})
}

func TestProposalStore_AppendsAuditRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := storetest.NewProposal("p-audit", time.Now())
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Save(ctx, p.ID, storetest.SubmitPatch(t, p), p.Version); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	n, err := store.AuditCount(ctx, p.ID)
	if err != nil {
		t.Fatalf("AuditCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("AuditCount() = %d, want 1", n)
	}

	// A rejected save writes no audit row.
	if err := store.Save(ctx, p.ID, storetest.SubmitPatch(t, p), p.Version); !errors.Is(err, proposal.ErrConflict) {
		t.Fatalf("Save() error = %v, want ErrConflict", err)
	}
	if n, _ := store.AuditCount(ctx, p.ID); n != 1 {
		t.Errorf("AuditCount() after conflict = %d, want 1", n)
	}
}

func TestProposalStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := storetest.NewProposal("p-del", time.Now())
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err := store.Load(ctx, p.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Status != proposal.StatusDeleted || got.Version != 2 {
		t.Errorf("Load() = status %s version %d", got.Status, got.Version)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, proposal.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}
