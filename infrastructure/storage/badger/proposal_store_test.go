package badger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/badger"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/storetest"
)

func newStore(t *testing.T) *badger.ProposalStore {
	t.Helper()
	s, err := badger.NewProposalStore(badger.DefaultConfig(), badger.WithInMemory())
	if err != nil {
		t.Fatalf("NewProposalStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProposalStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) proposal.Store {
		return newStore(t)
	})
}

func TestProposalStore_AppendsAuditRecords(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := storetest.NewProposal("p-1", time.Now())
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Save(ctx, p.ID, storetest.SubmitPatch(t, p), p.Version); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	n, err := s.AuditCount(ctx, p.ID)
	if err != nil {
		t.Fatalf("AuditCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("AuditCount() = %d, want 1", n)
	}
}

func TestProposalStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := storetest.NewProposal("p-1", time.Now())
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err := s.Load(ctx, p.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Status != proposal.StatusDeleted || got.Version != 2 {
		t.Errorf("after Delete status = %s, version = %d", got.Status, got.Version)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, proposal.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestProposalStore_KeyPrefixIsolation(t *testing.T) {
	first, err := badger.NewProposalStore(badger.DefaultConfig(), badger.WithInMemory(), badger.WithKeyPrefix("a:"))
	if err != nil {
		t.Fatalf("NewProposalStore() error = %v", err)
	}
	defer first.Close()

	ctx := context.Background()
	if err := first.Create(ctx, storetest.NewProposal("p-1", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	list, err := first.List(ctx, proposal.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d, want 1", len(list))
	}
}
