package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/resilience"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/memory"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/storetest"
)

var errDown = errors.Join(proposal.ErrStoreUnavailable, errors.New("connection refused"))

// flakyStore fails its first n calls with ErrStoreUnavailable.
type flakyStore struct {
	proposal.Store
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakyStore) fail() error {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return errDown
	}
	return nil
}

func (f *flakyStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Store.Load(ctx, id)
}

func (f *flakyStore) Save(ctx context.Context, id string, patch proposal.Patch, expected int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Store.Save(ctx, id, patch, expected)
}

func newFlaky(t *testing.T, failures int32) *flakyStore {
	t.Helper()
	inner := memory.NewProposalStore()
	if err := inner.Create(context.Background(), storetest.NewProposal("p-1", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f := &flakyStore{Store: inner}
	f.failures.Store(failures)
	return f
}

func TestStore_Conformance(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) proposal.Store {
		return resilience.New(memory.NewProposalStore())
	})
}

func TestStore_RetriesReads(t *testing.T) {
	t.Parallel()

	flaky := newFlaky(t, 2)
	store := resilience.New(flaky, resilience.WithReadRetry(3, time.Millisecond))

	p, err := store.Load(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.ID != "p-1" {
		t.Errorf("Load() ID = %q, want p-1", p.ID)
	}
	if got := flaky.calls.Load(); got != 3 {
		t.Errorf("inner calls = %d, want 3", got)
	}
}

func TestStore_DoesNotRetryWrites(t *testing.T) {
	t.Parallel()

	flaky := newFlaky(t, 1)
	store := resilience.New(flaky, resilience.WithReadRetry(3, time.Millisecond))

	p, err := flaky.Store.Load(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	err = store.Save(context.Background(), "p-1", storetest.SubmitPatch(t, p), p.Version)
	if !errors.Is(err, proposal.ErrStoreUnavailable) {
		t.Fatalf("Save() error = %v, want ErrStoreUnavailable", err)
	}
	if got := flaky.calls.Load(); got != 1 {
		t.Errorf("inner calls = %d, want 1", got)
	}
}

func TestStore_WorkflowErrorsPassThrough(t *testing.T) {
	t.Parallel()

	flaky := newFlaky(t, 0)
	store := resilience.New(flaky, resilience.WithBreaker(1, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Load(ctx, "missing")
		if !errors.Is(err, proposal.ErrNotFound) {
			t.Fatalf("Load() error = %v, want ErrNotFound", err)
		}
		if errors.Is(err, proposal.ErrStoreUnavailable) {
			t.Fatalf("Load() error = %v, must not be ErrStoreUnavailable", err)
		}
	}
	if got := store.BreakerState(); got != "closed" {
		t.Errorf("BreakerState() = %q, want closed", got)
	}

	p, err := store.Load(ctx, "p-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	err = store.Save(ctx, "p-1", storetest.SubmitPatch(t, p), p.Version+1)
	if !errors.Is(err, proposal.ErrConflict) {
		t.Errorf("Save() error = %v, want ErrConflict", err)
	}
}

func TestStore_BreakerOpens(t *testing.T) {
	t.Parallel()

	flaky := newFlaky(t, 100)
	store := resilience.New(flaky,
		resilience.WithBreaker(2, time.Minute),
		resilience.WithReadRetry(1, time.Millisecond),
	)
	ctx := context.Background()

	if got := store.BreakerState(); got != "closed" {
		t.Fatalf("initial BreakerState() = %q, want closed", got)
	}
	for i := 0; i < 2; i++ {
		if _, err := store.Load(ctx, "p-1"); !errors.Is(err, proposal.ErrStoreUnavailable) {
			t.Fatalf("Load() error = %v, want ErrStoreUnavailable", err)
		}
	}

	before := flaky.calls.Load()
	_, err := store.Load(ctx, "p-1")
	if !errors.Is(err, proposal.ErrStoreUnavailable) {
		t.Fatalf("Load() with open breaker error = %v, want ErrStoreUnavailable", err)
	}
	if got := flaky.calls.Load(); got != before {
		t.Errorf("inner store called while breaker open: %d calls, want %d", got, before)
	}
	if got := store.BreakerState(); got != "open" {
		t.Errorf("BreakerState() = %q, want open", got)
	}
}

func TestNew_NormalizesConfig(t *testing.T) {
	t.Parallel()

	store := resilience.New(memory.NewProposalStore(),
		resilience.WithMaxConcurrent(-1),
		resilience.WithBreaker(0, time.Second),
		resilience.WithReadRetry(0, 0),
		resilience.WithTimeout(0),
	)
	cfg := store.Config()
	def := resilience.DefaultConfig()
	if cfg.MaxConcurrent != def.MaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", cfg.MaxConcurrent, def.MaxConcurrent)
	}
	if cfg.BreakerThreshold != def.BreakerThreshold {
		t.Errorf("BreakerThreshold = %d, want %d", cfg.BreakerThreshold, def.BreakerThreshold)
	}
	if cfg.ReadAttempts != 1 {
		t.Errorf("ReadAttempts = %d, want 1", cfg.ReadAttempts)
	}

	if _, err := store.List(context.Background(), proposal.ListFilter{}); err != nil {
		t.Errorf("List() error = %v", err)
	}
}
