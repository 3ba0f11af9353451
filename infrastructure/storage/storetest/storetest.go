// Package storetest provides a conformance suite for proposal.Store implementations.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) proposal.Store

var (
	author  = identity.User{ID: "author-1", Name: "Rita", Role: identity.RoleResearcher}
	manager = identity.User{ID: "manager-1", Name: "Max", Role: identity.RoleManager}
)

// NewProposal returns a valid draft with a deterministic creation time.
func NewProposal(id string, createdAt time.Time) *proposal.Proposal {
	p := proposal.NewProposal("Proposal "+id, author)
	p.ID = id
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = createdAt.UTC()
	return p
}

// SubmitPatch returns the patch for submitting p to a manager.
func SubmitPatch(t *testing.T, p *proposal.Proposal) proposal.Patch {
	t.Helper()
	m := manager
	res, err := proposal.NewTransitioner().Apply(p, proposal.ActionSubmitToManager, author, proposal.Inputs{Manager: &m})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return res.Patch
}

// Run executes the conformance suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and load", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p := NewProposal("p-1", time.Now())

		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := store.Load(ctx, "p-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Title != p.Title || got.Status != proposal.StatusDraft || got.Author.ID != author.ID {
			t.Errorf("Load() = %+v, want %+v", got, p)
		}
		if got.Version != 1 {
			t.Errorf("Version = %d, want 1", got.Version)
		}
		if got.Author.Role != identity.RoleResearcher {
			t.Errorf("Author.Role = %s, want researcher", got.Author.Role)
		}
	})

	t.Run("create rejects duplicates", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p := NewProposal("p-dup", time.Now())

		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := store.Create(ctx, p); !errors.Is(err, proposal.ErrProposalExists) {
			t.Errorf("Create() error = %v, want ErrProposalExists", err)
		}
	})

	t.Run("create rejects invalid proposals", func(t *testing.T) {
		store := newStore(t)
		p := NewProposal("", time.Now())
		if err := store.Create(context.Background(), p); !errors.Is(err, proposal.ErrInvalidProposal) {
			t.Errorf("Create() error = %v, want ErrInvalidProposal", err)
		}
	})

	t.Run("load missing", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, proposal.ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("save applies patch", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p := NewProposal("p-save", time.Now())
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		patch := SubmitPatch(t, p)
		if err := store.Save(ctx, p.ID, patch, p.Version); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load(ctx, p.ID)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Status != proposal.StatusPendingManager {
			t.Errorf("Status = %s, want pending_manager", got.Status)
		}
		if got.Version != 2 {
			t.Errorf("Version = %d, want 2", got.Version)
		}
		if got.Code == "" || got.Code != *patch.Code {
			t.Errorf("Code = %q, want %q", got.Code, *patch.Code)
		}
		if len(got.ApprovalHistory) != 1 {
			t.Fatalf("history length = %d, want 1", len(got.ApprovalHistory))
		}
		rec := got.ApprovalHistory[0]
		if rec.Action != proposal.AuditSubmittedToManager || rec.PreviousStatus != proposal.StatusDraft {
			t.Errorf("record = %+v", rec)
		}
		if rec.To == nil || rec.To.ID != manager.ID {
			t.Errorf("record.To = %v, want manager", rec.To)
		}
		if err := proposal.VerifyHistory(got); err != nil {
			t.Errorf("VerifyHistory() error = %v", err)
		}
	})

	t.Run("save rejects stale version", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p := NewProposal("p-stale", time.Now())
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := store.Save(ctx, p.ID, SubmitPatch(t, p), p.Version+1); !errors.Is(err, proposal.ErrConflict) {
			t.Fatalf("Save() error = %v, want ErrConflict", err)
		}
		got, err := store.Load(ctx, p.ID)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Status != proposal.StatusDraft || len(got.ApprovalHistory) != 0 || got.Version != 1 {
			t.Errorf("rejected save changed the proposal: %+v", got)
		}
	})

	t.Run("save missing", func(t *testing.T) {
		store := newStore(t)
		p := NewProposal("p-missing", time.Now())
		if err := store.Save(context.Background(), p.ID, SubmitPatch(t, p), 1); !errors.Is(err, proposal.ErrNotFound) {
			t.Errorf("Save() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("concurrent saves from the same version", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p := NewProposal("p-race", time.Now())
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			patch := SubmitPatch(t, p)
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Save(ctx, p.ID, patch, p.Version)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, proposal.ErrConflict):
					conflicts++
				default:
					t.Errorf("Save() unexpected error = %v", err)
				}
			}()
		}
		wg.Wait()

		if succeeded != 1 || conflicts != writers-1 {
			t.Errorf("succeeded = %d, conflicts = %d; want 1 and %d", succeeded, conflicts, writers-1)
		}
		got, err := store.Load(ctx, p.ID)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got.ApprovalHistory) != 1 || got.Version != 2 {
			t.Errorf("history = %d, version = %d; want 1 and 2", len(got.ApprovalHistory), got.Version)
		}
	})

	t.Run("list filters and pages", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			p := NewProposal(fmt.Sprintf("p-%d", i), base.Add(time.Duration(i)*time.Hour))
			if err := store.Create(ctx, p); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if i%2 == 0 {
				if err := store.Save(ctx, p.ID, SubmitPatch(t, p), p.Version); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}
		}

		pending, err := store.List(ctx, proposal.ListFilter{Status: []proposal.Status{proposal.StatusPendingManager}})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(pending) != 3 {
			t.Errorf("List(pending) returned %d, want 3", len(pending))
		}

		page, err := store.List(ctx, proposal.ListFilter{Offset: 1, Limit: 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(page) != 2 || page[0].ID != "p-1" || page[1].ID != "p-2" {
			ids := make([]string, len(page))
			for i, p := range page {
				ids[i] = p.ID
			}
			t.Errorf("List(offset 1, limit 2) = %v, want [p-1 p-2]", ids)
		}

		byAuthor, err := store.List(ctx, proposal.ListFilter{AuthorID: "someone-else"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(byAuthor) != 0 {
			t.Errorf("List(author) returned %d, want 0", len(byAuthor))
		}
	})

	t.Run("delete refuses terminal proposals", func(t *testing.T) {
		store := newStore(t)
		deleter, ok := store.(proposal.Deleter)
		if !ok {
			t.Skip("store does not support deletion")
		}
		ctx := context.Background()
		base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

		draft := NewProposal("draft", base)
		if err := store.Create(ctx, draft); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := deleter.Delete(ctx, draft.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := deleter.Delete(ctx, draft.ID); !errors.Is(err, proposal.ErrNotPermitted) {
			t.Errorf("second Delete() error = %v, want ErrNotPermitted", err)
		}
		got, err := store.Load(ctx, draft.ID)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Status != proposal.StatusDeleted || got.Version != 2 {
			t.Errorf("status = %s, version = %d; want deleted and 2", got.Status, got.Version)
		}

		approved := NewProposal("approved", base.Add(time.Hour))
		if err := store.Create(ctx, approved); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		m := manager
		steps := []struct {
			action proposal.Action
			actor  identity.User
			in     proposal.Inputs
		}{
			{proposal.ActionSubmitToManager, author, proposal.Inputs{Manager: &m}},
			{proposal.ActionManagerApprove, manager, proposal.Inputs{}},
			{proposal.ActionSubmitToClient, author, proposal.Inputs{ClientEmail: "buyer@example.com"}},
			{proposal.ActionClientApprove, author, proposal.Inputs{}},
		}
		tr := proposal.NewTransitioner()
		for _, step := range steps {
			current, err := store.Load(ctx, approved.ID)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			res, err := tr.Apply(current, step.action, step.actor, step.in)
			if err != nil {
				t.Fatalf("Apply(%s) error = %v", step.action, err)
			}
			if err := store.Save(ctx, current.ID, res.Patch, current.Version); err != nil {
				t.Fatalf("Save(%s) error = %v", step.action, err)
			}
		}

		if err := deleter.Delete(ctx, approved.ID); !errors.Is(err, proposal.ErrNotPermitted) {
			t.Errorf("Delete(client_approved) error = %v, want ErrNotPermitted", err)
		}
		got, err = store.Load(ctx, approved.ID)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Status != proposal.StatusClientApproved || got.Version != 5 {
			t.Errorf("status = %s, version = %d; want client_approved and 5", got.Status, got.Version)
		}
	})
}
