package proposal

import (
	"context"
	"fmt"
	"time"
)

// Store persists proposals with optimistic concurrency.
type Store interface {
	// Create persists a new proposal.
	Create(ctx context.Context, proposal *Proposal) error

	// Load retrieves a proposal by ID.
	Load(ctx context.Context, id string) (*Proposal, error)

	// Save applies the patch atomically if the stored version equals
	// expectedVersion, and returns ErrConflict otherwise. The status
	// change and the appended audit record are written together or not
	// at all.
	Save(ctx context.Context, id string, patch Patch, expectedVersion int64) error

	// List returns proposals matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*Proposal, error)
}

// ListFilter filters proposal queries.
type ListFilter struct {
	// Status filters by proposal status.
	Status []Status

	// AuthorID filters by author.
	AuthorID string

	// FromTime filters proposals created after this time.
	FromTime time.Time

	// ToTime filters proposals created before this time.
	ToTime time.Time

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// Matches returns true if the proposal passes the filter, ignoring paging.
func (f ListFilter) Matches(p *Proposal) bool {
	if len(f.Status) > 0 {
		found := false
		for _, s := range f.Status {
			if p.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.AuthorID != "" && p.Author.ID != f.AuthorID {
		return false
	}
	if !f.FromTime.IsZero() && p.CreatedAt.Before(f.FromTime) {
		return false
	}
	if !f.ToTime.IsZero() && p.CreatedAt.After(f.ToTime) {
		return false
	}
	return true
}

// Page applies offset and limit to an ordered result.
func (f ListFilter) Page(results []*Proposal) []*Proposal {
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			return []*Proposal{}
		}
		results = results[f.Offset:]
	}
	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}
	return results
}

// Deleter soft-deletes proposals. Deletion bypasses the workflow and is
// owned by the caller; deleted proposals accept no further actions.
type Deleter interface {
	// Delete sets the proposal status to deleted. Terminal proposals
	// return ErrNotPermitted and are left unchanged.
	Delete(ctx context.Context, id string) error
}

// CheckDeletable reports whether a proposal in status s may be deleted.
// Only non-terminal proposals can be.
func CheckDeletable(s Status) error {
	if s.IsTerminal() {
		return fmt.Errorf("%w: cannot delete a %s proposal", ErrNotPermitted, s)
	}
	return nil
}
