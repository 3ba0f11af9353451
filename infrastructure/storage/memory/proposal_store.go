// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// ProposalStore is an in-memory implementation of proposal.Store.
type ProposalStore struct {
	mu        sync.RWMutex
	proposals map[string]*proposal.Proposal
}

// NewProposalStore creates a new in-memory proposal store.
func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		proposals: make(map[string]*proposal.Proposal),
	}
}

// Create persists a new proposal.
func (s *ProposalStore) Create(ctx context.Context, p *proposal.Proposal) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proposals[p.ID]; exists {
		return proposal.ErrProposalExists
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

// Load retrieves a proposal by ID.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.proposals[id]
	if !exists {
		return nil, proposal.ErrNotFound
	}
	return p.Clone(), nil
}

// Save applies the patch if the stored version matches.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.proposals[id]
	if !exists {
		return proposal.ErrNotFound
	}
	if current.Version != expectedVersion {
		return proposal.ErrConflict
	}
	s.proposals[id] = current.Applied(patch)
	return nil
}

// List returns proposals matching the filter, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*proposal.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if filter.Matches(p) {
			results = append(results, p.Clone())
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	return filter.Page(results), nil
}

// Delete soft-deletes a proposal outside the workflow by setting its
// status to deleted. History is kept.
func (s *ProposalStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.proposals[id]
	if !exists {
		return proposal.ErrNotFound
	}
	if err := proposal.CheckDeletable(current.Status); err != nil {
		return err
	}
	next := current.Clone()
	next.Status = proposal.StatusDeleted
	next.Version++
	s.proposals[id] = next
	return nil
}

// Len returns the number of stored proposals.
func (s *ProposalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals)
}

var (
	_ proposal.Store   = (*ProposalStore)(nil)
	_ proposal.Deleter = (*ProposalStore)(nil)
)
