package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// ProposalStore is a BadgerDB-backed implementation of proposal.Store.
//
// Badger transactions are serializable, so two saves that read the same
// proposal and both write it cannot both commit. The loser surfaces
// badger.ErrConflict, reported as proposal.ErrConflict.
type ProposalStore struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewProposalStore opens a database and returns a store.
func NewProposalStore(cfg Config, opts ...Option) (*ProposalStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := NewProposalStoreFromDB(db, cfg.KeyPrefix)
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// NewProposalStoreFromDB creates a store from an open database.
func NewProposalStoreFromDB(db *badger.DB, keyPrefix string) *ProposalStore {
	return &ProposalStore{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

func (s *ProposalStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for s.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

func (s *ProposalStore) proposalPrefix() []byte {
	return []byte(s.keyPrefix + "proposal:")
}

func (s *ProposalStore) proposalKey(id string) []byte {
	return []byte(s.keyPrefix + "proposal:" + id)
}

// auditKey orders records by sequence within a proposal.
func (s *ProposalStore) auditKey(id string, seq int) []byte {
	key := []byte(s.keyPrefix + "audit:" + id + ":")
	return binary.BigEndian.AppendUint32(key, uint32(seq))
}

// Create persists a new proposal.
func (s *ProposalStore) Create(ctx context.Context, p *proposal.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := s.proposalKey(p.ID)
		if _, err := txn.Get(key); err == nil {
			return proposal.ErrProposalExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	switch {
	case err == nil, errors.Is(err, proposal.ErrProposalExists):
		return err
	case errors.Is(err, badger.ErrConflict):
		return proposal.ErrProposalExists
	default:
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
}

// Load retrieves a proposal by ID.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *proposal.Proposal
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = s.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProposalStore) get(txn *badger.Txn, id string) (*proposal.Proposal, error) {
	item, err := txn.Get(s.proposalKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, proposal.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}

	var p proposal.Proposal
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return &p, nil
}

// Save applies the patch and appends its audit record in one transaction.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := s.get(txn, id)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return proposal.ErrConflict
		}

		next := current.Applied(patch)
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		rec, err := json.Marshal(patch.Record)
		if err != nil {
			return err
		}
		if err := txn.Set(s.proposalKey(id), data); err != nil {
			return err
		}
		return txn.Set(s.auditKey(id, len(next.ApprovalHistory)), rec)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return proposal.ErrConflict
	case errors.Is(err, proposal.ErrNotFound),
		errors.Is(err, proposal.ErrConflict),
		errors.Is(err, proposal.ErrStoreUnavailable):
		return err
	default:
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
}

// Delete marks a proposal deleted. The record is retained.
func (s *ProposalStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := s.get(txn, id)
		if err != nil {
			return err
		}
		if err := proposal.CheckDeletable(p.Status); err != nil {
			return err
		}
		p.Status = proposal.StatusDeleted
		p.Version++
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return txn.Set(s.proposalKey(id), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return proposal.ErrConflict
	}
	return err
}

// List returns proposals matching the filter, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []*proposal.Proposal{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := s.proposalPrefix()
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p proposal.Proposal
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("unmarshal proposal: %w", err)
			}
			if filter.Matches(&p) {
				results = append(results, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return filter.Page(results), nil
}

// AuditCount returns the number of audit records stored for a proposal.
func (s *ProposalStore) AuditCount(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(s.keyPrefix + "audit:" + id + ":")
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close stops garbage collection and closes the database.
func (s *ProposalStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()
		err = s.db.Close()
	})
	return err
}

var (
	_ proposal.Store   = (*ProposalStore)(nil)
	_ proposal.Deleter = (*ProposalStore)(nil)
)
