package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// ProposalStore is a Redis-backed implementation of proposal.Store.
//
// Each proposal is a JSON string at <prefix>proposal:<id>. A sorted set at
// <prefix>proposals indexes IDs by creation time, and every save pushes
// the audit record onto <prefix>audit:<id> in the same MULTI block.
type ProposalStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewProposalStore connects to Redis and returns a store.
func NewProposalStore(ctx context.Context, cfg Config, opts ...ConfigOption) (*ProposalStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}

	return NewProposalStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewProposalStoreFromClient creates a store from an existing client.
func NewProposalStoreFromClient(client redis.UniversalClient, keyPrefix string) *ProposalStore {
	return &ProposalStore{client: client, keyPrefix: keyPrefix}
}

func (s *ProposalStore) proposalKey(id string) string {
	return s.keyPrefix + "proposal:" + id
}

func (s *ProposalStore) auditKey(id string) string {
	return s.keyPrefix + "audit:" + id
}

func (s *ProposalStore) indexKey() string {
	return s.keyPrefix + "proposals"
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

	key := s.proposalKey(p.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return proposal.ErrProposalExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(p.CreatedAt.UnixNano()), Member: p.ID})
			return nil
		})
		return err
	}, key)
	return s.mapError(err, proposal.ErrProposalExists)
}

// Load retrieves a proposal by ID.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.proposalKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, proposal.ErrNotFound
		}
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return decode(data)
}

// Save applies the patch under WATCH. A concurrent write to the proposal
// key aborts the transaction and is reported as ErrConflict.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := s.proposalKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return proposal.ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := decode(data)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return proposal.ErrConflict
		}

		next, err := json.Marshal(current.Applied(patch))
		if err != nil {
			return err
		}
		rec, err := json.Marshal(patch.Record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			pipe.RPush(ctx, s.auditKey(id), rec)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return proposal.ErrConflict
	}
	return s.mapError(err, proposal.ErrNotFound, proposal.ErrConflict)
}

// List returns proposals matching the filter, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return []*proposal.Proposal{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.proposalKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}

	results := []*proposal.Proposal{}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		p, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		if filter.Matches(p) {
			results = append(results, p)
		}
	}
	return filter.Page(results), nil
}

// AuditLength returns the number of audit records pushed for a proposal.
func (s *ProposalStore) AuditLength(ctx context.Context, id string) (int64, error) {
	n, err := s.client.LLen(ctx, s.auditKey(id)).Result()
	if err != nil {
		return 0, errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close closes the client.
func (s *ProposalStore) Close() error {
	return s.client.Close()
}

// mapError passes through nil and the given domain errors, and joins
// anything else with ErrStoreUnavailable.
func (s *ProposalStore) mapError(err error, passthrough ...error) error {
	if err == nil {
		return nil
	}
	for _, p := range passthrough {
		if errors.Is(err, p) {
			return err
		}
	}
	return errors.Join(proposal.ErrStoreUnavailable, err)
}

func decode(data []byte) (*proposal.Proposal, error) {
	var p proposal.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return &p, nil
}

var _ proposal.Store = (*ProposalStore)(nil)
