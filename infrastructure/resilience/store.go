package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// Store wraps a proposal store so an unhealthy backend fails fast.
//
// Only ErrStoreUnavailable counts against the breaker and is retried.
// Workflow errors such as ErrConflict or ErrNotFound pass through
// untouched. Writes are never retried: a Save that timed out may still
// have committed, and the caller's reload-and-retry handles that case.
type Store struct {
	inner    proposal.Store
	bulkhead bulkhead.Bulkhead[any]
	breaker  circuitbreaker.CircuitBreaker[any]
	retry    retry.Retry[any]
	timeout  time.Duration
	config   Config
}

var _ proposal.Store = (*Store)(nil)

// New wraps inner with the configured resilience patterns.
func New(inner proposal.Store, opts ...Option) *Store {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Ensure non-negative values for uint32 conversion (G115 fix)
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConfig().MaxConcurrent
		config.MaxConcurrent = maxConcurrent
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().BreakerThreshold
		config.BreakerThreshold = threshold
	}
	if config.ReadAttempts <= 0 {
		config.ReadAttempts = 1
	}

	return &Store{
		inner: inner,
		bulkhead: bulkhead.New[any](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[any](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[any](retry.Config{
			MaxAttempts:   config.ReadAttempts,
			InitialDelay:  config.ReadDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		timeout: config.Timeout,
		config:  config,
	}
}

// Create persists a new proposal.
func (s *Store) Create(ctx context.Context, p *proposal.Proposal) error {
	_, err := s.call(ctx, false, func(ctx context.Context) (any, error) {
		return nil, s.inner.Create(ctx, p)
	})
	return err
}

// Load retrieves a proposal by ID.
func (s *Store) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	v, err := s.call(ctx, true, func(ctx context.Context) (any, error) {
		return s.inner.Load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*proposal.Proposal), nil
}

// Save applies the patch if the stored version equals expectedVersion.
func (s *Store) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	_, err := s.call(ctx, false, func(ctx context.Context) (any, error) {
		return nil, s.inner.Save(ctx, id, patch, expectedVersion)
	})
	return err
}

// List returns proposals matching the filter.
func (s *Store) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	v, err := s.call(ctx, true, func(ctx context.Context) (any, error) {
		return s.inner.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*proposal.Proposal), nil
}

// BreakerState returns the circuit breaker state.
func (s *Store) BreakerState() string {
	return s.breaker.State().String()
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.config
}

// call runs fn under bulkhead, timeout and breaker, retrying reads.
func (s *Store) call(ctx context.Context, read bool, fn func(context.Context) (any, error)) (any, error) {
	var passthrough error
	guarded := func(ctx context.Context) (any, error) {
		passthrough = nil
		v, err := fn(ctx)
		if err != nil && !errors.Is(err, proposal.ErrStoreUnavailable) {
			passthrough = err
			return nil, nil
		}
		return v, err
	}

	v, err := s.bulkhead.Execute(ctx, func(ctx context.Context) (any, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return s.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			if read {
				return s.retry.Do(ctx, guarded)
			}
			return guarded(ctx)
		})
	})

	if passthrough != nil {
		return nil, passthrough
	}
	if err != nil {
		if !errors.Is(err, proposal.ErrStoreUnavailable) {
			err = errors.Join(proposal.ErrStoreUnavailable, err)
		}
		return nil, err
	}
	return v, nil
}
