// Package lock provides per-proposal leases used to serialize workflow
// transitions across goroutines or processes.
package lock

import (
	"context"
	"errors"
	"time"
)

// Errors returned by lockers.
var (
	ErrLockNotHeld = errors.New("lock not held")
	ErrLockHeld    = errors.New("lock already held by another owner")
	ErrInvalidTTL  = errors.New("invalid TTL")
)

// Lock is a lease keyed by string. Leases are not reentrant.
type Lock interface {
	// Acquire takes the lease for ttl. It returns false without error
	// when someone else holds an unexpired lease on key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives up a lease held by this locker.
	Release(ctx context.Context, key string) error
}

// Locker is a Lock with an identity and a scoped helper.
type Locker interface {
	Lock

	// ID identifies the holder in stored leases.
	ID() string

	// WithLock runs fn while holding key, waiting for a held lease
	// according to the locker's retry policy. It returns ErrLockHeld if
	// the lease could not be taken in time.
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// ProposalKey returns the lock key for a proposal.
func ProposalKey(proposalID string) string {
	return "proposal:" + proposalID
}

// Retry controls how WithLock waits for a held lease.
type Retry struct {
	// Interval is the pause between attempts.
	Interval time.Duration
	// Attempts is the number of retries after the first try.
	Attempts int
}

// DefaultRetry waits up to about one second.
func DefaultRetry() Retry {
	return Retry{Interval: 50 * time.Millisecond, Attempts: 20}
}

// NoRetry fails immediately when the lease is held.
func NoRetry() Retry {
	return Retry{}
}

// AcquireWithRetry tries to acquire key, pausing between attempts.
func AcquireWithRetry(ctx context.Context, l Lock, key string, ttl time.Duration, r Retry) (bool, error) {
	for attempt := 0; ; attempt++ {
		ok, err := l.Acquire(ctx, key, ttl)
		if err != nil || ok {
			return ok, err
		}
		if attempt >= r.Attempts {
			return false, nil
		}

		t := time.NewTimer(r.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return false, ctx.Err()
		case <-t.C:
		}
	}
}

// withLock acquires key on l, runs fn, and releases the lease on a
// context detached from cancellation.
func withLock(ctx context.Context, l Lock, key string, ttl time.Duration, r Retry, fn func(ctx context.Context) error) error {
	ok, err := AcquireWithRetry(ctx, l, key, ttl, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	defer func() { _ = l.Release(context.WithoutCancel(ctx), key) }()

	return fn(ctx)
}
