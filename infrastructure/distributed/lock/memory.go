package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LeaseTable holds the leases of every MemoryLock created on it. Share
// one table between lockers to model several processes in one test.
type LeaseTable struct {
	mu     sync.Mutex
	leases map[string]lease
}

type lease struct {
	holder  string
	expires time.Time
}

// NewLeaseTable creates an empty lease table.
func NewLeaseTable() *LeaseTable {
	return &LeaseTable{leases: make(map[string]lease)}
}

// Len returns the number of stored leases, expired ones included.
func (t *LeaseTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.leases)
}

// MemoryLock is an in-process Locker.
type MemoryLock struct {
	table  *LeaseTable
	holder string
	retry  Retry
	now    func() time.Time
}

var _ Locker = (*MemoryLock)(nil)

// MemoryLockOption configures a MemoryLock.
type MemoryLockOption func(*MemoryLock)

// WithHolderID sets the holder ID.
func WithHolderID(id string) MemoryLockOption {
	return func(l *MemoryLock) { l.holder = id }
}

// WithLeaseTable shares a lease table between lockers.
func WithLeaseTable(t *LeaseTable) MemoryLockOption {
	return func(l *MemoryLock) { l.table = t }
}

// WithRetry sets how WithLock waits for a held lease.
func WithRetry(r Retry) MemoryLockOption {
	return func(l *MemoryLock) { l.retry = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryLockOption {
	return func(l *MemoryLock) { l.now = now }
}

// NewMemoryLock creates an in-memory locker with its own lease table.
func NewMemoryLock(opts ...MemoryLockOption) *MemoryLock {
	l := &MemoryLock{
		table:  NewLeaseTable(),
		holder: uuid.New().String(),
		retry:  DefaultRetry(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the holder ID.
func (l *MemoryLock) ID() string {
	return l.holder
}

// Acquire takes the lease on key for ttl. Expired leases are swept first.
func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.table.mu.Lock()
	defer l.table.mu.Unlock()

	now := l.now()
	for k, ls := range l.table.leases {
		if !ls.expires.After(now) {
			delete(l.table.leases, k)
		}
	}
	if _, held := l.table.leases[key]; held {
		return false, nil
	}
	l.table.leases[key] = lease{holder: l.holder, expires: now.Add(ttl)}
	return true, nil
}

// Release gives up the lease if this locker holds it.
func (l *MemoryLock) Release(_ context.Context, key string) error {
	l.table.mu.Lock()
	defer l.table.mu.Unlock()

	ls, ok := l.table.leases[key]
	if !ok || ls.holder != l.holder {
		return ErrLockNotHeld
	}
	delete(l.table.leases, key)
	return nil
}

// WithLock runs fn while holding key.
func (l *MemoryLock) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	return withLock(ctx, l, key, ttl, l.retry, fn)
}
