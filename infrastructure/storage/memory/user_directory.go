package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
)

// UserDirectory is an in-memory implementation of identity.Directory.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]identity.User
}

// NewUserDirectory creates a directory holding users.
func NewUserDirectory(users ...identity.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]identity.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Lookup returns the user with the given ID.
func (d *UserDirectory) Lookup(ctx context.Context, id string) (identity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return identity.User{}, fmt.Errorf("%w: %s", identity.ErrUserNotFound, id)
	}
	return u, nil
}

// Put adds or replaces a user.
func (d *UserDirectory) Put(u identity.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// Replace swaps the whole user set, as done on configuration reload.
func (d *UserDirectory) Replace(users []identity.User) {
	next := make(map[string]identity.User, len(users))
	for _, u := range users {
		next[u.ID] = u
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = next
}

// List returns all users ordered by ID.
func (d *UserDirectory) List() []identity.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]identity.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ identity.Directory = (*UserDirectory)(nil)
