package identity

import "context"

// User is the read-only view of a user that the workflow needs.
type User struct {
	// ID is the unique user identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name,omitempty"`

	// Email is the user's email address.
	Email string `json:"email,omitempty"`

	// Role is the user's role.
	Role Role `json:"role"`
}

// DisplayName returns the name if set, otherwise the ID.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// Directory resolves users by identifier.
type Directory interface {
	// Lookup returns the user with the given ID.
	Lookup(ctx context.Context, id string) (User, error)
}
