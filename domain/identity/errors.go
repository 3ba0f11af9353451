package identity

import "errors"

var (
	// ErrUserNotFound indicates the user is not known to the directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownRole indicates a role name outside the closed role set.
	ErrUnknownRole = errors.New("unknown role")
)
