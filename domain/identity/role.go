// Package identity provides the user and role model consumed by the proposal workflow.
package identity

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles known to the workflow.
type Role string

const (
	// RoleAdmin has every privileged capability.
	RoleAdmin Role = "admin"

	// RoleManager reviews proposals submitted by authors.
	RoleManager Role = "manager"

	// RoleResearcher authors proposals.
	RoleResearcher Role = "researcher"

	// RoleEditor authors and edits proposals.
	RoleEditor Role = "editor"

	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"
)

// AllRoles lists all known roles in a stable order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleResearcher, RoleEditor, RoleViewer}
}

// IsValid returns true if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleResearcher, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// IsPrivileged returns true for roles allowed to take manager decisions.
func (r Role) IsPrivileged() bool {
	return r == RoleManager || r == RoleAdmin
}

// IsReadOnly returns true for roles that never receive workflow actions.
func (r Role) IsReadOnly() bool {
	return r == RoleViewer
}

// CanAuthor returns true if the role may create and submit proposals.
// Unknown roles never author.
func (r Role) CanAuthor() bool {
	return r.IsValid() && !r.IsPrivileged() && !r.IsReadOnly()
}

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}
