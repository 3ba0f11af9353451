package identity

import (
	"errors"
	"testing"
)

func TestRole_Tiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role       Role
		privileged bool
		readOnly   bool
		author     bool
	}{
		{RoleAdmin, true, false, false},
		{RoleManager, true, false, false},
		{RoleResearcher, false, false, true},
		{RoleEditor, false, false, true},
		{RoleViewer, false, true, false},
		{Role("owner"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()
			if got := tt.role.IsPrivileged(); got != tt.privileged {
				t.Errorf("IsPrivileged() = %v, want %v", got, tt.privileged)
			}
			if got := tt.role.IsReadOnly(); got != tt.readOnly {
				t.Errorf("IsReadOnly() = %v, want %v", got, tt.readOnly)
			}
			if got := tt.role.CanAuthor(); got != tt.author {
				t.Errorf("CanAuthor() = %v, want %v", got, tt.author)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	t.Run("parses known roles case-insensitively", func(t *testing.T) {
		t.Parallel()
		r, err := ParseRole(" Manager ")
		if err != nil {
			t.Fatalf("ParseRole() error = %v", err)
		}
		if r != RoleManager {
			t.Errorf("ParseRole() = %v, want %v", r, RoleManager)
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		t.Parallel()
		_, err := ParseRole("owner")
		if !errors.Is(err, ErrUnknownRole) {
			t.Errorf("ParseRole() error = %v, want ErrUnknownRole", err)
		}
	})
}

func TestUser_DisplayName(t *testing.T) {
	t.Parallel()

	if got := (User{ID: "u1"}).DisplayName(); got != "u1" {
		t.Errorf("DisplayName() = %q, want %q", got, "u1")
	}
	if got := (User{ID: "u1", Name: "Ada"}).DisplayName(); got != "Ada" {
		t.Errorf("DisplayName() = %q, want %q", got, "Ada")
	}
}
