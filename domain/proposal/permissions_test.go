package proposal

import (
	"testing"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
)

func actionNames(ds []ActionDescriptor) []Action {
	out := make([]Action, len(ds))
	for i, d := range ds {
		out[i] = d.Action
	}
	return out
}

func equalActions(a, b []Action) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLegalActions_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		role   identity.Role
		want   []Action
	}{
		{StatusDraft, identity.RoleResearcher, []Action{ActionSubmitToManager}},
		{StatusDraft, identity.RoleEditor, []Action{ActionSubmitToManager}},
		{StatusDraft, identity.RoleManager, nil},
		{StatusRevisionsNeeded, identity.RoleResearcher, []Action{ActionSubmitToManager}},
		{StatusPendingManager, identity.RoleManager, []Action{
			ActionManagerApprove, ActionManagerReject, ActionRequestRevision, ActionPutOnHold,
		}},
		{StatusPendingManager, identity.RoleAdmin, []Action{
			ActionManagerApprove, ActionManagerReject, ActionRequestRevision, ActionPutOnHold,
		}},
		{StatusPendingManager, identity.RoleResearcher, nil},
		{StatusManagerApproved, identity.RoleManager, []Action{ActionPutOnHold}},
		{StatusManagerApproved, identity.RoleResearcher, []Action{ActionSubmitToClient}},
		{StatusPendingClient, identity.RoleResearcher, []Action{ActionClientApprove, ActionClientReject}},
		{StatusPendingClient, identity.RoleAdmin, nil},
		{StatusManagerRejected, identity.RoleResearcher, []Action{ActionReopen}},
		{StatusClientRejected, identity.RoleEditor, []Action{ActionReopen}},
		{StatusOnHold, identity.RoleResearcher, []Action{ActionReopen}},
		{StatusOnHold, identity.RoleManager, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.role), func(t *testing.T) {
			t.Parallel()
			got := actionNames(LegalActions(tt.status, tt.role))
			if !equalActions(got, tt.want) {
				t.Errorf("LegalActions(%s, %s) = %v, want %v", tt.status, tt.role, got, tt.want)
			}
		})
	}
}

func TestLegalActions_ViewerNeverActs(t *testing.T) {
	t.Parallel()

	for _, s := range AllStatuses() {
		if got := LegalActions(s, identity.RoleViewer); len(got) != 0 {
			t.Errorf("LegalActions(%s, viewer) = %v, want empty", s, actionNames(got))
		}
	}
}

func TestLegalActions_TerminalStatusesAreReadOnly(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusClientApproved, StatusDeleted} {
		for _, r := range identity.AllRoles() {
			got := LegalActions(s, r)
			if got == nil {
				t.Errorf("LegalActions(%s, %s) returned nil, want empty slice", s, r)
			}
			if len(got) != 0 {
				t.Errorf("LegalActions(%s, %s) = %v, want empty", s, r, actionNames(got))
			}
		}
	}
}

func TestLegalActions_OnlyKnownDestinations(t *testing.T) {
	t.Parallel()

	for _, s := range AllStatuses() {
		for _, r := range identity.AllRoles() {
			for _, d := range LegalActions(s, r) {
				want, ok := Describe(d.Action)
				if !ok {
					t.Fatalf("LegalActions(%s, %s) lists unknown action %s", s, r, d.Action)
				}
				if d.Destination != want.Destination || !d.Destination.IsValid() {
					t.Errorf("action %s destination = %s, want %s", d.Action, d.Destination, want.Destination)
				}
			}
		}
	}
}

func TestLegalActions_CommentRequirements(t *testing.T) {
	t.Parallel()

	requires := map[Action]bool{
		ActionManagerReject:   true,
		ActionRequestRevision: true,
		ActionPutOnHold:       true,
		ActionClientReject:    true,
	}
	for _, s := range AllStatuses() {
		for _, r := range identity.AllRoles() {
			for _, d := range LegalActions(s, r) {
				if d.RequiresComment != requires[d.Action] {
					t.Errorf("%s in %s: RequiresComment = %v, want %v", d.Action, s, d.RequiresComment, requires[d.Action])
				}
			}
		}
	}
}

func TestLegalActions_ReturnsFreshSlice(t *testing.T) {
	t.Parallel()

	first := LegalActions(StatusPendingManager, identity.RoleManager)
	first[0].Action = ActionReopen

	second := LegalActions(StatusPendingManager, identity.RoleManager)
	if second[0].Action != ActionManagerApprove {
		t.Errorf("table was mutated through returned slice: got %s", second[0].Action)
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		action Action
		want   bool
	}{
		{StatusDraft, ActionSubmitToManager, true},
		{StatusPendingManager, ActionPutOnHold, true},
		{StatusManagerApproved, ActionPutOnHold, true},
		{StatusManagerApproved, ActionSubmitToClient, true},
		{StatusOnHold, ActionReopen, true},
		{StatusDraft, ActionReopen, false},
		{StatusClientApproved, ActionReopen, false},
		{StatusDeleted, ActionSubmitToManager, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.status, tt.action); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.status, tt.action, got, tt.want)
		}
	}
}
