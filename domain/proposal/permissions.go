package proposal

import "github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"

type tier int

const (
	tierAuthor tier = iota
	tierPrivileged
)

type permissionKey struct {
	status Status
	tier   tier
}

// permissions is the complete table. A missing key means no actions.
var permissions = map[permissionKey][]Action{
	{StatusDraft, tierAuthor}:           {ActionSubmitToManager},
	{StatusRevisionsNeeded, tierAuthor}: {ActionSubmitToManager},
	{StatusPendingManager, tierPrivileged}: {
		ActionManagerApprove,
		ActionManagerReject,
		ActionRequestRevision,
		ActionPutOnHold,
	},
	{StatusManagerApproved, tierPrivileged}: {ActionPutOnHold},
	{StatusManagerApproved, tierAuthor}:     {ActionSubmitToClient},
	{StatusPendingClient, tierAuthor}:       {ActionClientApprove, ActionClientReject},
	{StatusManagerRejected, tierAuthor}:     {ActionReopen},
	{StatusClientRejected, tierAuthor}:      {ActionReopen},
	{StatusOnHold, tierAuthor}:              {ActionReopen},
}

// LegalActions returns the ordered actions a role may take in a status.
// An empty result means the proposal is read-only for that role.
func LegalActions(status Status, role identity.Role) []ActionDescriptor {
	var t tier
	switch {
	case role.IsPrivileged():
		t = tierPrivileged
	case role.CanAuthor():
		t = tierAuthor
	default:
		return []ActionDescriptor{}
	}

	actions := permissions[permissionKey{status: status, tier: t}]
	result := make([]ActionDescriptor, 0, len(actions))
	for _, a := range actions {
		result = append(result, descriptors[a])
	}
	return result
}

// IsPermitted returns true if the role may take the action in the status.
func IsPermitted(status Status, role identity.Role, action Action) bool {
	for _, d := range LegalActions(status, role) {
		if d.Action == action {
			return true
		}
	}
	return false
}

// CanTransition returns true if any role may take the action in the status.
func CanTransition(status Status, action Action) bool {
	for key, actions := range permissions {
		if key.status != status {
			continue
		}
		for _, a := range actions {
			if a == action {
				return true
			}
		}
	}
	return false
}
