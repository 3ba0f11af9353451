// Package proposal provides the proposal approval workflow model.
package proposal

// Status represents the lifecycle state of a proposal.
type Status string

const (
	// StatusDraft is the initial state for new proposals.
	StatusDraft Status = "draft"

	// StatusPendingManager indicates the proposal awaits a manager decision.
	StatusPendingManager Status = "pending_manager"

	// StatusManagerApproved indicates a manager approved the proposal.
	StatusManagerApproved Status = "manager_approved"

	// StatusManagerRejected indicates a manager rejected the proposal.
	StatusManagerRejected Status = "manager_rejected"

	// StatusRevisionsNeeded indicates a manager asked the author for changes.
	StatusRevisionsNeeded Status = "revisions_needed"

	// StatusOnHold indicates the proposal was paused by a manager.
	StatusOnHold Status = "on_hold"

	// StatusPendingClient indicates the proposal was sent to the client.
	StatusPendingClient Status = "pending_client"

	// StatusClientApproved indicates the client signed off. Terminal.
	StatusClientApproved Status = "client_approved"

	// StatusClientRejected indicates the client declined the proposal.
	StatusClientRejected Status = "client_rejected"

	// StatusDeleted indicates the proposal was soft-deleted outside the workflow. Terminal.
	StatusDeleted Status = "deleted"
)

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusPendingManager,
		StatusManagerApproved,
		StatusManagerRejected,
		StatusRevisionsNeeded,
		StatusOnHold,
		StatusPendingClient,
		StatusClientApproved,
		StatusClientRejected,
		StatusDeleted,
	}
}

// IsValid returns true if the status is known.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no action can leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusClientApproved || s == StatusDeleted
}

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// ParseStatus returns the status for a name, or ErrUnknownStatus.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrUnknownStatus
	}
	return st, nil
}
