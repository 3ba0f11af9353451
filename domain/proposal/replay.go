package proposal

import "fmt"

// ReplayStatus folds the approval history from draft and returns the
// status it produces. Each record's PreviousStatus must match the status
// produced by the record before it.
func ReplayStatus(history []AuditRecord) (Status, error) {
	status := StatusDraft
	for i, r := range history {
		if r.PreviousStatus != status {
			return "", fmt.Errorf("%w: record %d expects %s, replay is at %s",
				ErrHistoryCorrupt, i, r.PreviousStatus, status)
		}
		action, ok := r.Action.ActionFor()
		if !ok {
			return "", fmt.Errorf("%w: record %d has unknown action %q", ErrHistoryCorrupt, i, r.Action)
		}
		status = action.Destination()
	}
	return status, nil
}

// VerifyHistory checks that the history replays to the proposal's status.
// Deleted proposals are checked up to the status they were deleted from.
func VerifyHistory(p *Proposal) error {
	got, err := ReplayStatus(p.ApprovalHistory)
	if err != nil {
		return err
	}
	if p.Status == StatusDeleted {
		return nil
	}
	if got != p.Status {
		return fmt.Errorf("%w: history replays to %s, stored status is %s", ErrHistoryCorrupt, got, p.Status)
	}
	return nil
}
