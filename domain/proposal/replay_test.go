package proposal

import (
	"errors"
	"testing"
)

func TestReplayStatus(t *testing.T) {
	t.Parallel()

	t.Run("empty history is draft", func(t *testing.T) {
		t.Parallel()
		got, err := ReplayStatus(nil)
		if err != nil || got != StatusDraft {
			t.Errorf("ReplayStatus(nil) = %s, %v; want draft, nil", got, err)
		}
	})

	t.Run("full lifecycle reconstructs status", func(t *testing.T) {
		t.Parallel()
		tr := fixedTransitioner()
		m := manager
		p := proposalIn(StatusDraft)
		for _, step := range []struct {
			a  Action
			in Inputs
		}{
			{ActionSubmitToManager, Inputs{Manager: &m}},
			{ActionManagerApprove, Inputs{}},
			{ActionSubmitToClient, Inputs{ClientEmail: "c@example.com"}},
			{ActionClientReject, Inputs{Comment: "too expensive"}},
			{ActionReopen, Inputs{}},
			{ActionSubmitToManager, Inputs{Manager: &m}},
		} {
			actor := researcher
			if step.a == ActionManagerApprove {
				actor = manager
			}
			res, err := tr.Apply(p, step.a, actor, step.in)
			if err != nil {
				t.Fatalf("Apply(%s) error = %v", step.a, err)
			}
			p = p.Applied(res.Patch)
		}

		got, err := ReplayStatus(p.ApprovalHistory)
		if err != nil {
			t.Fatalf("ReplayStatus() error = %v", err)
		}
		if got != p.Status {
			t.Errorf("ReplayStatus() = %s, want %s", got, p.Status)
		}
		if err := VerifyHistory(p); err != nil {
			t.Errorf("VerifyHistory() error = %v", err)
		}
	})

	t.Run("broken chain is reported", func(t *testing.T) {
		t.Parallel()
		history := []AuditRecord{
			{Action: AuditSubmittedToManager, PreviousStatus: StatusDraft},
			{Action: AuditClientApproved, PreviousStatus: StatusPendingClient},
		}
		if _, err := ReplayStatus(history); !errors.Is(err, ErrHistoryCorrupt) {
			t.Errorf("ReplayStatus() error = %v, want ErrHistoryCorrupt", err)
		}
	})

	t.Run("unknown action is reported", func(t *testing.T) {
		t.Parallel()
		history := []AuditRecord{{Action: "archived", PreviousStatus: StatusDraft}}
		if _, err := ReplayStatus(history); !errors.Is(err, ErrHistoryCorrupt) {
			t.Errorf("ReplayStatus() error = %v, want ErrHistoryCorrupt", err)
		}
	})
}

func TestVerifyHistory_StatusMismatch(t *testing.T) {
	t.Parallel()

	p := proposalIn(StatusManagerApproved)
	if err := VerifyHistory(p); !errors.Is(err, ErrHistoryCorrupt) {
		t.Errorf("VerifyHistory() error = %v, want ErrHistoryCorrupt", err)
	}

	p.Status = StatusDeleted
	if err := VerifyHistory(p); err != nil {
		t.Errorf("VerifyHistory() on deleted proposal error = %v, want nil", err)
	}
}
