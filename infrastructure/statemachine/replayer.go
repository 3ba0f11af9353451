package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// Replayer rebuilds proposal status from approval history using the
// statechart. It is safe for concurrent use; each replay runs its own
// interpreter.
type Replayer struct {
	machine *statekit.MachineConfig[*Context]
}

// NewReplayer builds the proposal machine and returns a replayer for it.
func NewReplayer() (*Replayer, error) {
	machine, err := NewProposalMachine()
	if err != nil {
		return nil, fmt.Errorf("build proposal machine: %w", err)
	}
	return &Replayer{machine: machine}, nil
}

// Replay applies every record from draft and returns the reached status.
func (r *Replayer) Replay(history []proposal.AuditRecord) (proposal.Status, error) {
	interp := NewInterpreter(r.machine, NewContext())
	interp.Start()
	defer interp.Stop()

	for idx, rec := range history {
		if err := interp.Apply(rec); err != nil {
			return "", fmt.Errorf("record %d: %w", idx, err)
		}
	}
	return interp.State(), nil
}

// Verify checks that p's history replays to its stored status. A deleted
// proposal must replay to a status it could have been deleted from.
func (r *Replayer) Verify(p *proposal.Proposal) error {
	if p == nil {
		return proposal.ErrInvalidProposal
	}
	reached, err := r.Replay(p.ApprovalHistory)
	if err != nil {
		return err
	}
	if p.Status == proposal.StatusDeleted {
		return r.deleteFrom(reached)
	}
	if reached != p.Status {
		return fmt.Errorf("%w: history replays to %s, stored status is %s",
			proposal.ErrHistoryCorrupt, reached, p.Status)
	}
	return nil
}

func (r *Replayer) deleteFrom(from proposal.Status) error {
	interp := NewInterpreter(r.machine, NewContext())
	interp.Start()
	defer interp.Stop()

	if err := interp.ResumeFrom(from); err != nil {
		return err
	}
	return interp.Delete()
}
