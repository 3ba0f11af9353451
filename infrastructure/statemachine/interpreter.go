package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// RecordPayload carries an audit record with a transition event.
type RecordPayload struct {
	Record      *proposal.AuditRecord
	Destination proposal.Status
}

// Interpreter wraps the statekit interpreter with proposal-specific functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the proposal state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	if ctx == nil {
		ctx = NewContext()
	}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Status = StatusFromMachine(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current status.
func (i *Interpreter) State() proposal.Status {
	return StatusFromMachine(i.interp.State().Value)
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// IsTerminal returns true if the interpreter is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks if the current state matches the given status.
func (i *Interpreter) Matches(status proposal.Status) bool {
	return i.interp.Matches(statekit.StateID(status))
}

// Apply feeds one audit record to the machine. The record must name a
// known action and chain onto the current status.
func (i *Interpreter) Apply(r proposal.AuditRecord) error {
	action, ok := r.Action.ActionFor()
	if !ok {
		return fmt.Errorf("%w: unknown action %q", proposal.ErrHistoryCorrupt, r.Action)
	}
	from := i.State()
	if r.PreviousStatus != from {
		return fmt.Errorf("%w: record %s expects %s, machine is at %s",
			proposal.ErrHistoryCorrupt, r.ID, r.PreviousStatus, from)
	}

	if !proposal.CanTransition(from, action) {
		return fmt.Errorf("%w: %s is not a transition out of %s", proposal.ErrHistoryCorrupt, r.Action, from)
	}

	to := action.Destination()
	// Send does not report rejected events, so check the outcome.
	i.interp.Send(statekit.Event{
		Type:    EventForAction(action),
		Payload: RecordPayload{Record: &r, Destination: to},
	})
	if got := i.State(); got != to {
		return fmt.Errorf("%w: %s is not a transition out of %s", proposal.ErrHistoryCorrupt, r.Action, from)
	}
	i.ctx.Status = to
	return nil
}

// Delete moves the machine to the deleted state.
func (i *Interpreter) Delete() error {
	from := i.State()
	if from.IsTerminal() {
		return fmt.Errorf("%w: cannot delete from %s", proposal.ErrHistoryCorrupt, from)
	}
	i.interp.Send(statekit.Event{
		Type:    EventDelete,
		Payload: RecordPayload{Destination: proposal.StatusDeleted},
	})
	if !i.Matches(proposal.StatusDeleted) {
		return fmt.Errorf("%w: cannot delete from %s", proposal.ErrHistoryCorrupt, from)
	}
	i.ctx.Status = proposal.StatusDeleted
	return nil
}

// ResumeFrom restores the interpreter to a specific status.
func (i *Interpreter) ResumeFrom(status proposal.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", proposal.ErrUnknownStatus, status)
	}
	i.ctx.Status = status
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    MachineID,
		CurrentState: statekit.StateID(status),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}
	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	return nil
}
