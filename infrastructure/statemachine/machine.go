// Package statemachine provides the statekit model of the proposal lifecycle.
package statemachine

import (
	"strings"

	"github.com/felixgeelhaar/statekit"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// MachineID identifies the proposal statechart in snapshots.
const MachineID = "proposal"

// Context carries replay state through the state machine.
type Context struct {
	// Status mirrors the machine state.
	Status proposal.Status
	// Applied counts the records accepted so far.
	Applied int
	// Last is the most recently accepted record.
	Last *proposal.AuditRecord
}

// NewContext creates a context positioned at draft.
func NewContext() *Context {
	return &Context{Status: proposal.StatusDraft}
}

const (
	stateDraft           = statekit.StateID(proposal.StatusDraft)
	statePendingManager  = statekit.StateID(proposal.StatusPendingManager)
	stateManagerApproved = statekit.StateID(proposal.StatusManagerApproved)
	stateManagerRejected = statekit.StateID(proposal.StatusManagerRejected)
	stateRevisionsNeeded = statekit.StateID(proposal.StatusRevisionsNeeded)
	stateOnHold          = statekit.StateID(proposal.StatusOnHold)
	statePendingClient   = statekit.StateID(proposal.StatusPendingClient)
	stateClientApproved  = statekit.StateID(proposal.StatusClientApproved)
	stateClientRejected  = statekit.StateID(proposal.StatusClientRejected)
	stateDeleted         = statekit.StateID(proposal.StatusDeleted)
)

const (
	eventSubmitToManager = "SUBMIT_TO_MANAGER"
	eventManagerApprove  = "MANAGER_APPROVE"
	eventManagerReject   = "MANAGER_REJECT"
	eventRequestRevision = "REQUEST_REVISION"
	eventPutOnHold       = "PUT_ON_HOLD"
	eventSubmitToClient  = "SUBMIT_TO_CLIENT"
	eventClientApprove   = "CLIENT_APPROVE"
	eventClientReject    = "CLIENT_REJECT"
	eventReopen          = "REOPEN"

	// EventDelete is the soft delete applied outside the workflow.
	EventDelete statekit.EventType = "DELETE"
)

// NewProposalMachine creates the proposal lifecycle statechart. Every
// workflow transition is guarded so that a record is only accepted from
// the status it claims as its previous status.
func NewProposalMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context](MachineID).
		WithInitial(stateDraft).
		WithContext(NewContext()).
		WithAction("enter", syncStatus).
		WithAction("record", recordTransition).
		WithGuard("chained", guardChained).
		State(stateDraft).
			OnEntry("enter").
			On(eventSubmitToManager).Target(statePendingManager).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(stateRevisionsNeeded).
			OnEntry("enter").
			On(eventSubmitToManager).Target(statePendingManager).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(statePendingManager).
			OnEntry("enter").
			On(eventManagerApprove).Target(stateManagerApproved).Guard("chained").Do("record").
			On(eventManagerReject).Target(stateManagerRejected).Guard("chained").Do("record").
			On(eventRequestRevision).Target(stateRevisionsNeeded).Guard("chained").Do("record").
			On(eventPutOnHold).Target(stateOnHold).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(stateManagerApproved).
			OnEntry("enter").
			On(eventSubmitToClient).Target(statePendingClient).Guard("chained").Do("record").
			On(eventPutOnHold).Target(stateOnHold).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(statePendingClient).
			OnEntry("enter").
			On(eventClientApprove).Target(stateClientApproved).Guard("chained").Do("record").
			On(eventClientReject).Target(stateClientRejected).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(stateManagerRejected).
			OnEntry("enter").
			On(eventReopen).Target(stateDraft).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(stateClientRejected).
			OnEntry("enter").
			On(eventReopen).Target(stateDraft).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(stateOnHold).
			OnEntry("enter").
			On(eventReopen).Target(stateDraft).Guard("chained").Do("record").
			On(EventDelete).Target(stateDeleted).Do("record").
			Done().
		State(stateClientApproved).
			Final().
			OnEntry("enter").
			Done().
		State(stateDeleted).
			Final().
			OnEntry("enter").
			Done().
		Build()
}

// EventForAction returns the machine event for a workflow action.
func EventForAction(a proposal.Action) statekit.EventType {
	return statekit.EventType(strings.ToUpper(string(a)))
}

// StatusFromMachine converts a machine state ID to a proposal status.
func StatusFromMachine(id statekit.StateID) proposal.Status {
	return proposal.Status(id)
}

// syncStatus keeps the context status aligned with the entered state.
func syncStatus(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if payload, ok := event.Payload.(RecordPayload); ok {
		(*ctx).Status = payload.Destination
	}
}

// recordTransition counts the accepted record.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	payload, ok := event.Payload.(RecordPayload)
	if !ok {
		return
	}
	c.Status = payload.Destination
	c.Applied++
	if payload.Record != nil {
		r := *payload.Record
		c.Last = &r
	}
}

// guardChained accepts a record only if it was appended to the current status.
func guardChained(ctx *Context, event statekit.Event) bool {
	if ctx == nil {
		return false
	}
	payload, ok := event.Payload.(RecordPayload)
	if !ok || payload.Record == nil {
		return false
	}
	return payload.Record.PreviousStatus == ctx.Status
}
