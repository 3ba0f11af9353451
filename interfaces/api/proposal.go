// Package api provides the public API for the proposal workflow engine.
package api

import (
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	infraProposal "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/memory"
)

// Re-export proposal types for convenience.
type (
	// Proposal is a unit of work moving through the approval workflow.
	Proposal = proposal.Proposal
	// Status is a proposal lifecycle status.
	Status = proposal.Status
	// Action is a workflow action name.
	Action = proposal.Action
	// ActionDescriptor describes an action for presentation.
	ActionDescriptor = proposal.ActionDescriptor
	// AuditRecord is one entry of the approval history.
	AuditRecord = proposal.AuditRecord
	// ListFilter filters proposal queries.
	ListFilter = proposal.ListFilter
	// Store persists proposals.
	Store = proposal.Store
	// ErrorCode is a stable machine-readable error code.
	ErrorCode = proposal.Code

	// User is a directory user.
	User = identity.User
	// Role is a closed set of user roles.
	Role = identity.Role

	// Notification is a message for one recipient.
	Notification = notification.Notification

	// WorkflowService executes workflow actions.
	WorkflowService = infraProposal.WorkflowService
	// ExecuteInputs carries the per-action inputs.
	ExecuteInputs = infraProposal.ExecuteInputs
	// Outcome is the result of a successful Execute.
	Outcome = infraProposal.Outcome
	// WorkflowOption configures the workflow service.
	WorkflowOption = infraProposal.Option
)

// Statuses.
const (
	StatusDraft           = proposal.StatusDraft
	StatusPendingManager  = proposal.StatusPendingManager
	StatusManagerApproved = proposal.StatusManagerApproved
	StatusManagerRejected = proposal.StatusManagerRejected
	StatusRevisionsNeeded = proposal.StatusRevisionsNeeded
	StatusOnHold          = proposal.StatusOnHold
	StatusPendingClient   = proposal.StatusPendingClient
	StatusClientApproved  = proposal.StatusClientApproved
	StatusClientRejected  = proposal.StatusClientRejected
)

// Actions.
const (
	ActionSubmitToManager = proposal.ActionSubmitToManager
	ActionManagerApprove  = proposal.ActionManagerApprove
	ActionManagerReject   = proposal.ActionManagerReject
	ActionRequestRevision = proposal.ActionRequestRevision
	ActionPutOnHold       = proposal.ActionPutOnHold
	ActionSubmitToClient  = proposal.ActionSubmitToClient
	ActionClientApprove   = proposal.ActionClientApprove
	ActionClientReject    = proposal.ActionClientReject
	ActionReopen          = proposal.ActionReopen
)

// Workflow errors.
var (
	ErrNotFound           = proposal.ErrNotFound
	ErrNotPermitted       = proposal.ErrNotPermitted
	ErrMissingComment     = proposal.ErrMissingComment
	ErrInvalidManager     = proposal.ErrInvalidManager
	ErrInvalidClientEmail = proposal.ErrInvalidClientEmail
	ErrConflict           = proposal.ErrConflict
	ErrHistoryCorrupt     = proposal.ErrHistoryCorrupt
)

// CodeOf returns the stable code for err.
func CodeOf(err error) ErrorCode {
	return proposal.ErrorCode(err)
}

// LegalActions returns the actions a role may take in a status.
func LegalActions(status Status, role Role) []ActionDescriptor {
	return proposal.LegalActions(status, role)
}

// NewWorkflowService creates a workflow service.
func NewWorkflowService(store Store, directory identity.Directory, emitter notification.Emitter, opts ...WorkflowOption) *WorkflowService {
	return infraProposal.NewWorkflowService(store, directory, emitter, opts...)
}

// NewMemoryStore creates an in-memory proposal store.
func NewMemoryStore() *memory.ProposalStore {
	return memory.NewProposalStore()
}
