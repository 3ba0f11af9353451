package proposal

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
)

// Proposal is the aggregate governed by the approval workflow.
type Proposal struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Code is the human-readable reference assigned on first submission.
	Code string `json:"code,omitempty"`

	// Title is a human-readable summary.
	Title string `json:"title"`

	// Status is the current workflow status.
	Status Status `json:"status"`

	// Author owns editing rights while the proposal is editable.
	Author identity.User `json:"author"`

	// ApprovalHistory is the append-only audit trail.
	ApprovalHistory []AuditRecord `json:"approval_history"`

	// SentToClient is set the first time the proposal is submitted to the client.
	SentToClient bool `json:"sent_to_client"`

	// ClientEmail is the address the proposal was last submitted to.
	ClientEmail string `json:"client_email,omitempty"`

	// Version is the optimistic concurrency token.
	Version int64 `json:"version"`

	// CreatedAt is when the proposal was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the proposal was last saved.
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditRecord is one immutable entry of the approval history.
type AuditRecord struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Action is the past-tense action name.
	Action AuditAction `json:"action"`

	// By is the user who took the action.
	By identity.User `json:"by"`

	// To is the counterpart the action targets, if any.
	To *identity.User `json:"to,omitempty"`

	// Comment is the trimmed free-text comment.
	Comment string `json:"comment,omitempty"`

	// ClientEmail is the client address for client submissions.
	ClientEmail string `json:"client_email,omitempty"`

	// OnBehalfOfClient marks decisions recorded by an internal user for the client.
	OnBehalfOfClient bool `json:"on_behalf_of_client,omitempty"`

	// Timestamp is when the action was taken.
	Timestamp time.Time `json:"timestamp"`

	// PreviousStatus is the status held immediately before this record.
	PreviousStatus Status `json:"previous_status"`
}

// Inputs carries the optional values an action may require.
type Inputs struct {
	// Comment is free text explaining the decision.
	Comment string

	// Manager is the resolved target manager for submissions.
	Manager *identity.User

	// ClientEmail is the client address for client submissions.
	ClientEmail string
}

// Patch is the set of changes a successful transition makes.
type Patch struct {
	// Status is the new status.
	Status Status `json:"status"`

	// Record is appended to the approval history.
	Record AuditRecord `json:"record"`

	// Code is set only when the proposal has no code yet.
	Code *string `json:"code,omitempty"`

	// SentToClient is set only on the first client submission.
	SentToClient *bool `json:"sent_to_client,omitempty"`

	// ClientEmail is set on client submissions.
	ClientEmail *string `json:"client_email,omitempty"`

	// UpdatedAt is the save time.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProposal creates a draft proposal owned by author.
func NewProposal(title string, author identity.User) *Proposal {
	now := time.Now().UTC()
	return &Proposal{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(title),
		Status:          StatusDraft,
		Author:          author,
		ApprovalHistory: []AuditRecord{},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks that the proposal can be stored.
func (p *Proposal) Validate() error {
	if p.ID == "" || p.Title == "" || p.Author.ID == "" || !p.Status.IsValid() {
		return ErrInvalidProposal
	}
	return nil
}

// Clone returns a deep copy.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.ApprovalHistory = make([]AuditRecord, len(p.ApprovalHistory))
	for i, r := range p.ApprovalHistory {
		cp.ApprovalHistory[i] = r.clone()
	}
	return &cp
}

func (r AuditRecord) clone() AuditRecord {
	if r.To != nil {
		to := *r.To
		r.To = &to
	}
	return r
}

// Applied returns a copy of the proposal with the patch applied and the
// version advanced. The receiver is not modified.
func (p *Proposal) Applied(patch Patch) *Proposal {
	next := p.Clone()
	next.Status = patch.Status
	next.ApprovalHistory = append(next.ApprovalHistory, patch.Record.clone())
	if patch.Code != nil && next.Code == "" {
		next.Code = *patch.Code
	}
	if patch.SentToClient != nil && *patch.SentToClient {
		next.SentToClient = true
	}
	if patch.ClientEmail != nil {
		next.ClientEmail = *patch.ClientEmail
	}
	if !patch.UpdatedAt.IsZero() {
		next.UpdatedAt = patch.UpdatedAt
	}
	next.Version = p.Version + 1
	return next
}

// LastRecord returns the most recent audit record, if any.
func (p *Proposal) LastRecord() (AuditRecord, bool) {
	if len(p.ApprovalHistory) == 0 {
		return AuditRecord{}, false
	}
	return p.ApprovalHistory[len(p.ApprovalHistory)-1], true
}
