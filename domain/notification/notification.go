// Package notification provides the notification model emitted by the proposal workflow.
package notification

import (
	"context"
	"time"
)

// Type identifies what happened to the proposal. Values mirror the
// audit action names of the approval history.
type Type string

// Notification types.
const (
	TypeSubmittedToManager Type = "submitted_to_manager"
	TypeManagerApproved    Type = "manager_approved"
	TypeManagerRejected    Type = "manager_rejected"
	TypeRevisionRequested  Type = "revision_requested"
	TypePutOnHold          Type = "put_on_hold"
	TypeSubmittedToClient  Type = "submitted_to_client"
	TypeClientApproved     Type = "client_approved"
	TypeClientRejected     Type = "client_rejected"
	TypeReopened           Type = "reopened"
)

// Sender identifies the user who caused the notification.
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Notification is a message for one recipient about one transition.
type Notification struct {
	// ID is a unique identifier.
	ID string `json:"id"`
	// Type is the kind of transition.
	Type Type `json:"type"`
	// Title is a short headline.
	Title string `json:"title"`
	// Message is the human-readable body.
	Message string `json:"message"`
	// ProposalID is the proposal the notification is about.
	ProposalID string `json:"proposal_id"`
	// ProposalTitle is a snapshot of the proposal title at emission time.
	ProposalTitle string `json:"proposal_title"`
	// ProposalCode is a snapshot of the proposal code, if assigned.
	ProposalCode string `json:"proposal_code,omitempty"`
	// RecipientID is the user the notification is addressed to.
	RecipientID string `json:"recipient_id"`
	// From is the user who took the action.
	From Sender `json:"from_user"`
	// Read starts false; toggling it belongs to the notification owner.
	Read bool `json:"read"`
	// CreatedAt is when the notification was created.
	CreatedAt time.Time `json:"created_at"`
}

// Emitter hands notifications to a store or transport.
type Emitter interface {
	// Emit stores or delivers a single notification.
	Emit(ctx context.Context, n *Notification) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, n *Notification) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

// Filter reports whether a notification should be delivered.
type Filter func(n *Notification) bool

// FilterByType returns a filter that only allows the given types.
func FilterByType(types ...Type) Filter {
	set := make(map[Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(n *Notification) bool {
		return set[n.Type]
	}
}

// Endpoint is a webhook endpoint configuration.
type Endpoint struct {
	// URL is the webhook endpoint URL.
	URL string `json:"url"`
	// Secret is the shared secret for HMAC signing.
	Secret string `json:"secret,omitempty"`
	// Headers are additional HTTP headers to include.
	Headers map[string]string `json:"headers,omitempty"`
	// Filter is an optional filter for this endpoint.
	Filter Filter `json:"-"`
	// Enabled indicates if this endpoint is active.
	Enabled bool `json:"enabled"`
	// Name is an optional friendly name for the endpoint.
	Name string `json:"name,omitempty"`
}
