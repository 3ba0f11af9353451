package notification

import "errors"

// Domain errors for notification operations.
var (
	// ErrEndpointUnavailable indicates the webhook endpoint is not reachable.
	ErrEndpointUnavailable = errors.New("webhook endpoint unavailable")

	// ErrEndpointRejected indicates the endpoint rejected the notification.
	ErrEndpointRejected = errors.New("webhook endpoint rejected notification")

	// ErrEmitterClosed indicates the emitter has been closed.
	ErrEmitterClosed = errors.New("emitter is closed")

	// ErrInvalidEndpoint indicates the endpoint configuration is invalid.
	ErrInvalidEndpoint = errors.New("invalid endpoint configuration")

	// ErrInvalidNotification indicates a notification without a recipient or proposal.
	ErrInvalidNotification = errors.New("invalid notification")

	// ErrNotificationNotFound indicates the notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrSigningFailed indicates payload signing failed.
	ErrSigningFailed = errors.New("payload signing failed")
)

// Validate checks the fields every emitter relies on.
func (n *Notification) Validate() error {
	if n == nil || n.ID == "" || n.RecipientID == "" || n.ProposalID == "" || n.Type == "" {
		return ErrInvalidNotification
	}
	return nil
}
