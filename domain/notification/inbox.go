package notification

import "context"

// Inbox stores notifications for their recipients. Read state belongs
// to the inbox, not to the workflow that created the notification.
type Inbox interface {
	// Add stores a notification.
	Add(ctx context.Context, n *Notification) error

	// ListForRecipient returns a recipient's notifications, newest first.
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error)

	// MarkRead marks a notification as read.
	MarkRead(ctx context.Context, recipientID, id string) error

	// UnreadCount returns the number of unread notifications.
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}
