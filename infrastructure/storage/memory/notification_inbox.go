package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
)

// NotificationInbox is an in-memory implementation of notification.Inbox.
type NotificationInbox struct {
	mu          sync.RWMutex
	byRecipient map[string][]*notification.Notification
}

// NewNotificationInbox creates a new in-memory inbox.
func NewNotificationInbox() *NotificationInbox {
	return &NotificationInbox{
		byRecipient: make(map[string][]*notification.Notification),
	}
}

// Add stores a notification.
func (s *NotificationInbox) Add(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	s.byRecipient[n.RecipientID] = append(s.byRecipient[n.RecipientID], &cp)
	return nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *NotificationInbox) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byRecipient[recipientID]
	results := make([]*notification.Notification, 0, len(stored))
	for _, n := range stored {
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		results = append(results, &cp)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// MarkRead marks a notification as read.
func (s *NotificationInbox) MarkRead(ctx context.Context, recipientID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.byRecipient[recipientID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationInbox) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byRecipient[recipientID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

var _ notification.Inbox = (*NotificationInbox)(nil)
