package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/logging"
)

// InboxEmitter stores notifications in an inbox.
type InboxEmitter struct {
	inbox notification.Inbox
}

// NewInboxEmitter creates an emitter that writes to inbox.
func NewInboxEmitter(inbox notification.Inbox) *InboxEmitter {
	return &InboxEmitter{inbox: inbox}
}

// Emit adds n to the inbox.
func (e *InboxEmitter) Emit(ctx context.Context, n *notification.Notification) error {
	return e.inbox.Add(ctx, n)
}

// LogEmitter writes notifications to a structured log.
type LogEmitter struct {
	logger *bolt.Logger
}

// NewLogEmitter creates a log emitter. A nil logger uses logging.Get().
func NewLogEmitter(logger *bolt.Logger) *LogEmitter {
	if logger == nil {
		logger = logging.Get()
	}
	return &LogEmitter{logger: logger}
}

// Emit logs n at info level.
func (e *LogEmitter) Emit(_ context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	logging.NewEvent(e.logger.Info()).With(
		logging.Component("notification"),
		logging.NotificationType(string(n.Type)),
		logging.Recipient(n.RecipientID),
		logging.ProposalID(n.ProposalID),
		logging.ProposalCode(n.ProposalCode),
		logging.Str("from", n.From.ID),
	).Msg(n.Title)
	return nil
}

// MultiEmitter hands each notification to every child in order.
// Every child is attempted; failures are joined.
type MultiEmitter struct {
	emitters []notification.Emitter
}

// NewMultiEmitter creates a fan-out emitter. Nil children are skipped.
func NewMultiEmitter(emitters ...notification.Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Len returns the number of children.
func (m *MultiEmitter) Len() int {
	return len(m.emitters)
}

// Emit delivers n to every child.
func (m *MultiEmitter) Emit(ctx context.Context, n *notification.Notification) error {
	var errs []error
	for i, e := range m.emitters {
		if err := e.Emit(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("emitter %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

var (
	_ notification.Emitter = (*InboxEmitter)(nil)
	_ notification.Emitter = (*LogEmitter)(nil)
	_ notification.Emitter = (*MultiEmitter)(nil)
)
