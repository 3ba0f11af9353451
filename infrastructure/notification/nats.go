package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "workflow.notifications"

// Publisher is the subset of *nats.Conn the emitter needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSEmitter publishes each notification on <prefix>.<recipient>.
type NATSEmitter struct {
	pub    Publisher
	prefix string
}

// NewNATSEmitter creates an emitter over an existing publisher.
func NewNATSEmitter(pub Publisher, subjectPrefix string) *NATSEmitter {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubject
	}
	return &NATSEmitter{pub: pub, prefix: strings.TrimSuffix(subjectPrefix, ".")}
}

// ConnectNATS dials the server and returns an emitter bound to the
// connection. The caller closes the returned connection.
func ConnectNATS(url, subjectPrefix string, opts ...nats.Option) (*NATSEmitter, *nats.Conn, error) {
	opts = append([]nats.Option{nats.Name("proposal-workflow")}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATSEmitter(conn, subjectPrefix), conn, nil
}

// Subject returns the subject a notification is published on.
func (e *NATSEmitter) Subject(n *notification.Notification) string {
	return e.prefix + "." + subjectToken(n.RecipientID)
}

// Emit publishes n. The notification ID is sent as the message ID so
// JetStream streams can deduplicate redeliveries.
func (e *NATSEmitter) Emit(ctx context.Context, n *notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := nats.NewMsg(e.Subject(n))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, n.ID)
	msg.Header.Set("Notification-Type", string(n.Type))

	if err := e.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrEndpointUnavailable, err)
	}
	return nil
}

// subjectToken replaces characters NATS treats as separators or wildcards.
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}

var _ notification.Emitter = (*NATSEmitter)(nil)
