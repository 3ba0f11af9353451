package proposal

import (
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// audience is who a notification type is addressed to.
type audience int

const (
	audienceNone audience = iota
	audienceCounterpart
	audienceAuthor
)

var audiences = map[proposal.AuditAction]audience{
	proposal.AuditSubmittedToManager: audienceCounterpart,
	proposal.AuditManagerApproved:    audienceAuthor,
	proposal.AuditManagerRejected:    audienceAuthor,
	proposal.AuditRevisionRequested:  audienceAuthor,
	proposal.AuditPutOnHold:          audienceAuthor,
	proposal.AuditClientApproved:     audienceAuthor,
	proposal.AuditClientRejected:     audienceAuthor,
	proposal.AuditSubmittedToClient:  audienceNone,
	proposal.AuditReopened:           audienceNone,
}

// Recipients returns the internal users to notify about rec. The author is
// notified of client decisions even when they recorded the decision.
func Recipients(p *proposal.Proposal, rec proposal.AuditRecord) []identity.User {
	var recipient identity.User
	switch audiences[rec.Action] {
	case audienceCounterpart:
		if rec.To == nil {
			return nil
		}
		recipient = *rec.To
	case audienceAuthor:
		recipient = p.Author
	default:
		return nil
	}

	if recipient.ID == "" {
		return nil
	}
	return []identity.User{recipient}
}

// NotificationType returns the notification type for an audit action.
func NotificationType(a proposal.AuditAction) notification.Type {
	return notification.Type(a)
}

// newNotification builds the notification for one recipient of rec.
func newNotification(id string, p *proposal.Proposal, rec proposal.AuditRecord, recipient identity.User, at time.Time) *notification.Notification {
	typ := NotificationType(rec.Action)
	title, message := Render(typ, p, rec)
	return &notification.Notification{
		ID:            id,
		Type:          typ,
		Title:         title,
		Message:       message,
		ProposalID:    p.ID,
		ProposalTitle: p.Title,
		ProposalCode:  p.Code,
		RecipientID:   recipient.ID,
		From: notification.Sender{
			ID:   rec.By.ID,
			Name: rec.By.Name,
			Role: string(rec.By.Role),
		},
		CreatedAt: at,
	}
}

// Replay rebuilds the notifications addressed to userID from the approval
// history of p, oldest first. Read state is not part of the history, so
// every replayed notification is unread. IDs are derived from the audit
// record so repeated replays agree.
func Replay(p *proposal.Proposal, userID string) []*notification.Notification {
	var result []*notification.Notification
	for _, rec := range p.ApprovalHistory {
		for _, r := range Recipients(p, rec) {
			if r.ID == userID {
				result = append(result, newNotification(rec.ID+"/"+r.ID, p, rec, r, rec.Timestamp))
			}
		}
	}
	return result
}
