package proposal

import (
	"fmt"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

var titles = map[notification.Type]string{
	notification.TypeSubmittedToManager: "Proposal submitted for review",
	notification.TypeManagerApproved:    "Proposal approved",
	notification.TypeManagerRejected:    "Proposal rejected",
	notification.TypeRevisionRequested:  "Revision requested",
	notification.TypePutOnHold:          "Proposal on hold",
	notification.TypeSubmittedToClient:  "Proposal sent to client",
	notification.TypeClientApproved:     "Client approved proposal",
	notification.TypeClientRejected:     "Client rejected proposal",
	notification.TypeReopened:           "Proposal reopened",
}

// Render returns the title and message for a notification about rec.
func Render(t notification.Type, p *proposal.Proposal, rec proposal.AuditRecord) (string, string) {
	title, ok := titles[t]
	if !ok {
		title = "Proposal updated"
	}

	ref := fmt.Sprintf("%q", p.Title)
	if p.Code != "" {
		ref += " (" + p.Code + ")"
	}
	actor := rec.By.DisplayName()

	var msg string
	switch t {
	case notification.TypeSubmittedToManager:
		msg = fmt.Sprintf("%s submitted %s for your review.", actor, ref)
	case notification.TypeManagerApproved:
		msg = fmt.Sprintf("%s approved %s.", actor, ref)
	case notification.TypeManagerRejected:
		msg = fmt.Sprintf("%s rejected %s.", actor, ref)
	case notification.TypeRevisionRequested:
		msg = fmt.Sprintf("%s requested changes to %s.", actor, ref)
	case notification.TypePutOnHold:
		msg = fmt.Sprintf("%s put %s on hold.", actor, ref)
	case notification.TypeSubmittedToClient:
		msg = fmt.Sprintf("%s sent %s to %s.", actor, ref, rec.ClientEmail)
	case notification.TypeClientApproved:
		msg = fmt.Sprintf("%s recorded the client's approval of %s.", actor, ref)
	case notification.TypeClientRejected:
		msg = fmt.Sprintf("%s recorded the client's rejection of %s.", actor, ref)
	case notification.TypeReopened:
		msg = fmt.Sprintf("%s reopened %s.", actor, ref)
	default:
		msg = fmt.Sprintf("%s updated %s.", actor, ref)
	}

	if rec.Comment != "" {
		msg += " Comment: " + rec.Comment
	}
	return title, msg
}
