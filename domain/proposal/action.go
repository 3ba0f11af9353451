package proposal

// Action is a named request to move a proposal to another status.
type Action string

const (
	// ActionSubmitToManager sends a draft to a selected manager.
	ActionSubmitToManager Action = "submit_to_manager"

	// ActionManagerApprove approves a pending submission.
	ActionManagerApprove Action = "manager_approve"

	// ActionManagerReject rejects a pending submission.
	ActionManagerReject Action = "manager_reject"

	// ActionRequestRevision returns a submission to the author for changes.
	ActionRequestRevision Action = "request_revision"

	// ActionPutOnHold pauses a proposal.
	ActionPutOnHold Action = "put_on_hold"

	// ActionSubmitToClient sends an approved proposal to the client.
	ActionSubmitToClient Action = "submit_to_client"

	// ActionClientApprove records the client's approval on the client's behalf.
	ActionClientApprove Action = "client_approve"

	// ActionClientReject records the client's rejection on the client's behalf.
	ActionClientReject Action = "client_reject"

	// ActionReopen returns a rejected or held proposal to draft.
	ActionReopen Action = "reopen"
)

// AuditAction is the past-tense name stored in an audit record.
type AuditAction string

// Audit actions recorded in the approval history, one per Action.
const (
	// AuditSubmittedToManager records ActionSubmitToManager.
	AuditSubmittedToManager AuditAction = "submitted_to_manager"

	// AuditManagerApproved records ActionManagerApprove.
	AuditManagerApproved AuditAction = "manager_approved"

	// AuditManagerRejected records ActionManagerReject.
	AuditManagerRejected AuditAction = "manager_rejected"

	// AuditRevisionRequested records ActionRequestRevision.
	AuditRevisionRequested AuditAction = "revision_requested"

	// AuditPutOnHold records ActionPutOnHold.
	AuditPutOnHold AuditAction = "put_on_hold"

	// AuditSubmittedToClient records ActionSubmitToClient.
	AuditSubmittedToClient AuditAction = "submitted_to_client"

	// AuditClientApproved records ActionClientApprove.
	AuditClientApproved AuditAction = "client_approved"

	// AuditClientRejected records ActionClientReject.
	AuditClientRejected AuditAction = "client_rejected"

	// AuditReopened records ActionReopen.
	AuditReopened AuditAction = "reopened"
)

// ActionDescriptor describes an action and the inputs it requires.
type ActionDescriptor struct {
	// Action is the action name.
	Action Action `json:"action"`

	// Label is a human-readable button label.
	Label string `json:"label"`

	// RequiresComment indicates a non-blank comment must be supplied.
	RequiresComment bool `json:"requires_comment"`

	// RequiresManagerSelection indicates a target manager must be supplied.
	RequiresManagerSelection bool `json:"requires_manager_selection"`

	// RequiresClientEmail indicates a client email address must be supplied.
	RequiresClientEmail bool `json:"requires_client_email"`

	// OnBehalfOfClient indicates an internal user records a client decision.
	OnBehalfOfClient bool `json:"on_behalf_of_client,omitempty"`

	// Destination is the status the action always leads to.
	Destination Status `json:"destination"`

	// Audit is the name recorded in the approval history.
	Audit AuditAction `json:"audit"`
}

var descriptors = map[Action]ActionDescriptor{
	ActionSubmitToManager: {
		Action:                   ActionSubmitToManager,
		Label:                    "Submit to manager",
		RequiresManagerSelection: true,
		Destination:              StatusPendingManager,
		Audit:                    AuditSubmittedToManager,
	},
	ActionManagerApprove: {
		Action:      ActionManagerApprove,
		Label:       "Approve",
		Destination: StatusManagerApproved,
		Audit:       AuditManagerApproved,
	},
	ActionManagerReject: {
		Action:          ActionManagerReject,
		Label:           "Reject",
		RequiresComment: true,
		Destination:     StatusManagerRejected,
		Audit:           AuditManagerRejected,
	},
	ActionRequestRevision: {
		Action:          ActionRequestRevision,
		Label:           "Request revision",
		RequiresComment: true,
		Destination:     StatusRevisionsNeeded,
		Audit:           AuditRevisionRequested,
	},
	ActionPutOnHold: {
		Action:          ActionPutOnHold,
		Label:           "Put on hold",
		RequiresComment: true,
		Destination:     StatusOnHold,
		Audit:           AuditPutOnHold,
	},
	ActionSubmitToClient: {
		Action:              ActionSubmitToClient,
		Label:               "Submit to client",
		RequiresClientEmail: true,
		Destination:         StatusPendingClient,
		Audit:               AuditSubmittedToClient,
	},
	ActionClientApprove: {
		Action:           ActionClientApprove,
		Label:            "Record client approval",
		OnBehalfOfClient: true,
		Destination:      StatusClientApproved,
		Audit:            AuditClientApproved,
	},
	ActionClientReject: {
		Action:           ActionClientReject,
		Label:            "Record client rejection",
		RequiresComment:  true,
		OnBehalfOfClient: true,
		Destination:      StatusClientRejected,
		Audit:            AuditClientRejected,
	},
	ActionReopen: {
		Action:      ActionReopen,
		Label:       "Reopen",
		Destination: StatusDraft,
		Audit:       AuditReopened,
	},
}

// AllActions lists every action in a stable order.
func AllActions() []Action {
	return []Action{
		ActionSubmitToManager,
		ActionManagerApprove,
		ActionManagerReject,
		ActionRequestRevision,
		ActionPutOnHold,
		ActionSubmitToClient,
		ActionClientApprove,
		ActionClientReject,
		ActionReopen,
	}
}

// Describe returns the descriptor for an action.
func Describe(a Action) (ActionDescriptor, bool) {
	d, ok := descriptors[a]
	return d, ok
}

// IsValid returns true if the action is known.
func (a Action) IsValid() bool {
	_, ok := descriptors[a]
	return ok
}

// Destination returns the status the action leads to, or "" if unknown.
func (a Action) Destination() Status {
	return descriptors[a].Destination
}

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// ParseAction returns the action for a name, or ErrUnknownAction.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", ErrUnknownAction
	}
	return a, nil
}

// ActionFor returns the action that produced an audit entry.
func (a AuditAction) ActionFor() (Action, bool) {
	for _, d := range descriptors {
		if d.Audit == a {
			return d.Action, true
		}
	}
	return "", false
}

// String returns the audit action name.
func (a AuditAction) String() string {
	return string(a)
}
