package proposal

import "errors"

var (
	// ErrNotFound indicates the proposal was not found.
	ErrNotFound = errors.New("proposal not found")

	// ErrNotPermitted indicates the actor's role may not take the action in the current status.
	ErrNotPermitted = errors.New("action not permitted")

	// ErrMissingComment indicates the action requires a non-blank comment.
	ErrMissingComment = errors.New("comment required")

	// ErrInvalidManager indicates the selected manager is missing or lacks a manager role.
	ErrInvalidManager = errors.New("invalid manager selection")

	// ErrInvalidClientEmail indicates the client email is missing or malformed.
	ErrInvalidClientEmail = errors.New("invalid client email")

	// ErrConflict indicates the proposal changed since it was loaded.
	ErrConflict = errors.New("proposal was modified concurrently")

	// ErrProposalExists indicates a proposal with this ID already exists.
	ErrProposalExists = errors.New("proposal already exists")

	// ErrInvalidProposal indicates the proposal is invalid.
	ErrInvalidProposal = errors.New("invalid proposal")

	// ErrHistoryCorrupt indicates the approval history does not replay to the stored status.
	ErrHistoryCorrupt = errors.New("approval history is inconsistent")

	// ErrUnknownAction indicates an action name outside the known set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownStatus indicates a status name outside the known set.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrStoreUnavailable indicates the backing store failed.
	ErrStoreUnavailable = errors.New("proposal store unavailable")
)

// Code is a stable, machine-readable error code for API consumers.
type Code string

// Stable error codes.
const (
	CodeNotFound           Code = "not_found"
	CodeNotPermitted       Code = "not_permitted"
	CodeMissingComment     Code = "missing_comment"
	CodeInvalidManager     Code = "invalid_manager"
	CodeInvalidClientEmail Code = "invalid_client_email"
	CodeConflict           Code = "conflict"
	CodeHistoryCorrupt     Code = "history_corrupt"
	CodeInvalidProposal    Code = "invalid_proposal"
	CodeInternal           Code = "internal"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrNotFound, CodeNotFound},
	{ErrNotPermitted, CodeNotPermitted},
	{ErrUnknownAction, CodeNotPermitted},
	{ErrMissingComment, CodeMissingComment},
	{ErrInvalidManager, CodeInvalidManager},
	{ErrInvalidClientEmail, CodeInvalidClientEmail},
	{ErrConflict, CodeConflict},
	{ErrHistoryCorrupt, CodeHistoryCorrupt},
	{ErrInvalidProposal, CodeInvalidProposal},
	{ErrProposalExists, CodeInvalidProposal},
}

// ErrorCode maps an error to its stable code. Nil maps to "".
func ErrorCode(err error) Code {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
