package proposal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
)

// Result is the outcome of a successful transition.
type Result struct {
	// NewStatus is the destination status.
	NewStatus Status

	// Record is the audit record to append.
	Record AuditRecord

	// Patch holds every change the caller must persist.
	Patch Patch
}

// Transitioner computes transitions without side effects. Clock and
// identifier generation are injected so results are reproducible.
type Transitioner struct {
	now      func() time.Time
	newID    func() string
	newCode  func(p *Proposal, at time.Time) string
	validate *validator.Validate
}

// TransitionerOption configures a Transitioner.
type TransitionerOption func(*Transitioner)

// WithClock sets the time source.
func WithClock(now func() time.Time) TransitionerOption {
	return func(t *Transitioner) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIDGenerator sets the audit record ID generator.
func WithIDGenerator(gen func() string) TransitionerOption {
	return func(t *Transitioner) {
		if gen != nil {
			t.newID = gen
		}
	}
}

// WithCodeGenerator sets the proposal code generator.
func WithCodeGenerator(gen func(p *Proposal, at time.Time) string) TransitionerOption {
	return func(t *Transitioner) {
		if gen != nil {
			t.newCode = gen
		}
	}
}

// NewTransitioner creates a transitioner.
func NewTransitioner(opts ...TransitionerOption) *Transitioner {
	t := &Transitioner{
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
		newCode:  DefaultCode,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DefaultCode formats codes as PRP-YYYYMMDD-XXXXXX.
func DefaultCode(_ *Proposal, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("PRP-%s-%s", at.Format("20060102"), suffix)
}

// Apply validates the action against the proposal and computes the
// transition. The proposal is never modified.
//
// Checks run in a fixed order and the first failure wins: permission,
// comment, manager selection, client email.
func (t *Transitioner) Apply(p *Proposal, action Action, actor identity.User, in Inputs) (*Result, error) {
	if p == nil {
		return nil, ErrInvalidProposal
	}

	desc, ok := Describe(action)
	if !ok || !IsPermitted(p.Status, actor.Role, action) {
		return nil, fmt.Errorf("%w: %s from %s as %s", ErrNotPermitted, action, p.Status, actor.Role)
	}

	comment := strings.TrimSpace(in.Comment)
	if desc.RequiresComment && comment == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingComment, action)
	}

	var to *identity.User
	if desc.RequiresManagerSelection {
		if in.Manager == nil || !in.Manager.Role.IsPrivileged() {
			return nil, ErrInvalidManager
		}
		m := *in.Manager
		to = &m
	}

	var clientEmail string
	if desc.RequiresClientEmail {
		clientEmail = strings.TrimSpace(in.ClientEmail)
		if err := t.validate.Var(clientEmail, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidClientEmail, in.ClientEmail)
		}
	}

	at := t.now()
	record := AuditRecord{
		ID:               t.newID(),
		Action:           desc.Audit,
		By:               actor,
		To:               to,
		Comment:          comment,
		ClientEmail:      clientEmail,
		OnBehalfOfClient: desc.OnBehalfOfClient,
		Timestamp:        at,
		PreviousStatus:   p.Status,
	}

	patch := Patch{
		Status:    desc.Destination,
		Record:    record,
		UpdatedAt: at,
	}
	if desc.Destination == StatusPendingManager && p.Code == "" {
		code := t.newCode(p, at)
		patch.Code = &code
	}
	if desc.Destination == StatusPendingClient {
		patch.ClientEmail = &clientEmail
		if !p.SentToClient {
			sent := true
			patch.SentToClient = &sent
		}
	}

	return &Result{
		NewStatus: desc.Destination,
		Record:    record,
		Patch:     patch,
	}, nil
}
