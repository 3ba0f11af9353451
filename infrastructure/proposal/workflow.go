// Package proposal provides the workflow service that runs approval
// actions against a proposal store.
package proposal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/archive"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/distributed/lock"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/logging"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/observability"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/statemachine"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/telemetry"
)

// DefaultLockTTL is the lock lease used when WithLocker is given no TTL.
const DefaultLockTTL = 10 * time.Second

// ExecuteInputs carries the optional values supplied with an action.
type ExecuteInputs struct {
	// Comment is free text explaining the decision.
	Comment string

	// ManagerID selects the target manager for submissions.
	ManagerID string

	// ClientEmail is the client address for client submissions.
	ClientEmail string
}

// Outcome is the result of a successful Execute call.
type Outcome struct {
	// NewStatus is the status the proposal moved to.
	NewStatus proposal.Status

	// AuditRecord is the record appended to the history.
	AuditRecord proposal.AuditRecord

	// Proposal is the proposal as saved.
	Proposal *proposal.Proposal

	// Notifications are the notifications created for the transition.
	Notifications []*notification.Notification
}

// WorkflowService executes approval actions.
type WorkflowService struct {
	store        proposal.Store
	directory    identity.Directory
	emitter      notification.Emitter
	transitioner *proposal.Transitioner
	locker       lock.Locker
	lockTTL      time.Duration
	archiver     archive.Archiver
	metrics      telemetry.Metrics
	logger       *bolt.Logger
	tracer       trace.Tracer
	now          func() time.Time
	newID        func() string

	replayerOnce sync.Once
	replayer     *statemachine.Replayer
	replayerErr  error
}

// Option configures a WorkflowService.
type Option func(*WorkflowService)

// WithLocker serializes Execute calls per proposal using l.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(w *WorkflowService) {
		w.locker = l
		if ttl > 0 {
			w.lockTTL = ttl
		}
	}
}

// WithArchiver archives proposals that reach client approval.
func WithArchiver(a archive.Archiver) Option {
	return func(w *WorkflowService) {
		w.archiver = a
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(w *WorkflowService) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *bolt.Logger) Option {
	return func(w *WorkflowService) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTracer sets the tracer used for Execute spans.
func WithTracer(t trace.Tracer) Option {
	return func(w *WorkflowService) {
		if t != nil {
			w.tracer = t
		}
	}
}

// WithTransitioner replaces the default transition function.
func WithTransitioner(t *proposal.Transitioner) Option {
	return func(w *WorkflowService) {
		if t != nil {
			w.transitioner = t
		}
	}
}

// WithReplayer sets the replayer used by Verify.
func WithReplayer(r *statemachine.Replayer) Option {
	return func(w *WorkflowService) {
		if r != nil {
			w.replayerOnce.Do(func() { w.replayer = r })
		}
	}
}

// WithClock sets the time source for notifications and durations.
func WithClock(now func() time.Time) Option {
	return func(w *WorkflowService) {
		if now != nil {
			w.now = now
		}
	}
}

// WithIDGenerator sets the proposal and notification ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(w *WorkflowService) {
		if gen != nil {
			w.newID = gen
		}
	}
}

// NewWorkflowService creates a workflow service. A nil emitter disables
// notification delivery; notifications are still returned in the outcome.
func NewWorkflowService(store proposal.Store, directory identity.Directory, emitter notification.Emitter, opts ...Option) *WorkflowService {
	w := &WorkflowService{
		store:        store,
		directory:    directory,
		emitter:      emitter,
		transitioner: proposal.NewTransitioner(),
		lockTTL:      DefaultLockTTL,
		metrics:      &telemetry.NoopMetricsProvider{},
		logger:       logging.Get(),
		tracer:       noop.NewTracerProvider().Tracer("workflow"),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Execute runs action on the proposal as actor.
//
// The transition is saved with optimistic concurrency: if the proposal
// changed since it was loaded, ErrConflict is returned and nothing is
// written. Notifications and archival happen after the save and never
// fail the call.
func (w *WorkflowService) Execute(ctx context.Context, proposalID string, action proposal.Action, actor identity.User, in ExecuteInputs) (out *Outcome, err error) {
	start := w.now()
	ctx, span := observability.StartSpan(ctx, w.tracer, "workflow.execute",
		observability.AttrProposalID.String(proposalID),
		observability.AttrAction.String(string(action)),
		observability.AttrActorID.String(actor.ID),
		observability.AttrActorRole.String(string(actor.Role)),
	)
	defer func() {
		var attrs []attribute.KeyValue
		if err != nil {
			attrs = append(attrs, observability.AttrErrorCode.String(string(proposal.ErrorCode(err))))
		} else {
			attrs = append(attrs, observability.AttrToStatus.String(string(out.NewStatus)))
		}
		observability.EndSpan(span, err, attrs...)
		w.metrics.RecordExecuteDuration(ctx, string(action), w.now().Sub(start), err == nil)
	}()

	var from proposal.Status
	run := func(ctx context.Context) error {
		var runErr error
		out, from, runErr = w.transition(ctx, proposalID, action, actor, in)
		return runErr
	}

	if w.locker != nil {
		err = w.locker.WithLock(ctx, lock.ProposalKey(proposalID), w.lockTTL, run)
		if errors.Is(err, lock.ErrLockHeld) {
			err = fmt.Errorf("%w: %w", proposal.ErrConflict, err)
		}
	} else {
		err = run(ctx)
	}

	if err != nil {
		w.reject(ctx, proposalID, action, actor, err)
		out = nil
		return nil, err
	}

	span.SetAttributes(observability.AttrFromStatus.String(string(from)))
	w.metrics.RecordTransition(ctx, string(action), string(from), string(out.NewStatus), telemetry.ResultSuccess)
	logging.NewEvent(w.logger.Info()).With(
		logging.Component("workflow"),
		logging.ProposalID(out.Proposal.ID),
		logging.ProposalCode(out.Proposal.Code),
		logging.Action(string(action)),
		logging.FromStatus(string(from)),
		logging.ToStatus(string(out.NewStatus)),
		logging.Actor(actor.ID, string(actor.Role)),
		logging.Version(out.Proposal.Version),
	).Msg("proposal transitioned")

	// The save is committed; follow-up work must not be cut short by the caller.
	after := context.WithoutCancel(ctx)
	out.Notifications = w.notify(after, out.Proposal, out.AuditRecord)
	if out.NewStatus == proposal.StatusClientApproved {
		w.archive(after, out.Proposal)
	}
	return out, nil
}

// transition loads, validates, and saves. It returns the status the
// proposal held before the action.
func (w *WorkflowService) transition(ctx context.Context, proposalID string, action proposal.Action, actor identity.User, in ExecuteInputs) (*Outcome, proposal.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	p, err := w.store.Load(ctx, proposalID)
	if err != nil {
		return nil, "", err
	}

	manager, err := w.resolveManager(ctx, p, action, actor, in.ManagerID)
	if err != nil {
		return nil, p.Status, err
	}
	if err := ctx.Err(); err != nil {
		return nil, p.Status, err
	}

	res, err := w.transitioner.Apply(p, action, actor, proposal.Inputs{
		Comment:     in.Comment,
		Manager:     manager,
		ClientEmail: in.ClientEmail,
	})
	if err != nil {
		return nil, p.Status, err
	}

	if err := w.store.Save(context.WithoutCancel(ctx), p.ID, res.Patch, p.Version); err != nil {
		return nil, p.Status, err
	}

	return &Outcome{
		NewStatus:   res.NewStatus,
		AuditRecord: res.Record,
		Proposal:    p.Applied(res.Patch),
	}, p.Status, nil
}

// resolveManager looks up the selected manager. The directory is only
// consulted when the action needs a manager and the actor may take it, so
// that permission failures are reported first. Unknown IDs resolve to nil.
func (w *WorkflowService) resolveManager(ctx context.Context, p *proposal.Proposal, action proposal.Action, actor identity.User, managerID string) (*identity.User, error) {
	desc, ok := proposal.Describe(action)
	if !ok || !desc.RequiresManagerSelection || managerID == "" || w.directory == nil {
		return nil, nil
	}
	if !proposal.IsPermitted(p.Status, actor.Role, action) {
		return nil, nil
	}

	u, err := w.directory.Lookup(ctx, managerID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve manager %s: %w", managerID, err)
	}
	return &u, nil
}

func (w *WorkflowService) reject(ctx context.Context, proposalID string, action proposal.Action, actor identity.User, err error) {
	code := proposal.ErrorCode(err)
	w.metrics.RecordRejection(ctx, string(action), string(code))

	event := w.logger.Debug()
	if code == proposal.CodeInternal || code == proposal.CodeHistoryCorrupt {
		event = w.logger.Error()
	}
	logging.NewEvent(event).With(
		logging.Component("workflow"),
		logging.ProposalID(proposalID),
		logging.Action(string(action)),
		logging.Actor(actor.ID, string(actor.Role)),
		logging.ErrorCode(string(code)),
		logging.ErrorField(err),
	).Msg("action rejected")
}

// notify builds and emits the notifications for rec. Emit failures are
// logged and counted.
func (w *WorkflowService) notify(ctx context.Context, p *proposal.Proposal, rec proposal.AuditRecord) []*notification.Notification {
	typ := NotificationType(rec.Action)

	if rec.Action == proposal.AuditSubmittedToClient {
		logging.NewEvent(w.logger.Info()).With(
			logging.Component("workflow"),
			logging.ProposalID(p.ID),
			logging.ProposalCode(p.Code),
			logging.NotificationType(string(typ)),
			logging.Str("client_email", rec.ClientEmail),
		).Msg("proposal sent to client; no internal recipient")
	}

	recipients := Recipients(p, rec)
	if len(recipients) == 0 {
		w.metrics.RecordNotification(ctx, string(typ), telemetry.ResultSkipped)
		return []*notification.Notification{}
	}

	created := make([]*notification.Notification, 0, len(recipients))
	for _, r := range recipients {
		n := newNotification(w.newID(), p, rec, r, w.now())
		created = append(created, n)

		if w.emitter == nil {
			continue
		}
		if err := w.emitter.Emit(ctx, n); err != nil {
			w.metrics.RecordNotification(ctx, string(typ), telemetry.ResultFailure)
			logging.NewEvent(w.logger.Error()).With(
				logging.Component("workflow"),
				logging.ProposalID(p.ID),
				logging.NotificationType(string(typ)),
				logging.Recipient(r.ID),
				logging.ErrorField(err),
			).Msg("notification delivery failed")
			continue
		}
		w.metrics.RecordNotification(ctx, string(typ), telemetry.ResultSuccess)
	}
	return created
}

func (w *WorkflowService) archive(ctx context.Context, p *proposal.Proposal) {
	if w.archiver == nil {
		return
	}
	if err := w.archiver.Archive(ctx, p); err != nil {
		w.metrics.RecordArchive(ctx, telemetry.ResultFailure)
		logging.NewEvent(w.logger.Error()).With(
			logging.Component("archive"),
			logging.ProposalID(p.ID),
			logging.ErrorField(err),
		).Msg("audit archival failed")
		return
	}
	w.metrics.RecordArchive(ctx, telemetry.ResultSuccess)
}

// LegalActions returns the actions a role may take in a status.
func (w *WorkflowService) LegalActions(status proposal.Status, role identity.Role) []proposal.ActionDescriptor {
	return proposal.LegalActions(status, role)
}

// AvailableActions returns the actions actor may take on the proposal now.
func (w *WorkflowService) AvailableActions(ctx context.Context, proposalID string, actor identity.User) ([]proposal.ActionDescriptor, error) {
	p, err := w.store.Load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return proposal.LegalActions(p.Status, actor.Role), nil
}

// Create stores a new draft owned by author.
func (w *WorkflowService) Create(ctx context.Context, title string, author identity.User) (*proposal.Proposal, error) {
	if !author.Role.CanAuthor() {
		return nil, fmt.Errorf("%w: %s may not create proposals", proposal.ErrNotPermitted, author.Role)
	}

	p := proposal.NewProposal(title, author)
	p.ID = w.newID()
	p.CreatedAt = w.now()
	p.UpdatedAt = p.CreatedAt
	if err := w.store.Create(ctx, p); err != nil {
		return nil, err
	}

	logging.NewEvent(w.logger.Info()).With(
		logging.Component("workflow"),
		logging.ProposalID(p.ID),
		logging.Actor(author.ID, string(author.Role)),
	).Msg("proposal created")
	return p, nil
}

// Get returns a proposal by ID.
func (w *WorkflowService) Get(ctx context.Context, proposalID string) (*proposal.Proposal, error) {
	return w.store.Load(ctx, proposalID)
}

// List returns proposals matching filter.
func (w *WorkflowService) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	return w.store.List(ctx, filter)
}

// History returns the approval history of a proposal, oldest first.
func (w *WorkflowService) History(ctx context.Context, proposalID string) ([]proposal.AuditRecord, error) {
	p, err := w.store.Load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return p.Clone().ApprovalHistory, nil
}

// Verify replays the approval history through the lifecycle statechart
// and reports ErrHistoryCorrupt if it does not reach the stored status.
func (w *WorkflowService) Verify(ctx context.Context, proposalID string) error {
	p, err := w.store.Load(ctx, proposalID)
	if err != nil {
		return err
	}

	w.replayerOnce.Do(func() {
		w.replayer, w.replayerErr = statemachine.NewReplayer()
	})
	if w.replayerErr != nil {
		return fmt.Errorf("build replayer: %w", w.replayerErr)
	}
	return w.replayer.Verify(p)
}
