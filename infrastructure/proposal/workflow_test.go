package proposal

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/distributed/lock"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/logging"
	notify "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/memory"
)

var (
	researcher = identity.User{ID: "r-1", Name: "Rita", Role: identity.RoleResearcher}
	colleague  = identity.User{ID: "r-2", Name: "Eddie", Role: identity.RoleEditor}
	manager    = identity.User{ID: "m-1", Name: "Max", Role: identity.RoleManager}
	admin      = identity.User{ID: "a-1", Name: "Ada", Role: identity.RoleAdmin}
	viewer     = identity.User{ID: "v-1", Name: "Vic", Role: identity.RoleViewer}
)

type fixture struct {
	svc   *WorkflowService
	store *memory.ProposalStore
	inbox *memory.NotificationInbox
}

func quietLogger() Option {
	return WithLogger(logging.New(logging.Config{Level: "error", Format: "json"}, io.Discard))
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewProposalStore()
	inbox := memory.NewNotificationInbox()
	dir := memory.NewUserDirectory(researcher, colleague, manager, admin, viewer)
	opts = append([]Option{quietLogger()}, opts...)
	return &fixture{
		svc:   NewWorkflowService(store, dir, notify.NewInboxEmitter(inbox), opts...),
		store: store,
		inbox: inbox,
	}
}

func (f *fixture) draft(t *testing.T) *proposal.Proposal {
	t.Helper()
	p, err := f.svc.Create(context.Background(), "Pricing study", researcher)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func (f *fixture) mustExecute(t *testing.T, id string, action proposal.Action, actor identity.User, in ExecuteInputs) *Outcome {
	t.Helper()
	out, err := f.svc.Execute(context.Background(), id, action, actor, in)
	if err != nil {
		t.Fatalf("Execute(%s) error = %v", action, err)
	}
	return out
}

// pendingClient drives a new proposal to pending_client.
func (f *fixture) pendingClient(t *testing.T) *proposal.Proposal {
	t.Helper()
	p := f.draft(t)
	f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
	f.mustExecute(t, p.ID, proposal.ActionManagerApprove, manager, ExecuteInputs{})
	out := f.mustExecute(t, p.ID, proposal.ActionSubmitToClient, researcher, ExecuteInputs{ClientEmail: "buyer@example.com"})
	return out.Proposal
}

func unread(t *testing.T, inbox *memory.NotificationInbox, userID string) []*notification.Notification {
	t.Helper()
	got, err := inbox.ListForRecipient(context.Background(), userID, true)
	if err != nil {
		t.Fatalf("ListForRecipient() error = %v", err)
	}
	return got
}

func TestExecute_SubmitToManager(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.draft(t)

	out := f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})

	if out.NewStatus != proposal.StatusPendingManager {
		t.Errorf("NewStatus = %s, want pending_manager", out.NewStatus)
	}
	if out.Proposal.Code == "" {
		t.Error("Code not assigned on first submission")
	}
	if out.AuditRecord.Action != proposal.AuditSubmittedToManager || out.AuditRecord.PreviousStatus != proposal.StatusDraft {
		t.Errorf("AuditRecord = %+v", out.AuditRecord)
	}
	if out.AuditRecord.To == nil || out.AuditRecord.To.ID != manager.ID {
		t.Errorf("AuditRecord.To = %v, want manager", out.AuditRecord.To)
	}

	if len(out.Notifications) != 1 || out.Notifications[0].RecipientID != manager.ID {
		t.Fatalf("Notifications = %+v, want one for %s", out.Notifications, manager.ID)
	}
	n := out.Notifications[0]
	if n.Type != notification.TypeSubmittedToManager || n.Read || n.ProposalTitle != "Pricing study" || n.From.ID != researcher.ID {
		t.Errorf("notification = %+v", n)
	}
	if got := unread(t, f.inbox, manager.ID); len(got) != 1 {
		t.Errorf("manager inbox = %d, want 1", len(got))
	}

	stored, err := f.svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != proposal.StatusPendingManager || stored.Version != 2 || len(stored.ApprovalHistory) != 1 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestExecute_RejectWithoutComment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.draft(t)
	f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})

	_, err := f.svc.Execute(context.Background(), p.ID, proposal.ActionManagerReject, manager, ExecuteInputs{Comment: "  "})
	if !errors.Is(err, proposal.ErrMissingComment) {
		t.Fatalf("Execute() error = %v, want ErrMissingComment", err)
	}

	stored, _ := f.svc.Get(context.Background(), p.ID)
	if stored.Status != proposal.StatusPendingManager || len(stored.ApprovalHistory) != 1 {
		t.Errorf("rejected action changed the proposal: %+v", stored)
	}
	if got := unread(t, f.inbox, researcher.ID); len(got) != 0 {
		t.Errorf("author inbox = %d, want 0", len(got))
	}
}

func TestExecute_ClientApproveIsTerminal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pendingClient(t)
	if !p.SentToClient || p.ClientEmail != "buyer@example.com" {
		t.Errorf("client submission not recorded: %+v", p)
	}

	out := f.mustExecute(t, p.ID, proposal.ActionClientApprove, researcher, ExecuteInputs{})
	if out.NewStatus != proposal.StatusClientApproved {
		t.Fatalf("NewStatus = %s, want client_approved", out.NewStatus)
	}
	if !out.AuditRecord.OnBehalfOfClient {
		t.Error("client approval not marked as on behalf of client")
	}

	for _, u := range []identity.User{researcher, colleague, manager, admin, viewer} {
		got, err := f.svc.AvailableActions(context.Background(), p.ID, u)
		if err != nil {
			t.Fatalf("AvailableActions() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("AvailableActions(%s) = %v, want none", u.Role, got)
		}
	}
	if _, err := f.svc.Execute(context.Background(), p.ID, proposal.ActionReopen, researcher, ExecuteInputs{}); !errors.Is(err, proposal.ErrNotPermitted) {
		t.Errorf("Execute() on terminal error = %v, want ErrNotPermitted", err)
	}
}

// barrierStore holds every Load until n callers have loaded.
type barrierStore struct {
	*memory.ProposalStore
	wg sync.WaitGroup
}

func newBarrierStore(n int) *barrierStore {
	s := &barrierStore{ProposalStore: memory.NewProposalStore()}
	s.wg.Add(n)
	return s
}

func (s *barrierStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	p, err := s.ProposalStore.Load(ctx, id)
	s.wg.Done()
	s.wg.Wait()
	return p, err
}

func TestExecute_ConcurrentDecisions(t *testing.T) {
	t.Parallel()

	base := memory.NewProposalStore()
	dir := memory.NewUserDirectory(researcher, manager)
	setup := NewWorkflowService(base, dir, nil, quietLogger())
	p, err := setup.Create(context.Background(), "Pricing study", researcher)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	submitted, err := setup.Execute(context.Background(), p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	store := newBarrierStore(2)
	if err := store.Create(context.Background(), submitted.Proposal); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	svc := NewWorkflowService(store, dir, nil, quietLogger())

	type result struct {
		action proposal.Action
		out    *Outcome
		err    error
	}
	results := make(chan result, 2)
	for _, req := range []struct {
		action  proposal.Action
		comment string
	}{
		{proposal.ActionManagerApprove, ""},
		{proposal.ActionManagerReject, "Out of scope"},
	} {
		go func() {
			out, err := svc.Execute(context.Background(), p.ID, req.action, manager, ExecuteInputs{Comment: req.comment})
			results <- result{req.action, out, err}
		}()
	}

	var winners, conflicts int
	for i := 0; i < 2; i++ {
		r := <-results
		switch {
		case r.err == nil:
			winners++
			want := proposal.StatusManagerApproved
			if r.action == proposal.ActionManagerReject {
				want = proposal.StatusManagerRejected
			}
			if r.out.NewStatus != want {
				t.Errorf("%s NewStatus = %s, want %s", r.action, r.out.NewStatus, want)
			}
		case errors.Is(r.err, proposal.ErrConflict):
			conflicts++
			if proposal.ErrorCode(r.err) != proposal.CodeConflict {
				t.Errorf("ErrorCode() = %s, want conflict", proposal.ErrorCode(r.err))
			}
		default:
			t.Errorf("%s unexpected error = %v", r.action, r.err)
		}
	}
	if winners != 1 || conflicts != 1 {
		t.Errorf("winners = %d, conflicts = %d; want 1 and 1", winners, conflicts)
	}

	stored, err := store.ProposalStore.Load(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(stored.ApprovalHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(stored.ApprovalHistory))
	}
}

func TestExecute_WithLockerSerializes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithLocker(lock.NewMemoryLock(), time.Second))
	p := f.draft(t)
	f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, action := range []proposal.Action{proposal.ActionManagerApprove, proposal.ActionManagerApprove} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Execute(context.Background(), p.ID, action, manager, ExecuteInputs{})
		}()
	}
	wg.Wait()

	var ok, notPermitted int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, proposal.ErrNotPermitted):
			notPermitted++
		default:
			t.Errorf("unexpected error = %v", err)
		}
	}
	if ok != 1 || notPermitted != 1 {
		t.Errorf("ok = %d, notPermitted = %d; want 1 and 1", ok, notPermitted)
	}
}

func TestExecute_LockHeldIsConflict(t *testing.T) {
	t.Parallel()

	leases := lock.NewLeaseTable()
	other := lock.NewMemoryLock(lock.WithLeaseTable(leases), lock.WithHolderID("other"))
	mine := lock.NewMemoryLock(lock.WithLeaseTable(leases), lock.WithRetry(lock.Retry{Interval: time.Millisecond, Attempts: 1}))

	f := newFixture(t, WithLocker(mine, time.Second))
	p := f.draft(t)

	if ok, err := other.Acquire(context.Background(), lock.ProposalKey(p.ID), time.Minute); err != nil || !ok {
		t.Fatalf("Acquire() = %v, %v", ok, err)
	}

	_, err := f.svc.Execute(context.Background(), p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
	if !errors.Is(err, proposal.ErrConflict) || !errors.Is(err, lock.ErrLockHeld) {
		t.Errorf("Execute() error = %v, want ErrConflict wrapping ErrLockHeld", err)
	}
}

func TestExecute_ValidationOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.draft(t)

	tests := []struct {
		name   string
		action proposal.Action
		actor  identity.User
		in     ExecuteInputs
		want   error
	}{
		{"viewer", proposal.ActionSubmitToManager, viewer, ExecuteInputs{ManagerID: manager.ID}, proposal.ErrNotPermitted},
		{"manager on draft", proposal.ActionSubmitToManager, manager, ExecuteInputs{ManagerID: manager.ID}, proposal.ErrNotPermitted},
		{"unknown role", proposal.ActionSubmitToManager, identity.User{ID: "x", Role: "owner"}, ExecuteInputs{ManagerID: manager.ID}, proposal.ErrNotPermitted},
		{"unknown action", proposal.Action("publish"), researcher, ExecuteInputs{}, proposal.ErrNotPermitted},
		{"no manager", proposal.ActionSubmitToManager, researcher, ExecuteInputs{}, proposal.ErrInvalidManager},
		{"unknown manager", proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: "nobody"}, proposal.ErrInvalidManager},
		{"manager is not a manager", proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: colleague.ID}, proposal.ErrInvalidManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := f.svc.Execute(context.Background(), p.ID, tt.action, tt.actor, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Execute() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.svc.Execute(context.Background(), "missing", proposal.ActionSubmitToManager, researcher, ExecuteInputs{}); !errors.Is(err, proposal.ErrNotFound) {
		t.Errorf("Execute(missing) error = %v, want ErrNotFound", err)
	}
}

func TestExecute_CancelledBeforeLoad(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.draft(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.Execute(ctx, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	stored, _ := f.svc.Get(context.Background(), p.ID)
	if stored.Status != proposal.StatusDraft {
		t.Errorf("Status = %s, want draft", stored.Status)
	}
}

func TestExecute_Notifications(t *testing.T) {
	t.Parallel()

	t.Run("manager decisions notify the author", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		p := f.draft(t)
		f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
		out := f.mustExecute(t, p.ID, proposal.ActionRequestRevision, manager, ExecuteInputs{Comment: "Add budget"})

		if len(out.Notifications) != 1 {
			t.Fatalf("Notifications = %d, want 1", len(out.Notifications))
		}
		n := out.Notifications[0]
		if n.RecipientID != researcher.ID || n.Type != notification.TypeRevisionRequested || n.Title != "Revision requested" {
			t.Errorf("notification = %+v", n)
		}
		if n.ProposalCode == "" || n.ProposalCode != out.Proposal.Code {
			t.Errorf("ProposalCode = %q, want %q", n.ProposalCode, out.Proposal.Code)
		}
	})

	t.Run("client submission has no internal recipient", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		p := f.draft(t)
		f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
		f.mustExecute(t, p.ID, proposal.ActionManagerApprove, manager, ExecuteInputs{})
		out := f.mustExecute(t, p.ID, proposal.ActionSubmitToClient, researcher, ExecuteInputs{ClientEmail: "buyer@example.com"})
		if len(out.Notifications) != 0 {
			t.Errorf("Notifications = %+v, want none", out.Notifications)
		}
	})

	t.Run("client decisions recorded by the author notify the author", func(t *testing.T) {
		t.Parallel()
		for _, tc := range []struct {
			action proposal.Action
			in     ExecuteInputs
		}{
			{proposal.ActionClientApprove, ExecuteInputs{}},
			{proposal.ActionClientReject, ExecuteInputs{Comment: "Too expensive"}},
		} {
			f := newFixture(t)
			p := f.pendingClient(t)
			out := f.mustExecute(t, p.ID, tc.action, researcher, tc.in)
			if len(out.Notifications) != 1 || out.Notifications[0].RecipientID != researcher.ID {
				t.Errorf("%s: Notifications = %+v, want one for the author", tc.action, out.Notifications)
			}
		}
	})

	t.Run("client decisions by a colleague notify the author", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		p := f.pendingClient(t)
		out := f.mustExecute(t, p.ID, proposal.ActionClientApprove, colleague, ExecuteInputs{})
		if len(out.Notifications) != 1 || out.Notifications[0].RecipientID != researcher.ID {
			t.Errorf("Notifications = %+v, want one for the author", out.Notifications)
		}
	})

	t.Run("emit failures do not fail the action", func(t *testing.T) {
		t.Parallel()
		store := memory.NewProposalStore()
		dir := memory.NewUserDirectory(researcher, manager)
		failing := notification.EmitterFunc(func(context.Context, *notification.Notification) error {
			return notification.ErrEndpointUnavailable
		})
		svc := NewWorkflowService(store, dir, failing, quietLogger())
		p, err := svc.Create(context.Background(), "Pricing study", researcher)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		out, err := svc.Execute(context.Background(), p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(out.Notifications) != 1 {
			t.Errorf("Notifications = %d, want 1", len(out.Notifications))
		}
	})
}

func TestCreate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), "  Market sizing  ", colleague)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Title != "Market sizing" || p.Status != proposal.StatusDraft || p.Version != 1 || p.Code != "" {
		t.Errorf("Create() = %+v", p)
	}

	for _, u := range []identity.User{viewer, manager, admin} {
		if _, err := f.svc.Create(context.Background(), "Nope", u); !errors.Is(err, proposal.ErrNotPermitted) {
			t.Errorf("Create(%s) error = %v, want ErrNotPermitted", u.Role, err)
		}
	}
	if _, err := f.svc.Create(context.Background(), " ", researcher); !errors.Is(err, proposal.ErrInvalidProposal) {
		t.Errorf("Create(blank) error = %v, want ErrInvalidProposal", err)
	}
}

func TestHistoryAndVerify(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pendingClient(t)

	history, err := f.svc.History(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	wantActions := []proposal.AuditAction{
		proposal.AuditSubmittedToManager,
		proposal.AuditManagerApproved,
		proposal.AuditSubmittedToClient,
	}
	if len(history) != len(wantActions) {
		t.Fatalf("history length = %d, want %d", len(history), len(wantActions))
	}
	for i, want := range wantActions {
		if history[i].Action != want {
			t.Errorf("history[%d] = %s, want %s", i, history[i].Action, want)
		}
	}

	if err := f.svc.Verify(context.Background(), p.ID); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	list, err := f.svc.List(context.Background(), proposal.ListFilter{Status: []proposal.Status{proposal.StatusPendingClient}})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Errorf("List() = %v", list)
	}
}

func TestExecute_CodeAssignedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.draft(t)
	first := f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
	f.mustExecute(t, p.ID, proposal.ActionRequestRevision, manager, ExecuteInputs{Comment: "Tighten scope"})
	second := f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: admin.ID})

	if second.Proposal.Code != first.Proposal.Code {
		t.Errorf("Code changed from %s to %s", first.Proposal.Code, second.Proposal.Code)
	}
	if second.Notifications[0].RecipientID != admin.ID {
		t.Errorf("recipient = %s, want admin", second.Notifications[0].RecipientID)
	}
}

type recordingArchiver struct {
	mu       sync.Mutex
	archived []string
}

func (a *recordingArchiver) Archive(_ context.Context, p *proposal.Proposal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, p.ID)
	return nil
}

func TestExecute_ArchivesClientApproval(t *testing.T) {
	t.Parallel()

	arch := &recordingArchiver{}
	f := newFixture(t, WithArchiver(arch))
	p := f.pendingClient(t)
	if len(arch.archived) != 0 {
		t.Fatalf("archived before approval: %v", arch.archived)
	}

	f.mustExecute(t, p.ID, proposal.ActionClientApprove, researcher, ExecuteInputs{})
	if len(arch.archived) != 1 || arch.archived[0] != p.ID {
		t.Errorf("archived = %v, want [%s]", arch.archived, p.ID)
	}
}

type countingMetrics struct {
	mu            sync.Mutex
	transitions   int
	rejections    map[string]int
	notifications map[string]int
	durations     int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{rejections: map[string]int{}, notifications: map[string]int{}}
}

func (m *countingMetrics) RecordTransition(context.Context, string, string, string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions++
}

func (m *countingMetrics) RecordRejection(_ context.Context, _ string, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[code]++
}

func (m *countingMetrics) RecordNotification(_ context.Context, _ string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[result]++
}

func (m *countingMetrics) RecordArchive(context.Context, string) {}

func (m *countingMetrics) RecordExecuteDuration(context.Context, string, time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations++
}

func TestExecute_MetricsAndSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	metrics := newCountingMetrics()
	f := newFixture(t, WithMetrics(metrics), WithTracer(tp.Tracer("test")))
	p := f.draft(t)

	f.mustExecute(t, p.ID, proposal.ActionSubmitToManager, researcher, ExecuteInputs{ManagerID: manager.ID})
	_, _ = f.svc.Execute(context.Background(), p.ID, proposal.ActionManagerReject, manager, ExecuteInputs{})

	if metrics.transitions != 1 || metrics.durations != 2 {
		t.Errorf("transitions = %d, durations = %d; want 1 and 2", metrics.transitions, metrics.durations)
	}
	if metrics.rejections[string(proposal.CodeMissingComment)] != 1 {
		t.Errorf("rejections = %v", metrics.rejections)
	}
	if metrics.notifications["success"] != 1 {
		t.Errorf("notifications = %v", metrics.notifications)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "workflow.execute" {
			t.Errorf("span name = %s", s.Name())
		}
	}
}
