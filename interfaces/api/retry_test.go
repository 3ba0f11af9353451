package api

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

type scriptedExecutor struct {
	calls atomic.Int32
	errs  []error
}

func (s *scriptedExecutor) Execute(_ context.Context, _ string, _ proposal.Action, _ identity.User, _ ExecuteInputs) (*Outcome, error) {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	return &Outcome{NewStatus: StatusManagerApproved}, nil
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Parallel()

	conflict := fmt.Errorf("save: %w", ErrConflict)

	tests := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int32
	}{
		{"first attempt succeeds", nil, nil, 1},
		{"conflict then success", []error{conflict, conflict}, nil, 3},
		{"conflict every time", []error{conflict, conflict, conflict}, ErrConflict, 3},
		{"not permitted is final", []error{ErrNotPermitted}, ErrNotPermitted, 1},
		{"conflict then not found", []error{conflict, ErrNotFound}, ErrNotFound, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exec := &scriptedExecutor{errs: tt.errs}
			out, err := ExecuteWithRetry(context.Background(), exec, "p-1", ActionManagerApprove, identity.User{ID: "m-1", Role: identity.RoleManager}, ExecuteInputs{}, fastRetry())

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ExecuteWithRetry() error = %v", err)
				}
				if out == nil || out.NewStatus != StatusManagerApproved {
					t.Errorf("outcome = %+v", out)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExecuteWithRetry() error = %v, want %v", err, tt.wantErr)
			}
			if got := exec.calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestExecuteWithRetry_Defaults(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{errs: []error{ErrConflict}}
	if _, err := ExecuteWithRetry(context.Background(), exec, "p-1", ActionManagerApprove, identity.User{}, ExecuteInputs{}, RetryConfig{}); err != nil {
		t.Fatalf("ExecuteWithRetry() error = %v", err)
	}
	if got := exec.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	if got := CodeOf(fmt.Errorf("x: %w", ErrConflict)); got != proposal.CodeConflict {
		t.Errorf("CodeOf() = %s, want conflict", got)
	}
}
