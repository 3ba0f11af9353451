package api

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// Executor runs a single workflow action.
type Executor interface {
	Execute(ctx context.Context, proposalID string, action proposal.Action, actor identity.User, in ExecuteInputs) (*Outcome, error)
}

// RetryConfig configures ExecuteWithRetry.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns three attempts starting at 20ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		Multiplier:   2,
	}
}

// errFinal marks attempts that must not be retried.
var errFinal = errors.New("final attempt")

// ExecuteWithRetry re-runs Execute while it reports ErrConflict. Every
// other error is returned from the first attempt that produced it. Each
// attempt reloads the proposal, so a retried action is validated against
// the state left by the competing writer.
func ExecuteWithRetry(ctx context.Context, exec Executor, proposalID string, action proposal.Action, actor identity.User, in ExecuteInputs, cfg RetryConfig) (*Outcome, error) {
	defaults := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = defaults.Multiplier
	}

	r := retry.New[*Outcome](retry.Config{
		MaxAttempts:        cfg.MaxAttempts,
		InitialDelay:       cfg.InitialDelay,
		BackoffPolicy:      retry.BackoffExponential,
		Multiplier:         cfg.Multiplier,
		NonRetryableErrors: []error{errFinal},
	})

	var lastErr error
	out, err := r.Do(ctx, func(ctx context.Context) (*Outcome, error) {
		out, err := exec.Execute(ctx, proposalID, action, actor, in)
		lastErr = err
		if err != nil && !errors.Is(err, proposal.ErrConflict) {
			return nil, errors.Join(errFinal, err)
		}
		return out, err
	})
	if err == nil {
		return out, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, err
}
