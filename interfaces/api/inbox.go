package api

import (
	"context"
	"sort"

	infraProposal "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/proposal"
)

// ReplayInbox rebuilds the notifications addressed to userID from the
// approval history of every stored proposal, oldest first. Unlike the
// in-process inbox it survives restarts, but it carries no read state.
func (e *Engine) ReplayInbox(ctx context.Context, userID string) ([]*Notification, error) {
	proposals, err := e.Service.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	result := []*Notification{}
	for _, p := range proposals {
		result = append(result, infraProposal.Replay(p, userID)...)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
