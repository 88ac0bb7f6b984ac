package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// ListExpiringBatchesQuery lists batches expiring within the given horizon,
// soonest first. Used for the weekly expiry review.
type ListExpiringBatchesQuery struct {
	Within time.Duration
	Actor  shared.Actor
}

// ListExpiringBatchesResponse lists the matching batches
type ListExpiringBatchesResponse struct {
	Batches []*inventory.StockBatch
}

// ListExpiringBatchesHandler handles the ListExpiringBatches query
type ListExpiringBatchesHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewListExpiringBatchesHandler creates a new ListExpiringBatchesHandler
func NewListExpiringBatchesHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *ListExpiringBatchesHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ListExpiringBatchesHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the ListExpiringBatches query
func (h *ListExpiringBatchesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ListExpiringBatchesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListExpiringBatchesQuery")
	}

	if err := h.guard.Require(query.Actor, auth.PermStockView); err != nil {
		return nil, err
	}

	var resp *ListExpiringBatchesResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		cutoff := h.clock.Now().Add(query.Within)
		batches, err := repos.Batches.FindExpiringBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		resp = &ListExpiringBatchesResponse{Batches: batches}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
