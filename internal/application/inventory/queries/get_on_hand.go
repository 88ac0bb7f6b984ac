package queries

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GetOnHandQuery reads the batch-level on-hand balance of a product at a
// location
type GetOnHandQuery struct {
	ProductID    string
	LocationCode string
	Actor        shared.Actor
}

// GetOnHandResponse lists on-hand rows and the total across batches
type GetOnHandResponse struct {
	Rows  []inventory.OnHandRow
	Total int
}

// GetOnHandHandler handles the GetOnHand query
type GetOnHandHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
}

// NewGetOnHandHandler creates a new GetOnHandHandler
func NewGetOnHandHandler(scope common.TransactionScope, guard *auth.Guard) *GetOnHandHandler {
	return &GetOnHandHandler{scope: scope, guard: guard}
}

// Handle executes the GetOnHand query
func (h *GetOnHandHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetOnHandQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetOnHandQuery")
	}

	if err := h.guard.Require(query.Actor, auth.PermStockView); err != nil {
		return nil, err
	}

	var resp *GetOnHandResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		location, err := repos.Locations.FindActiveByCode(ctx, query.LocationCode)
		if err != nil {
			return err
		}
		rows, err := repos.Ledger.OnHand(ctx, query.ProductID, location.ID())
		if err != nil {
			return err
		}
		total := 0
		for _, row := range rows {
			total += row.Quantity
		}
		resp = &GetOnHandResponse{Rows: rows, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
