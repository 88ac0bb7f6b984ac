package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GetSaleQuery fetches a sale with its lines and linked stock moves
type GetSaleQuery struct {
	SaleID string
	Actor  shared.Actor
}

// SaleMoveView is a read model of one stock move linked to the sale
type SaleMoveView struct {
	MoveID         string
	MoveType       inventory.MoveType
	BatchID        string
	Quantity       int
	ReversedMoveID *string
	CreatedAt      time.Time
}

// GetSaleResponse is the sale read model
type GetSaleResponse struct {
	Sale       *billing.Sale
	Total      decimal.Decimal
	StockMoves []SaleMoveView
}

// GetSaleHandler handles the GetSale query
type GetSaleHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
}

// NewGetSaleHandler creates a new GetSaleHandler
func NewGetSaleHandler(scope common.TransactionScope, guard *auth.Guard) *GetSaleHandler {
	return &GetSaleHandler{scope: scope, guard: guard}
}

// Handle executes the GetSale query
func (h *GetSaleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetSaleQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetSaleQuery")
	}

	if err := h.guard.Require(query.Actor, auth.PermStockView); err != nil {
		return nil, err
	}

	var resp *GetSaleResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		sale, err := repos.Sales.FindByID(ctx, query.SaleID)
		if err != nil {
			return err
		}

		var views []SaleMoveView
		for _, moveType := range []inventory.MoveType{inventory.MoveSaleOut, inventory.MoveRefundIn} {
			moves, err := repos.Ledger.MovesForSale(ctx, sale.ID(), moveType)
			if err != nil {
				return err
			}
			for _, m := range moves {
				views = append(views, SaleMoveView{
					MoveID:         m.ID(),
					MoveType:       m.MoveType(),
					BatchID:        m.BatchID(),
					Quantity:       m.Quantity(),
					ReversedMoveID: m.ReversedMoveID(),
					CreatedAt:      m.CreatedAt(),
				})
			}
		}

		resp = &GetSaleResponse{
			Sale:       sale,
			Total:      sale.Total(),
			StockMoves: views,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
