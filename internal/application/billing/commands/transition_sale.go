package commands

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/billing/services"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// TransitionSaleCommand moves a sale along one edge of its state graph.
// RowVersion is the version the client last observed; a mismatch at commit
// reports ConcurrencyConflict and the client is expected to re-read and retry.
type TransitionSaleCommand struct {
	SaleID       string
	TargetStatus billing.SaleStatus
	Reason       string
	RowVersion   int
	LocationCode string // optional override for stock consumption
	Actor        shared.Actor
}

// TransitionSaleResponse reports the committed transition
type TransitionSaleResponse struct {
	SaleID     string
	Status     billing.SaleStatus
	RowVersion int
	MovesMade  int
}

// TransitionSaleHandler drives the sale state machine. Transitions to paid
// consume stock through the integrator; transitions to refunded reverse the
// consumed moves. Everything runs in one transaction: a failure inside the
// integrator rolls the status change back and the caller observes the sale's
// prior state.
type TransitionSaleHandler struct {
	scope      common.TransactionScope
	guard      *auth.Guard
	integrator *services.StockSaleIntegrator
	clock      shared.Clock
}

// NewTransitionSaleHandler creates a new TransitionSaleHandler
func NewTransitionSaleHandler(
	scope common.TransactionScope,
	guard *auth.Guard,
	integrator *services.StockSaleIntegrator,
	clock shared.Clock,
) *TransitionSaleHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &TransitionSaleHandler{
		scope:      scope,
		guard:      guard,
		integrator: integrator,
		clock:      clock,
	}
}

// Handle executes the TransitionSale command
func (h *TransitionSaleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*TransitionSaleCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *TransitionSaleCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermSaleTransition); err != nil {
		return nil, err
	}

	var resp *TransitionSaleResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		sale, err := repos.Sales.FindByID(ctx, cmd.SaleID)
		if err != nil {
			return err
		}
		if sale.RowVersion() != cmd.RowVersion {
			return shared.NewConcurrencyConflictError("sale", sale.ID())
		}

		if err := sale.TransitionTo(cmd.TargetStatus, cmd.Reason, h.clock.Now()); err != nil {
			return err
		}
		if err := repos.Sales.Update(ctx, sale, cmd.RowVersion); err != nil {
			return err
		}

		movesMade := 0
		switch cmd.TargetStatus {
		case billing.SaleStatusPaid:
			moves, err := h.integrator.ConsumeStockForSale(ctx, repos, sale, cmd.LocationCode, cmd.Actor)
			if err != nil {
				return err
			}
			movesMade = len(moves)
		case billing.SaleStatusRefunded:
			moves, err := h.integrator.RefundStockForSale(ctx, repos, sale, cmd.Actor)
			if err != nil {
				return err
			}
			movesMade = len(moves)
		}

		resp = &TransitionSaleResponse{
			SaleID:     sale.ID(),
			Status:     sale.Status(),
			RowVersion: sale.RowVersion(),
			MovesMade:  movesMade,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSaleTransition(string(cmd.TargetStatus))
	return resp, nil
}
