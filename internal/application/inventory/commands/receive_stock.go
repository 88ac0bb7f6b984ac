package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// ReceiveStockCommand books a purchase delivery into a location, creating the
// batch on first sight of its (product, batch number) pair.
type ReceiveStockCommand struct {
	ProductID    string
	LocationCode string
	BatchNumber  string
	ExpiryDate   *time.Time
	Quantity     int
	Reference    string // supplier delivery note or invoice reference
	Actor        shared.Actor
}

// ReceiveStockResponse reports the created move
type ReceiveStockResponse struct {
	MoveID  string
	BatchID string
}

// ReceiveStockHandler handles the ReceiveStock command
type ReceiveStockHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewReceiveStockHandler creates a new ReceiveStockHandler
func NewReceiveStockHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *ReceiveStockHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ReceiveStockHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the ReceiveStock command
func (h *ReceiveStockHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ReceiveStockCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ReceiveStockCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermStockManualAdjust); err != nil {
		return nil, err
	}
	if cmd.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "received quantity must be positive")
	}

	var resp *ReceiveStockResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		product, err := repos.Products.FindByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		location, err := repos.Locations.FindActiveByCode(ctx, cmd.LocationCode)
		if err != nil {
			return err
		}

		batch, err := repos.Batches.FindByProductAndNumber(ctx, product.ID(), cmd.BatchNumber)
		if err != nil {
			if _, ok := err.(*shared.NotFoundError); !ok {
				return err
			}
			batch, err = inventory.NewStockBatch(product.ID(), cmd.BatchNumber, cmd.ExpiryDate)
			if err != nil {
				return err
			}
			if err := repos.Batches.Create(ctx, batch); err != nil {
				return err
			}
		}

		move, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:     product.ID(),
			LocationID:    location.ID(),
			BatchID:       batch.ID(),
			MoveType:      inventory.MovePurchaseIn,
			Quantity:      cmd.Quantity,
			Reason:        fmt.Sprintf("Goods receipt %s - %s", cmd.Reference, product.Name()),
			ReferenceType: "GoodsReceipt",
			ReferenceID:   cmd.Reference,
			CreatedBy:     cmd.Actor.SubjectID,
		}, h.clock.Now())
		if err != nil {
			return err
		}
		if err := repos.Ledger.AppendMove(ctx, move, inventory.AppendOptions{}); err != nil {
			return err
		}
		metrics.RecordStockMove(string(inventory.MovePurchaseIn), move.Quantity())

		resp = &ReceiveStockResponse{MoveID: move.ID(), BatchID: batch.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
