package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// AdjustStockCommand books a manual correction against one batch. Positive
// quantities book ADJUSTMENT_IN, negative quantities ADJUSTMENT_OUT. Moves
// are never edited; the correction of a correction is another adjustment.
type AdjustStockCommand struct {
	ProductID    string
	LocationCode string
	BatchID      string
	Quantity     int // signed
	Reason       string
	Actor        shared.Actor
}

// AdjustStockResponse reports the created move
type AdjustStockResponse struct {
	MoveID string
}

// AdjustStockHandler handles the AdjustStock command
type AdjustStockHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewAdjustStockHandler creates a new AdjustStockHandler
func NewAdjustStockHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *AdjustStockHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &AdjustStockHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the AdjustStock command
func (h *AdjustStockHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*AdjustStockCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AdjustStockCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermStockManualAdjust); err != nil {
		return nil, err
	}
	if cmd.Quantity == 0 {
		return nil, shared.NewValidationError("quantity", "adjustment quantity cannot be zero")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, shared.NewValidationError("reason", "manual adjustments require a reason")
	}

	moveType := inventory.MoveAdjustmentIn
	if cmd.Quantity < 0 {
		moveType = inventory.MoveAdjustmentOut
	}

	var resp *AdjustStockResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		location, err := repos.Locations.FindActiveByCode(ctx, cmd.LocationCode)
		if err != nil {
			return err
		}
		if err := repos.Ledger.LockOnHand(ctx, cmd.ProductID, location.ID()); err != nil {
			return err
		}

		move, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:     cmd.ProductID,
			LocationID:    location.ID(),
			BatchID:       cmd.BatchID,
			MoveType:      moveType,
			Quantity:      cmd.Quantity,
			Reason:        cmd.Reason,
			ReferenceType: "ManualAdjustment",
			ReferenceID:   "",
			CreatedBy:     cmd.Actor.SubjectID,
		}, h.clock.Now())
		if err != nil {
			return err
		}
		// Expired batches may be adjusted; disposal of expired stock is the
		// usual reason for an ADJUSTMENT_OUT.
		if err := repos.Ledger.AppendMove(ctx, move, inventory.AppendOptions{AllowExpired: true}); err != nil {
			return err
		}
		metrics.RecordStockMove(string(moveType), move.Quantity())

		resp = &AdjustStockResponse{MoveID: move.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
