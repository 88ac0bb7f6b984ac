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

// WasteStockCommand books the disposal of stock that cannot be used any more,
// typically expired or damaged material.
type WasteStockCommand struct {
	ProductID    string
	LocationCode string
	BatchID      string
	Quantity     int // positive; booked as a negative WASTE_OUT move
	Reason       string
	Actor        shared.Actor
}

// WasteStockResponse reports the created move
type WasteStockResponse struct {
	MoveID string
}

// WasteStockHandler handles the WasteStock command
type WasteStockHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewWasteStockHandler creates a new WasteStockHandler
func NewWasteStockHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *WasteStockHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &WasteStockHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the WasteStock command
func (h *WasteStockHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*WasteStockCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *WasteStockCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermStockManualAdjust); err != nil {
		return nil, err
	}
	if cmd.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "waste quantity must be positive")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, shared.NewValidationError("reason", "waste disposal requires a reason")
	}

	var resp *WasteStockResponse
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
			MoveType:      inventory.MoveWasteOut,
			Quantity:      -cmd.Quantity,
			Reason:        cmd.Reason,
			ReferenceType: "Waste",
			ReferenceID:   "",
			CreatedBy:     cmd.Actor.SubjectID,
		}, h.clock.Now())
		if err != nil {
			return err
		}
		if err := repos.Ledger.AppendMove(ctx, move, inventory.AppendOptions{AllowExpired: true}); err != nil {
			return err
		}
		metrics.RecordStockMove(string(inventory.MoveWasteOut), move.Quantity())

		resp = &WasteStockResponse{MoveID: move.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
