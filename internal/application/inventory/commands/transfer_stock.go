package commands

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// TransferStockCommand moves a quantity of one batch between two locations
// as a paired TRANSFER_OUT / TRANSFER_IN in a single transaction.
type TransferStockCommand struct {
	ProductID        string
	BatchID          string
	FromLocationCode string
	ToLocationCode   string
	Quantity         int
	Reason           string
	Actor            shared.Actor
}

// TransferStockResponse reports the created move pair
type TransferStockResponse struct {
	OutMoveID string
	InMoveID  string
}

// TransferStockHandler handles the TransferStock command
type TransferStockHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewTransferStockHandler creates a new TransferStockHandler
func NewTransferStockHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *TransferStockHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &TransferStockHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the TransferStock command
func (h *TransferStockHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*TransferStockCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *TransferStockCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermStockManualAdjust); err != nil {
		return nil, err
	}
	if cmd.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "transfer quantity must be positive")
	}
	if cmd.FromLocationCode == cmd.ToLocationCode {
		return nil, shared.NewValidationError("to_location", "source and target location must differ")
	}

	var resp *TransferStockResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		from, err := repos.Locations.FindActiveByCode(ctx, cmd.FromLocationCode)
		if err != nil {
			return err
		}
		to, err := repos.Locations.FindActiveByCode(ctx, cmd.ToLocationCode)
		if err != nil {
			return err
		}

		// Lock both sides in location ID order to keep the discipline
		// deterministic across concurrent transfers.
		first, second := from.ID(), to.ID()
		if second < first {
			first, second = second, first
		}
		if err := repos.Ledger.LockOnHand(ctx, cmd.ProductID, first); err != nil {
			return err
		}
		if err := repos.Ledger.LockOnHand(ctx, cmd.ProductID, second); err != nil {
			return err
		}

		now := h.clock.Now()
		out, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:     cmd.ProductID,
			LocationID:    from.ID(),
			BatchID:       cmd.BatchID,
			MoveType:      inventory.MoveTransferOut,
			Quantity:      -cmd.Quantity,
			Reason:        cmd.Reason,
			ReferenceType: "Transfer",
			ReferenceID:   to.Code(),
			CreatedBy:     cmd.Actor.SubjectID,
		}, now)
		if err != nil {
			return err
		}
		if err := repos.Ledger.AppendMove(ctx, out, inventory.AppendOptions{AllowExpired: true}); err != nil {
			return err
		}

		in, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:     cmd.ProductID,
			LocationID:    to.ID(),
			BatchID:       cmd.BatchID,
			MoveType:      inventory.MoveTransferIn,
			Quantity:      cmd.Quantity,
			Reason:        cmd.Reason,
			ReferenceType: "Transfer",
			ReferenceID:   from.Code(),
			CreatedBy:     cmd.Actor.SubjectID,
		}, now)
		if err != nil {
			return err
		}
		if err := repos.Ledger.AppendMove(ctx, in, inventory.AppendOptions{AllowExpired: true}); err != nil {
			return err
		}

		metrics.RecordStockMove(string(inventory.MoveTransferOut), out.Quantity())
		metrics.RecordStockMove(string(inventory.MoveTransferIn), in.Quantity())
		resp = &TransferStockResponse{OutMoveID: out.ID(), InMoveID: in.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
