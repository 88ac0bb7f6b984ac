package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

func validSpec() inventory.MoveSpec {
	return inventory.MoveSpec{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		BatchID:    "batch-1",
		MoveType:   inventory.MovePurchaseIn,
		Quantity:   10,
		CreatedBy:  "user-1",
	}
}

func TestNewStockMove_SignMustMatchDirection(t *testing.T) {
	spec := validSpec()
	spec.MoveType = inventory.MoveSaleOut
	spec.Quantity = 5

	_, err := inventory.NewStockMove(spec, time.Now())
	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)

	spec.Quantity = -5
	move, err := inventory.NewStockMove(spec, time.Now())
	require.NoError(t, err)
	assert.Equal(t, -5, move.Quantity())
}

func TestNewStockMove_RejectsZeroQuantity(t *testing.T) {
	spec := validSpec()
	spec.Quantity = 0

	_, err := inventory.NewStockMove(spec, time.Now())

	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestNewStockMove_ReversalOnlyOnRefund(t *testing.T) {
	reversed := "move-1"
	spec := validSpec()
	spec.ReversedMoveID = &reversed

	_, err := inventory.NewStockMove(spec, time.Now())
	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)

	spec.MoveType = inventory.MoveRefundIn
	move, err := inventory.NewStockMove(spec, time.Now())
	require.NoError(t, err)
	require.NotNil(t, move.ReversedMoveID())
	assert.Equal(t, "move-1", *move.ReversedMoveID())
}

func TestMoveType_Direction(t *testing.T) {
	assert.True(t, inventory.MovePurchaseIn.IsInbound())
	assert.True(t, inventory.MoveRefundIn.IsInbound())
	assert.True(t, inventory.MoveTransferIn.IsInbound())
	assert.False(t, inventory.MoveSaleOut.IsInbound())
	assert.False(t, inventory.MoveWasteOut.IsInbound())
	assert.False(t, inventory.MoveAdjustmentOut.IsInbound())
	assert.False(t, inventory.MoveType("BOGUS").IsValid())
}
