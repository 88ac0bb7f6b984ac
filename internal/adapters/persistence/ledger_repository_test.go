package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/test/helpers"
)

func TestLedger_AppendUpdatesOnHand(t *testing.T) {
	f := helpers.NewFixture(t)
	location := f.CreateLocation("MAIN-WAREHOUSE")
	product := f.CreateProduct("HYAL-1ML", "Hyaluronic acid filler 1ml")
	batch := f.ReceiveBatch(product, location, "LOT-A", helpers.DaysFromNow(365), 20)

	rows, err := f.Repos.Ledger.OnHand(context.Background(), product.ID(), location.ID())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, batch.ID(), rows[0].BatchID)
	assert.Equal(t, "LOT-A", rows[0].BatchNumber)
	assert.Equal(t, 20, rows[0].Quantity)

	out, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:  product.ID(),
		LocationID: location.ID(),
		BatchID:    batch.ID(),
		MoveType:   inventory.MoveAdjustmentOut,
		Quantity:   -5,
		Reason:     "broken vials",
		CreatedBy:  "ops-1",
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.Repos.Ledger.AppendMove(context.Background(), out, inventory.AppendOptions{}))

	assert.Equal(t, 15, f.OnHandTotal(product.ID(), location.ID()))
}

func TestLedger_RejectsNegativeBalance(t *testing.T) {
	f := helpers.NewFixture(t)
	location := f.CreateLocation("MAIN-WAREHOUSE")
	product := f.CreateProduct("BTX-100U", "Botulinum toxin 100U")
	batch := f.ReceiveBatch(product, location, "LOT-B", helpers.DaysFromNow(180), 3)

	out, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:  product.ID(),
		LocationID: location.ID(),
		BatchID:    batch.ID(),
		MoveType:   inventory.MoveAdjustmentOut,
		Quantity:   -4,
		Reason:     "stocktake",
		CreatedBy:  "ops-1",
	}, time.Now())
	require.NoError(t, err)

	err = f.Repos.Ledger.AppendMove(context.Background(), out, inventory.AppendOptions{})

	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
	// nothing was written
	assert.Equal(t, 3, f.OnHandTotal(product.ID(), location.ID()))
}

func TestLedger_RejectsOutFromExpiredBatchUnlessAllowed(t *testing.T) {
	f := helpers.NewFixture(t)
	location := f.CreateLocation("MAIN-WAREHOUSE")
	product := f.CreateProduct("SERUM-VITC", "Vitamin C serum")
	batch := f.ReceiveBatch(product, location, "LOT-OLD", helpers.DaysFromNow(-10), 10)

	out, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:  product.ID(),
		LocationID: location.ID(),
		BatchID:    batch.ID(),
		MoveType:   inventory.MoveWasteOut,
		Quantity:   -10,
		Reason:     "expired disposal",
		CreatedBy:  "ops-1",
	}, time.Now())
	require.NoError(t, err)

	err = f.Repos.Ledger.AppendMove(context.Background(), out, inventory.AppendOptions{})
	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)

	// expired disposal is exactly the case AllowExpired exists for
	require.NoError(t, f.Repos.Ledger.AppendMove(context.Background(), out, inventory.AppendOptions{AllowExpired: true}))
	assert.Equal(t, 0, f.OnHandTotal(product.ID(), location.ID()))
}

func TestLedger_MovesForSaleInCreationOrder(t *testing.T) {
	f := helpers.NewFixture(t)
	location := f.CreateLocation("MAIN-WAREHOUSE")
	product := f.CreateProduct("HYAL-1ML", "Hyaluronic acid filler 1ml")
	first := f.ReceiveBatch(product, location, "LOT-A", helpers.DaysFromNow(30), 5)
	second := f.ReceiveBatch(product, location, "LOT-B", helpers.DaysFromNow(90), 5)

	saleID := "sale-1"
	for _, batchID := range []string{first.ID(), second.ID()} {
		move, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:  product.ID(),
			LocationID: location.ID(),
			BatchID:    batchID,
			MoveType:   inventory.MoveSaleOut,
			Quantity:   -2,
			SaleID:     &saleID,
			CreatedBy:  "reception-1",
		}, time.Now())
		require.NoError(t, err)
		require.NoError(t, f.Repos.Ledger.AppendMove(context.Background(), move, inventory.AppendOptions{}))
	}

	moves, err := f.Repos.Ledger.MovesForSale(context.Background(), saleID, inventory.MoveSaleOut)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, first.ID(), moves[0].BatchID())
	assert.Equal(t, second.ID(), moves[1].BatchID())

	refunds, err := f.Repos.Ledger.MovesForSale(context.Background(), saleID, inventory.MoveRefundIn)
	require.NoError(t, err)
	assert.Empty(t, refunds)
}

func TestLedger_OneReversalPerMove(t *testing.T) {
	f := helpers.NewFixture(t)
	location := f.CreateLocation("MAIN-WAREHOUSE")
	product := f.CreateProduct("HYAL-1ML", "Hyaluronic acid filler 1ml")
	batch := f.ReceiveBatch(product, location, "LOT-A", helpers.DaysFromNow(365), 10)

	saleID := "sale-1"
	saleOut, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:  product.ID(),
		LocationID: location.ID(),
		BatchID:    batch.ID(),
		MoveType:   inventory.MoveSaleOut,
		Quantity:   -4,
		SaleID:     &saleID,
		CreatedBy:  "reception-1",
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.Repos.Ledger.AppendMove(context.Background(), saleOut, inventory.AppendOptions{}))

	makeReversal := func() *inventory.StockMove {
		reversedID := saleOut.ID()
		reversal, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:      product.ID(),
			LocationID:     location.ID(),
			BatchID:        batch.ID(),
			MoveType:       inventory.MoveRefundIn,
			Quantity:       4,
			SaleID:         &saleID,
			ReversedMoveID: &reversedID,
			CreatedBy:      "reception-1",
		}, time.Now())
		require.NoError(t, err)
		return reversal
	}

	require.NoError(t, f.Repos.Ledger.AppendMove(context.Background(), makeReversal(), inventory.AppendOptions{AllowExpired: true, IsReversal: true}))

	// the unique index on the reversed move reference blocks a second reversal
	err = f.Repos.Ledger.AppendMove(context.Background(), makeReversal(), inventory.AppendOptions{AllowExpired: true, IsReversal: true})
	require.Error(t, err)

	reversals, err := f.Repos.Ledger.ReversalsFor(context.Background(), []string{saleOut.ID()})
	require.NoError(t, err)
	assert.Len(t, reversals, 1)
}
