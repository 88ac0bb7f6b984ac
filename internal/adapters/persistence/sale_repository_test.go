package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/test/helpers"
)

func createSale(t *testing.T, f *helpers.Fixture, number string) *billing.Sale {
	t.Helper()
	sale, err := billing.NewSale("patient-1", "clinic-1", number, "EUR", "", "reception-1", time.Now())
	require.NoError(t, err)
	productID := "prod-1"
	_, err = sale.AddLine(&productID, "Vitamin C serum", 2, decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = sale.AddLine(nil, "Consultation", 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, f.Repos.Sales.Create(context.Background(), sale))
	return sale
}

func TestSaleRepository_RoundTrip(t *testing.T) {
	f := helpers.NewFixture(t)
	sale := createSale(t, f, "S-202608-00001")

	found, err := f.Repos.Sales.FindByID(context.Background(), sale.ID())
	require.NoError(t, err)

	assert.Equal(t, sale.SaleNumber(), found.SaleNumber())
	assert.Equal(t, billing.SaleStatusDraft, found.Status())
	assert.Equal(t, 0, found.RowVersion())
	require.Len(t, found.Lines(), 2)
	assert.Equal(t, "Vitamin C serum", found.Lines()[0].ProductName())
	assert.True(t, found.Lines()[1].IsService())
	assert.True(t, found.Total().Equal(decimal.NewFromInt(110)))

	byNumber, err := f.Repos.Sales.FindBySaleNumber(context.Background(), "S-202608-00001")
	require.NoError(t, err)
	assert.Equal(t, sale.ID(), byNumber.ID())
}

func TestSaleRepository_FindMissing(t *testing.T) {
	f := helpers.NewFixture(t)

	_, err := f.Repos.Sales.FindByID(context.Background(), "nope")

	var notFound *shared.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSaleRepository_ConditionalUpdateBumpsVersion(t *testing.T) {
	f := helpers.NewFixture(t)
	sale := createSale(t, f, "S-202608-00002")

	require.NoError(t, sale.TransitionTo(billing.SaleStatusPending, "", time.Now()))
	require.NoError(t, f.Repos.Sales.Update(context.Background(), sale, 0))
	assert.Equal(t, 1, sale.RowVersion())

	found, err := f.Repos.Sales.FindByID(context.Background(), sale.ID())
	require.NoError(t, err)
	assert.Equal(t, billing.SaleStatusPending, found.Status())
	assert.Equal(t, 1, found.RowVersion())
}

func TestSaleRepository_StaleVersionConflicts(t *testing.T) {
	f := helpers.NewFixture(t)
	sale := createSale(t, f, "S-202608-00003")

	require.NoError(t, sale.TransitionTo(billing.SaleStatusPending, "", time.Now()))
	require.NoError(t, f.Repos.Sales.Update(context.Background(), sale, 0))

	// a second writer still holding version 0
	stale, err := f.Repos.Sales.FindByID(context.Background(), sale.ID())
	require.NoError(t, err)
	require.NoError(t, stale.TransitionTo(billing.SaleStatusCancelled, "", time.Now()))
	err = f.Repos.Sales.Update(context.Background(), stale, 0)

	var conflict *shared.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)

	found, err := f.Repos.Sales.FindByID(context.Background(), sale.ID())
	require.NoError(t, err)
	assert.Equal(t, billing.SaleStatusPending, found.Status())
}

func TestSaleNumberSequence_MonotonicPerPeriod(t *testing.T) {
	f := helpers.NewFixture(t)

	first, err := f.Repos.SaleNumbers.Next(context.Background(), "202608")
	require.NoError(t, err)
	second, err := f.Repos.SaleNumbers.Next(context.Background(), "202608")
	require.NoError(t, err)
	other, err := f.Repos.SaleNumbers.Next(context.Background(), "202609")
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 1, other)
}
