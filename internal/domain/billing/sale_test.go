package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

func newDraftSale(t *testing.T) *billing.Sale {
	t.Helper()
	sale, err := billing.NewSale("patient-1", "clinic-1", "S-202608-00001", "EUR", "", "user-1", time.Now())
	require.NoError(t, err)
	return sale
}

func TestSaleTransitions_AllowedEdges(t *testing.T) {
	cases := []struct {
		from billing.SaleStatus
		to   billing.SaleStatus
		ok   bool
	}{
		{billing.SaleStatusDraft, billing.SaleStatusPending, true},
		{billing.SaleStatusDraft, billing.SaleStatusCancelled, true},
		{billing.SaleStatusDraft, billing.SaleStatusPaid, false},
		{billing.SaleStatusDraft, billing.SaleStatusRefunded, false},
		{billing.SaleStatusPending, billing.SaleStatusPaid, true},
		{billing.SaleStatusPending, billing.SaleStatusCancelled, true},
		{billing.SaleStatusPending, billing.SaleStatusDraft, false},
		{billing.SaleStatusPending, billing.SaleStatusRefunded, false},
		{billing.SaleStatusPaid, billing.SaleStatusRefunded, true},
		{billing.SaleStatusPaid, billing.SaleStatusPaid, false},
		{billing.SaleStatusPaid, billing.SaleStatusCancelled, false},
		{billing.SaleStatusCancelled, billing.SaleStatusPending, false},
		{billing.SaleStatusCancelled, billing.SaleStatusCancelled, false},
		{billing.SaleStatusRefunded, billing.SaleStatusPaid, false},
		{billing.SaleStatusRefunded, billing.SaleStatusRefunded, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, billing.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestSale_PayStampsPaidAt(t *testing.T) {
	sale := newDraftSale(t)
	now := time.Now()

	require.NoError(t, sale.TransitionTo(billing.SaleStatusPending, "", now))
	require.NoError(t, sale.TransitionTo(billing.SaleStatusPaid, "", now))

	assert.Equal(t, billing.SaleStatusPaid, sale.Status())
	require.NotNil(t, sale.PaidAt())
	assert.Equal(t, now, *sale.PaidAt())
}

func TestSale_PayingTwiceIsInvalid(t *testing.T) {
	sale := newDraftSale(t)
	now := time.Now()
	require.NoError(t, sale.TransitionTo(billing.SaleStatusPending, "", now))
	require.NoError(t, sale.TransitionTo(billing.SaleStatusPaid, "", now))

	err := sale.TransitionTo(billing.SaleStatusPaid, "", now)

	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "PAID", transitionErr.From)
	assert.Equal(t, "PAID", transitionErr.To)
}

func TestSale_RefundRequiresReason(t *testing.T) {
	sale := newDraftSale(t)
	now := time.Now()
	require.NoError(t, sale.TransitionTo(billing.SaleStatusPending, "", now))
	require.NoError(t, sale.TransitionTo(billing.SaleStatusPaid, "", now))

	err := sale.TransitionTo(billing.SaleStatusRefunded, "  ", now)
	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, billing.SaleStatusPaid, sale.Status())

	require.NoError(t, sale.TransitionTo(billing.SaleStatusRefunded, "product defect", now))
	require.NotNil(t, sale.RefundReason())
	assert.Equal(t, "product defect", *sale.RefundReason())
}

func TestSale_LinesOnlyOnDraft(t *testing.T) {
	sale := newDraftSale(t)
	productID := "prod-1"
	_, err := sale.AddLine(&productID, "Vitamin C serum", 2, decimal.NewFromInt(30))
	require.NoError(t, err)

	require.NoError(t, sale.TransitionTo(billing.SaleStatusPending, "", time.Now()))
	_, err = sale.AddLine(nil, "Consultation", 1, decimal.NewFromInt(50))

	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
}

func TestSale_TotalAndProductLines(t *testing.T) {
	sale := newDraftSale(t)
	productID := "prod-1"
	_, err := sale.AddLine(&productID, "Vitamin C serum", 2, decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = sale.AddLine(nil, "Consultation", 1, decimal.NewFromInt(50))
	require.NoError(t, err)

	assert.True(t, sale.Total().Equal(decimal.NewFromInt(110)))
	require.Len(t, sale.ProductLines(), 1)
	assert.Equal(t, "Vitamin C serum", sale.ProductLines()[0].ProductName())
	assert.True(t, sale.Lines()[1].IsService())
}
