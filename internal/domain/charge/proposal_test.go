package charge_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/domain/charge"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

func newDraftProposal(t *testing.T) *charge.Proposal {
	t.Helper()
	p, err := charge.NewProposal("enc-1", "patient-1", "dr-lopez", "EUR", "", "dr-lopez", time.Now())
	require.NoError(t, err)
	return p
}

func TestProposal_TotalSumsLineTotals(t *testing.T) {
	p := newDraftProposal(t)

	_, err := p.AddLine("et-1", "tr-1", "Mesotherapy", "", 2, decimal.NewFromInt(150))
	require.NoError(t, err)
	_, err = p.AddLine("et-2", "tr-2", "Consultation", "", 1, decimal.NewFromInt(60))
	require.NoError(t, err)

	assert.True(t, p.TotalAmount().Equal(decimal.NewFromInt(360)))
}

func TestProposal_AddLineValidation(t *testing.T) {
	p := newDraftProposal(t)

	_, err := p.AddLine("et-1", "tr-1", " ", "", 1, decimal.NewFromInt(10))
	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)

	_, err = p.AddLine("et-1", "tr-1", "Mesotherapy", "", 0, decimal.NewFromInt(10))
	require.ErrorAs(t, err, &valErr)

	_, err = p.AddLine("et-1", "tr-1", "Mesotherapy", "", 1, decimal.NewFromInt(-1))
	require.ErrorAs(t, err, &valErr)
}

func TestProposal_ConvertingTwiceFails(t *testing.T) {
	p := newDraftProposal(t)
	_, err := p.AddLine("et-1", "tr-1", "Mesotherapy", "", 1, decimal.NewFromInt(150))
	require.NoError(t, err)

	require.NoError(t, p.MarkConverted("sale-1", time.Now()))
	assert.Equal(t, charge.ProposalStatusConverted, p.Status())

	err = p.MarkConverted("sale-2", time.Now())
	var convErr *shared.AlreadyConvertedError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "sale-1", convErr.SaleID)
}

func TestProposal_ConvertedProposalRejectsNewLines(t *testing.T) {
	p := newDraftProposal(t)
	_, err := p.AddLine("et-1", "tr-1", "Mesotherapy", "", 1, decimal.NewFromInt(150))
	require.NoError(t, err)
	require.NoError(t, p.MarkConverted("sale-1", time.Now()))

	_, err = p.AddLine("et-2", "tr-2", "Consultation", "", 1, decimal.NewFromInt(60))
	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
}

func TestProposal_CancelNeedsReason(t *testing.T) {
	p := newDraftProposal(t)

	err := p.Cancel("", time.Now())
	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, p.Cancel("patient declined", time.Now()))
	assert.Equal(t, charge.ProposalStatusCancelled, p.Status())

	err = p.MarkConverted("sale-1", time.Now())
	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
}
