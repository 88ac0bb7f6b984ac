package commands

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/charge"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// ConvertToSaleCommand turns a draft charge proposal into a draft sale.
// The sale's lines are service lines (no product reference) so paying the
// sale never consumes stock. The sale is returned in draft and must be
// transitioned forward by a separate user action.
type ConvertToSaleCommand struct {
	ProposalID    string
	LegalEntityID string
	Notes         string
	Actor         shared.Actor
}

// ConvertToSaleResponse reports the created sale
type ConvertToSaleResponse struct {
	SaleID     string
	SaleNumber string
	RowVersion int
}

// ConvertToSaleHandler handles the ConvertToSale command
type ConvertToSaleHandler struct {
	scope            common.TransactionScope
	guard            *auth.Guard
	saleNumberFormat string
	clock            shared.Clock
}

// NewConvertToSaleHandler creates a new ConvertToSaleHandler
func NewConvertToSaleHandler(scope common.TransactionScope, guard *auth.Guard, saleNumberFormat string, clock shared.Clock) *ConvertToSaleHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ConvertToSaleHandler{scope: scope, guard: guard, saleNumberFormat: saleNumberFormat, clock: clock}
}

// Handle executes the ConvertToSale command
func (h *ConvertToSaleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ConvertToSaleCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ConvertToSaleCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermProposalConvert); err != nil {
		return nil, err
	}

	var resp *ConvertToSaleResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		proposal, err := repos.Proposals.FindByID(ctx, cmd.ProposalID)
		if err != nil {
			return err
		}
		if proposal.ConvertedToSaleID() != nil {
			return shared.NewAlreadyConvertedError(proposal.ID(), *proposal.ConvertedToSaleID())
		}
		if proposal.Status() != charge.ProposalStatusDraft {
			return shared.NewInvalidOperationError(fmt.Sprintf("proposal %s is %s and cannot be converted", proposal.ID(), proposal.Status()))
		}
		if len(proposal.Lines()) == 0 {
			return shared.NewValidationError("lines", "proposal has no lines to convert")
		}

		now := h.clock.Now()
		seq, err := repos.SaleNumbers.Next(ctx, billing.SaleNumberPeriod(now))
		if err != nil {
			return fmt.Errorf("failed to allocate sale number: %w", err)
		}
		saleNumber := billing.FormatSaleNumber(h.saleNumberFormat, now, seq)

		sale, err := billing.NewSale(proposal.PatientID(), cmd.LegalEntityID, saleNumber, proposal.Currency(), cmd.Notes, cmd.Actor.SubjectID, now)
		if err != nil {
			return err
		}
		for _, line := range proposal.Lines() {
			// Clinical services carry no product reference: paying this
			// sale must not trigger FEFO allocation.
			if _, err := sale.AddLine(nil, line.TreatmentName(), line.Quantity(), line.UnitPrice()); err != nil {
				return err
			}
		}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		if err := proposal.MarkConverted(sale.ID(), now); err != nil {
			return err
		}
		if err := repos.Proposals.Update(ctx, proposal); err != nil {
			return err
		}

		resp = &ConvertToSaleResponse{
			SaleID:     sale.ID(),
			SaleNumber: sale.SaleNumber(),
			RowVersion: sale.RowVersion(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordProposalConversion()
	return resp, nil
}
