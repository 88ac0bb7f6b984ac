package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// SaleLineInput describes one line of a new sale. ProductID is nil for
// service lines; product lines snapshot the product's current name.
type SaleLineInput struct {
	ProductID   *string
	ServiceName string // used when ProductID is nil
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateSaleCommand creates a draft sale with its lines
type CreateSaleCommand struct {
	PatientID     string
	LegalEntityID string
	Lines         []SaleLineInput
	Notes         string
	Actor         shared.Actor
}

// CreateSaleResponse reports the created sale
type CreateSaleResponse struct {
	SaleID     string
	SaleNumber string
	RowVersion int
}

// CreateSaleHandler handles the CreateSale command
type CreateSaleHandler struct {
	scope            common.TransactionScope
	guard            *auth.Guard
	saleNumberFormat string
	currency         string
	clock            shared.Clock
}

// NewCreateSaleHandler creates a new CreateSaleHandler
func NewCreateSaleHandler(scope common.TransactionScope, guard *auth.Guard, saleNumberFormat, currency string, clock shared.Clock) *CreateSaleHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CreateSaleHandler{
		scope:            scope,
		guard:            guard,
		saleNumberFormat: saleNumberFormat,
		currency:         currency,
		clock:            clock,
	}
}

// Handle executes the CreateSale command
func (h *CreateSaleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CreateSaleCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CreateSaleCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermSaleTransition); err != nil {
		return nil, err
	}
	if len(cmd.Lines) == 0 {
		return nil, shared.NewValidationError("lines", "a sale needs at least one line")
	}

	var resp *CreateSaleResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		if _, err := repos.Patients.FindByID(ctx, cmd.PatientID); err != nil {
			return err
		}

		now := h.clock.Now()
		seq, err := repos.SaleNumbers.Next(ctx, billing.SaleNumberPeriod(now))
		if err != nil {
			return fmt.Errorf("failed to allocate sale number: %w", err)
		}
		saleNumber := billing.FormatSaleNumber(h.saleNumberFormat, now, seq)

		sale, err := billing.NewSale(cmd.PatientID, cmd.LegalEntityID, saleNumber, h.currency, cmd.Notes, cmd.Actor.SubjectID, now)
		if err != nil {
			return err
		}

		for _, input := range cmd.Lines {
			name := input.ServiceName
			if input.ProductID != nil {
				product, err := repos.Products.FindByID(ctx, *input.ProductID)
				if err != nil {
					return err
				}
				if !product.Active() {
					return shared.NewInvalidOperationError("product " + product.SKU() + " is inactive")
				}
				name = product.Name()
			}
			if _, err := sale.AddLine(input.ProductID, name, input.Quantity, input.UnitPrice); err != nil {
				return err
			}
		}

		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		resp = &CreateSaleResponse{
			SaleID:     sale.ID(),
			SaleNumber: sale.SaleNumber(),
			RowVersion: sale.RowVersion(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
