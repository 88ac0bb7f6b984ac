package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// AddTreatmentCommand records a treatment performed during a draft encounter
type AddTreatmentCommand struct {
	EncounterID   string
	TreatmentID   string
	Quantity      int
	PriceOverride *decimal.Decimal
	Notes         string
	Actor         shared.Actor
}

// AddTreatmentResponse reports the created encounter treatment
type AddTreatmentResponse struct {
	EncounterTreatmentID string
}

// AddTreatmentHandler handles the AddTreatment command
type AddTreatmentHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewAddTreatmentHandler creates a new AddTreatmentHandler
func NewAddTreatmentHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *AddTreatmentHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &AddTreatmentHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the AddTreatment command
func (h *AddTreatmentHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*AddTreatmentCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AddTreatmentCommand")
	}

	var resp *AddTreatmentResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		encounter, err := repos.Encounters.FindByID(ctx, cmd.EncounterID)
		if err != nil {
			return err
		}
		if err := h.guard.RequireOwn(cmd.Actor, auth.PermEncounterWrite, encounter.PractitionerID()); err != nil {
			return err
		}

		treatment, err := repos.Treatments.FindByID(ctx, cmd.TreatmentID)
		if err != nil {
			return err
		}
		if !treatment.Active() {
			return shared.NewInvalidOperationError("treatment " + treatment.Name() + " is inactive")
		}

		et, err := encounter.AddTreatment(treatment, cmd.Quantity, cmd.PriceOverride, cmd.Notes, h.clock.Now())
		if err != nil {
			return err
		}
		if err := repos.Encounters.Update(ctx, encounter); err != nil {
			return err
		}
		resp = &AddTreatmentResponse{EncounterTreatmentID: et.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
