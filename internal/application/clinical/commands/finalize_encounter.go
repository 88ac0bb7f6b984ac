package commands

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// FinalizeEncounterCommand closes an encounter. Finalization is terminal and
// freezes the treatment list; the encounter becomes eligible for charge
// proposal generation.
type FinalizeEncounterCommand struct {
	EncounterID string
	Actor       shared.Actor
}

// FinalizeEncounterResponse reports the finalized encounter
type FinalizeEncounterResponse struct {
	EncounterID string
	Treatments  int
}

// FinalizeEncounterHandler handles the FinalizeEncounter command
type FinalizeEncounterHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewFinalizeEncounterHandler creates a new FinalizeEncounterHandler
func NewFinalizeEncounterHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *FinalizeEncounterHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &FinalizeEncounterHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the FinalizeEncounter command
func (h *FinalizeEncounterHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*FinalizeEncounterCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *FinalizeEncounterCommand")
	}

	var resp *FinalizeEncounterResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		encounter, err := repos.Encounters.FindByID(ctx, cmd.EncounterID)
		if err != nil {
			return err
		}
		if err := h.guard.RequireOwn(cmd.Actor, auth.PermEncounterWrite, encounter.PractitionerID()); err != nil {
			return err
		}
		if err := encounter.Finalize(h.clock.Now()); err != nil {
			return err
		}
		if err := repos.Encounters.Update(ctx, encounter); err != nil {
			return err
		}
		resp = &FinalizeEncounterResponse{
			EncounterID: encounter.ID(),
			Treatments:  len(encounter.Treatments()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
