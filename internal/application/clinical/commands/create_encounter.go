package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// CreateEncounterCommand opens a draft encounter for a patient
type CreateEncounterCommand struct {
	PatientID      string
	PractitionerID string
	OccurredAt     time.Time
	Anamnesis      string
	Diagnosis      string
	Notes          string
	Actor          shared.Actor
}

// CreateEncounterResponse reports the created encounter
type CreateEncounterResponse struct {
	EncounterID string
}

// CreateEncounterHandler handles the CreateEncounter command
type CreateEncounterHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewCreateEncounterHandler creates a new CreateEncounterHandler
func NewCreateEncounterHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *CreateEncounterHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CreateEncounterHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the CreateEncounter command
func (h *CreateEncounterHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CreateEncounterCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CreateEncounterCommand")
	}

	// A practitioner opens encounters under their own name.
	if err := h.guard.RequireOwn(cmd.Actor, auth.PermEncounterWrite, cmd.PractitionerID); err != nil {
		return nil, err
	}

	var resp *CreateEncounterResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		if _, err := repos.Patients.FindByID(ctx, cmd.PatientID); err != nil {
			return err
		}

		now := h.clock.Now()
		encounter, err := clinical.NewEncounter(cmd.PatientID, cmd.PractitionerID, cmd.OccurredAt, now)
		if err != nil {
			return err
		}
		if err := encounter.SetClinicalText(cmd.Anamnesis, cmd.Diagnosis, cmd.Notes, now); err != nil {
			return err
		}
		if err := repos.Encounters.Create(ctx, encounter); err != nil {
			return err
		}
		resp = &CreateEncounterResponse{EncounterID: encounter.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
