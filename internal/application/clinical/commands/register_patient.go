package commands

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// RegisterPatientCommand registers a new patient record
type RegisterPatientCommand struct {
	FullName      string
	DocumentID    string
	Email         string
	Phone         string
	AcceptPrivacy bool
	AcceptTerms   bool
	Actor         shared.Actor
}

// RegisterPatientResponse reports the created patient
type RegisterPatientResponse struct {
	PatientID  string
	RowVersion int
}

// RegisterPatientHandler handles the RegisterPatient command
type RegisterPatientHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewRegisterPatientHandler creates a new RegisterPatientHandler
func NewRegisterPatientHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *RegisterPatientHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &RegisterPatientHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the RegisterPatient command
func (h *RegisterPatientHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RegisterPatientCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RegisterPatientCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermPatientWrite); err != nil {
		return nil, err
	}

	var resp *RegisterPatientResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		now := h.clock.Now()
		patient, err := clinical.NewPatient(cmd.FullName, cmd.DocumentID, cmd.Email, cmd.Phone, now)
		if err != nil {
			return err
		}
		if cmd.AcceptPrivacy {
			patient.AcceptPrivacy(now)
		}
		if cmd.AcceptTerms {
			patient.AcceptTerms(now)
		}
		if err := repos.Patients.Create(ctx, patient); err != nil {
			return err
		}
		resp = &RegisterPatientResponse{PatientID: patient.ID(), RowVersion: patient.RowVersion()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
