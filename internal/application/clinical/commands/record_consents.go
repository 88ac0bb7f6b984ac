package commands

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// RecordConsentsCommand records privacy/terms acceptance on a patient.
// RowVersion is the version the client last observed.
type RecordConsentsCommand struct {
	PatientID     string
	AcceptPrivacy bool
	AcceptTerms   bool
	RowVersion    int
	Actor         shared.Actor
}

// RecordConsentsResponse reports the updated patient version
type RecordConsentsResponse struct {
	PatientID  string
	RowVersion int
}

// RecordConsentsHandler handles the RecordConsents command
type RecordConsentsHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
	clock shared.Clock
}

// NewRecordConsentsHandler creates a new RecordConsentsHandler
func NewRecordConsentsHandler(scope common.TransactionScope, guard *auth.Guard, clock shared.Clock) *RecordConsentsHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &RecordConsentsHandler{scope: scope, guard: guard, clock: clock}
}

// Handle executes the RecordConsents command
func (h *RecordConsentsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RecordConsentsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RecordConsentsCommand")
	}

	if err := h.guard.Require(cmd.Actor, auth.PermPatientWrite); err != nil {
		return nil, err
	}

	var resp *RecordConsentsResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		patient, err := repos.Patients.FindByID(ctx, cmd.PatientID)
		if err != nil {
			return err
		}
		if patient.RowVersion() != cmd.RowVersion {
			return shared.NewConcurrencyConflictError("patient", patient.ID())
		}

		now := h.clock.Now()
		if cmd.AcceptPrivacy {
			patient.AcceptPrivacy(now)
		}
		if cmd.AcceptTerms {
			patient.AcceptTerms(now)
		}
		if err := repos.Patients.Update(ctx, patient, cmd.RowVersion); err != nil {
			return err
		}
		resp = &RecordConsentsResponse{PatientID: patient.ID(), RowVersion: patient.RowVersion()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
