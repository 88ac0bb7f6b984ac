package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/charge"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GenerateProposalCommand snapshots the pricing of a finalized encounter into
// a draft charge proposal. At most one proposal may ever exist per encounter.
type GenerateProposalCommand struct {
	EncounterID string
	Notes       string
	Actor       shared.Actor
}

// GenerateProposalResponse reports the created proposal
type GenerateProposalResponse struct {
	ProposalID  string
	Lines       int
	TotalAmount string
	Currency    string
}

// GenerateProposalHandler handles the GenerateProposal command
type GenerateProposalHandler struct {
	scope    common.TransactionScope
	guard    *auth.Guard
	currency string
	clock    shared.Clock
}

// NewGenerateProposalHandler creates a new GenerateProposalHandler
func NewGenerateProposalHandler(scope common.TransactionScope, guard *auth.Guard, currency string, clock shared.Clock) *GenerateProposalHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GenerateProposalHandler{scope: scope, guard: guard, currency: currency, clock: clock}
}

// Handle executes the GenerateProposal command
func (h *GenerateProposalHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*GenerateProposalCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GenerateProposalCommand")
	}

	log := common.LoggerFromContext(ctx)

	var resp *GenerateProposalResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		encounter, err := repos.Encounters.FindByID(ctx, cmd.EncounterID)
		if err != nil {
			return err
		}
		if err := h.guard.RequireOwn(cmd.Actor, auth.PermProposalGenerate, encounter.PractitionerID()); err != nil {
			return err
		}
		if encounter.Status() != clinical.EncounterStatusFinalized {
			return shared.NewInvalidOperationError(fmt.Sprintf("encounter %s is %s; only a finalized encounter can be billed", encounter.ID(), encounter.Status()))
		}
		if len(encounter.Treatments()) == 0 {
			return shared.NewValidationError("treatments", "encounter has no billable treatments")
		}

		// Idempotency anchor: one proposal per encounter, ever.
		if _, err := repos.Proposals.FindByEncounter(ctx, encounter.ID()); err == nil {
			return shared.NewIdempotencyViolationError(encounter.ID())
		} else if _, ok := err.(*shared.NotFoundError); !ok {
			return err
		}

		now := h.clock.Now()
		proposal, err := charge.NewProposal(encounter.ID(), encounter.PatientID(), encounter.PractitionerID(), h.currency, cmd.Notes, cmd.Actor.SubjectID, now)
		if err != nil {
			return err
		}

		billable := 0
		for _, et := range encounter.Treatments() {
			price := et.EffectivePrice()
			if price == nil {
				log.WithField("encounter_id", encounter.ID()).
					WithField("treatment", et.TreatmentName()).
					Warn("skipping treatment without a price")
				continue
			}
			description := et.Description()
			if strings.TrimSpace(et.Notes()) != "" {
				if description != "" {
					description += " - " + et.Notes()
				} else {
					description = et.Notes()
				}
			}
			if _, err := proposal.AddLine(et.ID(), et.TreatmentID(), et.TreatmentName(), description, et.Quantity(), *price); err != nil {
				return err
			}
			billable++
		}
		if billable == 0 {
			return shared.NewValidationError("treatments", "encounter has no billable treatments")
		}

		if err := repos.Proposals.Create(ctx, proposal); err != nil {
			return err
		}

		resp = &GenerateProposalResponse{
			ProposalID:  proposal.ID(),
			Lines:       len(proposal.Lines()),
			TotalAmount: proposal.TotalAmount().StringFixed(2),
			Currency:    proposal.Currency(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
