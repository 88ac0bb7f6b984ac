package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	billingCmd "github.com/oriolvila/clinicore-go/internal/application/billing/commands"
	"github.com/oriolvila/clinicore-go/internal/application/billing/services"
	chargeCmd "github.com/oriolvila/clinicore-go/internal/application/charge/commands"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/test/helpers"
)

type chargeWorld struct {
	f            *helpers.Fixture
	generate     *chargeCmd.GenerateProposalHandler
	convert      *chargeCmd.ConvertToSaleHandler
	patient      *clinical.Patient
	treatment    *clinical.Treatment
	practitioner shared.Actor
	reception    shared.Actor
}

func newChargeWorld(t *testing.T) *chargeWorld {
	f := helpers.NewFixture(t)
	guard := auth.NewGuard()

	patient, err := clinical.NewPatient("Jane Roe", "X123", "", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.Repos.Patients.Create(context.Background(), patient))

	price := decimal.NewFromInt(180)
	treatment, err := clinical.NewTreatment("Facial mesotherapy", "Single session", &price)
	require.NoError(t, err)
	require.NoError(t, f.Repos.Treatments.Create(context.Background(), treatment))

	return &chargeWorld{
		f:            f,
		generate:     chargeCmd.NewGenerateProposalHandler(f.Scope, guard, "EUR", nil),
		convert:      chargeCmd.NewConvertToSaleHandler(f.Scope, guard, "", nil),
		patient:      patient,
		treatment:    treatment,
		practitioner: helpers.ActorWith("dr-lopez", shared.RolePractitioner),
		reception:    helpers.ActorWith("reception-1", shared.RoleReception),
	}
}

// finalizedEncounter records the treatment against the patient and closes the
// encounter, the state from which billing may start
func (w *chargeWorld) finalizedEncounter(t *testing.T, quantity int, override *decimal.Decimal) *clinical.Encounter {
	t.Helper()
	now := time.Now()
	encounter, err := clinical.NewEncounter(w.patient.ID(), w.practitioner.SubjectID, now, now)
	require.NoError(t, err)
	_, err = encounter.AddTreatment(w.treatment, quantity, override, "", now)
	require.NoError(t, err)
	require.NoError(t, encounter.Finalize(now))
	require.NoError(t, w.f.Repos.Encounters.Create(context.Background(), encounter))
	return encounter
}

func TestGenerateProposal_SnapshotsEncounterPricing(t *testing.T) {
	w := newChargeWorld(t)
	encounter := w.finalizedEncounter(t, 2, nil)

	// the catalogue moves on after the encounter was finalized
	raised := decimal.NewFromInt(999)
	require.NoError(t, w.treatment.SetDefaultPrice(&raised))
	require.NoError(t, w.f.Repos.Treatments.Update(context.Background(), w.treatment))

	result, err := w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       w.practitioner,
	})
	require.NoError(t, err)
	resp := result.(*chargeCmd.GenerateProposalResponse)

	assert.Equal(t, 1, resp.Lines)
	assert.Equal(t, "360.00", resp.TotalAmount)
	assert.Equal(t, "EUR", resp.Currency)

	proposal, err := w.f.Repos.Proposals.FindByID(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	require.Len(t, proposal.Lines(), 1)
	assert.True(t, proposal.Lines()[0].UnitPrice().Equal(decimal.NewFromInt(180)))
}

func TestGenerateProposal_OverrideWinsOverDefault(t *testing.T) {
	w := newChargeWorld(t)
	override := decimal.NewFromInt(150)
	encounter := w.finalizedEncounter(t, 1, &override)

	result, err := w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       w.practitioner,
	})
	require.NoError(t, err)
	assert.Equal(t, "150.00", result.(*chargeCmd.GenerateProposalResponse).TotalAmount)
}

func TestGenerateProposal_OncePerEncounter(t *testing.T) {
	w := newChargeWorld(t)
	encounter := w.finalizedEncounter(t, 1, nil)

	cmd := &chargeCmd.GenerateProposalCommand{EncounterID: encounter.ID(), Actor: w.practitioner}
	_, err := w.generate.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = w.generate.Handle(context.Background(), cmd)
	var idemErr *shared.IdempotencyViolationError
	require.ErrorAs(t, err, &idemErr)
	assert.Equal(t, encounter.ID(), idemErr.EncounterID)
}

func TestGenerateProposal_RequiresFinalizedEncounter(t *testing.T) {
	w := newChargeWorld(t)
	now := time.Now()
	encounter, err := clinical.NewEncounter(w.patient.ID(), w.practitioner.SubjectID, now, now)
	require.NoError(t, err)
	_, err = encounter.AddTreatment(w.treatment, 1, nil, "", now)
	require.NoError(t, err)
	require.NoError(t, w.f.Repos.Encounters.Create(context.Background(), encounter))

	_, err = w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       w.practitioner,
	})
	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
}

func TestGenerateProposal_RejectsUnpricedOnlyEncounter(t *testing.T) {
	w := newChargeWorld(t)
	unpriced, err := clinical.NewTreatment("Follow-up check", "", nil)
	require.NoError(t, err)
	require.NoError(t, w.f.Repos.Treatments.Create(context.Background(), unpriced))

	now := time.Now()
	encounter, err := clinical.NewEncounter(w.patient.ID(), w.practitioner.SubjectID, now, now)
	require.NoError(t, err)
	_, err = encounter.AddTreatment(unpriced, 1, nil, "", now)
	require.NoError(t, err)
	require.NoError(t, encounter.Finalize(now))
	require.NoError(t, w.f.Repos.Encounters.Create(context.Background(), encounter))

	_, err = w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       w.practitioner,
	})
	var valErr *shared.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestGenerateProposal_PractitionerOnlyForOwnEncounters(t *testing.T) {
	w := newChargeWorld(t)
	encounter := w.finalizedEncounter(t, 1, nil)

	other := helpers.ActorWith("dr-garcia", shared.RolePractitioner)
	_, err := w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       other,
	})
	var forbidden *shared.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	// clinical ops is not bound to ownership
	_, err = w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       helpers.ActorWith("ops-1", shared.RoleClinicalOps),
	})
	require.NoError(t, err)
}

func TestConvertToSale_CreatesServiceOnlyDraftSale(t *testing.T) {
	w := newChargeWorld(t)
	encounter := w.finalizedEncounter(t, 2, nil)

	generated, err := w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       w.practitioner,
	})
	require.NoError(t, err)
	proposalID := generated.(*chargeCmd.GenerateProposalResponse).ProposalID

	result, err := w.convert.Handle(context.Background(), &chargeCmd.ConvertToSaleCommand{
		ProposalID:    proposalID,
		LegalEntityID: "clinic-1",
		Actor:         w.reception,
	})
	require.NoError(t, err)
	converted := result.(*chargeCmd.ConvertToSaleResponse)
	assert.NotEmpty(t, converted.SaleNumber)

	sale, err := w.f.Repos.Sales.FindByID(context.Background(), converted.SaleID)
	require.NoError(t, err)
	assert.Equal(t, billing.SaleStatusDraft, sale.Status())
	require.Len(t, sale.Lines(), 1)
	assert.Nil(t, sale.Lines()[0].ProductID())
	assert.Equal(t, "Facial mesotherapy", sale.Lines()[0].ProductName())
	assert.True(t, sale.Total().Equal(decimal.NewFromInt(360)))

	// paying the converted sale must not touch the stock ledger
	guard := auth.NewGuard()
	integrator := services.NewStockSaleIntegrator("MAIN-WAREHOUSE", true, nil)
	transition := billingCmd.NewTransitionSaleHandler(w.f.Scope, guard, integrator, nil)
	reception := helpers.ActorWith("reception-1", shared.RoleReception)

	_, err = transition.Handle(context.Background(), &billingCmd.TransitionSaleCommand{
		SaleID:       converted.SaleID,
		TargetStatus: billing.SaleStatusPending,
		RowVersion:   0,
		Actor:        reception,
	})
	require.NoError(t, err)
	paid, err := transition.Handle(context.Background(), &billingCmd.TransitionSaleCommand{
		SaleID:       converted.SaleID,
		TargetStatus: billing.SaleStatusPaid,
		RowVersion:   1,
		Actor:        reception,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, paid.(*billingCmd.TransitionSaleResponse).MovesMade)
}

func TestConvertToSale_SecondConversionReportsExistingSale(t *testing.T) {
	w := newChargeWorld(t)
	encounter := w.finalizedEncounter(t, 1, nil)

	generated, err := w.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: encounter.ID(),
		Actor:       w.practitioner,
	})
	require.NoError(t, err)
	proposalID := generated.(*chargeCmd.GenerateProposalResponse).ProposalID

	cmd := &chargeCmd.ConvertToSaleCommand{ProposalID: proposalID, LegalEntityID: "clinic-1", Actor: w.reception}
	first, err := w.convert.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = w.convert.Handle(context.Background(), cmd)
	var converted *shared.AlreadyConvertedError
	require.ErrorAs(t, err, &converted)
	assert.Equal(t, first.(*chargeCmd.ConvertToSaleResponse).SaleID, converted.SaleID)
}

func TestConvertToSale_RequiresBillingRole(t *testing.T) {
	w := newChargeWorld(t)
	_, err := w.convert.Handle(context.Background(), &chargeCmd.ConvertToSaleCommand{
		ProposalID:    "whatever",
		LegalEntityID: "clinic-1",
		Actor:         w.practitioner,
	})
	var forbidden *shared.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}
