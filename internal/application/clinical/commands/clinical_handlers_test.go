package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	clinicalCmd "github.com/oriolvila/clinicore-go/internal/application/clinical/commands"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/test/helpers"
)

type clinicalWorld struct {
	f            *helpers.Fixture
	register     *clinicalCmd.RegisterPatientHandler
	consents     *clinicalCmd.RecordConsentsHandler
	createEnc    *clinicalCmd.CreateEncounterHandler
	addTreatment *clinicalCmd.AddTreatmentHandler
	finalize     *clinicalCmd.FinalizeEncounterHandler
	reception    shared.Actor
	practitioner shared.Actor
}

func newClinicalWorld(t *testing.T) *clinicalWorld {
	f := helpers.NewFixture(t)
	guard := auth.NewGuard()
	return &clinicalWorld{
		f:            f,
		register:     clinicalCmd.NewRegisterPatientHandler(f.Scope, guard, nil),
		consents:     clinicalCmd.NewRecordConsentsHandler(f.Scope, guard, nil),
		createEnc:    clinicalCmd.NewCreateEncounterHandler(f.Scope, guard, nil),
		addTreatment: clinicalCmd.NewAddTreatmentHandler(f.Scope, guard, nil),
		finalize:     clinicalCmd.NewFinalizeEncounterHandler(f.Scope, guard, nil),
		reception:    helpers.ActorWith("reception-1", shared.RoleReception),
		practitioner: helpers.ActorWith("dr-lopez", shared.RolePractitioner),
	}
}

func TestRegisterPatient_StampsConsents(t *testing.T) {
	w := newClinicalWorld(t)

	result, err := w.register.Handle(context.Background(), &clinicalCmd.RegisterPatientCommand{
		FullName:      "Jane Roe",
		DocumentID:    "X123",
		Email:         "jane@example.com",
		AcceptPrivacy: true,
		Actor:         w.reception,
	})
	require.NoError(t, err)
	resp := result.(*clinicalCmd.RegisterPatientResponse)

	patient, err := w.f.Repos.Patients.FindByID(context.Background(), resp.PatientID)
	require.NoError(t, err)
	assert.True(t, patient.Consents().PrivacyAccepted)
	assert.NotNil(t, patient.Consents().PrivacyAcceptedAt)
	assert.False(t, patient.Consents().TermsAccepted)
}

func TestRegisterPatient_PractitionerCannotRegister(t *testing.T) {
	w := newClinicalWorld(t)

	_, err := w.register.Handle(context.Background(), &clinicalCmd.RegisterPatientCommand{
		FullName:   "Jane Roe",
		DocumentID: "X123",
		Actor:      w.practitioner,
	})
	var forbidden *shared.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestRecordConsents_StaleRowVersionConflicts(t *testing.T) {
	w := newClinicalWorld(t)

	created, err := w.register.Handle(context.Background(), &clinicalCmd.RegisterPatientCommand{
		FullName:   "Jane Roe",
		DocumentID: "X123",
		Actor:      w.reception,
	})
	require.NoError(t, err)
	patientID := created.(*clinicalCmd.RegisterPatientResponse).PatientID

	first, err := w.consents.Handle(context.Background(), &clinicalCmd.RecordConsentsCommand{
		PatientID:     patientID,
		AcceptPrivacy: true,
		RowVersion:    0,
		Actor:         w.reception,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.(*clinicalCmd.RecordConsentsResponse).RowVersion)

	// a second client still holding version 0 must re-read before writing
	_, err = w.consents.Handle(context.Background(), &clinicalCmd.RecordConsentsCommand{
		PatientID:   patientID,
		AcceptTerms: true,
		RowVersion:  0,
		Actor:       w.reception,
	})
	var conflict *shared.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestEncounterLifecycle_FinalizeFreezesTreatments(t *testing.T) {
	w := newClinicalWorld(t)

	created, err := w.register.Handle(context.Background(), &clinicalCmd.RegisterPatientCommand{
		FullName:   "Jane Roe",
		DocumentID: "X123",
		Actor:      w.reception,
	})
	require.NoError(t, err)
	patientID := created.(*clinicalCmd.RegisterPatientResponse).PatientID

	price := decimal.NewFromInt(180)
	treatment, err := clinical.NewTreatment("Facial mesotherapy", "Single session", &price)
	require.NoError(t, err)
	require.NoError(t, w.f.Repos.Treatments.Create(context.Background(), treatment))

	encResult, err := w.createEnc.Handle(context.Background(), &clinicalCmd.CreateEncounterCommand{
		PatientID:      patientID,
		PractitionerID: w.practitioner.SubjectID,
		OccurredAt:     time.Now(),
		Anamnesis:      "Routine visit",
		Actor:          w.practitioner,
	})
	require.NoError(t, err)
	encounterID := encResult.(*clinicalCmd.CreateEncounterResponse).EncounterID

	_, err = w.addTreatment.Handle(context.Background(), &clinicalCmd.AddTreatmentCommand{
		EncounterID: encounterID,
		TreatmentID: treatment.ID(),
		Quantity:    2,
		Actor:       w.practitioner,
	})
	require.NoError(t, err)

	finResult, err := w.finalize.Handle(context.Background(), &clinicalCmd.FinalizeEncounterCommand{
		EncounterID: encounterID,
		Actor:       w.practitioner,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, finResult.(*clinicalCmd.FinalizeEncounterResponse).Treatments)

	// the treatment list is frozen once finalized
	_, err = w.addTreatment.Handle(context.Background(), &clinicalCmd.AddTreatmentCommand{
		EncounterID: encounterID,
		TreatmentID: treatment.ID(),
		Quantity:    1,
		Actor:       w.practitioner,
	})
	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)

	encounter, err := w.f.Repos.Encounters.FindByID(context.Background(), encounterID)
	require.NoError(t, err)
	assert.Equal(t, clinical.EncounterStatusFinalized, encounter.Status())
	require.Len(t, encounter.Treatments(), 1)
	require.NotNil(t, encounter.Treatments()[0].EffectivePrice())
	assert.True(t, encounter.Treatments()[0].EffectivePrice().Equal(price))
}

func TestAddTreatment_OtherPractitionerForbidden(t *testing.T) {
	w := newClinicalWorld(t)

	created, err := w.register.Handle(context.Background(), &clinicalCmd.RegisterPatientCommand{
		FullName:   "Jane Roe",
		DocumentID: "X123",
		Actor:      w.reception,
	})
	require.NoError(t, err)
	patientID := created.(*clinicalCmd.RegisterPatientResponse).PatientID

	encResult, err := w.createEnc.Handle(context.Background(), &clinicalCmd.CreateEncounterCommand{
		PatientID:      patientID,
		PractitionerID: w.practitioner.SubjectID,
		OccurredAt:     time.Now(),
		Actor:          w.practitioner,
	})
	require.NoError(t, err)
	encounterID := encResult.(*clinicalCmd.CreateEncounterResponse).EncounterID

	price := decimal.NewFromInt(90)
	treatment, err := clinical.NewTreatment("Peeling", "", &price)
	require.NoError(t, err)
	require.NoError(t, w.f.Repos.Treatments.Create(context.Background(), treatment))

	other := helpers.ActorWith("dr-garcia", shared.RolePractitioner)
	_, err = w.addTreatment.Handle(context.Background(), &clinicalCmd.AddTreatmentCommand{
		EncounterID: encounterID,
		TreatmentID: treatment.ID(),
		Quantity:    1,
		Actor:       other,
	})
	var forbidden *shared.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}
