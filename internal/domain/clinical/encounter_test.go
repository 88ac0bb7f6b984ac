package clinical_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

func newDraftEncounter(t *testing.T) *clinical.Encounter {
	t.Helper()
	enc, err := clinical.NewEncounter("patient-1", "dr-lopez", time.Now(), time.Now())
	require.NoError(t, err)
	return enc
}

func priced(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestEncounter_AddTreatmentSnapshotsDefaultPrice(t *testing.T) {
	enc := newDraftEncounter(t)
	treatment, err := clinical.NewTreatment("Mesotherapy", "Single session", priced(180))
	require.NoError(t, err)

	et, err := enc.AddTreatment(treatment, 1, nil, "", time.Now())
	require.NoError(t, err)

	// Catalogue price changes after the fact must not leak into the encounter
	require.NoError(t, treatment.SetDefaultPrice(priced(999)))

	require.NotNil(t, et.EffectivePrice())
	assert.True(t, et.EffectivePrice().Equal(decimal.NewFromInt(180)))
}

func TestEncounter_PriceOverrideWins(t *testing.T) {
	enc := newDraftEncounter(t)
	treatment, err := clinical.NewTreatment("Mesotherapy", "", priced(180))
	require.NoError(t, err)

	et, err := enc.AddTreatment(treatment, 2, priced(150), "loyalty discount", time.Now())
	require.NoError(t, err)

	assert.True(t, et.EffectivePrice().Equal(decimal.NewFromInt(150)))
	require.NotNil(t, et.Total())
	assert.True(t, et.Total().Equal(decimal.NewFromInt(300)))
}

func TestEncounter_UnpricedTreatmentHasNoTotal(t *testing.T) {
	enc := newDraftEncounter(t)
	treatment, err := clinical.NewTreatment("Follow-up check", "", nil)
	require.NoError(t, err)

	et, err := enc.AddTreatment(treatment, 1, nil, "", time.Now())
	require.NoError(t, err)

	assert.Nil(t, et.EffectivePrice())
	assert.Nil(t, et.Total())
}

func TestEncounter_FinalizeFreezesTreatments(t *testing.T) {
	enc := newDraftEncounter(t)
	treatment, err := clinical.NewTreatment("Mesotherapy", "", priced(180))
	require.NoError(t, err)
	_, err = enc.AddTreatment(treatment, 1, nil, "", time.Now())
	require.NoError(t, err)

	require.NoError(t, enc.Finalize(time.Now()))

	_, err = enc.AddTreatment(treatment, 1, nil, "", time.Now())
	var opErr *shared.InvalidOperationError
	require.ErrorAs(t, err, &opErr)

	err = enc.Finalize(time.Now())
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestEncounter_CancelIsTerminal(t *testing.T) {
	enc := newDraftEncounter(t)

	require.NoError(t, enc.Cancel(time.Now()))

	assert.True(t, enc.IsTerminal())
	err := enc.Finalize(time.Now())
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestPatient_ConsentsAreStamped(t *testing.T) {
	now := time.Now()
	patient, err := clinical.NewPatient("Jane Roe", "X123", "", "", now)
	require.NoError(t, err)

	patient.AcceptPrivacy(now)

	consents := patient.Consents()
	assert.True(t, consents.PrivacyAccepted)
	require.NotNil(t, consents.PrivacyAcceptedAt)
	assert.False(t, consents.TermsAccepted)
	assert.Nil(t, consents.TermsAcceptedAt)
}
