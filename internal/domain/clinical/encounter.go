package clinical

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// EncounterStatus is the lifecycle state of a clinical encounter
type EncounterStatus string

const (
	EncounterStatusDraft     EncounterStatus = "DRAFT"
	EncounterStatusFinalized EncounterStatus = "FINALIZED"
	EncounterStatusCancelled EncounterStatus = "CANCELLED"
)

// EncounterTreatment links a treatment performed during an encounter with its
// quantity and an optional price override.
type EncounterTreatment struct {
	id            string
	encounterID   string
	treatmentID   string
	treatmentName string
	description   string
	quantity      int
	priceOverride *decimal.Decimal
	defaultPrice  *decimal.Decimal
	notes         string
}

func (et *EncounterTreatment) ID() string                      { return et.id }
func (et *EncounterTreatment) EncounterID() string             { return et.encounterID }
func (et *EncounterTreatment) TreatmentID() string             { return et.treatmentID }
func (et *EncounterTreatment) TreatmentName() string           { return et.treatmentName }
func (et *EncounterTreatment) Description() string             { return et.description }
func (et *EncounterTreatment) Quantity() int                   { return et.quantity }
func (et *EncounterTreatment) PriceOverride() *decimal.Decimal { return et.priceOverride }
func (et *EncounterTreatment) DefaultPrice() *decimal.Decimal  { return et.defaultPrice }
func (et *EncounterTreatment) Notes() string                   { return et.notes }

// EffectivePrice is the override when set, otherwise the treatment's default
// price at the time the treatment was added. Nil means not billable.
func (et *EncounterTreatment) EffectivePrice() *decimal.Decimal {
	if et.priceOverride != nil {
		return et.priceOverride
	}
	return et.defaultPrice
}

// Total returns quantity × effective price, or nil when not billable
func (et *EncounterTreatment) Total() *decimal.Decimal {
	price := et.EffectivePrice()
	if price == nil {
		return nil
	}
	total := price.Mul(decimal.NewFromInt(int64(et.quantity)))
	return &total
}

// ReconstructEncounterTreatment rebuilds an encounter treatment from persistence
func ReconstructEncounterTreatment(
	id, encounterID, treatmentID, treatmentName, description string,
	quantity int,
	priceOverride, defaultPrice *decimal.Decimal,
	notes string,
) *EncounterTreatment {
	return &EncounterTreatment{
		id:            id,
		encounterID:   encounterID,
		treatmentID:   treatmentID,
		treatmentName: treatmentName,
		description:   description,
		quantity:      quantity,
		priceOverride: priceOverride,
		defaultPrice:  defaultPrice,
		notes:         notes,
	}
}

// Encounter is a clinical visit. Finalization and cancellation are terminal:
// a finalized encounter freezes its treatment list and becomes the anchor for
// at most one charge proposal.
type Encounter struct {
	id             string
	patientID      string
	practitionerID string
	status         EncounterStatus
	occurredAt     time.Time
	anamnesis      string
	diagnosis      string
	notes          string
	treatments     []*EncounterTreatment
	createdAt      time.Time
	updatedAt      time.Time
}

// NewEncounter creates a draft encounter with validation
func NewEncounter(patientID, practitionerID string, occurredAt, now time.Time) (*Encounter, error) {
	if patientID == "" {
		return nil, shared.NewValidationError("patient_id", "patient_id cannot be empty")
	}
	if practitionerID == "" {
		return nil, shared.NewValidationError("practitioner_id", "practitioner_id cannot be empty")
	}
	return &Encounter{
		id:             uuid.NewString(),
		patientID:      patientID,
		practitionerID: practitionerID,
		status:         EncounterStatusDraft,
		occurredAt:     occurredAt,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructEncounter rebuilds an encounter from persistence
func ReconstructEncounter(
	id, patientID, practitionerID string,
	status EncounterStatus,
	occurredAt time.Time,
	anamnesis, diagnosis, notes string,
	treatments []*EncounterTreatment,
	createdAt, updatedAt time.Time,
) *Encounter {
	return &Encounter{
		id:             id,
		patientID:      patientID,
		practitionerID: practitionerID,
		status:         status,
		occurredAt:     occurredAt,
		anamnesis:      anamnesis,
		diagnosis:      diagnosis,
		notes:          notes,
		treatments:     treatments,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (e *Encounter) ID() string                        { return e.id }
func (e *Encounter) PatientID() string                 { return e.patientID }
func (e *Encounter) PractitionerID() string            { return e.practitionerID }
func (e *Encounter) Status() EncounterStatus           { return e.status }
func (e *Encounter) OccurredAt() time.Time             { return e.occurredAt }
func (e *Encounter) Anamnesis() string                 { return e.anamnesis }
func (e *Encounter) Diagnosis() string                 { return e.diagnosis }
func (e *Encounter) Notes() string                     { return e.notes }
func (e *Encounter) Treatments() []*EncounterTreatment { return e.treatments }
func (e *Encounter) CreatedAt() time.Time              { return e.createdAt }
func (e *Encounter) UpdatedAt() time.Time              { return e.updatedAt }

// IsTerminal reports whether the encounter admits no further changes
func (e *Encounter) IsTerminal() bool {
	return e.status == EncounterStatusFinalized || e.status == EncounterStatusCancelled
}

// SetClinicalText updates the free-text fields of a draft encounter
func (e *Encounter) SetClinicalText(anamnesis, diagnosis, notes string, now time.Time) error {
	if e.IsTerminal() {
		return shared.NewInvalidOperationError("encounter " + e.id + " is " + string(e.status) + " and cannot be modified")
	}
	e.anamnesis = anamnesis
	e.diagnosis = diagnosis
	e.notes = notes
	e.updatedAt = now
	return nil
}

// AddTreatment records a treatment performed during the encounter, snapshotting
// the treatment's current default price so later catalogue changes do not leak
// into the encounter.
func (e *Encounter) AddTreatment(treatment *Treatment, quantity int, priceOverride *decimal.Decimal, notes string, now time.Time) (*EncounterTreatment, error) {
	if e.IsTerminal() {
		return nil, shared.NewInvalidOperationError("encounter " + e.id + " is " + string(e.status) + " and cannot be modified")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "quantity must be positive")
	}
	if priceOverride != nil && priceOverride.IsNegative() {
		return nil, shared.NewValidationError("unit_price_override", "price override cannot be negative")
	}

	et := &EncounterTreatment{
		id:            uuid.NewString(),
		encounterID:   e.id,
		treatmentID:   treatment.ID(),
		treatmentName: treatment.Name(),
		description:   treatment.Description(),
		quantity:      quantity,
		priceOverride: priceOverride,
		defaultPrice:  treatment.DefaultPrice(),
		notes:         notes,
	}
	e.treatments = append(e.treatments, et)
	e.updatedAt = now
	return et, nil
}

// Finalize closes the encounter. Terminal: the treatment list is frozen.
func (e *Encounter) Finalize(now time.Time) error {
	if e.IsTerminal() {
		return shared.NewInvalidTransitionError("encounter "+e.id, string(e.status), string(EncounterStatusFinalized))
	}
	e.status = EncounterStatusFinalized
	e.updatedAt = now
	return nil
}

// Cancel voids the encounter. Terminal.
func (e *Encounter) Cancel(now time.Time) error {
	if e.IsTerminal() {
		return shared.NewInvalidTransitionError("encounter "+e.id, string(e.status), string(EncounterStatusCancelled))
	}
	e.status = EncounterStatusCancelled
	e.updatedAt = now
	return nil
}
