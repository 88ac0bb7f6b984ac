package charge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// ProposalStatus is the lifecycle state of a charge proposal
type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "DRAFT"
	ProposalStatusConverted ProposalStatus = "CONVERTED"
	ProposalStatusCancelled ProposalStatus = "CANCELLED"
)

// ProposalLine carries one priced treatment from the encounter into the
// proposal. The treatment name and unit price are snapshots: later catalogue
// changes do not touch them.
type ProposalLine struct {
	id                   string
	proposalID           string
	encounterTreatmentID string
	treatmentID          string
	treatmentName        string
	description          string
	quantity             int
	unitPrice            decimal.Decimal
}

func (l *ProposalLine) ID() string                   { return l.id }
func (l *ProposalLine) ProposalID() string           { return l.proposalID }
func (l *ProposalLine) EncounterTreatmentID() string { return l.encounterTreatmentID }
func (l *ProposalLine) TreatmentID() string          { return l.treatmentID }
func (l *ProposalLine) TreatmentName() string        { return l.treatmentName }
func (l *ProposalLine) Description() string          { return l.description }
func (l *ProposalLine) Quantity() int                { return l.quantity }
func (l *ProposalLine) UnitPrice() decimal.Decimal   { return l.unitPrice }

// Total returns quantity × snapshotted unit price
func (l *ProposalLine) Total() decimal.Decimal {
	return l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
}

// ReconstructProposalLine rebuilds a line from persistence
func ReconstructProposalLine(id, proposalID, encounterTreatmentID, treatmentID, treatmentName, description string, quantity int, unitPrice decimal.Decimal) *ProposalLine {
	return &ProposalLine{
		id:                   id,
		proposalID:           proposalID,
		encounterTreatmentID: encounterTreatmentID,
		treatmentID:          treatmentID,
		treatmentName:        treatmentName,
		description:          description,
		quantity:             quantity,
		unitPrice:            unitPrice,
	}
}

// Proposal is the reviewable document that carries pricing from a finalized
// clinical encounter into the sales domain. Exactly one proposal may exist
// per encounter; once converted it is read-only.
type Proposal struct {
	id                 string
	encounterID        string
	patientID          string
	practitionerID     string
	status             ProposalStatus
	currency           string
	notes              string
	convertedToSaleID  *string
	convertedAt        *time.Time
	cancellationReason *string
	createdBy          string
	createdAt          time.Time
	updatedAt          time.Time
	lines              []*ProposalLine
}

// NewProposal creates a draft proposal anchored to an encounter
func NewProposal(encounterID, patientID, practitionerID, currency, notes, createdBy string, now time.Time) (*Proposal, error) {
	if encounterID == "" {
		return nil, shared.NewValidationError("encounter_id", "encounter_id cannot be empty")
	}
	if patientID == "" {
		return nil, shared.NewValidationError("patient_id", "patient_id cannot be empty")
	}
	return &Proposal{
		id:             uuid.NewString(),
		encounterID:    encounterID,
		patientID:      patientID,
		practitionerID: practitionerID,
		status:         ProposalStatusDraft,
		currency:       currency,
		notes:          notes,
		createdBy:      createdBy,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructProposal rebuilds a proposal from persistence
func ReconstructProposal(
	id, encounterID, patientID, practitionerID string,
	status ProposalStatus,
	currency, notes string,
	convertedToSaleID *string,
	convertedAt *time.Time,
	cancellationReason *string,
	createdBy string,
	createdAt, updatedAt time.Time,
	lines []*ProposalLine,
) *Proposal {
	return &Proposal{
		id:                 id,
		encounterID:        encounterID,
		patientID:          patientID,
		practitionerID:     practitionerID,
		status:             status,
		currency:           currency,
		notes:              notes,
		convertedToSaleID:  convertedToSaleID,
		convertedAt:        convertedAt,
		cancellationReason: cancellationReason,
		createdBy:          createdBy,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
		lines:              lines,
	}
}

func (p *Proposal) ID() string                  { return p.id }
func (p *Proposal) EncounterID() string         { return p.encounterID }
func (p *Proposal) PatientID() string           { return p.patientID }
func (p *Proposal) PractitionerID() string      { return p.practitionerID }
func (p *Proposal) Status() ProposalStatus      { return p.status }
func (p *Proposal) Currency() string            { return p.currency }
func (p *Proposal) Notes() string               { return p.notes }
func (p *Proposal) ConvertedToSaleID() *string  { return p.convertedToSaleID }
func (p *Proposal) ConvertedAt() *time.Time     { return p.convertedAt }
func (p *Proposal) CancellationReason() *string { return p.cancellationReason }
func (p *Proposal) CreatedBy() string           { return p.createdBy }
func (p *Proposal) CreatedAt() time.Time        { return p.createdAt }
func (p *Proposal) UpdatedAt() time.Time        { return p.updatedAt }
func (p *Proposal) Lines() []*ProposalLine      { return p.lines }

// TotalAmount returns the sum of all line totals
func (p *Proposal) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.lines {
		total = total.Add(l.Total())
	}
	return total
}

// AddLine snapshots one priced encounter treatment onto the draft proposal
func (p *Proposal) AddLine(encounterTreatmentID, treatmentID, treatmentName, description string, quantity int, unitPrice decimal.Decimal) (*ProposalLine, error) {
	if p.status != ProposalStatusDraft {
		return nil, shared.NewInvalidOperationError("lines can only be added to a draft proposal")
	}
	if strings.TrimSpace(treatmentName) == "" {
		return nil, shared.NewValidationError("treatment_name", "treatment_name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit_price", "unit_price cannot be negative")
	}
	line := &ProposalLine{
		id:                   uuid.NewString(),
		proposalID:           p.id,
		encounterTreatmentID: encounterTreatmentID,
		treatmentID:          treatmentID,
		treatmentName:        treatmentName,
		description:          description,
		quantity:             quantity,
		unitPrice:            unitPrice,
	}
	p.lines = append(p.lines, line)
	return line, nil
}

// MarkConverted records the conversion bookkeeping. A second conversion
// attempt reports AlreadyConverted.
func (p *Proposal) MarkConverted(saleID string, now time.Time) error {
	if p.convertedToSaleID != nil {
		return shared.NewAlreadyConvertedError(p.id, *p.convertedToSaleID)
	}
	if p.status != ProposalStatusDraft {
		return shared.NewInvalidOperationError("proposal " + p.id + " is " + string(p.status) + " and cannot be converted")
	}
	p.status = ProposalStatusConverted
	p.convertedToSaleID = &saleID
	p.convertedAt = &now
	p.updatedAt = now
	return nil
}

// Cancel voids a draft proposal with a reason. Terminal.
func (p *Proposal) Cancel(reason string, now time.Time) error {
	if p.status != ProposalStatusDraft {
		return shared.NewInvalidOperationError("proposal " + p.id + " is " + string(p.status) + " and cannot be cancelled")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("reason", "cancellation reason cannot be empty")
	}
	p.status = ProposalStatusCancelled
	p.cancellationReason = &reason
	p.updatedAt = now
	return nil
}
