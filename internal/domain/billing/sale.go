package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// Sale is the aggregate root of the billing context. Its status follows the
// transition graph in status.go; every persisted write bumps the row version
// used for optimistic concurrency.
type Sale struct {
	id            string
	patientID     string
	legalEntityID string
	status        SaleStatus
	saleNumber    string
	currency      string
	notes         string
	paidAt        *time.Time
	refundReason  *string
	rowVersion    int
	createdBy     string
	createdAt     time.Time
	updatedAt     time.Time
	lines         []*SaleLine
}

// NewSale creates a draft sale with validation
func NewSale(patientID, legalEntityID, saleNumber, currency, notes, createdBy string, now time.Time) (*Sale, error) {
	if patientID == "" {
		return nil, shared.NewValidationError("patient_id", "patient_id cannot be empty")
	}
	if legalEntityID == "" {
		return nil, shared.NewValidationError("legal_entity_id", "legal_entity_id cannot be empty")
	}
	if strings.TrimSpace(saleNumber) == "" {
		return nil, shared.NewValidationError("sale_number", "sale_number cannot be empty")
	}
	return &Sale{
		id:            uuid.NewString(),
		patientID:     patientID,
		legalEntityID: legalEntityID,
		status:        SaleStatusDraft,
		saleNumber:    saleNumber,
		currency:      currency,
		notes:         notes,
		rowVersion:    0,
		createdBy:     createdBy,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructSale rebuilds a sale from persistence
func ReconstructSale(
	id, patientID, legalEntityID string,
	status SaleStatus,
	saleNumber, currency, notes string,
	paidAt *time.Time,
	refundReason *string,
	rowVersion int,
	createdBy string,
	createdAt, updatedAt time.Time,
	lines []*SaleLine,
) *Sale {
	return &Sale{
		id:            id,
		patientID:     patientID,
		legalEntityID: legalEntityID,
		status:        status,
		saleNumber:    saleNumber,
		currency:      currency,
		notes:         notes,
		paidAt:        paidAt,
		refundReason:  refundReason,
		rowVersion:    rowVersion,
		createdBy:     createdBy,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		lines:         lines,
	}
}

func (s *Sale) ID() string            { return s.id }
func (s *Sale) PatientID() string     { return s.patientID }
func (s *Sale) LegalEntityID() string { return s.legalEntityID }
func (s *Sale) Status() SaleStatus    { return s.status }
func (s *Sale) SaleNumber() string    { return s.saleNumber }
func (s *Sale) Currency() string      { return s.currency }
func (s *Sale) Notes() string         { return s.notes }
func (s *Sale) PaidAt() *time.Time    { return s.paidAt }
func (s *Sale) RefundReason() *string { return s.refundReason }
func (s *Sale) RowVersion() int       { return s.rowVersion }
func (s *Sale) CreatedBy() string     { return s.createdBy }
func (s *Sale) CreatedAt() time.Time  { return s.createdAt }
func (s *Sale) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Sale) Lines() []*SaleLine    { return s.lines }

// ProductLines returns the lines that consume stock, in insertion order
func (s *Sale) ProductLines() []*SaleLine {
	var lines []*SaleLine
	for _, l := range s.lines {
		if !l.IsService() {
			lines = append(lines, l)
		}
	}
	return lines
}

// Total returns the sum of all line totals
func (s *Sale) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Total())
	}
	return total
}

// AddLine appends a line to a draft sale
func (s *Sale) AddLine(productID *string, productName string, quantity int, unitPrice decimal.Decimal) (*SaleLine, error) {
	if s.status != SaleStatusDraft {
		return nil, shared.NewInvalidOperationError("lines can only be added to a draft sale")
	}
	line, err := NewSaleLine(s.id, productID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	s.lines = append(s.lines, line)
	return line, nil
}

// TransitionTo moves the sale along one edge of the state graph, stamping
// paid_at on payment and the refund reason on refund. Stock consumption and
// reversal are driven by the caller in the same transaction; a failure there
// rolls the whole transition back.
func (s *Sale) TransitionTo(target SaleStatus, reason string, now time.Time) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", "unknown target status "+string(target))
	}
	if !CanTransition(s.status, target) {
		return shared.NewInvalidTransitionError("sale "+s.saleNumber, string(s.status), string(target))
	}

	switch target {
	case SaleStatusPaid:
		s.paidAt = &now
	case SaleStatusRefunded:
		if strings.TrimSpace(reason) == "" {
			return shared.NewValidationError("reason", "refund reason cannot be empty")
		}
		s.refundReason = &reason
	}

	s.status = target
	s.updatedAt = now
	return nil
}

// BumpRowVersion increments the optimistic concurrency counter. The
// repository performs the conditional update; the aggregate only tracks the
// value it expects to write.
func (s *Sale) BumpRowVersion() {
	s.rowVersion++
}

// NewSaleID returns a fresh opaque sale identifier
func NewSaleID() string {
	return uuid.NewString()
}
