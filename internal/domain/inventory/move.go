package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// MoveType classifies a stock movement. The sign of the quantity must match
// the direction encoded in the type.
type MoveType string

const (
	MovePurchaseIn    MoveType = "PURCHASE_IN"
	MoveAdjustmentIn  MoveType = "ADJUSTMENT_IN"
	MoveAdjustmentOut MoveType = "ADJUSTMENT_OUT"
	MoveTransferIn    MoveType = "TRANSFER_IN"
	MoveTransferOut   MoveType = "TRANSFER_OUT"
	MoveWasteOut      MoveType = "WASTE_OUT"
	MoveSaleOut       MoveType = "SALE_OUT"
	MoveRefundIn      MoveType = "REFUND_IN"
)

// IsValid reports whether the move type is known
func (t MoveType) IsValid() bool {
	switch t {
	case MovePurchaseIn, MoveAdjustmentIn, MoveAdjustmentOut, MoveTransferIn,
		MoveTransferOut, MoveWasteOut, MoveSaleOut, MoveRefundIn:
		return true
	}
	return false
}

// IsInbound reports whether the move type increases on-hand stock
func (t MoveType) IsInbound() bool {
	switch t {
	case MovePurchaseIn, MoveAdjustmentIn, MoveTransferIn, MoveRefundIn:
		return true
	}
	return false
}

// StockMove is an append-only record of a signed change to the on-hand
// quantity of one (product, location, batch) triple. Moves are never updated
// or deleted; corrections are compensating moves.
type StockMove struct {
	id             string
	productID      string
	locationID     string
	batchID        string
	moveType       MoveType
	quantity       int // positive for IN, negative for OUT
	reason         string
	referenceType  string
	referenceID    string
	saleID         *string
	saleLineID     *string
	reversedMoveID *string
	createdBy      string
	createdAt      time.Time
}

// MoveSpec carries the attributes of a move to be appended
type MoveSpec struct {
	ProductID      string
	LocationID     string
	BatchID        string
	MoveType       MoveType
	Quantity       int
	Reason         string
	ReferenceType  string
	ReferenceID    string
	SaleID         *string
	SaleLineID     *string
	ReversedMoveID *string
	CreatedBy      string
}

// NewStockMove creates a move from a spec with invariant validation
func NewStockMove(spec MoveSpec, createdAt time.Time) (*StockMove, error) {
	m := &StockMove{
		id:             uuid.NewString(),
		productID:      spec.ProductID,
		locationID:     spec.LocationID,
		batchID:        spec.BatchID,
		moveType:       spec.MoveType,
		quantity:       spec.Quantity,
		reason:         spec.Reason,
		referenceType:  spec.ReferenceType,
		referenceID:    spec.ReferenceID,
		saleID:         spec.SaleID,
		saleLineID:     spec.SaleLineID,
		reversedMoveID: spec.ReversedMoveID,
		createdBy:      spec.CreatedBy,
		createdAt:      createdAt,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReconstructStockMove rebuilds a move from persistence without validation
func ReconstructStockMove(
	id, productID, locationID, batchID string,
	moveType MoveType,
	quantity int,
	reason, referenceType, referenceID string,
	saleID, saleLineID, reversedMoveID *string,
	createdBy string,
	createdAt time.Time,
) *StockMove {
	return &StockMove{
		id:             id,
		productID:      productID,
		locationID:     locationID,
		batchID:        batchID,
		moveType:       moveType,
		quantity:       quantity,
		reason:         reason,
		referenceType:  referenceType,
		referenceID:    referenceID,
		saleID:         saleID,
		saleLineID:     saleLineID,
		reversedMoveID: reversedMoveID,
		createdBy:      createdBy,
		createdAt:      createdAt,
	}
}

// Validate checks the move's own invariants: known type, non-zero quantity,
// sign matching direction, reversal linkage only on REFUND_IN.
func (m *StockMove) Validate() error {
	if !m.moveType.IsValid() {
		return shared.NewValidationError("move_type", fmt.Sprintf("unknown move type %q", m.moveType))
	}
	if m.quantity == 0 {
		return shared.NewValidationError("quantity", "quantity cannot be zero")
	}
	if m.moveType.IsInbound() && m.quantity < 0 {
		return shared.NewValidationError("quantity", fmt.Sprintf("%s requires a positive quantity", m.moveType))
	}
	if !m.moveType.IsInbound() && m.quantity > 0 {
		return shared.NewValidationError("quantity", fmt.Sprintf("%s requires a negative quantity", m.moveType))
	}
	if m.productID == "" {
		return shared.NewValidationError("product_id", "product_id cannot be empty")
	}
	if m.locationID == "" {
		return shared.NewValidationError("location_id", "location_id cannot be empty")
	}
	if m.batchID == "" {
		return shared.NewValidationError("batch_id", "batch_id cannot be empty")
	}
	if m.reversedMoveID != nil && m.moveType != MoveRefundIn {
		return shared.NewValidationError("reversed_move_id", "only REFUND_IN moves may reference a reversed move")
	}
	if m.createdBy == "" {
		return shared.NewValidationError("created_by", "created_by cannot be empty")
	}
	return nil
}

func (m *StockMove) ID() string              { return m.id }
func (m *StockMove) ProductID() string       { return m.productID }
func (m *StockMove) LocationID() string      { return m.locationID }
func (m *StockMove) BatchID() string         { return m.batchID }
func (m *StockMove) MoveType() MoveType      { return m.moveType }
func (m *StockMove) Quantity() int           { return m.quantity }
func (m *StockMove) Reason() string          { return m.reason }
func (m *StockMove) ReferenceType() string   { return m.referenceType }
func (m *StockMove) ReferenceID() string     { return m.referenceID }
func (m *StockMove) SaleID() *string         { return m.saleID }
func (m *StockMove) SaleLineID() *string     { return m.saleLineID }
func (m *StockMove) ReversedMoveID() *string { return m.reversedMoveID }
func (m *StockMove) CreatedBy() string       { return m.createdBy }
func (m *StockMove) CreatedAt() time.Time    { return m.createdAt }

// String provides a human-readable representation
func (m *StockMove) String() string {
	return fmt.Sprintf("StockMove[%s, type=%s, qty=%d, batch=%s]", m.id, m.moveType, m.quantity, m.batchID)
}
