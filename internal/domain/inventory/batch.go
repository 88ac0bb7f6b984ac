package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// StockBatch is a lot of a product received together with a shared expiry
// date. A nil expiry means the batch never expires and sorts last in FEFO
// allocation.
type StockBatch struct {
	id          string
	productID   string
	batchNumber string
	expiryDate  *time.Time
}

// NewStockBatch creates a batch with validation
func NewStockBatch(productID, batchNumber string, expiryDate *time.Time) (*StockBatch, error) {
	if productID == "" {
		return nil, shared.NewValidationError("product_id", "product_id cannot be empty")
	}
	if strings.TrimSpace(batchNumber) == "" {
		return nil, shared.NewValidationError("batch_number", "batch_number cannot be empty")
	}
	return &StockBatch{
		id:          uuid.NewString(),
		productID:   productID,
		batchNumber: batchNumber,
		expiryDate:  expiryDate,
	}, nil
}

// ReconstructStockBatch rebuilds a batch from persistence
func ReconstructStockBatch(id, productID, batchNumber string, expiryDate *time.Time) *StockBatch {
	return &StockBatch{id: id, productID: productID, batchNumber: batchNumber, expiryDate: expiryDate}
}

func (b *StockBatch) ID() string             { return b.id }
func (b *StockBatch) ProductID() string      { return b.productID }
func (b *StockBatch) BatchNumber() string    { return b.batchNumber }
func (b *StockBatch) ExpiryDate() *time.Time { return b.expiryDate }

// IsExpired reports whether the batch is past expiry at the given instant.
// Batches without an expiry date never expire.
func (b *StockBatch) IsExpired(now time.Time) bool {
	if b.expiryDate == nil {
		return false
	}
	return b.expiryDate.Before(now)
}
