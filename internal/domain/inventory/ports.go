package inventory

import (
	"context"
	"time"
)

// AppendOptions adjust the checks performed when appending a move.
type AppendOptions struct {
	// AllowExpired permits a move touching an expired batch: an OUT move
	// drawing from one, or a reversal restoring stock into one.
	AllowExpired bool

	// IsReversal marks the move as the paired reversal of a prior OUT move
	// (REFUND_IN with a reversed move reference).
	IsReversal bool
}

// LedgerRepository is the append-only stock ledger. Every append updates the
// on-hand balance of the targeted (product, location, batch) triple inside the
// caller's transaction and rejects moves that would drive it negative.
type LedgerRepository interface {
	// AppendMove persists the move and applies it to on-hand
	AppendMove(ctx context.Context, move *StockMove, opts AppendOptions) error

	// OnHand returns all on-hand rows for a product at a location,
	// including zero-quantity rows
	OnHand(ctx context.Context, productID, locationID string) ([]OnHandRow, error)

	// LockOnHand takes a pessimistic lock on the on-hand rows of a product
	// at a location for the remainder of the transaction
	LockOnHand(ctx context.Context, productID, locationID string) error

	// MovesForSale returns moves linked to a sale, filtered by type,
	// in creation order
	MovesForSale(ctx context.Context, saleID string, moveType MoveType) ([]*StockMove, error)

	// ReversalsFor returns existing REFUND_IN moves whose reversed move
	// reference is in the given move ID set, in creation order
	ReversalsFor(ctx context.Context, moveIDs []string) ([]*StockMove, error)
}

// ProductRepository persists products
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}

// LocationRepository persists stock locations
type LocationRepository interface {
	Create(ctx context.Context, location *StockLocation) error
	FindByID(ctx context.Context, id string) (*StockLocation, error)
	// FindActiveByCode resolves an active location by its unique code
	FindActiveByCode(ctx context.Context, code string) (*StockLocation, error)
}

// BatchRepository persists stock batches
type BatchRepository interface {
	Create(ctx context.Context, batch *StockBatch) error
	FindByID(ctx context.Context, id string) (*StockBatch, error)
	FindByProductAndNumber(ctx context.Context, productID, batchNumber string) (*StockBatch, error)
	// FindExpiringBefore returns batches whose expiry date falls before the
	// given cutoff, soonest first
	FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]*StockBatch, error)
}
