package billing

import "context"

// SaleRepository persists sales. Update performs a conditional write against
// the row version the aggregate was loaded with and reports a concurrency
// conflict when another writer got there first.
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id string) (*Sale, error)
	FindBySaleNumber(ctx context.Context, saleNumber string) (*Sale, error)

	// Update persists the sale's mutable fields if and only if the stored
	// row version equals expectedRowVersion, then bumps it
	Update(ctx context.Context, sale *Sale, expectedRowVersion int) error
}

// SaleNumberSequence hands out the next monotonic counter value for a
// numbering period (one counter row per month)
type SaleNumberSequence interface {
	Next(ctx context.Context, period string) (int, error)
}
