package inventory

import "time"

// OnHandRow is the current quantity of one (product, location, batch) triple
// together with the batch attributes FEFO planning needs.
type OnHandRow struct {
	ProductID   string
	LocationID  string
	BatchID     string
	BatchNumber string
	ExpiryDate  *time.Time
	Quantity    int
}

// Expired reports whether the row's batch is past expiry at the given instant
func (r OnHandRow) Expired(now time.Time) bool {
	if r.ExpiryDate == nil {
		return false
	}
	return r.ExpiryDate.Before(now)
}
