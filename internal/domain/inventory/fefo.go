package inventory

import (
	"sort"
	"time"

	"github.com/oriolvila/clinicore-go/pkg/utils"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// BatchDraw is one planned consumption from a batch
type BatchDraw struct {
	BatchID     string
	BatchNumber string
	Quantity    int
}

// PlanFEFO plans how to satisfy neededQty for one product at one location by
// draining on-hand rows in first-expired-first-out order.
//
// The planner is pure: it reads the rows it is given and produces a plan.
// Ledger writes happen in the stock-sale integrator.
//
// Ordering: ascending expiry date with nil expiry last, ties broken by batch
// number ascending. The order is deterministic for identical inputs.
func PlanFEFO(rows []OnHandRow, productID string, neededQty int, now time.Time, allowExpired bool) ([]BatchDraw, error) {
	if neededQty <= 0 {
		return nil, shared.NewValidationError("quantity", "needed quantity must be positive")
	}

	candidates := make([]OnHandRow, 0, len(rows))
	hadStock := false
	for _, row := range rows {
		if row.Quantity <= 0 {
			continue
		}
		hadStock = true
		if !allowExpired && row.Expired(now) {
			continue
		}
		candidates = append(candidates, row)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ei, ej := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		switch {
		case ei == nil && ej == nil:
			return candidates[i].BatchNumber < candidates[j].BatchNumber
		case ei == nil:
			return false
		case ej == nil:
			return true
		case !ei.Equal(*ej):
			return ei.Before(*ej)
		default:
			return candidates[i].BatchNumber < candidates[j].BatchNumber
		}
	})

	var plan []BatchDraw
	remaining := neededQty
	available := 0
	for _, row := range candidates {
		available += row.Quantity
		if remaining == 0 {
			continue
		}
		draw := utils.Min(remaining, row.Quantity)
		plan = append(plan, BatchDraw{
			BatchID:     row.BatchID,
			BatchNumber: row.BatchNumber,
			Quantity:    draw,
		})
		remaining -= draw
	}

	if remaining > 0 {
		if hadStock && len(candidates) == 0 {
			return nil, shared.NewExpiredBatchOnlyError(productID)
		}
		return nil, shared.NewInsufficientStockError(productID, neededQty, available)
	}

	return plan, nil
}
