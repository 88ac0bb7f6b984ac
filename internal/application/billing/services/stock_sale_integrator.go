package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// StockSaleIntegrator ties the sale state machine to the stock ledger: on
// payment it consumes stock through FEFO planning, on refund it reverses the
// exact moves that were consumed. Both operations are idempotent and run
// inside the caller's transaction.
type StockSaleIntegrator struct {
	defaultLocationCode  string
	allowExpiredOnRefund bool
	clock                shared.Clock
}

// NewStockSaleIntegrator creates the integrator. defaultLocationCode is used
// when a consume call does not name a location.
func NewStockSaleIntegrator(defaultLocationCode string, allowExpiredOnRefund bool, clock shared.Clock) *StockSaleIntegrator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &StockSaleIntegrator{
		defaultLocationCode:  defaultLocationCode,
		allowExpiredOnRefund: allowExpiredOnRefund,
		clock:                clock,
	}
}

// ConsumeStockForSale consumes stock for every product line of the sale from
// the given location (default location when locationCode is empty).
//
// Idempotent: when SALE_OUT moves already exist for the sale they are
// returned unchanged and nothing new is written. Service lines never consume
// stock; a services-only sale returns an empty move set.
func (i *StockSaleIntegrator) ConsumeStockForSale(ctx context.Context, repos *common.Repositories, sale *billing.Sale, locationCode string, actor shared.Actor) ([]*inventory.StockMove, error) {
	log := common.LoggerFromContext(ctx)

	// Idempotency guard: a crash-recovery retry must not double-consume.
	existing, err := repos.Ledger.MovesForSale(ctx, sale.ID(), inventory.MoveSaleOut)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing sale moves: %w", err)
	}
	if len(existing) > 0 {
		log.WithField("sale_number", sale.SaleNumber()).
			Info("stock already consumed for sale, returning existing moves")
		return existing, nil
	}

	lines := sale.ProductLines()
	if len(lines) == 0 {
		return nil, nil
	}

	if locationCode == "" {
		locationCode = i.defaultLocationCode
	}
	location, err := repos.Locations.FindActiveByCode(ctx, locationCode)
	if err != nil {
		if _, ok := err.(*shared.NotFoundError); ok {
			return nil, shared.NewConfigurationError(fmt.Sprintf("default stock location %q is missing or inactive", locationCode))
		}
		return nil, fmt.Errorf("failed to resolve stock location %q: %w", locationCode, err)
	}

	// Lock on-hand rows in deterministic product order so two concurrent
	// paid transitions cannot deadlock against each other.
	productIDs := make([]string, 0, len(lines))
	seen := make(map[string]bool)
	for _, line := range lines {
		pid := *line.ProductID()
		if !seen[pid] {
			seen[pid] = true
			productIDs = append(productIDs, pid)
		}
	}
	sort.Strings(productIDs)
	for _, pid := range productIDs {
		if err := repos.Ledger.LockOnHand(ctx, pid, location.ID()); err != nil {
			return nil, fmt.Errorf("failed to lock on-hand rows for product %s: %w", pid, err)
		}
	}

	now := i.clock.Now()
	saleID := sale.ID()
	var moves []*inventory.StockMove
	for _, line := range lines {
		productID := *line.ProductID()

		rows, err := repos.Ledger.OnHand(ctx, productID, location.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to read on-hand for product %s: %w", productID, err)
		}

		plan, err := inventory.PlanFEFO(rows, productID, line.Quantity(), now, false)
		if err != nil {
			if _, ok := err.(*shared.InsufficientStockError); ok {
				metrics.RecordInsufficientStock(productID)
			}
			return nil, err
		}

		lineID := line.ID()
		for _, draw := range plan {
			move, err := inventory.NewStockMove(inventory.MoveSpec{
				ProductID:     productID,
				LocationID:    location.ID(),
				BatchID:       draw.BatchID,
				MoveType:      inventory.MoveSaleOut,
				Quantity:      -draw.Quantity,
				Reason:        fmt.Sprintf("Sale %s - %s", sale.SaleNumber(), line.ProductName()),
				ReferenceType: "Sale",
				ReferenceID:   saleID,
				SaleID:        &saleID,
				SaleLineID:    &lineID,
				CreatedBy:     actor.SubjectID,
			}, now)
			if err != nil {
				return nil, err
			}
			if err := repos.Ledger.AppendMove(ctx, move, inventory.AppendOptions{}); err != nil {
				return nil, err
			}
			metrics.RecordStockMove(string(inventory.MoveSaleOut), move.Quantity())
			moves = append(moves, move)
		}
	}

	log.WithField("sale_number", sale.SaleNumber()).
		WithField("moves", len(moves)).
		Info("stock consumed for sale")
	return moves, nil
}

// RefundStockForSale reverses every SALE_OUT move of a paid sale one to one,
// restoring stock to the exact originating batches. The FEFO allocator is
// never consulted here; the reversal is not a recomputation.
//
// Idempotent: when any reversal already exists the existing reversal set is
// returned unchanged.
func (i *StockSaleIntegrator) RefundStockForSale(ctx context.Context, repos *common.Repositories, sale *billing.Sale, actor shared.Actor) ([]*inventory.StockMove, error) {
	log := common.LoggerFromContext(ctx)

	if sale.Status() != billing.SaleStatusPaid && sale.Status() != billing.SaleStatusRefunded {
		return nil, shared.NewInvalidOperationError(fmt.Sprintf("sale %s is %s; only a paid sale can be refunded", sale.SaleNumber(), sale.Status()))
	}

	saleOuts, err := repos.Ledger.MovesForSale(ctx, sale.ID(), inventory.MoveSaleOut)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale moves: %w", err)
	}
	if len(saleOuts) == 0 {
		// Services-only sale: nothing was consumed, nothing to restore.
		return nil, nil
	}

	moveIDs := make([]string, len(saleOuts))
	for idx, m := range saleOuts {
		moveIDs[idx] = m.ID()
	}
	reversals, err := repos.Ledger.ReversalsFor(ctx, moveIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing reversals: %w", err)
	}
	if len(reversals) > 0 {
		log.WithField("sale_number", sale.SaleNumber()).
			Info("sale already refunded, returning existing reversal moves")
		return reversals, nil
	}

	// Same deterministic lock order as consume.
	type lockKey struct{ productID, locationID string }
	keys := make(map[lockKey]bool)
	for _, m := range saleOuts {
		keys[lockKey{m.ProductID(), m.LocationID()}] = true
	}
	ordered := make([]lockKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(a, b int) bool {
		if ordered[a].productID != ordered[b].productID {
			return ordered[a].productID < ordered[b].productID
		}
		return ordered[a].locationID < ordered[b].locationID
	})
	for _, k := range ordered {
		if err := repos.Ledger.LockOnHand(ctx, k.productID, k.locationID); err != nil {
			return nil, fmt.Errorf("failed to lock on-hand rows for product %s: %w", k.productID, err)
		}
	}

	lineNames := make(map[string]string)
	for _, line := range sale.Lines() {
		lineNames[line.ID()] = line.ProductName()
	}

	now := i.clock.Now()
	saleID := sale.ID()
	var created []*inventory.StockMove
	for _, m := range saleOuts {
		reversedID := m.ID()
		name := ""
		if m.SaleLineID() != nil {
			name = lineNames[*m.SaleLineID()]
		}
		reversal, err := inventory.NewStockMove(inventory.MoveSpec{
			ProductID:      m.ProductID(),
			LocationID:     m.LocationID(),
			BatchID:        m.BatchID(),
			MoveType:       inventory.MoveRefundIn,
			Quantity:       -m.Quantity(), // SALE_OUT quantities are negative
			Reason:         fmt.Sprintf("Refund of sale %s - %s", sale.SaleNumber(), name),
			ReferenceType:  "SaleRefund",
			ReferenceID:    saleID,
			SaleID:         &saleID,
			SaleLineID:     m.SaleLineID(),
			ReversedMoveID: &reversedID,
			CreatedBy:      actor.SubjectID,
		}, now)
		if err != nil {
			return nil, err
		}
		if err := repos.Ledger.AppendMove(ctx, reversal, inventory.AppendOptions{
			AllowExpired: i.allowExpiredOnRefund,
			IsReversal:   true,
		}); err != nil {
			return nil, err
		}
		metrics.RecordStockMove(string(inventory.MoveRefundIn), reversal.Quantity())
		created = append(created, reversal)
	}

	log.WithField("sale_number", sale.SaleNumber()).
		WithField("moves", len(created)).
		Info("stock restored for refunded sale")
	return created, nil
}
