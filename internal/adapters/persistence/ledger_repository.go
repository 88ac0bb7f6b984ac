package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GormLedgerRepository implements the stock ledger on GORM. Appends insert
// into the append-only stock_moves table and upsert the materialized
// stock_on_hand row for the targeted (product, location, batch) triple in the
// same statement batch, so the caller's transaction sees both or neither.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GORM ledger repository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// AppendMove persists the move and applies it to on-hand. Moves that would
// drive the triple's balance negative are rejected. The expiry of the target
// batch is checked for OUT moves and for reversals restoring into it, unless
// opts.AllowExpired is set.
func (r *GormLedgerRepository) AppendMove(ctx context.Context, move *inventory.StockMove, opts inventory.AppendOptions) error {
	if err := move.Validate(); err != nil {
		return err
	}
	if opts.IsReversal && move.ReversedMoveID() == nil {
		return shared.NewValidationError("reversed_move_id", "a reversal must reference the move it reverses")
	}

	if !opts.AllowExpired && (move.Quantity() < 0 || opts.IsReversal) {
		var batch StockBatchModel
		result := r.db.WithContext(ctx).Where("id = ?", move.BatchID()).First(&batch)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				return shared.NewNotFoundError("stock batch", move.BatchID())
			}
			return fmt.Errorf("failed to load batch: %w", result.Error)
		}
		if batch.ExpiryDate != nil && batch.ExpiryDate.Before(move.CreatedAt()) {
			return shared.NewInvalidOperationError(fmt.Sprintf("batch %s expired on %s", batch.BatchNumber, batch.ExpiryDate.Format("2006-01-02")))
		}
	}

	var onHand StockOnHandModel
	current := 0
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ? AND batch_id = ?", move.ProductID(), move.LocationID(), move.BatchID()).
		First(&onHand)
	switch {
	case result.Error == nil:
		current = onHand.Quantity
	case result.Error == gorm.ErrRecordNotFound:
		// first move for this triple
	default:
		return fmt.Errorf("failed to read on-hand balance: %w", result.Error)
	}

	newQty := current + move.Quantity()
	if newQty < 0 {
		return shared.NewInsufficientStockError(move.ProductID(), -move.Quantity(), current)
	}

	if err := r.db.WithContext(ctx).Create(r.moveToModel(move)).Error; err != nil {
		return fmt.Errorf("failed to append stock move: %w", err)
	}

	upsert := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "location_id"}, {Name: "batch_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": newQty}),
	}).Create(&StockOnHandModel{
		ProductID:  move.ProductID(),
		LocationID: move.LocationID(),
		BatchID:    move.BatchID(),
		Quantity:   newQty,
	})
	if upsert.Error != nil {
		return fmt.Errorf("failed to update on-hand balance: %w", upsert.Error)
	}

	return nil
}

// OnHand returns all on-hand rows for a product at a location together with
// the batch attributes the FEFO planner needs, including zero-quantity rows
func (r *GormLedgerRepository) OnHand(ctx context.Context, productID, locationID string) ([]inventory.OnHandRow, error) {
	var models []StockOnHandModel
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read on-hand rows: %w", result.Error)
	}
	if len(models) == 0 {
		return nil, nil
	}

	batchIDs := make([]string, len(models))
	for i, m := range models {
		batchIDs[i] = m.BatchID
	}
	var batches []StockBatchModel
	if err := r.db.WithContext(ctx).Where("id IN ?", batchIDs).Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to load batches: %w", err)
	}
	byID := make(map[string]StockBatchModel, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	rows := make([]inventory.OnHandRow, len(models))
	for i, m := range models {
		batch := byID[m.BatchID]
		rows[i] = inventory.OnHandRow{
			ProductID:   m.ProductID,
			LocationID:  m.LocationID,
			BatchID:     m.BatchID,
			BatchNumber: batch.BatchNumber,
			ExpiryDate:  batch.ExpiryDate,
			Quantity:    m.Quantity,
		}
	}
	return rows, nil
}

// LockOnHand takes FOR UPDATE row locks on the on-hand rows of a product at a
// location for the remainder of the transaction. sqlite serializes writers at
// the database level, so the locking clause is applied on postgres only.
func (r *GormLedgerRepository) LockOnHand(ctx context.Context, productID, locationID string) error {
	query := r.db.WithContext(ctx).
		Model(&StockOnHandModel{}).
		Where("product_id = ? AND location_id = ?", productID, locationID)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var models []StockOnHandModel
	if err := query.Find(&models).Error; err != nil {
		return fmt.Errorf("failed to lock on-hand rows: %w", err)
	}
	return nil
}

// MovesForSale returns moves linked to a sale, filtered by type, in creation order
func (r *GormLedgerRepository) MovesForSale(ctx context.Context, saleID string, moveType inventory.MoveType) ([]*inventory.StockMove, error) {
	var models []StockMoveModel
	result := r.db.WithContext(ctx).
		Where("sale_id = ? AND move_type = ?", saleID, string(moveType)).
		Order("seq ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find moves for sale: %w", result.Error)
	}
	return r.modelsToMoves(models), nil
}

// ReversalsFor returns existing REFUND_IN moves whose reversed move reference
// is in the given move ID set, in creation order
func (r *GormLedgerRepository) ReversalsFor(ctx context.Context, moveIDs []string) ([]*inventory.StockMove, error) {
	if len(moveIDs) == 0 {
		return nil, nil
	}
	var models []StockMoveModel
	result := r.db.WithContext(ctx).
		Where("reversed_move_id IN ?", moveIDs).
		Order("seq ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find reversals: %w", result.Error)
	}
	return r.modelsToMoves(models), nil
}

func (r *GormLedgerRepository) modelsToMoves(models []StockMoveModel) []*inventory.StockMove {
	moves := make([]*inventory.StockMove, len(models))
	for i, m := range models {
		moves[i] = r.modelToMove(&m)
	}
	return moves
}

func (r *GormLedgerRepository) modelToMove(model *StockMoveModel) *inventory.StockMove {
	return inventory.ReconstructStockMove(
		model.MoveID,
		model.ProductID,
		model.LocationID,
		model.BatchID,
		inventory.MoveType(model.MoveType),
		model.Quantity,
		model.Reason,
		model.ReferenceType,
		model.ReferenceID,
		model.SaleID,
		model.SaleLineID,
		model.ReversedMoveID,
		model.CreatedBy,
		model.CreatedAt,
	)
}

func (r *GormLedgerRepository) moveToModel(move *inventory.StockMove) *StockMoveModel {
	return &StockMoveModel{
		MoveID:         move.ID(),
		ProductID:      move.ProductID(),
		LocationID:     move.LocationID(),
		BatchID:        move.BatchID(),
		MoveType:       string(move.MoveType()),
		Quantity:       move.Quantity(),
		Reason:         move.Reason(),
		ReferenceType:  move.ReferenceType(),
		ReferenceID:    move.ReferenceID(),
		SaleID:         move.SaleID(),
		SaleLineID:     move.SaleLineID(),
		ReversedMoveID: move.ReversedMoveID(),
		CreatedBy:      move.CreatedBy(),
		CreatedAt:      move.CreatedAt(),
	}
}

var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)
