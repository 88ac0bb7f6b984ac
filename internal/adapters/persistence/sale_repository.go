package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GORM sale repository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create persists a new sale together with its lines
func (r *GormSaleRepository) Create(ctx context.Context, sale *billing.Sale) error {
	model := r.saleToModel(sale)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// FindByID retrieves a sale by its ID with lines in insertion order
func (r *GormSaleRepository) FindByID(ctx context.Context, id string) (*billing.Sale, error) {
	return r.findOne(ctx, "id = ?", id, id)
}

// FindBySaleNumber retrieves a sale by its unique sale number
func (r *GormSaleRepository) FindBySaleNumber(ctx context.Context, saleNumber string) (*billing.Sale, error) {
	return r.findOne(ctx, "sale_number = ?", saleNumber, saleNumber)
}

func (r *GormSaleRepository) findOne(ctx context.Context, cond string, arg, label string) (*billing.Sale, error) {
	var model SaleModel
	result := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(cond, arg).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("sale", label)
		}
		return nil, fmt.Errorf("failed to find sale: %w", result.Error)
	}
	return r.modelToSale(&model), nil
}

// Update persists the sale's mutable fields if and only if the stored row
// version equals expectedRowVersion. A concurrent writer that got there first
// makes the conditional update match zero rows.
func (r *GormSaleRepository) Update(ctx context.Context, sale *billing.Sale, expectedRowVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&SaleModel{}).
		Where("id = ? AND row_version = ?", sale.ID(), expectedRowVersion).
		Updates(map[string]interface{}{
			"status":        string(sale.Status()),
			"notes":         sale.Notes(),
			"paid_at":       sale.PaidAt(),
			"refund_reason": sale.RefundReason(),
			"row_version":   expectedRowVersion + 1,
			"updated_at":    sale.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update sale: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("sale", sale.ID())
	}
	sale.BumpRowVersion()
	return nil
}

func (r *GormSaleRepository) saleToModel(sale *billing.Sale) *SaleModel {
	lines := make([]SaleLineModel, len(sale.Lines()))
	for i, l := range sale.Lines() {
		lines[i] = SaleLineModel{
			ID:          l.ID(),
			SaleID:      l.SaleID(),
			ProductID:   l.ProductID(),
			ProductName: l.ProductName(),
			Quantity:    l.Quantity(),
			UnitPrice:   l.UnitPrice(),
			Position:    i,
		}
	}
	return &SaleModel{
		ID:            sale.ID(),
		PatientID:     sale.PatientID(),
		LegalEntityID: sale.LegalEntityID(),
		Status:        string(sale.Status()),
		SaleNumber:    sale.SaleNumber(),
		Currency:      sale.Currency(),
		Notes:         sale.Notes(),
		PaidAt:        sale.PaidAt(),
		RefundReason:  sale.RefundReason(),
		RowVersion:    sale.RowVersion(),
		CreatedBy:     sale.CreatedBy(),
		CreatedAt:     sale.CreatedAt(),
		UpdatedAt:     sale.UpdatedAt(),
		Lines:         lines,
	}
}

func (r *GormSaleRepository) modelToSale(model *SaleModel) *billing.Sale {
	lines := make([]*billing.SaleLine, len(model.Lines))
	for i, l := range model.Lines {
		lines[i] = billing.ReconstructSaleLine(l.ID, l.SaleID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice)
	}
	return billing.ReconstructSale(
		model.ID,
		model.PatientID,
		model.LegalEntityID,
		billing.SaleStatus(model.Status),
		model.SaleNumber,
		model.Currency,
		model.Notes,
		model.PaidAt,
		model.RefundReason,
		model.RowVersion,
		model.CreatedBy,
		model.CreatedAt,
		model.UpdatedAt,
		lines,
	)
}

// GormSaleNumberSequence implements SaleNumberSequence on a per-period counter
// table. Next runs inside the caller's transaction: the counter row is locked
// (postgres) or serialized by the database (sqlite), so two concurrent sales
// never share a number.
type GormSaleNumberSequence struct {
	db *gorm.DB
}

// NewGormSaleNumberSequence creates a new GORM sale number sequence
func NewGormSaleNumberSequence(db *gorm.DB) *GormSaleNumberSequence {
	return &GormSaleNumberSequence{db: db}
}

// Next returns the next monotonic counter value for a numbering period
func (s *GormSaleNumberSequence) Next(ctx context.Context, period string) (int, error) {
	query := s.db.WithContext(ctx)
	if s.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var counter SaleNumberCounterModel
	result := query.Where("period = ?", period).First(&counter)
	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			return 0, fmt.Errorf("failed to read sale number counter: %w", result.Error)
		}
		counter = SaleNumberCounterModel{Period: period, Counter: 1}
		if err := s.db.WithContext(ctx).Create(&counter).Error; err != nil {
			return 0, fmt.Errorf("failed to create sale number counter: %w", err)
		}
		return counter.Counter, nil
	}

	counter.Counter++
	if err := s.db.WithContext(ctx).Save(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sale number counter: %w", err)
	}
	return counter.Counter, nil
}

var (
	_ billing.SaleRepository     = (*GormSaleRepository)(nil)
	_ billing.SaleNumberSequence = (*GormSaleNumberSequence)(nil)
)
