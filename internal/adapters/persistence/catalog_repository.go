package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create persists a new product
func (r *GormProductRepository) Create(ctx context.Context, product *inventory.Product) error {
	model := &ProductModel{
		ID:     product.ID(),
		SKU:    product.SKU(),
		Name:   product.Name(),
		Active: product.Active(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*inventory.Product, error) {
	var model ProductModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, fmt.Errorf("failed to find product: %w", result.Error)
	}
	return inventory.ReconstructProduct(model.ID, model.SKU, model.Name, model.Active), nil
}

// FindBySKU retrieves a product by its unique SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*inventory.Product, error) {
	var model ProductModel
	result := r.db.WithContext(ctx).Where("sku = ?", sku).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("product", sku)
		}
		return nil, fmt.Errorf("failed to find product by sku: %w", result.Error)
	}
	return inventory.ReconstructProduct(model.ID, model.SKU, model.Name, model.Active), nil
}

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GORM location repository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Create persists a new stock location
func (r *GormLocationRepository) Create(ctx context.Context, location *inventory.StockLocation) error {
	model := &StockLocationModel{
		ID:     location.ID(),
		Code:   location.Code(),
		Name:   location.Name(),
		Active: location.Active(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create stock location: %w", err)
	}
	return nil
}

// FindByID retrieves a location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id string) (*inventory.StockLocation, error) {
	var model StockLocationModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("stock location", id)
		}
		return nil, fmt.Errorf("failed to find stock location: %w", result.Error)
	}
	return inventory.ReconstructStockLocation(model.ID, model.Code, model.Name, model.Active), nil
}

// FindActiveByCode resolves an active location by its unique code
func (r *GormLocationRepository) FindActiveByCode(ctx context.Context, code string) (*inventory.StockLocation, error) {
	var model StockLocationModel
	result := r.db.WithContext(ctx).
		Where("code = ? AND active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("stock location", code)
		}
		return nil, fmt.Errorf("failed to find stock location by code: %w", result.Error)
	}
	return inventory.ReconstructStockLocation(model.ID, model.Code, model.Name, model.Active), nil
}

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GORM batch repository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Create persists a new stock batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.StockBatch) error {
	model := &StockBatchModel{
		ID:          batch.ID(),
		ProductID:   batch.ProductID(),
		BatchNumber: batch.BatchNumber(),
		ExpiryDate:  batch.ExpiryDate(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create stock batch: %w", err)
	}
	return nil
}

// FindByID retrieves a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id string) (*inventory.StockBatch, error) {
	var model StockBatchModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("stock batch", id)
		}
		return nil, fmt.Errorf("failed to find stock batch: %w", result.Error)
	}
	return inventory.ReconstructStockBatch(model.ID, model.ProductID, model.BatchNumber, model.ExpiryDate), nil
}

// FindByProductAndNumber retrieves a batch by its product and batch number
func (r *GormBatchRepository) FindByProductAndNumber(ctx context.Context, productID, batchNumber string) (*inventory.StockBatch, error) {
	var model StockBatchModel
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND batch_number = ?", productID, batchNumber).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("stock batch", batchNumber)
		}
		return nil, fmt.Errorf("failed to find stock batch: %w", result.Error)
	}
	return inventory.ReconstructStockBatch(model.ID, model.ProductID, model.BatchNumber, model.ExpiryDate), nil
}

// FindExpiringBefore returns batches whose expiry date falls before the given
// cutoff, soonest first
func (r *GormBatchRepository) FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]*inventory.StockBatch, error) {
	var models []StockBatchModel
	result := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date < ?", cutoff).
		Order("expiry_date ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find expiring batches: %w", result.Error)
	}
	batches := make([]*inventory.StockBatch, len(models))
	for i, m := range models {
		batches[i] = inventory.ReconstructStockBatch(m.ID, m.ProductID, m.BatchNumber, m.ExpiryDate)
	}
	return batches, nil
}

var (
	_ inventory.ProductRepository  = (*GormProductRepository)(nil)
	_ inventory.LocationRepository = (*GormLocationRepository)(nil)
	_ inventory.BatchRepository    = (*GormBatchRepository)(nil)
)
