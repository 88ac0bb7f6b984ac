package helpers

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/adapters/persistence"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// Fixture wires an in-memory database with the repository bundle and a
// transaction scope, plus convenience builders for catalogue and stock data
type Fixture struct {
	T     *testing.T
	DB    *gorm.DB
	Scope common.TransactionScope
	Repos *common.Repositories
}

// NewFixture builds a fixture over a fresh in-memory database
func NewFixture(t *testing.T) *Fixture {
	db := NewTestDB(t)
	return &Fixture{
		T:     t,
		DB:    db,
		Scope: persistence.NewGormTransactionScope(db),
		Repos: persistence.NewRepositories(db),
	}
}

// Admin returns an actor holding the admin role
func Admin(subjectID string) shared.Actor {
	return shared.Actor{SubjectID: subjectID, Roles: []shared.Role{shared.RoleAdmin}}
}

// ActorWith returns an actor holding the given roles
func ActorWith(subjectID string, roles ...shared.Role) shared.Actor {
	return shared.Actor{SubjectID: subjectID, Roles: roles}
}

// CreateLocation persists an active stock location
func (f *Fixture) CreateLocation(code string) *inventory.StockLocation {
	location, err := inventory.NewStockLocation(code, code)
	if err != nil {
		f.T.Fatalf("failed to build location: %v", err)
	}
	if err := f.Repos.Locations.Create(context.Background(), location); err != nil {
		f.T.Fatalf("failed to create location: %v", err)
	}
	return location
}

// CreateProduct persists an active product
func (f *Fixture) CreateProduct(sku, name string) *inventory.Product {
	product, err := inventory.NewProduct(sku, name)
	if err != nil {
		f.T.Fatalf("failed to build product: %v", err)
	}
	if err := f.Repos.Products.Create(context.Background(), product); err != nil {
		f.T.Fatalf("failed to create product: %v", err)
	}
	return product
}

// ReceiveBatch persists a batch and books qty units of it into the location
func (f *Fixture) ReceiveBatch(product *inventory.Product, location *inventory.StockLocation, batchNumber string, expiry *time.Time, qty int) *inventory.StockBatch {
	batch, err := inventory.NewStockBatch(product.ID(), batchNumber, expiry)
	if err != nil {
		f.T.Fatalf("failed to build batch: %v", err)
	}
	if err := f.Repos.Batches.Create(context.Background(), batch); err != nil {
		f.T.Fatalf("failed to create batch: %v", err)
	}
	move, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:     product.ID(),
		LocationID:    location.ID(),
		BatchID:       batch.ID(),
		MoveType:      inventory.MovePurchaseIn,
		Quantity:      qty,
		Reason:        "Test goods receipt",
		ReferenceType: "Test",
		ReferenceID:   batchNumber,
		CreatedBy:     "test-setup",
	}, time.Now())
	if err != nil {
		f.T.Fatalf("failed to build receipt move: %v", err)
	}
	if err := f.Repos.Ledger.AppendMove(context.Background(), move, inventory.AppendOptions{}); err != nil {
		f.T.Fatalf("failed to receive stock: %v", err)
	}
	return batch
}

// OnHandTotal sums the on-hand quantity of a product at a location
func (f *Fixture) OnHandTotal(productID, locationID string) int {
	rows, err := f.Repos.Ledger.OnHand(context.Background(), productID, locationID)
	if err != nil {
		f.T.Fatalf("failed to read on-hand: %v", err)
	}
	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	return total
}

// DaysFromNow returns a pointer to a date the given days in the future
// (negative for the past)
func DaysFromNow(days int) *time.Time {
	t := time.Now().AddDate(0, 0, days)
	return &t
}
