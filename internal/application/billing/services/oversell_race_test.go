package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/oriolvila/clinicore-go/internal/adapters/persistence"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	billingCmd "github.com/oriolvila/clinicore-go/internal/application/billing/commands"
	"github.com/oriolvila/clinicore-go/internal/application/billing/services"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/config"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/database"
)

// TestConcurrentPayments_NeverOversell races two payments against stock that
// can only cover one of them. The exact loser varies by scheduling (the ledger
// rejects the balance, the row version check fires, or sqlite reports the
// write conflict), but the invariant holds either way: at most one sale is
// paid and on-hand never goes negative.
func TestConcurrentPayments_NeverOversell(t *testing.T) {
	// a shared-cache named memory database so both goroutines see the same
	// data; a plain :memory: DSN gives every pool connection a private copy
	db, err := database.NewConnection(&config.DatabaseConfig{
		Type: "sqlite",
		Path: "file:oversell_race?mode=memory&cache=shared&_busy_timeout=5000",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	scope := persistence.NewGormTransactionScope(db)
	repos := persistence.NewRepositories(db)
	guard := auth.NewGuard()
	integrator := services.NewStockSaleIntegrator("MAIN-WAREHOUSE", true, nil)
	transition := billingCmd.NewTransitionSaleHandler(scope, guard, integrator, nil)
	create := billingCmd.NewCreateSaleHandler(scope, guard, "", "EUR", nil)
	reception := shared.Actor{SubjectID: "reception-1", Roles: []shared.Role{shared.RoleReception}}

	ctx := context.Background()

	location, err := inventory.NewStockLocation("MAIN-WAREHOUSE", "Main warehouse")
	require.NoError(t, err)
	require.NoError(t, repos.Locations.Create(ctx, location))

	product, err := inventory.NewProduct("HYAL-1ML", "Hyaluronic acid filler 1ml")
	require.NoError(t, err)
	require.NoError(t, repos.Products.Create(ctx, product))

	expiry := time.Now().AddDate(1, 0, 0)
	batch, err := inventory.NewStockBatch(product.ID(), "LOT-A", &expiry)
	require.NoError(t, err)
	require.NoError(t, repos.Batches.Create(ctx, batch))

	receipt, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:  product.ID(),
		LocationID: location.ID(),
		BatchID:    batch.ID(),
		MoveType:   inventory.MovePurchaseIn,
		Quantity:   10,
		Reason:     "Goods receipt",
		CreatedBy:  "test-setup",
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repos.Ledger.AppendMove(ctx, receipt, inventory.AppendOptions{}))

	patient, err := clinical.NewPatient("Jane Roe", "X123", "", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, repos.Patients.Create(ctx, patient))

	productID := product.ID()
	newPendingSale := func() string {
		result, err := create.Handle(ctx, &billingCmd.CreateSaleCommand{
			PatientID:     patient.ID(),
			LegalEntityID: "clinic-1",
			Lines: []billingCmd.SaleLineInput{
				{ProductID: &productID, Quantity: 8, UnitPrice: decimal.NewFromInt(120)},
			},
			Actor: reception,
		})
		require.NoError(t, err)
		created := result.(*billingCmd.CreateSaleResponse)
		_, err = transition.Handle(ctx, &billingCmd.TransitionSaleCommand{
			SaleID:       created.SaleID,
			TargetStatus: billing.SaleStatusPending,
			RowVersion:   0,
			Actor:        reception,
		})
		require.NoError(t, err)
		return created.SaleID
	}

	saleA := newPendingSale()
	saleB := newPendingSale()

	var errA, errB error
	g := new(errgroup.Group)
	g.Go(func() error {
		_, errA = transition.Handle(ctx, &billingCmd.TransitionSaleCommand{
			SaleID:       saleA,
			TargetStatus: billing.SaleStatusPaid,
			RowVersion:   1,
			Actor:        reception,
		})
		return nil
	})
	g.Go(func() error {
		_, errB = transition.Handle(ctx, &billingCmd.TransitionSaleCommand{
			SaleID:       saleB,
			TargetStatus: billing.SaleStatusPaid,
			RowVersion:   1,
			Actor:        reception,
		})
		return nil
	})
	require.NoError(t, g.Wait())

	successes := 0
	for _, payErr := range []error{errA, errB} {
		if payErr == nil {
			successes++
		}
	}
	assert.LessOrEqual(t, successes, 1)

	rows, err := repos.Ledger.OnHand(ctx, product.ID(), location.ID())
	require.NoError(t, err)
	total := 0
	for _, r := range rows {
		require.GreaterOrEqual(t, r.Quantity, 0)
		total += r.Quantity
	}
	assert.Equal(t, 10-8*successes, total)
}
