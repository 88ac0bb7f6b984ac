package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/database"
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a small demo dataset (locations, products, treatments, stock)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			if err := database.AutoMigrate(c.db); err != nil {
				return err
			}
			return seedDemoData(cmd.Context(), c)
		},
	}
}

func seedDemoData(ctx context.Context, c *cliContext) error {
	now := time.Now()
	return c.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		warehouse, err := inventory.NewStockLocation(c.cfg.Core.DefaultStockLocationCode, "Main warehouse")
		if err != nil {
			return err
		}
		if err := repos.Locations.Create(ctx, warehouse); err != nil {
			return err
		}

		products := []struct {
			sku, name, batch string
			expiryDays       int
			qty              int
		}{
			{"HYAL-1ML", "Hyaluronic acid filler 1ml", "LOT-2406", 540, 40},
			{"BTX-100U", "Botulinum toxin 100U", "LOT-2409", 270, 25},
			{"SERUM-VITC", "Vitamin C serum", "LOT-2411", 365, 60},
		}
		for _, p := range products {
			product, err := inventory.NewProduct(p.sku, p.name)
			if err != nil {
				return err
			}
			if err := repos.Products.Create(ctx, product); err != nil {
				return err
			}
			expiry := now.AddDate(0, 0, p.expiryDays)
			batch, err := inventory.NewStockBatch(product.ID(), p.batch, &expiry)
			if err != nil {
				return err
			}
			if err := repos.Batches.Create(ctx, batch); err != nil {
				return err
			}
			move, err := inventory.NewStockMove(inventory.MoveSpec{
				ProductID:     product.ID(),
				LocationID:    warehouse.ID(),
				BatchID:       batch.ID(),
				MoveType:      inventory.MovePurchaseIn,
				Quantity:      p.qty,
				Reason:        "Initial demo stock",
				ReferenceType: "Seed",
				ReferenceID:   "demo",
				CreatedBy:     c.actor.SubjectID,
			}, now)
			if err != nil {
				return err
			}
			if err := repos.Ledger.AppendMove(ctx, move, inventory.AppendOptions{}); err != nil {
				return err
			}
			fmt.Printf("Seeded %s with %d units (batch %s)\n", p.sku, p.qty, p.batch)
		}

		price := decimal.NewFromInt(180)
		treatment, err := clinical.NewTreatment("Facial mesotherapy", "Single session", &price)
		if err != nil {
			return err
		}
		if err := repos.Treatments.Create(ctx, treatment); err != nil {
			return err
		}

		patient, err := clinical.NewPatient("Demo Patient", "00000000A", "demo@example.com", "", now)
		if err != nil {
			return err
		}
		patient.AcceptPrivacy(now)
		if err := repos.Patients.Create(ctx, patient); err != nil {
			return err
		}

		fmt.Println("Demo data loaded")
		return nil
	})
}
