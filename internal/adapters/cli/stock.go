package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	inventoryCmd "github.com/oriolvila/clinicore-go/internal/application/inventory/commands"
	inventoryQuery "github.com/oriolvila/clinicore-go/internal/application/inventory/queries"
)

// NewStockCommand creates the stock command with subcommands
func NewStockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Stock ledger operations",
		Long: `Inspect and change on-hand stock.

Examples:
  clinicore stock on-hand --product <id> --location MAIN-WAREHOUSE
  clinicore stock receive --product <id> --batch LOT-A --qty 50 --expiry 2027-01-31
  clinicore stock expiring --days 30`,
	}

	cmd.AddCommand(newStockOnHandCommand())
	cmd.AddCommand(newStockReceiveCommand())
	cmd.AddCommand(newStockExpiringCommand())

	return cmd
}

func newStockOnHandCommand() *cobra.Command {
	var (
		productID    string
		locationCode string
	)

	cmd := &cobra.Command{
		Use:   "on-hand",
		Short: "Show on-hand stock per batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			if locationCode == "" {
				locationCode = c.cfg.Core.DefaultStockLocationCode
			}

			result, err := c.send(cmd.Context(), &inventoryQuery.GetOnHandQuery{
				ProductID:    productID,
				LocationCode: locationCode,
				Actor:        c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*inventoryQuery.GetOnHandResponse)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BATCH\tEXPIRY\tQTY")
			for _, row := range resp.Rows {
				expiry := "-"
				if row.ExpiryDate != nil {
					expiry = row.ExpiryDate.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", row.BatchNumber, expiry, row.Quantity)
			}
			fmt.Fprintf(w, "TOTAL\t\t%d\n", resp.Total)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID (required)")
	cmd.Flags().StringVar(&locationCode, "location", "", "Location code (default: configured warehouse)")
	_ = cmd.MarkFlagRequired("product")

	return cmd
}

func newStockReceiveCommand() *cobra.Command {
	var (
		productID    string
		locationCode string
		batchNumber  string
		expiry       string
		quantity     int
		reference    string
	)

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Book a purchase delivery into stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			if locationCode == "" {
				locationCode = c.cfg.Core.DefaultStockLocationCode
			}
			var expiryDate *time.Time
			if expiry != "" {
				t, err := time.Parse("2006-01-02", expiry)
				if err != nil {
					return fmt.Errorf("invalid --expiry (want YYYY-MM-DD): %w", err)
				}
				expiryDate = &t
			}

			result, err := c.send(cmd.Context(), &inventoryCmd.ReceiveStockCommand{
				ProductID:    productID,
				LocationCode: locationCode,
				BatchNumber:  batchNumber,
				ExpiryDate:   expiryDate,
				Quantity:     quantity,
				Reference:    reference,
				Actor:        c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*inventoryCmd.ReceiveStockResponse)
			fmt.Printf("Received %d units into batch %s (move %s)\n", quantity, batchNumber, resp.MoveID)
			return nil
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID (required)")
	cmd.Flags().StringVar(&locationCode, "location", "", "Location code (default: configured warehouse)")
	cmd.Flags().StringVar(&batchNumber, "batch", "", "Batch number (required)")
	cmd.Flags().StringVar(&expiry, "expiry", "", "Batch expiry date YYYY-MM-DD (omit for non-expiring)")
	cmd.Flags().IntVar(&quantity, "qty", 0, "Received quantity (required)")
	cmd.Flags().StringVar(&reference, "reference", "", "Supplier delivery note reference")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("batch")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func newStockExpiringCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List batches expiring within a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			result, err := c.send(cmd.Context(), &inventoryQuery.ListExpiringBatchesQuery{
				Within: time.Duration(days) * 24 * time.Hour,
				Actor:  c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*inventoryQuery.ListExpiringBatchesResponse)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tBATCH\tEXPIRY")
			for _, b := range resp.Batches {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.ProductID(), b.BatchNumber(), b.ExpiryDate().Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Window in days")

	return cmd
}
