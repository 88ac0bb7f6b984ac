package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	billingCmd "github.com/oriolvila/clinicore-go/internal/application/billing/commands"
	billingQuery "github.com/oriolvila/clinicore-go/internal/application/billing/queries"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
)

// NewSaleCommand creates the sale command with subcommands
func NewSaleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Sale lifecycle operations",
		Long: `Inspect and transition sales.

Examples:
  clinicore sale show --id <sale-id>
  clinicore sale transition --id <sale-id> --to PAID --row-version 1
  clinicore sale transition --id <sale-id> --to REFUNDED --row-version 2 --reason "adverse reaction"`,
	}

	cmd.AddCommand(newSaleShowCommand())
	cmd.AddCommand(newSaleTransitionCommand())

	return cmd
}

func newSaleShowCommand() *cobra.Command {
	var saleID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a sale with its lines and linked stock moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			result, err := c.send(cmd.Context(), &billingQuery.GetSaleQuery{
				SaleID: saleID,
				Actor:  c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*billingQuery.GetSaleResponse)
			sale := resp.Sale

			fmt.Printf("Sale %s (%s)\n", sale.SaleNumber(), sale.Status())
			fmt.Printf("Patient: %s  Row version: %d  Total: %s %s\n",
				sale.PatientID(), sale.RowVersion(), resp.Total.StringFixed(2), sale.Currency())

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LINE\tQTY\tUNIT PRICE")
			for _, line := range sale.Lines() {
				fmt.Fprintf(w, "%s\t%d\t%s\n", line.ProductName(), line.Quantity(), line.UnitPrice().StringFixed(2))
			}
			if len(resp.StockMoves) > 0 {
				fmt.Fprintln(w, "MOVE\tTYPE\tQTY")
				for _, m := range resp.StockMoves {
					fmt.Fprintf(w, "%s\t%s\t%d\n", m.MoveID, m.MoveType, m.Quantity)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&saleID, "id", "", "Sale ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newSaleTransitionCommand() *cobra.Command {
	var (
		saleID     string
		target     string
		reason     string
		rowVersion int
		location   string
	)

	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Move a sale to a new status (paying consumes stock, refunding restores it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			result, err := c.send(cmd.Context(), &billingCmd.TransitionSaleCommand{
				SaleID:       saleID,
				TargetStatus: billing.SaleStatus(target),
				Reason:       reason,
				RowVersion:   rowVersion,
				LocationCode: location,
				Actor:        c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*billingCmd.TransitionSaleResponse)
			fmt.Printf("Sale %s is now %s (row version %d, %d stock moves)\n",
				resp.SaleID, resp.Status, resp.RowVersion, resp.MovesMade)
			return nil
		},
	}

	cmd.Flags().StringVar(&saleID, "id", "", "Sale ID (required)")
	cmd.Flags().StringVar(&target, "to", "", "Target status: PENDING, PAID, CANCELLED, REFUNDED (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason (required for refunds)")
	cmd.Flags().IntVar(&rowVersion, "row-version", 0, "Row version last observed (required)")
	cmd.Flags().StringVar(&location, "location", "", "Stock location override for payment")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("row-version")

	return cmd
}
