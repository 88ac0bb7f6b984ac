package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	chargeCmd "github.com/oriolvila/clinicore-go/internal/application/charge/commands"
	chargeQuery "github.com/oriolvila/clinicore-go/internal/application/charge/queries"
)

// NewProposalCommand creates the proposal command with subcommands
func NewProposalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Charge proposal operations",
		Long: `Generate charge proposals from finalized encounters and convert them
to draft sales.

Examples:
  clinicore proposal generate --encounter <id>
  clinicore proposal convert --id <proposal-id> --legal-entity <id>
  clinicore proposal show --id <proposal-id>`,
	}

	cmd.AddCommand(newProposalGenerateCommand())
	cmd.AddCommand(newProposalConvertCommand())
	cmd.AddCommand(newProposalShowCommand())

	return cmd
}

func newProposalGenerateCommand() *cobra.Command {
	var (
		encounterID string
		notes       string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the charge proposal for a finalized encounter",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			result, err := c.send(cmd.Context(), &chargeCmd.GenerateProposalCommand{
				EncounterID: encounterID,
				Notes:       notes,
				Actor:       c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*chargeCmd.GenerateProposalResponse)
			fmt.Printf("Proposal %s: %d lines, total %s %s\n",
				resp.ProposalID, resp.Lines, resp.TotalAmount, resp.Currency)
			return nil
		},
	}

	cmd.Flags().StringVar(&encounterID, "encounter", "", "Encounter ID (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes on the proposal")
	_ = cmd.MarkFlagRequired("encounter")

	return cmd
}

func newProposalConvertCommand() *cobra.Command {
	var (
		proposalID    string
		legalEntityID string
		notes         string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a draft proposal into a draft sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			result, err := c.send(cmd.Context(), &chargeCmd.ConvertToSaleCommand{
				ProposalID:    proposalID,
				LegalEntityID: legalEntityID,
				Notes:         notes,
				Actor:         c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*chargeCmd.ConvertToSaleResponse)
			fmt.Printf("Created draft sale %s (%s)\n", resp.SaleNumber, resp.SaleID)
			return nil
		},
	}

	cmd.Flags().StringVar(&proposalID, "id", "", "Proposal ID (required)")
	cmd.Flags().StringVar(&legalEntityID, "legal-entity", "", "Legal entity the sale bills under (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes on the sale")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("legal-entity")

	return cmd
}

func newProposalShowCommand() *cobra.Command {
	var proposalID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a proposal with its snapshot lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			result, err := c.send(cmd.Context(), &chargeQuery.GetProposalQuery{
				ProposalID: proposalID,
				Actor:      c.actor,
			})
			if err != nil {
				return err
			}
			resp := result.(*chargeQuery.GetProposalResponse)
			p := resp.Proposal

			fmt.Printf("Proposal %s (%s) for encounter %s\n", p.ID(), p.Status(), p.EncounterID())
			for _, line := range p.Lines() {
				fmt.Printf("  %d x %s @ %s\n", line.Quantity(), line.TreatmentName(), line.UnitPrice().StringFixed(2))
			}
			fmt.Printf("Total: %s %s\n", resp.TotalAmount, p.Currency())
			if saleID := p.ConvertedToSaleID(); saleID != nil {
				fmt.Printf("Converted to sale %s\n", *saleID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&proposalID, "id", "", "Proposal ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
