package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	actorID    string
	actorRoles []string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clinicore",
		Short: "Clinicore CLI - operate the clinic transactional core",
		Long: `Clinicore CLI provides operator commands for the clinic core:
schema migration, demo seeding, stock, sale and proposal operations.

Examples:
  clinicore migrate
  clinicore seed
  clinicore stock on-hand --product <id> --location MAIN-WAREHOUSE
  clinicore stock receive --product <id> --batch LOT-A --qty 50 --expiry 2027-01-31
  clinicore sale transition --id <sale-id> --to PAID --row-version 1
  clinicore proposal generate --encounter <id>`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./configs, /etc/clinicore)")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "cli-operator",
		"Subject ID recorded as the acting user")
	rootCmd.PersistentFlags().StringSliceVar(&actorRoles, "role", []string{"ADMIN"},
		"Roles of the acting user")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewStockCommand())
	rootCmd.AddCommand(NewSaleCommand())
	rootCmd.AddCommand(NewProposalCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
