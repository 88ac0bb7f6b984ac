package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oriolvila/clinicore-go/internal/infrastructure/database"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext()
			if err != nil {
				return err
			}
			defer c.close()

			if err := database.AutoMigrate(c.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}
