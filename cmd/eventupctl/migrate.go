package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/migrations"
)

func migrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SurrQL schema",
		Long: `Apply every migrations/*.surql file in name order.

The schema statements are idempotent, so running migrate twice is safe.

Examples:
  eventupctl migrate
  eventupctl migrate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				names, _, err := database.LoadMigrations(migrations.Files)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), "would apply", name)
				}
				return nil
			}

			ctx := cmd.Context()
			_, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			applied, err := database.Migrate(ctx, db, migrations.Files)
			if err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list migrations without applying them")
	return cmd
}
