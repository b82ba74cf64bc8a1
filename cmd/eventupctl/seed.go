package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/repository"
	"github.com/eventup/api/internal/service"
	"github.com/eventup/api/migrations"
)

func seedCmd() *cobra.Command {
	var (
		req        service.SeedRequest
		outputJSON bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample organizers, collaborators, events and applications",
		Long: `Create sample data for local development.

Seeded accounts are active and verified and share one password.

Examples:
  eventupctl seed
  eventupctl seed --organizers 5 --collaborators 50 --events 4 --applications 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			logger := cliLogger(verbose)
			if _, err := database.Migrate(ctx, db, migrations.Files); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}

			seeder := service.NewSeederService(service.SeederServiceConfig{
				UserRepo:    repository.NewUserRepository(db),
				ProfileRepo: repository.NewProfileRepository(db),
				EventRepo:   repository.NewEventRepository(db),
				AppRepo:     repository.NewApplicationRepository(db),
			})
			res, err := seeder.Seed(ctx, req)
			if err != nil {
				return err
			}
			logger.Info("seeded", zap.Int("events", res.Events), zap.Duration("took", res.Duration))

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintln(out, "Seed complete")
			fmt.Fprintln(out, "=============")
			fmt.Fprintf(out, "Organizers:    %d\n", len(res.Organizers))
			fmt.Fprintf(out, "Collaborators: %d\n", len(res.Collaborators))
			fmt.Fprintf(out, "Events:        %d\n", res.Events)
			fmt.Fprintf(out, "Applications:  %d\n", res.Applications)
			fmt.Fprintf(out, "Password:      %s\n", res.Password)
			if len(res.Organizers) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Try: eventupctl token --email %s\n", res.Organizers[0])
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&req.Organizers, "organizers", 3, "organizer (BTC) accounts to create")
	f.IntVar(&req.Collaborators, "collaborators", 20, "collaborator (CTV) accounts to create")
	f.IntVar(&req.EventsPerOrganizer, "events", 3, "events per organizer")
	f.IntVar(&req.ApplicationsPerEvent, "applications", 4, "pending applications per event")
	f.StringVar(&req.Prefix, "prefix", "seed_", "email prefix for seeded accounts")
	f.StringVar(&req.Password, "password", "", "password for seeded accounts (default eventup123)")
	f.BoolVar(&outputJSON, "json", false, "output as JSON")
	f.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	return cmd
}
