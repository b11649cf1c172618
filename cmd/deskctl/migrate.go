package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskworks/service-desk/internal/config"
	"github.com/deskworks/service-desk/internal/observability"
	"github.com/deskworks/service-desk/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply the embedded SQL migrations to the database named by POSTGRES_DSN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logger, cfg.App)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			if pg.PoolHandle() == nil {
				return errors.New("POSTGRES_DSN is required")
			}
			if !dryRun {
				return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger)
			}
			pending, err := persistence.PendingMigrations(cmd.Context(), pg.PoolHandle())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
				return nil
			}
			for _, name := range pending {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}
