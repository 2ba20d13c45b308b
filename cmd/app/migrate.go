package main

import (
	"github.com/spf13/cobra"

	pg "creator-ledger/internal/infra/db/postgres"
)

func newMigrateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(f)
			if err != nil {
				return err
			}
			pool, err := pg.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pg.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}
