package cli

import (
	"github.com/spf13/cobra"

	"github.com/paddockpicks/paddock/internal/repository"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := repository.NewDB(&cfg.Database.Postgres, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := db.Migrate(); err != nil {
				return err
			}
			log.Info().Msg("Database migrations applied")
			return nil
		},
	}
}
