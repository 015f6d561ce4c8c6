package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paddockpicks/paddock/internal/seed"
)

func newSeedCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load events, bonus questions, users and badges from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer func() { _ = f.Close() }()

			doc, err := seed.Load(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			seeder := seed.NewSeeder(a.events, a.bonus, a.users, a.badgeService, a.log.Component("seed"))
			report, err := seeder.Apply(ctx, doc)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
