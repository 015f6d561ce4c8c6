// Package cli implements the paddock command line: serve, migrate, seed,
// rescore and recompute.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("PADDOCK_CONFIG")

	cmd := &cobra.Command{
		Use:          "paddock",
		Short:        "Prediction game scoring engine",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "path to YAML config (default: ./config.yaml, ./config/, /etc/paddock/)")
	cmd.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newSeedCmd(&configPath),
		newRescoreCmd(&configPath),
		newRecomputeCmd(&configPath),
	)
	return cmd
}
