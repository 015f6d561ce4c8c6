package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
)

func newRescoreCmd(configPath *string) *cobra.Command {
	var eventID uint

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Re-run scoring of an event against its stored result or answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if eventID == 0 {
				return fmt.Errorf("--event is required")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			event, err := a.events.GetEvent(ctx, eventID)
			if err != nil {
				return err
			}

			if event.Kind == models.EventKindBonus {
				summary, err := a.scoringService.ScoreBonusEvent(ctx, eventID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			}

			summary, err := a.scoringService.Rescore(ctx, eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().UintVar(&eventID, "event", 0, "event ID")
	return cmd
}

func newRecomputeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every user's total from their scored submissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			outcomes, err := a.standingsService.RecomputeAll(ctx)
			if err != nil {
				return err
			}
			failed := outcomes.Count(scoring.StatusFailed)
			if err := printJSON(cmd.OutOrStdout(), map[string]any{
				"users":      len(outcomes),
				"recomputed": outcomes.Count(scoring.StatusOK),
				"failed":     failed,
				"errors":     outcomes.Errors(),
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d users could not be recomputed", failed)
			}
			return nil
		},
	}
}
