package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/paddockpicks/paddock/internal/api"
	"github.com/paddockpicks/paddock/internal/api/admin"
	"github.com/paddockpicks/paddock/internal/api/dashboard"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/internal/service/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply database migrations on startup")
	return cmd
}

func runServe(parent context.Context, configPath string, skipMigrate bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if !skipMigrate {
		if err := a.db.Migrate(); err != nil {
			return err
		}
		a.log.Info().Msg("Database migrations applied")
	}

	if err := a.badgeService.EnsureCatalog(ctx, badges.CatalogFromConfig(a.cfg.Badges)); err != nil {
		return err
	}

	jobs := scheduler.NewService(&a.cfg.Scheduler, a.events, a.standingsService, a.log.Component("scheduler"))
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer jobs.Stop()

	metricsPath := ""
	if a.cfg.Metrics.Prometheus.Enabled {
		metricsPath = a.cfg.Metrics.Prometheus.Path
	}

	router := api.NewRouter(api.Options{
		Environment: a.cfg.Server.Environment,
		AdminToken:  a.cfg.Server.AdminToken,
		MetricsPath: metricsPath,
		Checks: map[string]api.HealthCheck{
			"database": func(context.Context) error { return a.db.Health() },
			"redis":    a.redisHealth,
		},
	},
		dashboard.NewHandler(a.badgeService, a.leaderboardService, a.predictionService, a.log.Component("dashboard")),
		admin.NewHandler(a.scoringService, a.standingsService, a.events, a.bonus, a.log.Component("admin")),
		a.log.Component("http"),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Int("port", a.cfg.Server.Port).
			Str("environment", a.cfg.Server.Environment).
			Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.log.Info().Msg("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
