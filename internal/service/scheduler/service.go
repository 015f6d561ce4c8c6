// Package scheduler runs the periodic event locking and standings reconciliation jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paddockpicks/paddock/internal/config"
	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
)

// Job names used in logs and metrics.
const (
	JobLockEvents = "lock_events"
	JobReconcile  = "reconcile_standings"
)

// EventLocker transitions open events whose lock time passed.
type EventLocker interface {
	LockDue(ctx context.Context, now time.Time) (int64, error)
}

// Reconciler recomputes every user's standing.
type Reconciler interface {
	RecomputeAll(ctx context.Context) (scoring.Outcomes, error)
}

// Service handles background job scheduling.
type Service struct {
	config    *config.SchedulerConfig
	events    EventLocker
	standings Reconciler
	log       *logger.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, events EventLocker, standings Reconciler, log *logger.Logger) *Service {
	return &Service{
		config:    cfg,
		events:    events,
		standings: standings,
		log:       log,
		now:       time.Now,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{name: JobLockEvents, schedule: s.config.LockCheckSchedule, run: s.RunLockEvents},
		{name: JobReconcile, schedule: s.config.ReconcileSchedule, run: s.RunReconcile},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			s.log.Info().Str("job", job.name).Msg("Job has no schedule, not registered")
			continue
		}
		if _, err := cron.ParseStandard(job.schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", job.schedule, job.name, err)
		}
		run := job.run
		if _, err := s.cron.AddFunc(job.schedule, func() { _ = run(context.Background()) }); err != nil {
			return fmt.Errorf("failed to register %s job: %w", job.name, err)
		}
		s.log.Info().
			Str("job", job.name).
			Str("schedule", job.schedule).
			Msg("Job registered")
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Timezone).
		Int("jobs", len(s.cron.Entries())).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// RunLockEvents locks every open event whose lock time has passed.
func (s *Service) RunLockEvents(ctx context.Context) error {
	start := time.Now()

	locked, err := s.events.LockDue(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Str("job", JobLockEvents).Msg("Failed to lock due events")
		prommetrics.RecordSchedulerJob(JobLockEvents, "error", time.Since(start))
		return fmt.Errorf("failed to lock due events: %w", err)
	}

	prommetrics.RecordEventsLocked(locked)
	prommetrics.RecordSchedulerJob(JobLockEvents, "success", time.Since(start))

	if locked > 0 {
		s.log.Info().Int64("locked", locked).Msg("Locked events past their lock time")
	}
	return nil
}

// RunReconcile recomputes all standings from stored submissions.
func (s *Service) RunReconcile(ctx context.Context) error {
	start := time.Now()
	s.log.Info().Msg("Running standings reconciliation job")

	outcomes, err := s.standings.RecomputeAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", JobReconcile).Msg("Standings reconciliation failed")
		prommetrics.RecordSchedulerJob(JobReconcile, "error", time.Since(start))
		return fmt.Errorf("failed to reconcile standings: %w", err)
	}

	status := "success"
	failed := outcomes.Count(scoring.StatusFailed)
	if failed > 0 {
		status = "partial"
	}
	prommetrics.RecordSchedulerJob(JobReconcile, status, time.Since(start))

	s.log.Info().
		Int("users", len(outcomes)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Standings reconciliation completed")
	return nil
}
