package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/config"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
	"github.com/paddockpicks/paddock/test/mocks"
)

type fakeReconciler struct {
	calls    int
	outcomes scoring.Outcomes
	err      error
}

func (f *fakeReconciler) RecomputeAll(context.Context) (scoring.Outcomes, error) {
	f.calls++
	return f.outcomes, f.err
}

type failingLocker struct{}

func (failingLocker) LockDue(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestRunLockEvents(t *testing.T) {
	store := mocks.NewStore()
	now := time.Date(2026, 5, 24, 13, 0, 0, 0, time.UTC)

	due := store.AddEvent(models.Event{Kind: models.EventKindRace, Status: models.EventStatusOpen, LockAt: now.Add(-time.Minute)})
	exact := store.AddEvent(models.Event{Kind: models.EventKindBonus, Status: models.EventStatusOpen, LockAt: now})
	later := store.AddEvent(models.Event{Kind: models.EventKindRace, Status: models.EventStatusOpen, LockAt: now.Add(time.Hour)})
	upcoming := store.AddEvent(models.Event{Kind: models.EventKindRace, Status: models.EventStatusUpcoming, LockAt: now.Add(-time.Hour)})

	s := NewService(&config.SchedulerConfig{}, store, &fakeReconciler{}, logger.Nop())
	s.now = func() time.Time { return now }

	require.NoError(t, s.RunLockEvents(context.Background()))
	assert.Equal(t, models.EventStatusLocked, store.Event(due).Status)
	assert.Equal(t, models.EventStatusLocked, store.Event(exact).Status)
	assert.Equal(t, models.EventStatusOpen, store.Event(later).Status)
	assert.Equal(t, models.EventStatusUpcoming, store.Event(upcoming).Status)

	failing := NewService(&config.SchedulerConfig{}, failingLocker{}, &fakeReconciler{}, logger.Nop())
	assert.Error(t, failing.RunLockEvents(context.Background()))
}

func TestRunReconcile(t *testing.T) {
	rec := &fakeReconciler{outcomes: scoring.Outcomes{
		scoring.OK("user", 1, 1),
		scoring.Failed("user", 2, 2, errors.New("boom")),
	}}
	s := NewService(&config.SchedulerConfig{}, mocks.NewStore(), rec, logger.Nop())

	require.NoError(t, s.RunReconcile(context.Background()))
	assert.Equal(t, 1, rec.calls)

	rec.err = errors.New("list users")
	assert.Error(t, s.RunReconcile(context.Background()))
}

func TestStart(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SchedulerConfig
		jobs    int
		wantErr bool
	}{
		{name: "disabled", cfg: config.SchedulerConfig{Enabled: false, LockCheckSchedule: "bogus"}, jobs: 0},
		{
			name: "both jobs",
			cfg:  config.SchedulerConfig{Enabled: true, Timezone: "Europe/Paris", LockCheckSchedule: "* * * * *", ReconcileSchedule: "0 4 * * *"},
			jobs: 2,
		},
		{
			name: "reconcile only",
			cfg:  config.SchedulerConfig{Enabled: true, Timezone: "UTC", ReconcileSchedule: "0 4 * * *"},
			jobs: 1,
		},
		{
			name:    "bad timezone",
			cfg:     config.SchedulerConfig{Enabled: true, Timezone: "Mars/Olympus"},
			wantErr: true,
		},
		{
			name:    "bad schedule",
			cfg:     config.SchedulerConfig{Enabled: true, Timezone: "UTC", LockCheckSchedule: "every minute"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			s := NewService(&cfg, mocks.NewStore(), &fakeReconciler{}, logger.Nop())
			err := s.Start()
			defer s.Stop()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if s.cron != nil {
				assert.Len(t, s.cron.Entries(), tt.jobs)
			} else {
				assert.Zero(t, tt.jobs)
			}
		})
	}
}
