package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/repository"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/pkg/logger"
)

const calendar = `
users:
  - username: alice
    display_name: Alice
  - username: bob
events:
  - id: 1
    name: Bahrain Grand Prix
    kind: race
    season: 2026
    round: 1
    status: open
    lock_at: 2026-03-01T15:00:00Z
  - id: 2
    name: Pre-season predictions
    kind: bonus
    season: 2026
    lock_at: 2026-02-28T12:00:00Z
    questions:
      - prompt: Who wins the drivers' title?
        kind: single
        points: 20
        options: [VER, NOR, LEC]
        correct: [NOR]
      - prompt: Which teams win a race?
        kind: multi
        max_selections: 3
        points: 15
        options: [RBR, MCL, FER, MER]
badges:
  - name: Rookie
    description: Submitted a first prediction
    icon: baby
`

func setupSeeder(t *testing.T) (*Seeder, *repository.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := &repository.DB{DB: gdb}
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	log := logger.Nop()
	seeder := NewSeeder(
		repository.NewEventRepository(db),
		repository.NewBonusRepository(db),
		repository.NewUserRepository(db),
		badges.NewService(repository.NewBadgeRepository(db), log),
		log,
	)
	return seeder, db
}

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(calendar))
	require.NoError(t, err)

	assert.Len(t, f.Users, 2)
	require.Len(t, f.Events, 2)
	assert.Equal(t, 2026, f.Events[0].LockAt.Year())
	assert.Len(t, f.Events[1].Questions, 2)
	assert.Equal(t, "Rookie", f.Badges[0].Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "users:\n  - username: a\n    nickname: b\n"},
		{"bad kind", "events:\n  - id: 1\n    name: X\n    kind: sprint\n    lock_at: 2026-01-01T00:00:00Z\n"},
		{"missing lock", "events:\n  - id: 1\n    name: X\n    kind: race\n"},
		{"duplicate id", "events:\n  - {id: 1, name: A, kind: race, lock_at: 2026-01-01T00:00:00Z}\n  - {id: 1, name: B, kind: race, lock_at: 2026-01-02T00:00:00Z}\n"},
		{"race with questions", "events:\n  - id: 1\n    name: X\n    kind: race\n    lock_at: 2026-01-01T00:00:00Z\n    questions:\n      - {prompt: Q, kind: single, options: [a, b]}\n"},
		{"correct not an option", "events:\n  - id: 1\n    name: X\n    kind: bonus\n    lock_at: 2026-01-01T00:00:00Z\n    questions:\n      - {prompt: Q, kind: single, options: [a, b], correct: [c]}\n"},
		{"single option", "events:\n  - id: 1\n    name: X\n    kind: bonus\n    lock_at: 2026-01-01T00:00:00Z\n    questions:\n      - {prompt: Q, kind: single, options: [a]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoad_ValidationIsDomainError(t *testing.T) {
	_, err := Load(strings.NewReader("events:\n  - id: 1\n    name: X\n    kind: sprint\n    lock_at: 2026-01-01T00:00:00Z\n"))
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	seeder, db := setupSeeder(t)

	f, err := Load(strings.NewReader(calendar))
	require.NoError(t, err)

	report, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 2, report.Events)
	assert.Equal(t, 2, report.Questions)
	assert.Equal(t, len(badges.DefaultCatalog())+1, report.Badges)

	events := repository.NewEventRepository(db)
	race, err := events.GetEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusOpen, race.Status)

	bonus, err := events.GetEvent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusUpcoming, bonus.Status, "status defaults to upcoming")

	questions, err := repository.NewBonusRepository(db).ListQuestions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	title := questions[0]
	require.Len(t, title.Options, 3)
	assert.Equal(t, 1, title.MaxSelections)
	assert.Equal(t, []uint{title.Options[1].ID}, title.CorrectOptionIDs)

	teams := questions[1]
	assert.Equal(t, 3, teams.MaxSelections)
	assert.Empty(t, teams.CorrectOptionIDs, "answer left for the admin")
}

func TestApply_Reseed(t *testing.T) {
	ctx := context.Background()
	seeder, db := setupSeeder(t)

	f, err := Load(strings.NewReader(calendar))
	require.NoError(t, err)

	_, err = seeder.Apply(ctx, f)
	require.NoError(t, err)

	f.Events[0].Name = "Bahrain GP"
	report, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Questions)
	assert.Equal(t, 2, report.SkippedQuestions)

	race, err := repository.NewEventRepository(db).GetEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bahrain GP", race.Name)

	questions, err := repository.NewBonusRepository(db).ListQuestions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(2), users)
}
