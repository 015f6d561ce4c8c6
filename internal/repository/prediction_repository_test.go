package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/models"
)

func TestPredictionRepository_UpdateScoreKeepsUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPredictionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	event := createTestEvent(t, db, models.EventKindRace, models.EventStatusLocked, time.Now().UTC())

	winner := "D1"
	p := &models.RacePrediction{UserID: &user.ID, EventID: event.ID, WinnerDriverID: &winner}
	require.NoError(t, repo.CreatePrediction(ctx, p))

	before, err := repo.LatestPredictionForUser(ctx, user.ID, event.ID)
	require.NoError(t, err)

	scoredAt := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.UpdateScore(ctx, p.ID, models.PredictionScore{Base: 15, Wildcard: 10}, scoredAt))

	after, err := repo.LatestPredictionForUser(ctx, user.ID, event.ID)
	require.NoError(t, err)
	require.NotNil(t, after.Score)
	assert.Equal(t, 25, *after.Score)
	assert.Equal(t, 15, *after.BaseScore)
	assert.Equal(t, 10, *after.WildcardScore)
	assert.NotNil(t, after.ScoredAt)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	assert.True(t, after.Matches(models.PredictionScore{Base: 15, Wildcard: 10}))
	assert.False(t, after.Matches(models.PredictionScore{Base: 15}))

	assert.ErrorIs(t, repo.UpdateScore(ctx, 999, models.PredictionScore{}, scoredAt), models.ErrNotFound)
}

func TestPredictionRepository_ClearScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPredictionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "bob")
	event := createTestEvent(t, db, models.EventKindRace, models.EventStatusLocked, time.Now().UTC())

	a := &models.RacePrediction{UserID: &user.ID, EventID: event.ID}
	b := &models.RacePrediction{UserID: &user.ID, EventID: event.ID}
	require.NoError(t, repo.CreatePrediction(ctx, a))
	require.NoError(t, repo.CreatePrediction(ctx, b))
	require.NoError(t, repo.UpdateScore(ctx, a.ID, models.PredictionScore{Base: 40}, time.Now().UTC()))
	require.NoError(t, repo.UpdateScore(ctx, b.ID, models.PredictionScore{Base: 15}, time.Now().UTC()))

	require.NoError(t, repo.ClearScore(ctx, []uint{a.ID}))
	require.NoError(t, repo.ClearScore(ctx, nil))

	rows, err := repo.ListPredictions(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Score)
	assert.Nil(t, rows[0].ScoredAt)
	require.NotNil(t, rows[1].Score)
	assert.Equal(t, 15, *rows[1].Score)
}

func TestPredictionRepository_ListByUserAndLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPredictionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "carol")
	other := createTestUser(t, db, "dave")
	e1 := createTestEvent(t, db, models.EventKindRace, models.EventStatusOpen, time.Now().UTC())
	e2 := createTestEvent(t, db, models.EventKindRace, models.EventStatusOpen, time.Now().UTC())

	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := "D1"
	second := "D2"
	require.NoError(t, db.Create(&models.RacePrediction{UserID: &user.ID, EventID: e1.ID, WinnerDriverID: &second, CreatedAt: old, UpdatedAt: old.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.RacePrediction{UserID: &user.ID, EventID: e1.ID, WinnerDriverID: &first, CreatedAt: old, UpdatedAt: old}).Error)
	require.NoError(t, repo.CreatePrediction(ctx, &models.RacePrediction{UserID: &user.ID, EventID: e2.ID}))
	require.NoError(t, repo.CreatePrediction(ctx, &models.RacePrediction{UserID: &other.ID, EventID: e1.ID}))

	rows, err := repo.ListPredictionsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	latest, err := repo.LatestPredictionForUser(ctx, user.ID, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, "D2", *latest.WinnerDriverID)

	_, err = repo.LatestPredictionForUser(ctx, other.ID, e2.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPredictionRepository_Save(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPredictionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "erin")
	event := createTestEvent(t, db, models.EventKindRace, models.EventStatusOpen, time.Now().UTC())

	p := &models.RacePrediction{UserID: &user.ID, EventID: event.ID}
	require.NoError(t, repo.CreatePrediction(ctx, p))

	margin := "20s+"
	p.WinningMargin = &margin
	require.NoError(t, repo.SavePrediction(ctx, p))

	got, err := repo.LatestPredictionForUser(ctx, user.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "20s+", *got.WinningMargin)
	assert.Equal(t, p.ID, got.ID)
}
