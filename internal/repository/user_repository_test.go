package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/models"
)

func TestUserRepository_Points(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "hana")

	require.NoError(t, repo.AdjustBonusPoints(ctx, user.ID, 15))
	require.NoError(t, repo.AdjustBonusPoints(ctx, user.ID, -5))
	require.NoError(t, repo.SetTotalPoints(ctx, user.ID, 120))

	got, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.BonusPoints)
	assert.Equal(t, 120, got.TotalPoints)

	assert.ErrorIs(t, repo.SetTotalPoints(ctx, 999, 1), models.ErrNotFound)
	assert.ErrorIs(t, repo.AdjustBonusPoints(ctx, 999, 1), models.ErrNotFound)
	_, err = repo.GetUser(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_Leaderboard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	totals := map[string]int{"ivan": 50, "jade": 80, "kai": 50, "lea": 10}
	ids := map[string]uint{}
	for _, name := range []string{"ivan", "jade", "kai", "lea"} {
		u := createTestUser(t, db, name)
		ids[name] = u.ID
		require.NoError(t, repo.SetTotalPoints(ctx, u.ID, totals[name]))
	}

	top, err := repo.TopByTotal(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "jade", top[0].Username)
	assert.Equal(t, "ivan", top[1].Username)
	assert.Equal(t, "kai", top[2].Username)

	above, err := repo.CountAbove(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), above)

	all, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{ids["ivan"], ids["jade"], ids["kai"], ids["lea"]}, all)
}

func TestUserRepository_UpsertByUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertByUsername(ctx, &models.User{Username: "max", DisplayName: "Max"}))
	require.NoError(t, repo.UpsertByUsername(ctx, &models.User{Username: "max", DisplayName: "Max V"}))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "Max V", users[0].DisplayName)
}
