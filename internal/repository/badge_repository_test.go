package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/models"
)

func TestBadgeRepository_UpsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBadge(ctx, &models.Badge{Name: models.BadgePerfectSlate, Description: "old", Icon: "star"}))
	require.NoError(t, repo.UpsertBadge(ctx, &models.Badge{Name: models.BadgePerfectSlate, Description: "All nine categories", Icon: "trophy"}))

	badge, err := repo.FindBadgeByName(ctx, models.BadgePerfectSlate)
	require.NoError(t, err)
	require.NotNil(t, badge)
	assert.Equal(t, "All nine categories", badge.Description)
	assert.Equal(t, "trophy", badge.Icon)

	missing, err := repo.FindBadgeByName(ctx, "Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBadgeRepository_InsertGrantUnique(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "gina")
	badge := &models.Badge{Name: models.BadgeWildcard}
	require.NoError(t, repo.UpsertBadge(ctx, badge))

	for i := 0; i < 5; i++ {
		err := repo.InsertGrant(ctx, &models.UserBadge{UserID: user.ID, BadgeID: badge.ID, EventID: 3, EarnedAt: time.Now().UTC()})
		if i == 0 {
			require.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateGrant)
	}

	// Same badge for another event is a separate grant.
	require.NoError(t, repo.InsertGrant(ctx, &models.UserBadge{UserID: user.ID, BadgeID: badge.ID, EventID: 4, EarnedAt: time.Now().UTC()}))

	var count int64
	db.Model(&models.UserBadge{}).Where("user_id = ? AND badge_id = ? AND event_id = ?", user.ID, badge.ID, 3).Count(&count)
	assert.Equal(t, int64(1), count)

	grants, err := repo.GetUserBadges(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, models.BadgeWildcard, grants[0].Badge.Name)

	holders, err := repo.GetBadgeHoldersCount(ctx, badge.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), holders)
}
