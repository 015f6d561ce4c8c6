package badges

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/config"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
	"github.com/paddockpicks/paddock/test/mocks"
)

func newTestService(t *testing.T) (*Service, *mocks.Store) {
	t.Helper()
	store := mocks.NewStore()
	svc := NewService(store, logger.Nop())
	require.NoError(t, svc.EnsureCatalog(context.Background(), DefaultCatalog()))
	return svc, store
}

func TestService_GrantIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first := svc.Grant(ctx, 1, models.BadgePerfectSlate, 10)
	assert.Equal(t, scoring.StatusOK, first.Status)

	for i := 0; i < 4; i++ {
		again := svc.Grant(ctx, 1, models.BadgePerfectSlate, 10)
		assert.Equal(t, scoring.StatusSkipped, again.Status)
		assert.Equal(t, "already granted", again.Reason)
	}

	assert.Equal(t, 1, store.GrantCount(1, models.BadgePerfectSlate, 10))
}

func TestService_GrantConcurrent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make([]scoring.Outcome, 20)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = svc.Grant(ctx, 2, models.BadgeWildcard, 5)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, scoring.Outcomes(outcomes).Count(scoring.StatusOK))
	assert.Equal(t, 19, scoring.Outcomes(outcomes).Count(scoring.StatusSkipped))
	assert.Equal(t, 1, store.GrantCount(2, models.BadgeWildcard, 5))
}

func TestService_GrantPerEvent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, scoring.StatusOK, svc.Grant(ctx, 1, models.BadgeHalfCentury, 1).Status)
	assert.Equal(t, scoring.StatusOK, svc.Grant(ctx, 1, models.BadgeHalfCentury, 2).Status)
	assert.Equal(t, scoring.StatusOK, svc.Grant(ctx, 2, models.BadgeHalfCentury, 1).Status)
	assert.Equal(t, 3, store.TotalGrants())
}

func TestService_GrantUnknownBadge(t *testing.T) {
	svc, store := newTestService(t)

	out := svc.Grant(context.Background(), 1, "Backmarker", 1)
	assert.Equal(t, scoring.StatusSkipped, out.Status)
	assert.Equal(t, "badge not defined", out.Reason)
	assert.Zero(t, store.TotalGrants())
}

func TestService_GrantStoreFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.FailInsertGrant = errors.New("connection reset")

	out := svc.Grant(context.Background(), 1, models.BadgeWildcard, 1)
	assert.Equal(t, scoring.StatusFailed, out.Status)
	assert.EqualError(t, out.Err, "connection reset")
}

func TestService_EnsureCatalogRefreshes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	catalog := CatalogFromConfig([]config.BadgeConfig{
		{Name: models.BadgeWildcard, Description: "Called the wildcard", Icon: "joker"},
		{Name: "Season Champion", Description: "Won the season", Icon: "medal"},
	})
	require.NoError(t, svc.EnsureCatalog(ctx, catalog))

	entries, err := svc.GetBadgeCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, len(DefaultCatalog())+1)

	byName := map[string]CatalogEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.Equal(t, "joker", byName[models.BadgeWildcard].Icon)
	assert.Contains(t, byName, "Season Champion")
}

func TestService_GetUserBadgesAndHolders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Grant(ctx, 1, models.BadgeRaceWinner, 1)
	svc.Grant(ctx, 1, models.BadgeRaceWinner, 2)
	svc.Grant(ctx, 2, models.BadgeRaceWinner, 1)

	grants, err := svc.GetUserBadges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, models.BadgeRaceWinner, grants[0].Badge.Name)

	entries, err := svc.GetBadgeCatalog(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		if e.Name == models.BadgeRaceWinner {
			assert.Equal(t, int64(2), e.Holders)
		} else {
			assert.Zero(t, e.Holders)
		}
	}
}

func TestDefaultCatalogNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range DefaultCatalog() {
		assert.False(t, seen[b.Name], b.Name)
		seen[b.Name] = true
		assert.NotEmpty(t, b.Description)
	}
	assert.Len(t, seen, 14)
}
