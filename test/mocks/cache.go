package mocks

import (
	"context"
	"sync"

	"github.com/paddockpicks/paddock/internal/models"
)

// MockLeaderboardCache is an in-memory leaderboard cache.
// Used for testing without requiring a real Redis instance.
type MockLeaderboardCache struct {
	mu            sync.Mutex
	pages         map[int][]models.StandingEntry
	Gets          int
	Sets          int
	Invalidations int
	// Err, when set, is returned by every call.
	Err error
}

// NewMockLeaderboardCache creates an empty cache.
func NewMockLeaderboardCache() *MockLeaderboardCache {
	return &MockLeaderboardCache{pages: make(map[int][]models.StandingEntry)}
}

// GetLeaderboard returns a stored page.
func (m *MockLeaderboardCache) GetLeaderboard(_ context.Context, limit int) ([]models.StandingEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Gets++
	if m.Err != nil {
		return nil, false, m.Err
	}
	page, ok := m.pages[limit]
	return page, ok, nil
}

// SetLeaderboard stores a page.
func (m *MockLeaderboardCache) SetLeaderboard(_ context.Context, limit int, entries []models.StandingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sets++
	if m.Err != nil {
		return m.Err
	}
	m.pages[limit] = entries
	return nil
}

// Invalidate drops every page.
func (m *MockLeaderboardCache) Invalidate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Invalidations++
	if m.Err != nil {
		return m.Err
	}
	m.pages = make(map[int][]models.StandingEntry)
	return nil
}

// Cached reports whether a page for limit is stored.
func (m *MockLeaderboardCache) Cached(limit int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pages[limit]
	return ok
}
