// Package leaderboard provides the ranked standings read model.
package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/pkg/logger"
)

// MaxLimit caps the page size of a leaderboard request.
const MaxLimit = 500

// UserRepository interface for user operations.
type UserRepository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	TopByTotal(ctx context.Context, limit int) ([]models.User, error)
	CountAbove(ctx context.Context, total int) (int64, error)
}

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
}

// PredictionRepository interface for prediction operations.
type PredictionRepository interface {
	ListPredictionsByUser(ctx context.Context, userID uint) ([]models.RacePrediction, error)
}

// Cache stores rendered leaderboard pages. A nil Cache disables caching.
type Cache interface {
	GetLeaderboard(ctx context.Context, limit int) ([]models.StandingEntry, bool, error)
	SetLeaderboard(ctx context.Context, limit int, entries []models.StandingEntry) error
	Invalidate(ctx context.Context) error
}

// Service handles leaderboard generation and user statistics.
type Service struct {
	userRepo       UserRepository
	badgeRepo      BadgeRepository
	predictionRepo PredictionRepository
	cache          Cache
	defaultLimit   int
	log            *logger.Logger
	loads          singleflight.Group
	// generation is bumped by Invalidate; a load that saw another
	// generation when it started does not write its page back.
	generation atomic.Uint64
}

// NewService creates a new leaderboard service.
func NewService(
	userRepo UserRepository,
	badgeRepo BadgeRepository,
	predictionRepo PredictionRepository,
	cache Cache,
	defaultLimit int,
	log *logger.Logger,
) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &Service{
		userRepo:       userRepo,
		badgeRepo:      badgeRepo,
		predictionRepo: predictionRepo,
		cache:          cache,
		defaultLimit:   defaultLimit,
		log:            log,
	}
}

// GetLeaderboard returns the top users by total points. Pages come from the
// cache when present; cache failures fall back to the database.
func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]models.StandingEntry, error) {
	limit = s.normalizeLimit(limit)

	if s.cache != nil {
		entries, hit, err := s.cache.GetLeaderboard(ctx, limit)
		switch {
		case err != nil:
			prommetrics.RecordLeaderboardCache("error")
			s.log.Warn().Err(err).Int("limit", limit).Msg("Leaderboard cache unavailable, reading database")
		case hit:
			prommetrics.RecordLeaderboardCache("hit")
			return entries, nil
		default:
			prommetrics.RecordLeaderboardCache("miss")
		}
	}

	v, err, _ := s.loads.Do(strconv.Itoa(limit), func() (interface{}, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		gen := s.generation.Load()

		users, err := s.userRepo.TopByTotal(loadCtx, limit)
		if err != nil {
			return nil, err
		}
		entries := RankUsers(users)

		if s.cache != nil {
			if s.generation.Load() != gen {
				s.log.Debug().Int("limit", limit).Msg("Standings changed during load, page not cached")
				return entries, nil
			}
			if err := s.cache.SetLeaderboard(loadCtx, limit, entries); err != nil {
				s.log.Warn().Err(err).Int("limit", limit).Msg("Failed to cache leaderboard")
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return v.([]models.StandingEntry), nil
}

// Invalidate drops cached pages after standings changed. Loads already in
// flight in this process skip their cache write; pages written by other
// instances expire with the cache TTL.
func (s *Service) Invalidate(ctx context.Context) error {
	s.generation.Add(1)
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

// GetUserRank returns the competition rank of a user: one more than the
// number of users with a strictly higher total.
func (s *Service) GetUserRank(ctx context.Context, user *models.User) (int, error) {
	above, err := s.userRepo.CountAbove(ctx, user.TotalPoints)
	if err != nil {
		return 0, err
	}
	return int(above) + 1, nil
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// RankUsers assigns competition ranks to users already ordered by total
// descending: equal totals share a rank and the following rank is skipped.
func RankUsers(users []models.User) []models.StandingEntry {
	entries := make([]models.StandingEntry, 0, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.TotalPoints == users[i-1].TotalPoints {
			rank = entries[i-1].Rank
		}
		entries = append(entries, models.StandingEntry{
			Rank:        rank,
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			TotalPoints: u.TotalPoints,
			BonusPoints: u.BonusPoints,
		})
	}
	return entries
}
