package leaderboard

import (
	"context"
	"fmt"

	"github.com/paddockpicks/paddock/internal/models"
)

// UserStats is the standing of one user with scoring history.
type UserStats struct {
	models.StandingEntry
	EventsScored int            `json:"events_scored"`
	BestScore    int            `json:"best_score"`
	Badges       []models.Badge `json:"badges"`
}

// GetUserStats returns the standing, rank and badges of a user.
func (s *Service) GetUserStats(ctx context.Context, userID uint) (*UserStats, error) {
	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	stats := &UserStats{
		StandingEntry: models.StandingEntry{
			UserID:      user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			TotalPoints: user.TotalPoints,
			BonusPoints: user.BonusPoints,
		},
	}

	rank, err := s.GetUserRank(ctx, user)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to get rank")
	}
	stats.Rank = rank

	predictions, err := s.predictionRepo.ListPredictionsByUser(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to get predictions")
	}
	scored := make(map[uint]struct{})
	for _, p := range predictions {
		if p.Score == nil {
			continue
		}
		scored[p.EventID] = struct{}{}
		if *p.Score > stats.BestScore {
			stats.BestScore = *p.Score
		}
	}
	stats.EventsScored = len(scored)

	userBadges, err := s.badgeRepo.GetUserBadges(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
	}
	for _, ub := range userBadges {
		if ub.Badge.ID != 0 {
			stats.Badges = append(stats.Badges, ub.Badge)
		}
	}

	return stats, nil
}
