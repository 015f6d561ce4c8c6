// Package badges grants achievement badges and serves the badge catalog.
package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/repository"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
)

const subjectBadge = "badge"

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	FindBadgeByName(ctx context.Context, name string) (*models.Badge, error)
	InsertGrant(ctx context.Context, grant *models.UserBadge) error
	UpsertBadge(ctx context.Context, badge *models.Badge) error
	GetAll(ctx context.Context) ([]models.Badge, error)
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	GetBadgeHoldersCount(ctx context.Context, badgeID uint) (int64, error)
}

// CatalogEntry is a badge definition with its holder count.
type CatalogEntry struct {
	models.Badge
	Holders int64 `json:"holders"`
}

// Service handles badge grants and queries.
type Service struct {
	badgeRepo BadgeRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a new badge service.
func NewService(badgeRepo BadgeRepository, log *logger.Logger) *Service {
	return &Service{
		badgeRepo: badgeRepo,
		log:       log,
		now:       time.Now,
	}
}

// Grant awards badgeName to a user for an event. Unknown badges and grants
// that already exist are reported as skipped; store failures as failed.
// Calling Grant any number of times leaves at most one grant per triple.
func (s *Service) Grant(ctx context.Context, userID uint, badgeName string, eventID uint) scoring.Outcome {
	badge, err := s.badgeRepo.FindBadgeByName(ctx, badgeName)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("badge", badgeName).
			Uint("user_id", userID).
			Msg("Failed to look up badge")
		prommetrics.RecordBadgeGrant(badgeName, string(scoring.StatusFailed))
		return scoring.Failed(subjectBadge, 0, userID, err)
	}
	if badge == nil {
		s.log.Debug().Str("badge", badgeName).Msg("Badge not defined, skipping grant")
		prommetrics.RecordBadgeGrant(badgeName, string(scoring.StatusSkipped))
		return scoring.Skipped(subjectBadge, 0, userID, "badge not defined")
	}

	grant := &models.UserBadge{
		UserID:   userID,
		BadgeID:  badge.ID,
		EventID:  eventID,
		EarnedAt: s.now(),
	}
	err = s.badgeRepo.InsertGrant(ctx, grant)
	switch {
	case errors.Is(err, repository.ErrDuplicateGrant):
		prommetrics.RecordBadgeGrant(badgeName, string(scoring.StatusSkipped))
		return scoring.Skipped(subjectBadge, badge.ID, userID, "already granted")
	case err != nil:
		s.log.Error().
			Err(err).
			Str("badge", badgeName).
			Uint("user_id", userID).
			Uint("event_id", eventID).
			Msg("Failed to grant badge")
		prommetrics.RecordBadgeGrant(badgeName, string(scoring.StatusFailed))
		return scoring.Failed(subjectBadge, badge.ID, userID, err)
	}

	s.log.Info().
		Str("badge", badgeName).
		Uint("user_id", userID).
		Uint("event_id", eventID).
		Msg("Badge granted")
	prommetrics.RecordBadgeGrant(badgeName, string(scoring.StatusOK))
	return scoring.OK(subjectBadge, badge.ID, userID)
}

// EnsureCatalog provisions badge definitions, refreshing existing ones.
func (s *Service) EnsureCatalog(ctx context.Context, catalog []models.Badge) error {
	for i := range catalog {
		if err := s.badgeRepo.UpsertBadge(ctx, &catalog[i]); err != nil {
			return fmt.Errorf("failed to provision badge catalog: %w", err)
		}
	}
	s.log.Info().Int("badges", len(catalog)).Msg("Badge catalog provisioned")
	return nil
}

// GetUserBadges returns every grant of a user, newest first.
func (s *Service) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	grants, err := s.badgeRepo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges of user %d: %w", userID, err)
	}
	return grants, nil
}

// GetBadgeCatalog returns every badge definition with its holder count.
func (s *Service) GetBadgeCatalog(ctx context.Context) ([]CatalogEntry, error) {
	badges, err := s.badgeRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(badges))
	for _, b := range badges {
		holders, err := s.badgeRepo.GetBadgeHoldersCount(ctx, b.ID)
		if err != nil {
			s.log.Warn().Err(err).Uint("badge_id", b.ID).Msg("Failed to count badge holders")
		}
		entries = append(entries, CatalogEntry{Badge: b, Holders: holders})
	}
	return entries, nil
}
