package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paddockpicks/paddock/internal/models"
)

// BadgeRepository handles badge-related database operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// UpsertBadge creates a badge definition or refreshes its description and icon.
func (r *BadgeRepository) UpsertBadge(ctx context.Context, badge *models.Badge) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "icon", "updated_at"}),
		}).
		Create(badge).Error
	if err != nil {
		return fmt.Errorf("failed to upsert badge %q: %w", badge.Name, err)
	}
	return nil
}

// FindBadgeByName retrieves a badge by its name. Returns nil, nil if no such badge exists.
func (r *BadgeRepository) FindBadgeByName(ctx context.Context, name string) (*models.Badge, error) {
	var badge models.Badge
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&badge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find badge %q: %w", name, err)
	}
	return &badge, nil
}

// GetAll retrieves all badges from the database.
func (r *BadgeRepository) GetAll(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).Order("id ASC").Find(&badges).Error
	return badges, err
}

// InsertGrant records a badge grant. Returns ErrDuplicateGrant when the
// (user, badge, event) triple already exists.
func (r *BadgeRepository) InsertGrant(ctx context.Context, grant *models.UserBadge) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(grant).Error
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return ErrDuplicateGrant
	}
	return fmt.Errorf("failed to insert badge grant: %w", err)
}

// GetUserBadges retrieves all badges earned by a user with badge details preloaded.
func (r *BadgeRepository) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Badge").
		Order("earned_at DESC, id DESC").
		Find(&userBadges).Error
	return userBadges, err
}

// GetBadgeHoldersCount returns the number of distinct users who have earned a badge.
func (r *BadgeRepository) GetBadgeHoldersCount(ctx context.Context, badgeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("badge_id = ?", badgeID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
