package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paddockpicks/paddock/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpsertByUsername creates the user or refreshes its display name.
func (r *UserRepository) UpsertByUsername(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// SetTotalPoints overwrites the cached total of a user.
func (r *UserRepository) SetTotalPoints(ctx context.Context, id uint, total int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("total_points", total)
	if res.Error != nil {
		return fmt.Errorf("failed to set total points of user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	return nil
}

// AdjustBonusPoints adds delta (possibly negative) to the bonus ledger of a user.
func (r *UserRepository) AdjustBonusPoints(ctx context.Context, id uint, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("bonus_points", gorm.Expr("bonus_points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to adjust bonus points of user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	return nil
}

// ListIDs returns the IDs of every user.
func (r *UserRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// TopByTotal returns users ordered by total points descending, ID ascending inside a tie.
func (r *UserRepository) TopByTotal(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	query := r.db.WithContext(ctx).Order("total_points DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	return users, nil
}

// CountAbove returns how many users have strictly more than total points.
func (r *UserRepository) CountAbove(ctx context.Context, total int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("total_points > ?", total).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users above %d: %w", total, err)
	}
	return count, nil
}
