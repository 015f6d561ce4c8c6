package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/paddockpicks/paddock/internal/models"
)

// PredictionRepository handles race prediction rows.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// ListPredictions retrieves every stored row for an event, duplicates included.
func (r *PredictionRepository) ListPredictions(ctx context.Context, eventID uint) ([]models.RacePrediction, error) {
	var rows []models.RacePrediction
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list predictions for event %d: %w", eventID, err)
	}
	return rows, nil
}

// ListPredictionsByUser retrieves every stored row of a user across events.
func (r *PredictionRepository) ListPredictionsByUser(ctx context.Context, userID uint) ([]models.RacePrediction, error) {
	var rows []models.RacePrediction
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list predictions for user %d: %w", userID, err)
	}
	return rows, nil
}

// UpdateScore persists a computed score. updated_at is left untouched because
// it decides which duplicate row is authoritative.
func (r *PredictionRepository) UpdateScore(ctx context.Context, id uint, score models.PredictionScore, scoredAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.RacePrediction{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"base_score":     score.Base,
			"wildcard_score": score.Wildcard,
			"score":          score.Total(),
			"scored_at":      scoredAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update score of prediction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: prediction %d", models.ErrNotFound, id)
	}
	return nil
}

// ClearScore removes scores from the given rows.
func (r *PredictionRepository) ClearScore(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.RacePrediction{}).
		Where("id IN ? AND scored_at IS NOT NULL", ids).
		UpdateColumns(map[string]interface{}{
			"base_score":     nil,
			"wildcard_score": nil,
			"score":          nil,
			"scored_at":      nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear prediction scores: %w", err)
	}
	return nil
}

// LatestPredictionForUser retrieves the authoritative row of a user for an event.
func (r *PredictionRepository) LatestPredictionForUser(ctx context.Context, userID, eventID uint) (*models.RacePrediction, error) {
	var row models.RacePrediction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Order("updated_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, notFound(err, "prediction for event", eventID)
	}
	return &row, nil
}

// CreatePrediction inserts a new prediction row.
func (r *PredictionRepository) CreatePrediction(ctx context.Context, p *models.RacePrediction) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	return nil
}

// SavePrediction overwrites a prediction row and bumps updated_at.
func (r *PredictionRepository) SavePrediction(ctx context.Context, p *models.RacePrediction) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save prediction %d: %w", p.ID, err)
	}
	return nil
}
