package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paddockpicks/paddock/internal/models"
)

// ResultRepository stores race results, one per event.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// GetResult retrieves the result of an event.
func (r *ResultRepository) GetResult(ctx context.Context, eventID uint) (*models.RaceResult, error) {
	var result models.RaceResult
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&result).Error; err != nil {
		return nil, notFound(err, "result for event", eventID)
	}
	return &result, nil
}

// UpsertResult writes the result of an event, replacing any earlier one.
func (r *ResultRepository) UpsertResult(ctx context.Context, result *models.RaceResult) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"pole_driver_id", "winner_driver_id", "second_driver_id", "third_driver_id",
				"fastest_lap_driver_id", "fastest_pit_team_id", "no_dnf", "first_dnf_driver_id",
				"safety_car", "winning_margin", "wildcard", "published_at", "updated_at",
			}),
		}).
		Create(result).Error
	if err != nil {
		return fmt.Errorf("failed to upsert result for event %d: %w", result.EventID, err)
	}
	return nil
}
