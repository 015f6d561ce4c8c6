package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/paddockpicks/paddock/internal/models"
)

// EventRepository handles event-related database operations.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, notFound(err, "event", id)
	}
	return &event, nil
}

// ListEvents retrieves events matching the filter, ordered by lock time.
func (r *EventRepository) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Season != 0 {
		query = query.Where("season = ?", filter.Season)
	}
	if filter.LockedBefore != nil {
		query = query.Where("lock_at <= ?", *filter.LockedBefore)
	}

	var events []models.Event
	if err := query.Order("lock_at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// UpsertEvent creates the event or overwrites the row with the same ID.
func (r *EventRepository) UpsertEvent(ctx context.Context, event *models.Event) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "kind", "season", "round", "status", "lock_at", "updated_at"}),
		}).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return nil
}

// SetStatus overrides an event's status. It is the administrative path and
// does not enforce forward-only transitions.
func (r *EventRepository) SetStatus(ctx context.Context, id uint, status string) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if status == models.EventStatusScored {
		updates["scored_at"] = time.Now()
	}

	res := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to set status of event %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: event %d", models.ErrNotFound, id)
	}
	return nil
}

// LockDue moves open events whose lock time has passed to locked.
// Returns the number of events locked.
func (r *EventRepository) LockDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ? AND lock_at <= ?", models.EventStatusOpen, now).
		Updates(map[string]interface{}{"status": models.EventStatusLocked, "updated_at": now})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to lock due events: %w", res.Error)
	}
	return res.RowsAffected, nil
}
