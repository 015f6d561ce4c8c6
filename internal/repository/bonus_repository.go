package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/paddockpicks/paddock/internal/models"
)

// BonusRepository handles bonus questions, options and responses.
type BonusRepository struct {
	db *DB
}

// NewBonusRepository creates a new bonus repository.
func NewBonusRepository(db *DB) *BonusRepository {
	return &BonusRepository{db: db}
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// ListQuestions retrieves the questions of an event with their options.
func (r *BonusRepository) ListQuestions(ctx context.Context, eventID uint) ([]models.BonusQuestion, error) {
	var questions []models.BonusQuestion
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Preload("Options", preloadOptions).
		Order("position ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for event %d: %w", eventID, err)
	}
	return questions, nil
}

// GetQuestion retrieves a question with its options.
func (r *BonusRepository) GetQuestion(ctx context.Context, id uint) (*models.BonusQuestion, error) {
	var q models.BonusQuestion
	if err := r.db.WithContext(ctx).Preload("Options", preloadOptions).First(&q, id).Error; err != nil {
		return nil, notFound(err, "question", id)
	}
	return &q, nil
}

// CreateQuestion inserts a question together with its options.
func (r *BonusRepository) CreateQuestion(ctx context.Context, q *models.BonusQuestion) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// SetCorrectOptions configures the answer of a question.
func (r *BonusRepository) SetCorrectOptions(ctx context.Context, questionID uint, optionIDs []uint) error {
	res := r.db.WithContext(ctx).Model(&models.BonusQuestion{ID: questionID}).
		Select("correct_option_ids").
		Updates(&models.BonusQuestion{CorrectOptionIDs: optionIDs})
	if res.Error != nil {
		return fmt.Errorf("failed to set answer of question %d: %w", questionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: question %d", models.ErrNotFound, questionID)
	}
	return nil
}

// ListResponses retrieves every stored response of an event, duplicates included.
func (r *BonusRepository) ListResponses(ctx context.Context, eventID uint) ([]models.BonusResponse, error) {
	var rows []models.BonusResponse
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list responses for event %d: %w", eventID, err)
	}
	return rows, nil
}

// ListResponsesByUser retrieves every stored response of a user across events.
func (r *BonusRepository) ListResponsesByUser(ctx context.Context, userID uint) ([]models.BonusResponse, error) {
	var rows []models.BonusResponse
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list responses for user %d: %w", userID, err)
	}
	return rows, nil
}

// UpdateResponsePoints persists the points of a scored response without touching updated_at.
func (r *BonusRepository) UpdateResponsePoints(ctx context.Context, id uint, points int, scoredAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.BonusResponse{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"points_awarded": points, "scored_at": scoredAt})
	if res.Error != nil {
		return fmt.Errorf("failed to update points of response %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: response %d", models.ErrNotFound, id)
	}
	return nil
}

// ClearResponsePoints removes points from the given responses.
func (r *BonusRepository) ClearResponsePoints(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.BonusResponse{}).
		Where("id IN ? AND scored_at IS NOT NULL", ids).
		UpdateColumns(map[string]interface{}{"points_awarded": nil, "scored_at": nil}).Error
	if err != nil {
		return fmt.Errorf("failed to clear response points: %w", err)
	}
	return nil
}

// LatestResponseForUser retrieves the authoritative response of a user to a question.
func (r *BonusRepository) LatestResponseForUser(ctx context.Context, userID, questionID uint) (*models.BonusResponse, error) {
	var row models.BonusResponse
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("updated_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, notFound(err, "response to question", questionID)
	}
	return &row, nil
}

// CreateResponse inserts a new response row.
func (r *BonusRepository) CreateResponse(ctx context.Context, resp *models.BonusResponse) error {
	if err := r.db.WithContext(ctx).Create(resp).Error; err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

// SaveResponse overwrites a response row and bumps updated_at.
func (r *BonusRepository) SaveResponse(ctx context.Context, resp *models.BonusResponse) error {
	if err := r.db.WithContext(ctx).Save(resp).Error; err != nil {
		return fmt.Errorf("failed to save response %d: %w", resp.ID, err)
	}
	return nil
}
