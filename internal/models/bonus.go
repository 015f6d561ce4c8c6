package models

import (
	"time"
)

// BonusQuestion is one scored question of a bonus event.
//
// CorrectOptionIDs stays empty until the authority configures the answer;
// such a question cannot be scored.
type BonusQuestion struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	EventID          uint          `gorm:"not null;index" json:"event_id"`
	Position         int           `gorm:"not null;default:0" json:"position"`
	Prompt           string        `gorm:"type:text;not null" json:"prompt"`
	Kind             string        `gorm:"size:20;not null" json:"kind"` // 'single' or 'multi'
	MaxSelections    int           `gorm:"not null;default:1" json:"max_selections"`
	Points           int           `gorm:"not null;default:0" json:"points"`
	CorrectOptionIDs []uint        `gorm:"serializer:json;type:text" json:"correct_option_ids"`
	Options          []BonusOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TableName specifies the table name for BonusQuestion model.
func (BonusQuestion) TableName() string {
	return "bonus_questions"
}

// BonusOption is one selectable answer of a bonus question.
type BonusOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Label      string `gorm:"size:255;not null" json:"label"`
}

// TableName specifies the table name for BonusOption model.
func (BonusOption) TableName() string {
	return "bonus_options"
}

// BonusResponse is a user's selection for one bonus question.
// Duplicate rows per (user, question) are tolerated like race predictions.
type BonusResponse struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            *uint      `gorm:"index" json:"user_id"`
	EventID           uint       `gorm:"not null;index" json:"event_id"`
	QuestionID        uint       `gorm:"not null;index" json:"question_id"`
	SelectedOptionIDs []uint     `gorm:"serializer:json;type:text" json:"selected_option_ids"`
	PointsAwarded     *int       `json:"points_awarded"`
	ScoredAt          *time.Time `json:"scored_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for BonusResponse model.
func (BonusResponse) TableName() string {
	return "bonus_responses"
}

// RowID returns the primary key.
func (r BonusResponse) RowID() uint { return r.ID }

// Owner returns the submitting user, nil for malformed rows.
func (r BonusResponse) Owner() *uint { return r.UserID }

// LastTouched returns UpdatedAt, falling back to CreatedAt.
func (r BonusResponse) LastTouched() time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

// BonusQuestionKind constants.
const (
	QuestionKindSingle = "single"
	QuestionKindMulti  = "multi"
)
