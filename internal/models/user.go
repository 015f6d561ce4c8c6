package models

import (
	"time"
)

// User represents a player and their cached standing.
//
// TotalPoints is derived state: it always equals the replay of every scored
// submission plus BonusPoints and is rewritten wholesale by recomputation.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	BonusPoints int       `gorm:"not null;default:0" json:"bonus_points"`
	TotalPoints int       `gorm:"not null;default:0;index" json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// StandingEntry is one row of the leaderboard read model.
// Ties share a rank; the next distinct total skips ranks accordingly.
type StandingEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	TotalPoints int    `json:"total_points"`
	BonusPoints int    `json:"bonus_points"`
}
