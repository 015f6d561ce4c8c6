// Package models defines domain models for the prediction game.
package models

import (
	"time"
)

// Badge represents an achievement definition. Badges are provisioned out-of-band
// (config or seed file) and looked up by name when granted.
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// UserBadge records that a user earned a badge for a specific event.
// At most one row exists per (user, badge, event).
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badge_event,priority:1;index" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge_event,priority:2" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EventID  uint      `gorm:"not null;uniqueIndex:idx_user_badge_event,priority:3;index" json:"event_id"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}

// Badge names granted by race scoring.
const (
	BadgePolePosition  = "Pole Prophet"
	BadgeRaceWinner    = "Winner Call"
	BadgeSecondPlace   = "Runner-Up Read"
	BadgeThirdPlace    = "Third Step"
	BadgeFastestLap    = "Purple Sector"
	BadgeFastestPit    = "Pit Wall Genius"
	BadgeDNF           = "Attrition Oracle"
	BadgeSafetyCar     = "Safety Car Seer"
	BadgeMargin        = "Photo Finish"
	BadgePerfectPodium = "Perfect Podium"
	BadgeHalfCentury   = "Half Century"
	BadgePerfectSlate  = "Perfect Slate"
	BadgeWildcard      = "Wildcard"
	BadgeGrandPrix     = "Grand Prix Master"
)
