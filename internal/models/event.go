package models

import (
	"time"
)

// Event is a race or a bonus question set that accepts submissions until LockAt
// and is later scored against a result.
type Event struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"not null;size:255" json:"name"`
	Kind      string     `gorm:"size:20;not null;index" json:"kind"` // 'race' or 'bonus'
	Season    int        `gorm:"index" json:"season"`
	Round     int        `json:"round"`
	Status    string     `gorm:"size:20;not null;index" json:"status"`
	LockAt    time.Time  `gorm:"not null" json:"lock_at"`
	ScoredAt  *time.Time `json:"scored_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Event model.
func (Event) TableName() string {
	return "events"
}

// AcceptsSubmissions reports whether a submission made at now may be stored.
func (e *Event) AcceptsSubmissions(now time.Time) bool {
	return e.Status == EventStatusOpen && now.Before(e.LockAt)
}

// EventKind constants.
const (
	EventKindRace  = "race"
	EventKindBonus = "bonus"
)

// EventStatus constants. Statuses only move forward except through SetStatus.
const (
	EventStatusUpcoming = "upcoming"
	EventStatusOpen     = "open"
	EventStatusLocked   = "locked"
	EventStatusScored   = "scored"
	EventStatusArchived = "archived"
)

// EventFilter narrows ListEvents queries. Zero values are ignored.
type EventFilter struct {
	Kind         string
	Status       string
	Season       int
	LockedBefore *time.Time
}

// RaceResult is the ground truth for one race event. At most one row exists per event.
type RaceResult struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	EventID            uint      `gorm:"uniqueIndex;not null" json:"event_id"`
	PoleDriverID       string    `gorm:"size:50;not null" json:"pole_driver_id"`
	WinnerDriverID     string    `gorm:"size:50;not null" json:"winner_driver_id"`
	SecondDriverID     string    `gorm:"size:50;not null" json:"second_driver_id"`
	ThirdDriverID      string    `gorm:"size:50;not null" json:"third_driver_id"`
	FastestLapDriverID string    `gorm:"size:50;not null" json:"fastest_lap_driver_id"`
	FastestPitTeamID   string    `gorm:"size:50;not null" json:"fastest_pit_team_id"`
	NoDNF              bool      `gorm:"not null;default:false" json:"no_dnf"`
	FirstDNFDriverID   *string   `gorm:"size:50" json:"first_dnf_driver_id"`
	SafetyCar          bool      `gorm:"not null;default:false" json:"safety_car"`
	WinningMargin      string    `gorm:"size:20;not null" json:"winning_margin"`
	Wildcard           *bool     `json:"wildcard"`
	PublishedAt        time.Time `gorm:"not null" json:"published_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for RaceResult model.
func (RaceResult) TableName() string {
	return "race_results"
}
