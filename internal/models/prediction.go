package models

import (
	"time"
)

// RacePrediction is a user's stored pick set for one race.
//
// The store may hold several rows for the same (user, event) pair because of
// retried writes; scoring reduces them to the most recently updated one.
// Every pick is nullable: a missing pick scores as incorrect.
type RacePrediction struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             *uint      `gorm:"index" json:"user_id"`
	EventID            uint       `gorm:"not null;index" json:"event_id"`
	PoleDriverID       *string    `gorm:"size:50" json:"pole_driver_id"`
	WinnerDriverID     *string    `gorm:"size:50" json:"winner_driver_id"`
	SecondDriverID     *string    `gorm:"size:50" json:"second_driver_id"`
	ThirdDriverID      *string    `gorm:"size:50" json:"third_driver_id"`
	FastestLapDriverID *string    `gorm:"size:50" json:"fastest_lap_driver_id"`
	FastestPitTeamID   *string    `gorm:"size:50" json:"fastest_pit_team_id"`
	NoDNF              *bool      `json:"no_dnf"`
	FirstDNFDriverID   *string    `gorm:"size:50" json:"first_dnf_driver_id"`
	SafetyCar          *bool      `json:"safety_car"`
	WinningMargin      *string    `gorm:"size:20" json:"winning_margin"`
	Wildcard           *bool      `json:"wildcard"`
	BaseScore          *int       `json:"base_score"`
	WildcardScore      *int       `json:"wildcard_score"`
	Score              *int       `json:"score"`
	ScoredAt           *time.Time `json:"scored_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for RacePrediction model.
func (RacePrediction) TableName() string {
	return "race_predictions"
}

// RowID returns the primary key.
func (p RacePrediction) RowID() uint { return p.ID }

// Owner returns the submitting user, nil for malformed rows.
func (p RacePrediction) Owner() *uint { return p.UserID }

// LastTouched returns UpdatedAt, falling back to CreatedAt.
func (p RacePrediction) LastTouched() time.Time {
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// PredictionScore is what scoring persists onto a prediction row.
type PredictionScore struct {
	Base     int `json:"base"`
	Wildcard int `json:"wildcard"`
}

// Total returns base plus wildcard points.
func (s PredictionScore) Total() int { return s.Base + s.Wildcard }

// Matches reports whether the row already carries exactly this score.
func (p RacePrediction) Matches(s PredictionScore) bool {
	return p.ScoredAt != nil &&
		p.BaseScore != nil && *p.BaseScore == s.Base &&
		p.WildcardScore != nil && *p.WildcardScore == s.Wildcard &&
		p.Score != nil && *p.Score == s.Total()
}
