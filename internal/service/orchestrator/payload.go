package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paddockpicks/paddock/internal/models"
)

var validate = validator.New()

// ResultPayload is the authoritative outcome of a race as submitted by an administrator.
type ResultPayload struct {
	PoleDriverID       string  `json:"pole_driver_id" validate:"required,max=50"`
	WinnerDriverID     string  `json:"winner_driver_id" validate:"required,max=50"`
	SecondDriverID     string  `json:"second_driver_id" validate:"required,max=50"`
	ThirdDriverID      string  `json:"third_driver_id" validate:"required,max=50"`
	FastestLapDriverID string  `json:"fastest_lap_driver_id" validate:"required,max=50"`
	FastestPitTeamID   string  `json:"fastest_pit_team_id" validate:"required,max=50"`
	NoDNF              bool    `json:"no_dnf"`
	FirstDNFDriverID   *string `json:"first_dnf_driver_id" validate:"omitempty,max=50"`
	SafetyCar          bool    `json:"safety_car"`
	WinningMargin      string  `json:"winning_margin" validate:"required,oneof=0-5s 5-10s 10-20s 20s+"`
	Wildcard           *bool   `json:"wildcard"`
}

// Validate checks field constraints and the consistency of the DNF answer.
// Every failure wraps models.ErrValidation.
func (p *ResultPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, describe(err))
	}

	hasDNF := p.FirstDNFDriverID != nil && *p.FirstDNFDriverID != ""
	if p.NoDNF && hasDNF {
		return fmt.Errorf("%w: first_dnf_driver_id must be empty when no_dnf is set", models.ErrValidation)
	}
	if !p.NoDNF && !hasDNF {
		return fmt.Errorf("%w: first_dnf_driver_id is required unless no_dnf is set", models.ErrValidation)
	}

	podium := map[string]struct{}{p.WinnerDriverID: {}, p.SecondDriverID: {}, p.ThirdDriverID: {}}
	if len(podium) != 3 {
		return fmt.Errorf("%w: podium drivers must be distinct", models.ErrValidation)
	}
	return nil
}

// ToResult converts the payload to the stored result of an event.
func (p *ResultPayload) ToResult(eventID uint, publishedAt time.Time) *models.RaceResult {
	r := &models.RaceResult{
		EventID:            eventID,
		PoleDriverID:       p.PoleDriverID,
		WinnerDriverID:     p.WinnerDriverID,
		SecondDriverID:     p.SecondDriverID,
		ThirdDriverID:      p.ThirdDriverID,
		FastestLapDriverID: p.FastestLapDriverID,
		FastestPitTeamID:   p.FastestPitTeamID,
		NoDNF:              p.NoDNF,
		SafetyCar:          p.SafetyCar,
		WinningMargin:      p.WinningMargin,
		Wildcard:           p.Wildcard,
		PublishedAt:        publishedAt,
	}
	if !p.NoDNF {
		r.FirstDNFDriverID = p.FirstDNFDriverID
	}
	return r
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}
