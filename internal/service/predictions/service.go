// Package predictions accepts race predictions and bonus responses while an
// event is open.
package predictions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
)

var validate = validator.New()

// EventRepository interface for event operations.
type EventRepository interface {
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// PredictionRepository interface for race prediction writes.
type PredictionRepository interface {
	LatestPredictionForUser(ctx context.Context, userID, eventID uint) (*models.RacePrediction, error)
	CreatePrediction(ctx context.Context, p *models.RacePrediction) error
	SavePrediction(ctx context.Context, p *models.RacePrediction) error
}

// BonusRepository interface for bonus response writes.
type BonusRepository interface {
	GetQuestion(ctx context.Context, id uint) (*models.BonusQuestion, error)
	LatestResponseForUser(ctx context.Context, userID, questionID uint) (*models.BonusResponse, error)
	CreateResponse(ctx context.Context, r *models.BonusResponse) error
	SaveResponse(ctx context.Context, r *models.BonusResponse) error
}

// RacePicks is a user's pick set for a race. Every pick is optional.
type RacePicks struct {
	PoleDriverID       *string `json:"pole_driver_id" validate:"omitempty,max=50"`
	WinnerDriverID     *string `json:"winner_driver_id" validate:"omitempty,max=50"`
	SecondDriverID     *string `json:"second_driver_id" validate:"omitempty,max=50"`
	ThirdDriverID      *string `json:"third_driver_id" validate:"omitempty,max=50"`
	FastestLapDriverID *string `json:"fastest_lap_driver_id" validate:"omitempty,max=50"`
	FastestPitTeamID   *string `json:"fastest_pit_team_id" validate:"omitempty,max=50"`
	NoDNF              *bool   `json:"no_dnf"`
	FirstDNFDriverID   *string `json:"first_dnf_driver_id" validate:"omitempty,max=50"`
	SafetyCar          *bool   `json:"safety_car"`
	WinningMargin      *string `json:"winning_margin" validate:"omitempty,oneof=0-5s 5-10s 10-20s 20s+"`
	Wildcard           *bool   `json:"wildcard"`
}

// Validate checks field constraints and that the DNF pick is one of the two forms.
func (p *RacePicks) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, describe(err))
	}
	if p.NoDNF != nil && *p.NoDNF && p.FirstDNFDriverID != nil && *p.FirstDNFDriverID != "" {
		return fmt.Errorf("%w: pick either no_dnf or first_dnf_driver_id", models.ErrValidation)
	}
	return nil
}

func (p *RacePicks) applyTo(row *models.RacePrediction) {
	row.PoleDriverID = p.PoleDriverID
	row.WinnerDriverID = p.WinnerDriverID
	row.SecondDriverID = p.SecondDriverID
	row.ThirdDriverID = p.ThirdDriverID
	row.FastestLapDriverID = p.FastestLapDriverID
	row.FastestPitTeamID = p.FastestPitTeamID
	row.NoDNF = p.NoDNF
	row.FirstDNFDriverID = p.FirstDNFDriverID
	row.SafetyCar = p.SafetyCar
	row.WinningMargin = p.WinningMargin
	row.Wildcard = p.Wildcard
}

// Service handles prediction intake.
type Service struct {
	events      EventRepository
	users       UserRepository
	predictions PredictionRepository
	bonus       BonusRepository
	log         *logger.Logger
	now         func() time.Time
}

// NewService creates a new prediction intake service.
func NewService(
	events EventRepository,
	users UserRepository,
	predictions PredictionRepository,
	bonus BonusRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		events:      events,
		users:       users,
		predictions: predictions,
		bonus:       bonus,
		log:         log,
		now:         time.Now,
	}
}

// SubmitRace stores a user's picks for a race, replacing their latest row.
func (s *Service) SubmitRace(ctx context.Context, userID, eventID uint, picks *RacePicks) (*models.RacePrediction, error) {
	row, err := s.submitRace(ctx, userID, eventID, picks)
	prommetrics.RecordSubmissionReceived(models.EventKindRace, submissionStatus(err))
	return row, err
}

func (s *Service) submitRace(ctx context.Context, userID, eventID uint, picks *RacePicks) (*models.RacePrediction, error) {
	if err := picks.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkOpen(ctx, userID, eventID, models.EventKindRace); err != nil {
		return nil, err
	}

	row, err := s.predictions.LatestPredictionForUser(ctx, userID, eventID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		row = &models.RacePrediction{UserID: &userID, EventID: eventID}
		picks.applyTo(row)
		if err := s.predictions.CreatePrediction(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to create prediction: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load prediction: %w", err)
	default:
		picks.applyTo(row)
		if err := s.predictions.SavePrediction(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to save prediction: %w", err)
		}
	}

	s.log.Info().
		Uint("user_id", userID).
		Uint("event_id", eventID).
		Uint("prediction_id", row.ID).
		Msg("Race prediction stored")

	return row, nil
}

// SubmitBonus stores a user's selection for one bonus question. The selection
// is sanitized against the question's options and selection limit; nothing
// left after sanitizing is rejected.
func (s *Service) SubmitBonus(ctx context.Context, userID, eventID, questionID uint, selected []uint) (*models.BonusResponse, error) {
	resp, err := s.submitBonus(ctx, userID, eventID, questionID, selected)
	prommetrics.RecordSubmissionReceived(models.EventKindBonus, submissionStatus(err))
	return resp, err
}

func (s *Service) submitBonus(ctx context.Context, userID, eventID, questionID uint, selected []uint) (*models.BonusResponse, error) {
	if err := s.checkOpen(ctx, userID, eventID, models.EventKindBonus); err != nil {
		return nil, err
	}

	q, err := s.bonus.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if q.EventID != eventID {
		return nil, fmt.Errorf("%w: question %d does not belong to event %d", models.ErrValidation, questionID, eventID)
	}

	clean := scoring.SanitizeSelection(q, selected)
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no valid option selected for question %d", models.ErrValidation, questionID)
	}

	resp, err := s.bonus.LatestResponseForUser(ctx, userID, questionID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		resp = &models.BonusResponse{UserID: &userID, EventID: eventID, QuestionID: questionID, SelectedOptionIDs: clean}
		if err := s.bonus.CreateResponse(ctx, resp); err != nil {
			return nil, fmt.Errorf("failed to create bonus response: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load bonus response: %w", err)
	default:
		resp.SelectedOptionIDs = clean
		if err := s.bonus.SaveResponse(ctx, resp); err != nil {
			return nil, fmt.Errorf("failed to save bonus response: %w", err)
		}
	}

	s.log.Info().
		Uint("user_id", userID).
		Uint("event_id", eventID).
		Uint("question_id", questionID).
		Int("selected", len(clean)).
		Msg("Bonus response stored")

	return resp, nil
}

func (s *Service) checkOpen(ctx context.Context, userID, eventID uint, kind string) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	if event.Kind != kind {
		return fmt.Errorf("%w: event %d is not a %s event", models.ErrValidation, eventID, kind)
	}
	if !event.AcceptsSubmissions(s.now()) {
		return fmt.Errorf("%w: event %d (%s)", models.ErrEventLocked, eventID, event.Status)
	}
	return nil
}

func submissionStatus(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, models.ErrEventLocked):
		return "locked"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
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
