// Package orchestrator drives scoring of race and bonus events: it loads
// submissions, reduces duplicates, scores, grants badges, persists and
// triggers standings recomputation.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paddockpicks/paddock/internal/mattermost"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
)

const (
	subjectPrediction = "prediction"
	subjectResponse   = "bonus_response"

	reasonUnchanged = "already scored with an unchanged score"

	topScorers = 3
)

// EventRepository interface for event operations.
type EventRepository interface {
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	SetStatus(ctx context.Context, id uint, status string) error
}

// ResultRepository interface for race result operations.
type ResultRepository interface {
	GetResult(ctx context.Context, eventID uint) (*models.RaceResult, error)
	UpsertResult(ctx context.Context, result *models.RaceResult) error
}

// PredictionRepository interface for race prediction operations.
type PredictionRepository interface {
	ListPredictions(ctx context.Context, eventID uint) ([]models.RacePrediction, error)
	UpdateScore(ctx context.Context, id uint, score models.PredictionScore, scoredAt time.Time) error
	ClearScore(ctx context.Context, ids []uint) error
}

// BonusRepository interface for bonus question and response operations.
type BonusRepository interface {
	ListQuestions(ctx context.Context, eventID uint) ([]models.BonusQuestion, error)
	ListResponses(ctx context.Context, eventID uint) ([]models.BonusResponse, error)
	UpdateResponsePoints(ctx context.Context, id uint, points int, scoredAt time.Time) error
	ClearResponsePoints(ctx context.Context, ids []uint) error
}

// UserRepository interface for user lookups used in announcements.
type UserRepository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// BadgeGrantor grants badges idempotently.
type BadgeGrantor interface {
	Grant(ctx context.Context, userID uint, badgeName string, eventID uint) scoring.Outcome
}

// Recomputer rebuilds cached user totals.
type Recomputer interface {
	Recompute(ctx context.Context, userIDs []uint) scoring.Outcomes
}

// Announcer publishes a scoring summary.
type Announcer interface {
	AnnounceScoring(ctx context.Context, summary mattermost.ScoringSummary) error
}

// Dependencies groups the collaborators of the orchestrator.
// Users and Announcer are optional.
type Dependencies struct {
	Events      EventRepository
	Results     ResultRepository
	Predictions PredictionRepository
	Bonus       BonusRepository
	Users       UserRepository
	Badges      BadgeGrantor
	Standings   Recomputer
	Announcer   Announcer
}

// Service orchestrates scoring runs.
type Service struct {
	events      EventRepository
	results     ResultRepository
	predictions PredictionRepository
	bonus       BonusRepository
	users       UserRepository
	badges      BadgeGrantor
	standings   Recomputer
	announcer   Announcer
	concurrency int
	log         *logger.Logger
	now         func() time.Time
}

// NewService creates a new orchestrator. concurrency bounds how many
// submissions are scored in parallel.
func NewService(deps Dependencies, concurrency int, log *logger.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		events:      deps.Events,
		results:     deps.Results,
		predictions: deps.Predictions,
		bonus:       deps.Bonus,
		users:       deps.Users,
		badges:      deps.Badges,
		standings:   deps.Standings,
		announcer:   deps.Announcer,
		concurrency: concurrency,
		log:         log,
		now:         time.Now,
	}
}

// checkScorable rejects events of the wrong kind and events that still
// accept submissions or were archived.
func checkScorable(event *models.Event, kind string, now time.Time) error {
	if event.Kind != kind {
		return fmt.Errorf("%w: event %d is a %s event, not %s", models.ErrValidation, event.ID, event.Kind, kind)
	}
	switch event.Status {
	case models.EventStatusArchived:
		return fmt.Errorf("%w: event %d is archived", models.ErrValidation, event.ID)
	case models.EventStatusUpcoming:
		return fmt.Errorf("%w: event %d has not opened yet", models.ErrValidation, event.ID)
	case models.EventStatusOpen:
		if event.AcceptsSubmissions(now) {
			return fmt.Errorf("%w: event %d still accepts submissions until %s",
				models.ErrValidation, event.ID, event.LockAt.Format(time.RFC3339))
		}
	}
	return nil
}

func (s *Service) loadEvent(ctx context.Context, eventID uint, kind string) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if err := checkScorable(event, kind, s.now()); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) markScored(ctx context.Context, eventID uint) error {
	if err := s.events.SetStatus(ctx, eventID, models.EventStatusScored); err != nil {
		s.log.Error().Err(err).Uint("event_id", eventID).Msg("Failed to mark event scored")
		return fmt.Errorf("failed to mark event %d scored: %w", eventID, err)
	}
	return nil
}

// recompute runs one batched recomputation for the impacted users.
func (s *Service) recompute(ctx context.Context, userIDs map[uint]struct{}) scoring.Outcomes {
	if len(userIDs) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(userIDs))
	for id := range userIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return s.standings.Recompute(ctx, ids)
}

func (s *Service) announce(ctx context.Context, summary mattermost.ScoringSummary, points map[uint]int) {
	if s.announcer == nil {
		return
	}
	summary.TopScorers = s.topScorers(ctx, points)
	if err := s.announcer.AnnounceScoring(ctx, summary); err != nil {
		s.log.Warn().Err(err).Uint("event_id", summary.EventID).Msg("Failed to announce scoring")
	}
}

func (s *Service) topScorers(ctx context.Context, points map[uint]int) []mattermost.Scorer {
	if s.users == nil {
		return nil
	}
	ids := make([]uint, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if points[ids[i]] != points[ids[j]] {
			return points[ids[i]] > points[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > topScorers {
		ids = ids[:topScorers]
	}

	scorers := make([]mattermost.Scorer, 0, len(ids))
	for _, id := range ids {
		name := fmt.Sprintf("user-%d", id)
		if u, err := s.users.GetUser(ctx, id); err == nil {
			name = u.Username
		}
		scorers = append(scorers, mattermost.Scorer{Username: name, Points: points[id]})
	}
	return scorers
}
