// Package standings recomputes cached user totals from stored submissions.
package standings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/pkg/logger"
)

const subjectUser = "user"

// PredictionRepository interface for prediction operations.
type PredictionRepository interface {
	ListPredictionsByUser(ctx context.Context, userID uint) ([]models.RacePrediction, error)
}

// ResponseRepository interface for bonus response operations.
type ResponseRepository interface {
	ListResponsesByUser(ctx context.Context, userID uint) ([]models.BonusResponse, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	SetTotalPoints(ctx context.Context, id uint, total int) error
	AdjustBonusPoints(ctx context.Context, id uint, delta int) error
	ListIDs(ctx context.Context) ([]uint, error)
}

// Invalidator drops derived read models after totals changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service recomputes user standings.
type Service struct {
	predictionRepo PredictionRepository
	responseRepo   ResponseRepository
	userRepo       UserRepository
	invalidator    Invalidator
	concurrency    int
	log            *logger.Logger
}

// NewService creates a new standings service. invalidator may be nil.
func NewService(
	predictionRepo PredictionRepository,
	responseRepo ResponseRepository,
	userRepo UserRepository,
	invalidator Invalidator,
	concurrency int,
	log *logger.Logger,
) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		predictionRepo: predictionRepo,
		responseRepo:   responseRepo,
		userRepo:       userRepo,
		invalidator:    invalidator,
		concurrency:    concurrency,
		log:            log,
	}
}

// Recompute rebuilds the total of every listed user from their stored
// submissions and overwrites it. Users are processed concurrently and a
// failure for one user never affects another. Duplicate IDs are ignored.
func (s *Service) Recompute(ctx context.Context, userIDs []uint) scoring.Outcomes {
	start := time.Now()
	ids := uniqueIDs(userIDs)
	outcomes := make(scoring.Outcomes, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = s.recomputeUser(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	ok, failed := outcomes.Count(scoring.StatusOK), outcomes.Count(scoring.StatusFailed)
	prommetrics.RecordRecomputation(ok, failed, time.Since(start))

	if ok > 0 && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate leaderboard after recomputation")
		}
	}

	s.log.Info().
		Int("users", len(ids)).
		Int("recomputed", ok).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Standings recomputed")

	return outcomes
}

// RecomputeAll recomputes every known user.
func (s *Service) RecomputeAll(ctx context.Context) (scoring.Outcomes, error) {
	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return s.Recompute(ctx, ids), nil
}

// AdjustBonusPoints adds delta to the user's bonus ledger and recomputes
// their total.
func (s *Service) AdjustBonusPoints(ctx context.Context, userID uint, delta int) (scoring.Outcome, error) {
	if err := s.userRepo.AdjustBonusPoints(ctx, userID, delta); err != nil {
		return scoring.Outcome{}, fmt.Errorf("failed to adjust bonus points: %w", err)
	}

	s.log.Info().
		Uint("user_id", userID).
		Int("delta", delta).
		Msg("Bonus points adjusted")

	return s.Recompute(ctx, []uint{userID})[0], nil
}

func (s *Service) recomputeUser(ctx context.Context, userID uint) scoring.Outcome {
	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return s.fail(userID, fmt.Errorf("failed to get user: %w", err))
	}
	predictions, err := s.predictionRepo.ListPredictionsByUser(ctx, userID)
	if err != nil {
		return s.fail(userID, fmt.Errorf("failed to list predictions: %w", err))
	}
	responses, err := s.responseRepo.ListResponsesByUser(ctx, userID)
	if err != nil {
		return s.fail(userID, fmt.Errorf("failed to list bonus responses: %w", err))
	}

	total := Total(predictions, responses, user.BonusPoints)
	if err := s.userRepo.SetTotalPoints(ctx, userID, total); err != nil {
		return s.fail(userID, fmt.Errorf("failed to set total points: %w", err))
	}

	s.log.Debug().Uint("user_id", userID).Int("total", total).Msg("User total recomputed")
	return scoring.OK(subjectUser, userID, userID)
}

func (s *Service) fail(userID uint, err error) scoring.Outcome {
	s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to recompute user total")
	return scoring.Failed(subjectUser, userID, userID, err)
}

// Total replays a user's stored submissions. Only the highest race score per
// event and the highest bonus award per (event, question) count, so stray
// duplicate rows never inflate the total. Unscored rows contribute nothing.
func Total(predictions []models.RacePrediction, responses []models.BonusResponse, bonusPoints int) int {
	perEvent := make(map[uint]int)
	for _, p := range predictions {
		if p.Score == nil {
			continue
		}
		if best, ok := perEvent[p.EventID]; !ok || *p.Score > best {
			perEvent[p.EventID] = *p.Score
		}
	}

	type questionKey struct{ event, question uint }
	perQuestion := make(map[questionKey]int)
	for _, r := range responses {
		if r.PointsAwarded == nil {
			continue
		}
		k := questionKey{r.EventID, r.QuestionID}
		if best, ok := perQuestion[k]; !ok || *r.PointsAwarded > best {
			perQuestion[k] = *r.PointsAwarded
		}
	}

	total := bonusPoints
	for _, pts := range perEvent {
		total += pts
	}
	for _, pts := range perQuestion {
		total += pts
	}
	return total
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
