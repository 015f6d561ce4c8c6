package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paddockpicks/paddock/internal/mattermost"
	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
)

// PublishSummary reports a race scoring run.
type PublishSummary struct {
	EventID uint `json:"event_id"`
	// ScoredCount counts logical submissions that carry their current
	// score after the run, written now or already up to date.
	ScoredCount   int              `json:"scored_count"`
	Unchanged     int              `json:"unchanged"`
	Failed        int              `json:"failed"`
	Cleared       int              `json:"cleared"`
	Dropped       int              `json:"dropped"`
	BadgesGranted int              `json:"badges_granted"`
	Recomputed    int              `json:"recomputed"`
	Outcomes      scoring.Outcomes `json:"outcomes"`
	Errors        []string         `json:"errors,omitempty"`
	Duration      time.Duration    `json:"duration"`
}

type predictionRun struct {
	outcome scoring.Outcome
	badges  scoring.Outcomes
	total   int
}

// PublishResult stores the result of a race event and scores every
// submission against it. Publishing again replaces the result and rescores:
// unchanged scores are not rewritten and badges are never granted twice.
func (s *Service) PublishResult(ctx context.Context, eventID uint, payload *ResultPayload) (*PublishSummary, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	event, err := s.loadEvent(ctx, eventID, models.EventKindRace)
	if err != nil {
		return nil, err
	}

	result := payload.ToResult(event.ID, s.now())
	if err := s.results.UpsertResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}

	s.log.Info().
		Uint("event_id", event.ID).
		Str("event", event.Name).
		Msg("Race result published")

	return s.scoreRace(ctx, event, result)
}

// Rescore re-runs race scoring against the stored result.
func (s *Service) Rescore(ctx context.Context, eventID uint) (*PublishSummary, error) {
	event, err := s.loadEvent(ctx, eventID, models.EventKindRace)
	if err != nil {
		return nil, err
	}

	result, err := s.results.GetResult(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	return s.scoreRace(ctx, event, result)
}

func (s *Service) scoreRace(ctx context.Context, event *models.Event, result *models.RaceResult) (*PublishSummary, error) {
	start := time.Now()

	rows, err := s.predictions.ListPredictions(ctx, event.ID)
	if err != nil {
		prommetrics.RecordScoringRun(models.EventKindRace, "error", time.Since(start))
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}

	red := scoring.LatestByUser(rows)
	latest := make([]models.RacePrediction, 0, len(red.Latest))
	for _, p := range red.Latest {
		latest = append(latest, p)
	}
	sort.Slice(latest, func(i, j int) bool { return *latest[i].UserID < *latest[j].UserID })

	runs := make([]predictionRun, len(latest))
	scoredAt := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range latest {
		g.Go(func() error {
			runs[i] = s.scorePrediction(gctx, event.ID, &latest[i], result, scoredAt)
			return nil
		})
	}
	_ = g.Wait()

	summary := &PublishSummary{
		EventID:  event.ID,
		Dropped:  red.Dropped,
		Outcomes: make(scoring.Outcomes, 0, len(runs)),
	}
	// Every user whose submission carries its current score is recomputed,
	// unchanged ones included, so a rerun repairs a total a previous run
	// failed to write.
	impacted := make(map[uint]struct{})
	failed := make(map[uint]struct{})
	points := make(map[uint]int)

	for _, run := range runs {
		summary.Outcomes = append(summary.Outcomes, run.outcome)
		summary.BadgesGranted += run.badges.Count(scoring.StatusOK)
		summary.Errors = append(summary.Errors, run.badges.Errors()...)
		if run.outcome.Status == scoring.StatusFailed {
			failed[run.outcome.UserID] = struct{}{}
			continue
		}
		points[run.outcome.UserID] = run.total
		impacted[run.outcome.UserID] = struct{}{}
	}

	// Superseded duplicates must not keep a score of their own. They are kept
	// while the authoritative row failed to persist, so the total never drops.
	var stale []uint
	for _, p := range red.Superseded {
		if _, skip := failed[*p.UserID]; skip {
			continue
		}
		if p.Score != nil || p.ScoredAt != nil {
			stale = append(stale, p.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.predictions.ClearScore(ctx, stale); err != nil {
			s.log.Error().Err(err).Uint("event_id", event.ID).Int("rows", len(stale)).Msg("Failed to clear superseded scores")
			summary.Errors = append(summary.Errors, fmt.Sprintf("failed to clear superseded scores: %v", err))
		} else {
			summary.Cleared = len(stale)
		}
	}

	recomputed := s.recompute(ctx, impacted)
	summary.Recomputed = recomputed.Count(scoring.StatusOK)
	summary.Errors = append(summary.Errors, recomputed.Errors()...)

	if err := s.markScored(ctx, event.ID); err != nil {
		summary.Errors = append(summary.Errors, err.Error())
	}

	s.finishRace(summary, start)
	s.announce(ctx, mattermost.ScoringSummary{
		EventID:       event.ID,
		EventName:     event.Name,
		Kind:          models.EventKindRace,
		Scored:        summary.ScoredCount,
		Skipped:       summary.Unchanged,
		Failed:        summary.Failed,
		BadgesGranted: summary.BadgesGranted,
	}, points)

	return summary, nil
}

func (s *Service) finishRace(summary *PublishSummary, start time.Time) {
	ok := summary.Outcomes.Count(scoring.StatusOK)
	summary.Unchanged = summary.Outcomes.Count(scoring.StatusSkipped)
	summary.Failed = summary.Outcomes.Count(scoring.StatusFailed)
	summary.ScoredCount = ok + summary.Unchanged
	summary.Errors = append(summary.Outcomes.Errors(), summary.Errors...)
	summary.Duration = time.Since(start)

	status := "ok"
	if len(summary.Errors) > 0 {
		status = "partial"
	}
	prommetrics.RecordScoringRun(models.EventKindRace, status, summary.Duration)
	prommetrics.RecordSubmissions(models.EventKindRace, ok, summary.Unchanged, summary.Failed)
	prommetrics.RecordDeduplication(models.EventKindRace, summary.Cleared, summary.Dropped)

	s.log.Info().
		Uint("event_id", summary.EventID).
		Int("scored", summary.ScoredCount).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Int("cleared", summary.Cleared).
		Int("dropped", summary.Dropped).
		Int("badges", summary.BadgesGranted).
		Int("recomputed", summary.Recomputed).
		Dur("duration", summary.Duration).
		Msg("Race scoring completed")
}

// scorePrediction scores one logical submission, persists the score unless it
// is unchanged and grants the badges it earns. Badge grants are idempotent so
// they are attempted for unchanged scores too; a failed score write skips them.
func (s *Service) scorePrediction(
	ctx context.Context,
	eventID uint,
	p *models.RacePrediction,
	result *models.RaceResult,
	scoredAt time.Time,
) predictionRun {
	userID := *p.UserID
	score := scoring.ScoreRace(p, result)
	stored := models.PredictionScore{Base: score.BaseScore(), Wildcard: score.WildcardScore()}
	run := predictionRun{total: stored.Total()}

	run.outcome = scoring.OK(subjectPrediction, p.ID, userID)
	if p.Matches(stored) {
		run.outcome = scoring.Skipped(subjectPrediction, p.ID, userID, reasonUnchanged)
	} else if err := s.predictions.UpdateScore(ctx, p.ID, stored, scoredAt); err != nil {
		s.log.Error().
			Err(err).
			Uint("event_id", eventID).
			Uint("prediction_id", p.ID).
			Uint("user_id", userID).
			Msg("Failed to persist prediction score")
		run.outcome = scoring.Failed(subjectPrediction, p.ID, userID, err)
		return run
	}

	for _, name := range RaceBadges(score) {
		run.badges = append(run.badges, s.badges.Grant(ctx, userID, name, eventID))
	}

	s.log.Debug().
		Uint("prediction_id", p.ID).
		Uint("user_id", userID).
		Int("base", stored.Base).
		Int("wildcard", stored.Wildcard).
		Str("status", string(run.outcome.Status)).
		Msg("Prediction scored")

	return run
}
