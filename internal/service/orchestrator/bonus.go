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

// BonusSummary reports a bonus event scoring run.
type BonusSummary struct {
	EventID     uint             `json:"event_id"`
	ScoredCount int              `json:"scored_count"`
	Unchanged   int              `json:"unchanged"`
	Failed      int              `json:"failed"`
	Ignored     int              `json:"ignored"`
	Cleared     int              `json:"cleared"`
	Dropped     int              `json:"dropped"`
	Recomputed  int              `json:"recomputed"`
	Outcomes    scoring.Outcomes `json:"outcomes"`
	Errors      []string         `json:"errors,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

type responseKey struct {
	user     uint
	question uint
}

// ScoreBonusEvent scores every response of a bonus event. All questions must
// have their correct options configured, otherwise nothing is scored.
// Bonus events grant no badges.
func (s *Service) ScoreBonusEvent(ctx context.Context, eventID uint) (*BonusSummary, error) {
	start := time.Now()

	event, err := s.loadEvent(ctx, eventID, models.EventKindBonus)
	if err != nil {
		return nil, err
	}

	questions, err := s.bonus.ListQuestions(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonus questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: event %d has no bonus questions", models.ErrValidation, event.ID)
	}

	byID := make(map[uint]*models.BonusQuestion, len(questions))
	var pending []uint
	for i := range questions {
		q := &questions[i]
		byID[q.ID] = q
		if len(q.CorrectOptionIDs) == 0 {
			pending = append(pending, q.ID)
		}
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: questions %v have no correct answer configured", models.ErrValidation, pending)
	}

	rows, err := s.bonus.ListResponses(ctx, event.ID)
	if err != nil {
		prommetrics.RecordScoringRun(models.EventKindBonus, "error", time.Since(start))
		return nil, fmt.Errorf("failed to load bonus responses: %w", err)
	}

	summary := &BonusSummary{EventID: event.ID}

	// Responses pointing at a question outside this event cannot be scored.
	valid := make([]models.BonusResponse, 0, len(rows))
	for _, r := range rows {
		if _, ok := byID[r.QuestionID]; !ok {
			summary.Ignored++
			continue
		}
		valid = append(valid, r)
	}

	red := scoring.LatestBy(valid, func(r models.BonusResponse) responseKey {
		return responseKey{user: *r.UserID, question: r.QuestionID}
	})
	summary.Dropped = red.Dropped

	latest := make([]models.BonusResponse, 0, len(red.Latest))
	for _, r := range red.Latest {
		latest = append(latest, r)
	}
	sort.Slice(latest, func(i, j int) bool {
		if *latest[i].UserID != *latest[j].UserID {
			return *latest[i].UserID < *latest[j].UserID
		}
		return latest[i].QuestionID < latest[j].QuestionID
	})

	outcomes := make(scoring.Outcomes, len(latest))
	earned := make([]int, len(latest))
	scoredAt := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range latest {
		g.Go(func() error {
			outcomes[i], earned[i] = s.scoreResponse(gctx, byID[latest[i].QuestionID], &latest[i], scoredAt)
			return nil
		})
	}
	_ = g.Wait()

	summary.Outcomes = outcomes
	impacted := make(map[uint]struct{})
	failed := make(map[responseKey]struct{})
	points := make(map[uint]int)
	for i, o := range outcomes {
		if o.Status == scoring.StatusFailed {
			failed[responseKey{user: o.UserID, question: latest[i].QuestionID}] = struct{}{}
			continue
		}
		points[o.UserID] += earned[i]
		impacted[o.UserID] = struct{}{}
	}

	// Superseded responses keep their points while the authoritative
	// response for the same question failed to persist.
	var stale []uint
	for _, r := range red.Superseded {
		if _, skip := failed[responseKey{user: *r.UserID, question: r.QuestionID}]; skip {
			continue
		}
		if r.PointsAwarded != nil || r.ScoredAt != nil {
			stale = append(stale, r.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.bonus.ClearResponsePoints(ctx, stale); err != nil {
			s.log.Error().Err(err).Uint("event_id", event.ID).Int("rows", len(stale)).Msg("Failed to clear superseded bonus points")
			summary.Errors = append(summary.Errors, fmt.Sprintf("failed to clear superseded bonus points: %v", err))
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

	ok := outcomes.Count(scoring.StatusOK)
	summary.Unchanged = outcomes.Count(scoring.StatusSkipped)
	summary.Failed = outcomes.Count(scoring.StatusFailed)
	summary.ScoredCount = ok + summary.Unchanged
	summary.Errors = append(outcomes.Errors(), summary.Errors...)
	summary.Duration = time.Since(start)

	status := "ok"
	if len(summary.Errors) > 0 {
		status = "partial"
	}
	prommetrics.RecordScoringRun(models.EventKindBonus, status, summary.Duration)
	prommetrics.RecordSubmissions(models.EventKindBonus, ok, summary.Unchanged, summary.Failed)
	prommetrics.RecordDeduplication(models.EventKindBonus, summary.Cleared, summary.Dropped)

	s.log.Info().
		Uint("event_id", event.ID).
		Int("questions", len(questions)).
		Int("scored", summary.ScoredCount).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Int("ignored", summary.Ignored).
		Int("cleared", summary.Cleared).
		Int("recomputed", summary.Recomputed).
		Dur("duration", summary.Duration).
		Msg("Bonus scoring completed")

	s.announce(ctx, mattermost.ScoringSummary{
		EventID:   event.ID,
		EventName: event.Name,
		Kind:      models.EventKindBonus,
		Scored:    summary.ScoredCount,
		Skipped:   summary.Unchanged,
		Failed:    summary.Failed,
	}, points)

	return summary, nil
}

func (s *Service) scoreResponse(
	ctx context.Context,
	q *models.BonusQuestion,
	r *models.BonusResponse,
	scoredAt time.Time,
) (scoring.Outcome, int) {
	userID := *r.UserID
	verdict := scoring.ScoreBonusQuestion(q, q.CorrectOptionIDs, r.SelectedOptionIDs)

	if r.ScoredAt != nil && r.PointsAwarded != nil && *r.PointsAwarded == verdict.PointsEarned {
		return scoring.Skipped(subjectResponse, r.ID, userID, reasonUnchanged), verdict.PointsEarned
	}

	if err := s.bonus.UpdateResponsePoints(ctx, r.ID, verdict.PointsEarned, scoredAt); err != nil {
		s.log.Error().
			Err(err).
			Uint("response_id", r.ID).
			Uint("question_id", q.ID).
			Uint("user_id", userID).
			Msg("Failed to persist bonus points")
		return scoring.Failed(subjectResponse, r.ID, userID, err), 0
	}

	s.log.Debug().
		Uint("response_id", r.ID).
		Uint("question_id", q.ID).
		Str("verdict", string(verdict.Status)).
		Int("points", verdict.PointsEarned).
		Msg("Bonus response scored")

	return scoring.OK(subjectResponse, r.ID, userID), verdict.PointsEarned
}
