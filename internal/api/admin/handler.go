// Package admin provides the authority-facing REST API: publishing results,
// scoring bonus events, ledger adjustments and reconciliation.
package admin

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paddockpicks/paddock/internal/api/respond"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
	"github.com/paddockpicks/paddock/internal/service/orchestrator"
	"github.com/paddockpicks/paddock/pkg/logger"
)

// ScoringService interface for scoring runs.
type ScoringService interface {
	PublishResult(ctx context.Context, eventID uint, payload *orchestrator.ResultPayload) (*orchestrator.PublishSummary, error)
	Rescore(ctx context.Context, eventID uint) (*orchestrator.PublishSummary, error)
	ScoreBonusEvent(ctx context.Context, eventID uint) (*orchestrator.BonusSummary, error)
}

// StandingsService interface for standings maintenance.
type StandingsService interface {
	AdjustBonusPoints(ctx context.Context, userID uint, delta int) (scoring.Outcome, error)
	RecomputeAll(ctx context.Context) (scoring.Outcomes, error)
}

// EventRepository interface for administrative event changes.
type EventRepository interface {
	SetStatus(ctx context.Context, id uint, status string) error
}

// BonusRepository interface for configuring bonus answers.
type BonusRepository interface {
	GetQuestion(ctx context.Context, id uint) (*models.BonusQuestion, error)
	SetCorrectOptions(ctx context.Context, questionID uint, optionIDs []uint) error
}

// Handler handles admin API requests.
type Handler struct {
	scoring   ScoringService
	standings StandingsService
	events    EventRepository
	bonus     BonusRepository
	log       *logger.Logger
}

// NewHandler creates a new admin handler.
func NewHandler(
	scoringService ScoringService,
	standingsService StandingsService,
	events EventRepository,
	bonus BonusRepository,
	log *logger.Logger,
) *Handler {
	return &Handler{
		scoring:   scoringService,
		standings: standingsService,
		events:    events,
		bonus:     bonus,
		log:       log,
	}
}

// Register mounts the admin routes, guarded by the bearer token.
func (h *Handler) Register(api *gin.RouterGroup, token string) {
	admin := api.Group("/admin", BearerAuth(token))
	admin.POST("/events/:id/result", h.PublishResult)
	admin.POST("/events/:id/rescore", h.Rescore)
	admin.POST("/events/:id/bonus/score", h.ScoreBonusEvent)
	admin.PUT("/events/:id/status", h.SetEventStatus)
	admin.PUT("/bonus/questions/:id/answer", h.SetCorrectOptions)
	admin.POST("/users/:id/bonus-points", h.AdjustBonusPoints)
	admin.POST("/standings/recompute", h.RecomputeStandings)
}

// BearerAuth rejects requests without the configured bearer token.
func BearerAuth(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			respond.Error(c, http.StatusUnauthorized, "invalid or missing admin token")
			return
		}
		c.Next()
	}
}

// PublishResult stores a race result and scores the event.
// POST /api/v1/admin/events/:id/result.
func (h *Handler) PublishResult(c *gin.Context) {
	eventID, err := respond.ParseID(c, "id", "event")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload orchestrator.ResultPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	summary, err := h.scoring.PublishResult(c.Request.Context(), eventID, &payload)
	if err != nil {
		h.log.Error().Err(err).Uint("event_id", eventID).Msg("Failed to publish result")
		respond.FromError(c, err, "Failed to publish result")
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Rescore re-runs race scoring against the stored result.
// POST /api/v1/admin/events/:id/rescore.
func (h *Handler) Rescore(c *gin.Context) {
	eventID, err := respond.ParseID(c, "id", "event")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.scoring.Rescore(c.Request.Context(), eventID)
	if err != nil {
		h.log.Error().Err(err).Uint("event_id", eventID).Msg("Failed to rescore event")
		respond.FromError(c, err, "Failed to rescore event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// ScoreBonusEvent scores every response of a bonus event.
// POST /api/v1/admin/events/:id/bonus/score.
func (h *Handler) ScoreBonusEvent(c *gin.Context) {
	eventID, err := respond.ParseID(c, "id", "event")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.scoring.ScoreBonusEvent(c.Request.Context(), eventID)
	if err != nil {
		h.log.Error().Err(err).Uint("event_id", eventID).Msg("Failed to score bonus event")
		respond.FromError(c, err, "Failed to score bonus event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// StatusRequest is the body of an event status override.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=upcoming open locked scored archived"`
}

// SetEventStatus overrides the status of an event.
// PUT /api/v1/admin/events/:id/status.
func (h *Handler) SetEventStatus(c *gin.Context) {
	eventID, err := respond.ParseID(c, "id", "event")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.events.SetStatus(c.Request.Context(), eventID, req.Status); err != nil {
		h.log.Error().Err(err).Uint("event_id", eventID).Msg("Failed to set event status")
		respond.FromError(c, err, "Failed to set event status")
		return
	}

	h.log.Info().Uint("event_id", eventID).Str("status", req.Status).Msg("Event status overridden")
	c.JSON(http.StatusOK, gin.H{"event_id": eventID, "status": req.Status})
}

// AnswerRequest configures the correct options of a bonus question.
type AnswerRequest struct {
	CorrectOptionIDs []uint `json:"correct_option_ids" binding:"required,min=1"`
}

// SetCorrectOptions configures the answer of a bonus question.
// PUT /api/v1/admin/bonus/questions/:id/answer.
func (h *Handler) SetCorrectOptions(c *gin.Context) {
	questionID, err := respond.ParseID(c, "id", "question")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	q, err := h.bonus.GetQuestion(ctx, questionID)
	if err != nil {
		respond.FromError(c, err, "Failed to load question")
		return
	}
	if err := checkAnswer(q, req.CorrectOptionIDs); err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bonus.SetCorrectOptions(ctx, questionID, req.CorrectOptionIDs); err != nil {
		h.log.Error().Err(err).Uint("question_id", questionID).Msg("Failed to set correct options")
		respond.FromError(c, err, "Failed to set correct options")
		return
	}

	h.log.Info().Uint("question_id", questionID).Int("options", len(req.CorrectOptionIDs)).Msg("Bonus answer configured")
	c.JSON(http.StatusOK, gin.H{"question_id": questionID, "correct_option_ids": req.CorrectOptionIDs})
}

func checkAnswer(q *models.BonusQuestion, correct []uint) error {
	known := make(map[uint]struct{}, len(q.Options))
	for _, o := range q.Options {
		known[o.ID] = struct{}{}
	}
	seen := make(map[uint]struct{}, len(correct))
	for _, id := range correct {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("option %d does not belong to question %d", id, q.ID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("option %d listed twice", id)
		}
		seen[id] = struct{}{}
	}
	if len(correct) > scoring.SelectionLimit(q) {
		return fmt.Errorf("question %d accepts at most %d options", q.ID, scoring.SelectionLimit(q))
	}
	return nil
}

// BonusPointsRequest adjusts a user's bonus ledger.
type BonusPointsRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdjustBonusPoints changes a user's bonus ledger and recomputes their total.
// POST /api/v1/admin/users/:id/bonus-points.
func (h *Handler) AdjustBonusPoints(c *gin.Context) {
	userID, err := respond.ParseID(c, "id", "user")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var req BonusPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outcome, err := h.standings.AdjustBonusPoints(c.Request.Context(), userID, req.Delta)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to adjust bonus points")
		respond.FromError(c, err, "Failed to adjust bonus points")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "delta": req.Delta, "recompute": outcome})
}

// RecomputeStandings reconciles every user's total.
// POST /api/v1/admin/standings/recompute.
func (h *Handler) RecomputeStandings(c *gin.Context) {
	outcomes, err := h.standings.RecomputeAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to recompute standings")
		respond.Error(c, http.StatusInternalServerError, "Failed to recompute standings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      len(outcomes),
		"recomputed": outcomes.Count(scoring.StatusOK),
		"failed":     outcomes.Count(scoring.StatusFailed),
		"errors":     outcomes.Errors(),
	})
}
