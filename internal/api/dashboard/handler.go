// Package dashboard provides the player-facing REST API: leaderboard,
// standings, badges and submission intake.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paddockpicks/paddock/internal/api/respond"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/internal/service/leaderboard"
	"github.com/paddockpicks/paddock/internal/service/predictions"
	"github.com/paddockpicks/paddock/pkg/logger"
)

// UserIDHeader carries the authenticated player, set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// BadgeService interface for badge operations.
type BadgeService interface {
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	GetBadgeCatalog(ctx context.Context) ([]badges.CatalogEntry, error)
}

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]models.StandingEntry, error)
	GetUserStats(ctx context.Context, userID uint) (*leaderboard.UserStats, error)
}

// SubmissionService interface for prediction intake.
type SubmissionService interface {
	SubmitRace(ctx context.Context, userID, eventID uint, picks *predictions.RacePicks) (*models.RacePrediction, error)
	SubmitBonus(ctx context.Context, userID, eventID, questionID uint, selected []uint) (*models.BonusResponse, error)
}

// Handler handles dashboard API requests.
type Handler struct {
	badgeService       BadgeService
	leaderboardService LeaderboardService
	submissionService  SubmissionService
	log                *logger.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(
	badgeService BadgeService,
	leaderboardService LeaderboardService,
	submissionService SubmissionService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		badgeService:       badgeService,
		leaderboardService: leaderboardService,
		submissionService:  submissionService,
		log:                log,
	}
}

// Register mounts the dashboard routes on a router group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/users/:id/standing", h.GetUserStanding)
	api.GET("/users/:id/badges", h.GetUserBadges)
	api.GET("/badges", h.GetBadgeCatalog)
	api.POST("/events/:id/predictions", h.SubmitPrediction)
	api.POST("/events/:id/bonus/responses", h.SubmitBonusResponse)
}

// GetLeaderboard returns the ranked standings.
// GET /api/v1/leaderboard?limit=50.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get leaderboard")
		respond.Error(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	h.log.Debug().
		Int("limit", limit).
		Int("entries", len(entries)).
		Msg("Retrieved leaderboard")

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserStanding returns rank, totals and badges for a user.
// GET /api/v1/users/:id/standing.
func (h *Handler) GetUserStanding(c *gin.Context) {
	userID, err := respond.ParseID(c, "id", "user")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.leaderboardService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user standing")
		respond.FromError(c, err, "Failed to retrieve user standing")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"standing":     stats,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserBadges returns badges earned by a specific user.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := respond.ParseID(c, "id", "user")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	userBadges, err := h.badgeService.GetUserBadges(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
		respond.Error(c, http.StatusInternalServerError, "Failed to retrieve user badges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       userBadges,
		"total_badges": len(userBadges),
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeCatalog returns all available badges with holder counts.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalog, err := h.badgeService.GetBadgeCatalog(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get badge catalog")
		respond.Error(c, http.StatusInternalServerError, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalog,
		"total_badges": len(catalog),
		"generated_at": time.Now().UTC(),
	})
}

// parseLimit extracts and validates the limit query parameter. Zero means
// the service default.
func parseLimit(c *gin.Context) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}
	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}
	if limit > leaderboard.MaxLimit {
		return 0, fmt.Errorf("limit cannot exceed %d", leaderboard.MaxLimit)
	}
	return limit, nil
}

// currentUser reads the player id forwarded by the gateway.
func currentUser(c *gin.Context) (uint, error) {
	raw := c.GetHeader(UserIDHeader)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("missing or invalid %s header", UserIDHeader)
	}
	return uint(id), nil
}
