package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paddockpicks/paddock/internal/api/respond"
	"github.com/paddockpicks/paddock/internal/service/predictions"
)

// BonusResponseRequest is the body of a bonus answer submission.
type BonusResponseRequest struct {
	QuestionID        uint   `json:"question_id" binding:"required"`
	SelectedOptionIDs []uint `json:"selected_option_ids" binding:"required,min=1"`
}

// SubmitPrediction stores the caller's picks for a race.
// POST /api/v1/events/:id/predictions.
func (h *Handler) SubmitPrediction(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		respond.Error(c, http.StatusUnauthorized, err.Error())
		return
	}
	eventID, err := respond.ParseID(c, "id", "event")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var picks predictions.RacePicks
	if err := c.ShouldBindJSON(&picks); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	row, err := h.submissionService.SubmitRace(c.Request.Context(), userID, eventID, &picks)
	if err != nil {
		h.log.Warn().Err(err).Uint("user_id", userID).Uint("event_id", eventID).Msg("Prediction rejected")
		respond.FromError(c, err, "Failed to store prediction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediction": row})
}

// SubmitBonusResponse stores the caller's answer to one bonus question.
// POST /api/v1/events/:id/bonus/responses.
func (h *Handler) SubmitBonusResponse(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		respond.Error(c, http.StatusUnauthorized, err.Error())
		return
	}
	eventID, err := respond.ParseID(c, "id", "event")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var req BonusResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.submissionService.SubmitBonus(c.Request.Context(), userID, eventID, req.QuestionID, req.SelectedOptionIDs)
	if err != nil {
		h.log.Warn().Err(err).Uint("user_id", userID).Uint("event_id", eventID).Msg("Bonus response rejected")
		respond.FromError(c, err, "Failed to store bonus response")
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": resp})
}
