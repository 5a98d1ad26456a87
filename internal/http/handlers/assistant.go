package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/service"
)

// AssistantTurnRequest is posted by a hosted voice assistant for each
// caller utterance.
type AssistantTurnRequest struct {
	AssistantID string `json:"assistant_id"`
	CallID      string `json:"call_id" validate:"required,max=128"`
	CallerPhone string `json:"caller_phone" validate:"max=32"`
	Utterance   string `json:"utterance" validate:"required,max=4000"`
	StateToken  string `json:"state_token" validate:"max=8192"`
}

// @Summary Assistant turn
// @Description Classifies or advances intake for one assistant-relayed utterance
// @Tags assistant
// @Accept json
// @Produce json
// @Param body body AssistantTurnRequest true "Turn"
// @Success 200 {object} service.Outcome
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Router /webhooks/assistant/gather [post]
func (h *Handler) AssistantGather(c *gin.Context) {
	var req AssistantTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if h.AssistantID != "" && req.AssistantID != h.AssistantID {
		writeError(c, http.StatusForbidden, "FORBIDDEN", "Unknown assistant", nil)
		return
	}

	ctx, cancel := h.turnContext(c)
	defer cancel()
	out, err := h.Calls.HandleTurn(ctx, service.Turn{
		CallID:      req.CallID,
		CallerPhone: req.CallerPhone,
		Utterance:   req.Utterance,
		Channel:     models.ChannelAssistant,
		StateToken:  req.StateToken,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("call_id", req.CallID).Msg("assistant turn failed")
	}
	c.JSON(http.StatusOK, out)
}
