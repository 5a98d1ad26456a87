package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nightdesk/backend/internal/extract"
	"github.com/nightdesk/backend/internal/store"
)

type ClassifyRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// @Summary Classify text
// @Description Dry-runs the urgency classifier and extractor without touching call state
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Param body body ClassifyRequest true "Text"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/classify [post]
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"classification": h.Calls.Classify(req.Text),
		"extracted":      extract.Extract(req.Text),
		"lexicon":        h.Calls.Classifier.Lexicon().Version,
	})
}

// @Summary Call state
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Param id path string true "Call ID"
// @Success 200 {object} models.CallConversationState
// @Failure 404 {object} map[string]any
// @Router /api/calls/{id}/state [get]
func (h *Handler) CallState(c *gin.Context) {
	st, err := h.Calls.State(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Call not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load call state", err.Error())
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Active lexicon
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Success 200 {object} map[string]any
// @Router /api/lexicon [get]
func (h *Handler) Lexicon(c *gin.Context) {
	c.JSON(http.StatusOK, h.Calls.Classifier.Lexicon())
}

// @Summary Recent cases
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Param limit query int false "Max cases" default(50)
// @Success 200 {array} models.CaseSummary
// @Router /api/cases [get]
func (h *Handler) CasesList(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 500", nil)
			return
		}
		limit = n
	}
	cases, err := h.Cases.ListCases(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to list cases", err.Error())
		return
	}
	c.JSON(http.StatusOK, cases)
}

// @Summary Case details
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Param id path string true "Call ID"
// @Success 200 {object} models.CaseSummary
// @Failure 404 {object} map[string]any
// @Router /api/cases/{id} [get]
func (h *Handler) CaseDetails(c *gin.Context) {
	cs, err := h.Cases.GetCase(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Case not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load case", err.Error())
		return
	}
	c.JSON(http.StatusOK, cs)
}
