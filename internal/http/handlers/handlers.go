package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nightdesk/backend/internal/service"
	"github.com/nightdesk/backend/internal/store"
	"github.com/nightdesk/backend/internal/telephony"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Calls          *service.CallService
	Cases          store.CaseLog
	Health         Pinger
	TwiML          *telephony.Builder
	Validator      *validator.Validate
	Logger         zerolog.Logger
	AssistantID    string
	RequestTimeout time.Duration
	// Location decides which night an SMS conversation belongs to.
	Location *time.Location
}

// @Summary Health check
// @Description Reports whether the state backend is reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if h.Health != nil {
		if err := h.Health.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "State backend unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) turnContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
