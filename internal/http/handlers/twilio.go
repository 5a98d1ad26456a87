package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nightdesk/backend/internal/metrics"
	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/service"
	"github.com/nightdesk/backend/internal/telephony"
	"github.com/nightdesk/backend/internal/utils"
)

const (
	repromptMessage  = "I'm sorry, I didn't catch that. Could you please say that again?"
	smsClosedMessage = "Thank you. The on-call doctor has been notified and will call you shortly. If this is life threatening, call 911."
)

// @Summary Inbound call
// @Description Answers a new call with the after-hours greeting
// @Tags twilio
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param CallSid formData string true "Call SID"
// @Param From formData string false "Caller number"
// @Success 200 {string} string "TwiML"
// @Router /webhooks/twilio/voice [post]
func (h *Handler) TwilioVoice(c *gin.Context) {
	callID := c.PostForm("CallSid")
	if callID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "CallSid required", nil)
		return
	}
	h.Logger.Info().
		Str("call_id", callID).
		Str("caller", utils.MaskPhone(c.PostForm("From"))).
		Msg("inbound call")
	h.twiml(c, h.TwiML.Ask(h.Calls.Greeting(), ""))
}

// @Summary Speech result
// @Description Handles one recognised caller utterance and returns the next TwiML step
// @Tags twilio
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param CallSid formData string true "Call SID"
// @Param From formData string false "Caller number"
// @Param SpeechResult formData string false "Recognised speech"
// @Param state query string false "Opaque conversation state token"
// @Success 200 {string} string "TwiML"
// @Router /webhooks/twilio/gather [post]
func (h *Handler) TwilioGather(c *gin.Context) {
	callID := c.PostForm("CallSid")
	if callID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "CallSid required", nil)
		return
	}
	token := c.Query("state")
	speech := strings.TrimSpace(c.PostForm("SpeechResult"))
	if speech == "" {
		h.twiml(c, h.TwiML.Ask(repromptMessage, token))
		return
	}

	ctx, cancel := h.turnContext(c)
	defer cancel()
	out, err := h.Calls.HandleTurn(ctx, service.Turn{
		CallID:      callID,
		CallerPhone: c.PostForm("From"),
		Utterance:   speech,
		Channel:     models.ChannelVoice,
		StateToken:  token,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("call_id", callID).Msg("turn failed, transferring to staff")
	}

	switch {
	case out.TransferTo != "":
		h.twiml(c, h.TwiML.Connect(out.Plan.Message, out.TransferTo, callID))
	case out.Fallback:
		metrics.WebhookFallbacks.WithLabelValues("no_transfer_target").Inc()
		h.twiml(c, h.TwiML.Goodbye(out.Plan.Message))
	case out.Plan.Action == models.ActionScheduleAppointment:
		h.twiml(c, h.TwiML.Goodbye(out.Plan.Message+" Goodbye."))
	default:
		h.twiml(c, h.TwiML.Ask(out.Plan.Message, out.StateToken))
	}
}

// @Summary Call status callback
// @Tags twilio
// @Accept x-www-form-urlencoded
// @Param CallSid formData string true "Call SID"
// @Param CallStatus formData string true "Call status"
// @Success 204
// @Router /webhooks/twilio/status [post]
func (h *Handler) TwilioStatus(c *gin.Context) {
	callID := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	switch status {
	case "completed", "busy", "failed", "no-answer", "canceled":
		ctx, cancel := h.turnContext(c)
		defer cancel()
		if err := h.Calls.HandleHangup(ctx, callID, status); err != nil {
			h.Logger.Error().Err(err).Str("call_id", callID).Msg("failed to record hangup")
		}
	}
	c.Status(http.StatusNoContent)
}

// @Summary Inbound SMS
// @Description Runs a text message through the same triage as a call
// @Tags twilio
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param From formData string true "Sender number"
// @Param Body formData string true "Message text"
// @Success 200 {string} string "TwiML"
// @Router /webhooks/twilio/sms [post]
func (h *Handler) TwilioSMS(c *gin.Context) {
	from := c.PostForm("From")
	body := strings.TrimSpace(c.PostForm("Body"))
	if from == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "From required", nil)
		return
	}
	if body == "" {
		h.twiml(c, telephony.Reply(h.Calls.Greeting()))
		return
	}

	ctx, cancel := h.turnContext(c)
	defer cancel()
	callID := smsSessionID(from, time.Now(), h.Location)
	out, err := h.Calls.HandleTurn(ctx, service.Turn{
		CallID:      callID,
		CallerPhone: from,
		Utterance:   body,
		Channel:     models.ChannelSMS,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("call_id", callID).Msg("sms turn failed")
	}

	msg := out.Plan.Message
	if out.Completed {
		msg = smsClosedMessage
	} else if out.Fallback && out.TransferTo != "" {
		msg = "We're having trouble right now. Please call " + out.TransferTo + " for urgent help."
	}
	h.twiml(c, telephony.Reply(msg))
}

// smsSessionID groups one sender's texts into a conversation per night.
// The night rolls over at noon local time.
func smsSessionID(from string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	night := now.In(loc).Add(-12 * time.Hour).Format("2006-01-02")
	return "sms:" + utils.E164(from) + ":" + night
}

func (h *Handler) twiml(c *gin.Context, r telephony.Response) {
	body, err := telephony.Render(r)
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to render twiml")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}
