package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nightdesk/backend/internal/utils"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSMS sends text messages through the Twilio Messages REST API.
type TwilioSMS struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
	MaxElapsed time.Duration
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (t TwilioSMS) SendSMS(ctx context.Context, to, body string) (string, error) {
	if t.Client == nil {
		t.Client = &http.Client{Timeout: 10 * time.Second}
	}
	base := t.BaseURL
	if base == "" {
		base = defaultTwilioBaseURL
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(base, "/"), url.PathEscape(t.AccountSID))
	form := url.Values{}
	form.Set("To", utils.E164(to))
	form.Set("From", t.From)
	form.Set("Body", body)

	var sid string
	err := withRetry(ctx, "twilio", t.MaxElapsed, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.SetBasicAuth(t.AccountSID, t.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := t.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &statusError{Provider: "twilio", Status: resp.StatusCode, Body: string(raw)}
		}
		var m twilioMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode twilio response: %w", err)
		}
		sid = m.SID
		return nil
	})
	if err != nil {
		return "", err
	}
	return sid, nil
}
