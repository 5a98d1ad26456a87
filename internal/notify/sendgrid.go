package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGridEmail sends mail through the SendGrid v3 mail/send API.
type SendGridEmail struct {
	APIKey     string
	From       string
	FromName   string
	BaseURL    string
	Client     *http.Client
	MaxElapsed time.Duration
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s SendGridEmail) SendEmail(ctx context.Context, e Email) (string, error) {
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 15 * time.Second}
	}
	base := s.BaseURL
	if base == "" {
		base = defaultSendGridBaseURL
	}

	mail := sgMail{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: e.To}}}},
		From:             sgAddress{Email: s.From, Name: s.FromName},
		Subject:          e.Subject,
		Content:          []sgContent{{Type: "text/plain", Value: e.TextBody}},
	}
	if e.HTMLBody != "" {
		mail.Content = append(mail.Content, sgContent{Type: "text/html", Value: e.HTMLBody})
	}
	payload, err := json.Marshal(mail)
	if err != nil {
		return "", err
	}

	var id string
	err = withRetry(ctx, "sendgrid", s.MaxElapsed, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/v3/mail/send", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			return &statusError{Provider: "sendgrid", Status: resp.StatusCode, Body: string(raw)}
		}
		id = resp.Header.Get("X-Message-Id")
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
