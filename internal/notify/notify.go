package notify

import (
	"context"
	"fmt"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type EmailSender interface {
	SendEmail(ctx context.Context, e Email) (string, error)
}

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

type Audience string

const (
	AudienceDoctor  Audience = "doctor"
	AudienceStaff   Audience = "staff"
	AudiencePatient Audience = "patient"
)

const (
	StageDetected = "detected"
	StageFinal    = "final"
)

type Notification struct {
	Key      string   `json:"key"`
	CallID   string   `json:"call_id"`
	Stage    string   `json:"stage"`
	Channel  Channel  `json:"channel"`
	Audience Audience `json:"audience"`
	To       string   `json:"to"`
	Subject  string   `json:"subject,omitempty"`
	Body     string   `json:"body"`
	HTML     string   `json:"-"`
}

// DoctorFacing reports whether the notification goes to practice staff
// rather than the caller.
func (n Notification) DoctorFacing() bool {
	return n.Audience != AudiencePatient
}

type DeliveryResult struct {
	Key       string  `json:"key"`
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Success   bool    `json:"success"`
	Duplicate bool    `json:"duplicate,omitempty"`
	ID        string  `json:"id,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func notificationKey(callID, stage string, ch Channel, to string) string {
	return fmt.Sprintf("%s:%s:%s:%s", callID, stage, ch, to)
}

type statusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}
