package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/utils"
)

const maxQuoteLen = 160

type PlanOptions struct {
	PatientConfirmationSMS bool
	Location               *time.Location
}

// Planner decides who hears about a call. It performs no IO.
type Planner struct {
	Practice models.Practice
	Options  PlanOptions
	Logger   zerolog.Logger
}

func NewPlanner(p models.Practice, opts PlanOptions) *Planner {
	return &Planner{Practice: p, Options: opts, Logger: zerolog.Nop()}
}

// PlanEmergencyDetected is the low-latency alert sent the moment a call is
// first classified as an emergency, before intake has collected anything.
func (p *Planner) PlanEmergencyDetected(a models.EmergencyAlert) []Notification {
	who := a.PatientName
	if who == "" {
		who = "A caller"
	}
	body := fmt.Sprintf("URGENT %s: %s (%s) reports an emergency: %q. Intake in progress, confidence %d%%.",
		p.practiceName(), who, displayPhone(a.CallerPhone), quote(a.Utterance), a.Confidence)

	var out []Notification
	for _, to := range p.alertRecipients() {
		out = append(out, Notification{
			Key:      notificationKey(a.CallID, StageDetected, ChannelSMS, to),
			CallID:   a.CallID,
			Stage:    StageDetected,
			Channel:  ChannelSMS,
			Audience: AudienceDoctor,
			To:       to,
			Body:     body,
		})
	}
	return out
}

// PlanCaseFinalized returns the notifications for a finished case, in send
// order. Uncertain cases produce nothing.
func (p *Planner) PlanCaseFinalized(c models.CaseSummary) []Notification {
	switch c.Classification {
	case models.TierEmergency:
		return p.planEmergencyCase(c)
	case models.TierNonEmergency:
		return p.planRoutineCase(c)
	}
	return nil
}

func (p *Planner) planEmergencyCase(c models.CaseSummary) []Notification {
	name := c.PatientName
	if name == "" {
		name = "Unknown caller"
	}
	body := fmt.Sprintf("EMERGENCY %s: %s, callback %s. %q Tone: %s. Connecting to on-call doctor.",
		p.practiceName(), name, displayPhone(c.CallerPhone), quote(c.Description), c.EmotionalTone)

	var out []Notification
	seen := map[string]bool{}
	addSMS := func(to string) {
		to = utils.E164(to)
		if to == "" || seen[to] {
			return
		}
		seen[to] = true
		out = append(out, Notification{
			Key:      finalKey(c, ChannelSMS, to),
			CallID:   c.CallID,
			Stage:    StageFinal,
			Channel:  ChannelSMS,
			Audience: AudienceDoctor,
			To:       to,
			Body:     body,
		})
	}
	addSMS(p.Practice.DoctorPhone())
	for _, to := range p.Practice.EmergencyContacts {
		addSMS(to)
	}
	if n, ok := p.staffEmail(c, fmt.Sprintf("[EMERGENCY] After-hours call from %s", name)); ok {
		out = append(out, n)
	}
	return out
}

func (p *Planner) planRoutineCase(c models.CaseSummary) []Notification {
	name := c.PatientName
	if name == "" {
		name = "a caller"
	}
	var out []Notification
	if n, ok := p.staffEmail(c, fmt.Sprintf("After-hours message from %s", name)); ok {
		out = append(out, n)
	}
	if p.Options.PatientConfirmationSMS && c.CallerPhone != "" {
		to := utils.E164(c.CallerPhone)
		out = append(out, Notification{
			Key:      finalKey(c, ChannelSMS, to),
			CallID:   c.CallID,
			Stage:    StageFinal,
			Channel:  ChannelSMS,
			Audience: AudiencePatient,
			To:       to,
			Body:     fmt.Sprintf("Thanks for calling %s. We received your message and will contact you during business hours.", p.practiceName()),
		})
	}
	return out
}

func (p *Planner) staffEmail(c models.CaseSummary, subject string) (Notification, bool) {
	to := strings.TrimSpace(p.Practice.AdminEmail)
	if to == "" {
		return Notification{}, false
	}
	html, err := renderCaseEmail(p.practiceName(), c, p.Options.Location)
	if err != nil {
		// The plain text body still goes out.
		p.Logger.Error().Err(err).Str("call_id", c.CallID).Msg("failed to render case email")
		html = ""
	}
	return Notification{
		Key:      finalKey(c, ChannelEmail, to),
		CallID:   c.CallID,
		Stage:    StageFinal,
		Channel:  ChannelEmail,
		Audience: AudienceStaff,
		To:       to,
		Subject:  subject,
		Body:     caseText(p.practiceName(), c),
		HTML:     html,
	}, true
}

// finalKey includes the tier so that a call escalating from a routine case
// to an emergency is not mistaken for a repeat of the routine notifications.
func finalKey(c models.CaseSummary, ch Channel, to string) string {
	return notificationKey(c.CallID, StageFinal+":"+string(c.Classification), ch, to)
}

func (p *Planner) alertRecipients() []string {
	var out []string
	seen := map[string]bool{}
	for _, to := range p.Practice.EmergencyContacts {
		to = utils.E164(to)
		if to != "" && !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	if len(out) == 0 {
		if to := utils.E164(p.Practice.DoctorPhone()); to != "" {
			out = append(out, to)
		}
	}
	return out
}

func (p *Planner) practiceName() string {
	if p.Practice.Name == "" {
		return "the practice"
	}
	return p.Practice.Name
}

func caseText(practice string, c models.CaseSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s after-hours call\n\n", practice)
	fmt.Fprintf(&b, "Patient: %s\n", c.PatientName)
	fmt.Fprintf(&b, "Callback number: %s\n", c.CallerPhone)
	fmt.Fprintf(&b, "Classification: %s (%d%% confidence)\n", c.Classification, c.Confidence)
	fmt.Fprintf(&b, "Caller tone: %s\n", c.EmotionalTone)
	fmt.Fprintf(&b, "Action taken: %s\n", c.ActionTaken)
	fmt.Fprintf(&b, "Call ID: %s\n", c.CallID)
	fmt.Fprintf(&b, "Time: %s\n\n", c.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "What the caller said:\n%s\n", c.Description)
	return b.String()
}

func quote(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxQuoteLen {
		return s
	}
	return strings.TrimSpace(string(r[:maxQuoteLen])) + "..."
}

func displayPhone(s string) string {
	if d := utils.NormalizeUSPhone(s); d != "" {
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
	}
	if s == "" {
		return "unknown number"
	}
	return s
}
