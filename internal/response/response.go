package response

import (
	"fmt"
	"strings"

	"github.com/nightdesk/backend/internal/intake"
	"github.com/nightdesk/backend/internal/models"
)

// VoiceProfiles holds TTS tuning per urgency tier. Values are a tone knob,
// not a correctness contract.
type VoiceProfiles struct {
	Version  string                                   `json:"version"`
	ByTier   map[models.UrgencyTier]models.TTSOptions `json:"by_tier"`
	Fallback models.TTSOptions                        `json:"fallback"`
}

func DefaultVoiceProfiles() VoiceProfiles {
	return VoiceProfiles{
		Version: "voices-2024.1",
		ByTier: map[models.UrgencyTier]models.TTSOptions{
			models.TierEmergency:    {Voice: "Polly.Joanna-Neural", Stability: 0.75, SimilarityBoost: 0.8, Style: 0.6, Speed: 1.0},
			models.TierUncertain:    {Voice: "Polly.Joanna-Neural", Stability: 0.6, SimilarityBoost: 0.75, Style: 0.35, Speed: 0.95},
			models.TierNonEmergency: {Voice: "Polly.Joanna-Neural", Stability: 0.5, SimilarityBoost: 0.75, Style: 0.2, Speed: 0.95},
		},
		Fallback: models.TTSOptions{Voice: "Polly.Joanna-Neural", Stability: 0.5, SimilarityBoost: 0.75, Style: 0.2, Speed: 1.0},
	}
}

func (v VoiceProfiles) For(tier models.UrgencyTier) models.TTSOptions {
	if o, ok := v.ByTier[tier]; ok {
		return o
	}
	return v.Fallback
}

type Generator struct {
	Voices VoiceProfiles
}

func NewGenerator(voices VoiceProfiles) *Generator {
	return &Generator{Voices: voices}
}

// Build maps a classification to what the caller hears next.
func (g *Generator) Build(c models.UtteranceClassification, info models.ExtractedInfo, practiceName string) models.ResponsePlan {
	practice := strings.TrimSpace(practiceName)
	if practice == "" {
		practice = "our office"
	}
	name := ""
	if info.Name != nil {
		name = strings.TrimSpace(*info.Name)
	}

	plan := models.ResponsePlan{Type: c.Type, TTS: g.Voices.For(c.Type)}
	switch c.Type {
	case models.TierEmergency:
		plan.Action = models.ActionStartEmergencyIntake
		plan.Priority = models.PriorityImmediate
		if name != "" {
			plan.Message = fmt.Sprintf("%s, thanks for calling %s. %s", name, practice, intake.NamePrompt(name))
		} else {
			plan.Message = fmt.Sprintf("Thanks for calling %s. %s", practice, intake.PromptName)
		}
	case models.TierNonEmergency:
		plan.Action = models.ActionScheduleAppointment
		plan.Priority = models.PriorityNormal
		msg := "Our office is currently closed, but this doesn't sound like an emergency. I've passed your message to our team and someone will call you during business hours to schedule a visit."
		if info.PreferredCallbackTime != nil {
			msg = fmt.Sprintf("Our office is currently closed, but this doesn't sound like an emergency. I've passed your message to our team and noted that %s works best for a call back.", *info.PreferredCallbackTime)
		}
		plan.Message = greet(name, practice) + msg
	default:
		plan.Type = models.TierUncertain
		plan.Action = models.ActionRequestClarification
		plan.Priority = models.PriorityMedium
		plan.Message = greet(name, practice) + "I want to make sure you get the right help. Are you experiencing severe pain, bleeding, swelling, or an injury that needs attention tonight?"
	}
	return plan
}

func greet(name, practice string) string {
	if name != "" {
		return fmt.Sprintf("%s, thanks for calling %s. ", name, practice)
	}
	return fmt.Sprintf("Thanks for calling %s. ", practice)
}
