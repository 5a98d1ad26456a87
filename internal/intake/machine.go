package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nightdesk/backend/internal/extract"
	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/utils"
)

var (
	ErrNotInIntake    = errors.New("call is not in emergency intake")
	ErrIntakeComplete = errors.New("intake already complete")
)

const (
	PromptName        = "I understand this is an emergency. I'm going to help you right away. Can you please tell me your name?"
	PromptConfirmName = "I understand this is an emergency. I'm going to help you right away. I have your name as %s. If that's right, just say yes. Otherwise, please tell me your name."
	PromptPhone       = "Thank you, %s. What is the best phone number to reach you at?"
	PromptDescription = "Got it. Please briefly describe what is happening so I can let the doctor know."
	ClosingMessage    = "Thank you. I'll get the on-call doctor on the line now. Please stay on the line."
)

// ToneDetector labels the emotional tone of an utterance.
type ToneDetector interface {
	Tone(utterance string) string
}

type Result struct {
	Next      models.CallConversationState
	Message   string
	Completed bool
	Action    models.Action
}

type Machine struct {
	Tone ToneDetector
}

func New(tone ToneDetector) *Machine {
	return &Machine{Tone: tone}
}

// Start enters intake at the name step. A state already in intake or
// completed is returned unchanged.
func Start(state models.CallConversationState) models.CallConversationState {
	if state.Mode != models.ModeNone && state.Mode != "" {
		return state
	}
	state.Mode = models.ModeEmergencyIntake
	state.Step = models.StepName
	return state
}

// Advance consumes one caller utterance and moves the state exactly one step.
// The input state is not modified.
func (m *Machine) Advance(state models.CallConversationState, utterance, callerPhone string) (Result, error) {
	if state.Mode == models.ModeCompleted || state.Step == models.StepComplete {
		return Result{Next: state}, ErrIntakeComplete
	}
	if state.Mode != models.ModeEmergencyIntake {
		return Result{Next: state}, ErrNotInIntake
	}

	next := state
	trimmed := strings.TrimSpace(utterance)

	switch state.Step {
	case models.StepName, "":
		name := trimmed
		if n := extract.Name(utterance); n != nil {
			name = *n
		} else if state.CollectedInfo.Name != "" && affirmative(trimmed) {
			name = state.CollectedInfo.Name
		}
		if name != "" {
			next.CollectedInfo.Name = name
		}
		next.Step = models.StepPhone
		return Result{Next: next, Message: phonePrompt(next.CollectedInfo.Name), Action: models.ActionContinueIntake}, nil

	case models.StepPhone:
		phone := utils.NormalizeUSPhone(callerPhone)
		if p := extract.Phone(utterance); p != nil {
			phone = *p
		}
		if phone == "" {
			phone = strings.TrimSpace(callerPhone)
		}
		if phone != "" {
			next.CollectedInfo.Phone = phone
		}
		if cb := extract.CallbackTime(utterance); cb != nil {
			next.CollectedInfo.PreferredCallbackTime = *cb
		}
		next.Step = models.StepDescription
		return Result{Next: next, Message: PromptDescription, Action: models.ActionContinueIntake}, nil

	case models.StepDescription:
		next.CollectedInfo.Description = utterance
		next.CollectedInfo.EmotionalTone = m.tone(utterance)
		next.Step = models.StepComplete
		next.Mode = models.ModeCompleted
		return Result{Next: next, Message: ClosingMessage, Completed: true, Action: models.ActionConnectEmergencyDoctor}, nil
	}
	return Result{Next: state}, ErrNotInIntake
}

// Prompt is the question the caller should hear for the current step.
func Prompt(state models.CallConversationState) string {
	switch state.Step {
	case models.StepPhone:
		return phonePrompt(state.CollectedInfo.Name)
	case models.StepDescription:
		return PromptDescription
	case models.StepComplete:
		return ClosingMessage
	}
	return NamePrompt(state.CollectedInfo.Name)
}

// NamePrompt asks for the caller's name, or asks them to confirm one they
// already gave.
func NamePrompt(known string) string {
	if known = strings.TrimSpace(known); known != "" {
		return fmt.Sprintf(PromptConfirmName, known)
	}
	return PromptName
}

var affirmations = []string{"yes", "yeah", "yep", "yup", "correct", "that's right", "that is right", "right"}

func affirmative(s string) bool {
	s = strings.ToLower(strings.Trim(s, " .,!"))
	s = strings.ReplaceAll(s, "’", "'")
	for _, a := range affirmations {
		if s == a || strings.HasPrefix(s, a+" ") || strings.HasPrefix(s, a+",") {
			return true
		}
	}
	return false
}

func (m *Machine) tone(utterance string) string {
	if m == nil || m.Tone == nil {
		return "calm and composed"
	}
	return m.Tone.Tone(utterance)
}

func phonePrompt(name string) string {
	if name == "" {
		return strings.Replace(PromptPhone, ", %s", "", 1)
	}
	return strings.Replace(PromptPhone, "%s", name, 1)
}
