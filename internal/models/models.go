package models

import "time"

type UrgencyTier string

const (
	TierEmergency    UrgencyTier = "emergency"
	TierUncertain    UrgencyTier = "uncertain"
	TierNonEmergency UrgencyTier = "non_emergency"
)

type UtteranceClassification struct {
	Type          UrgencyTier         `json:"type"`
	Confidence    int                 `json:"confidence"`
	Reasons       []string            `json:"reasons"`
	EmotionalTone string              `json:"emotional_tone"`
	KeywordHits   map[string][]string `json:"keyword_hits"`
}

// ExtractedInfo holds what one utterance revealed. Nil means the field was not found.
type ExtractedInfo struct {
	Name                  *string `json:"name,omitempty"`
	Phone                 *string `json:"phone,omitempty"`
	Description           string  `json:"description"`
	PreferredCallbackTime *string `json:"preferred_callback_time,omitempty"`
}

type CollectedInfo struct {
	Name                  string `json:"name,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Description           string `json:"description,omitempty"`
	EmotionalTone         string `json:"emotional_tone,omitempty"`
	PreferredCallbackTime string `json:"preferred_callback_time,omitempty"`
}

type ConversationMode string

const (
	ModeNone            ConversationMode = "none"
	ModeEmergencyIntake ConversationMode = "emergency_intake"
	ModeCompleted       ConversationMode = "completed"
)

type IntakeStep string

const (
	StepName        IntakeStep = "name"
	StepPhone       IntakeStep = "phone"
	StepDescription IntakeStep = "description"
	StepComplete    IntakeStep = "complete"
)

type CallConversationState struct {
	CallID        string           `json:"call_id"`
	Mode          ConversationMode `json:"mode"`
	Step          IntakeStep       `json:"step,omitempty"`
	CollectedInfo CollectedInfo    `json:"collected_info"`
	Confidence    int              `json:"confidence,omitempty"`
	Version       int64            `json:"version"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewCallState returns the initial state for a call that has not been classified yet.
func NewCallState(callID string) CallConversationState {
	return CallConversationState{CallID: callID, Mode: ModeNone}
}

const (
	ChannelVoice     = "voice"
	ChannelSMS       = "sms"
	ChannelAssistant = "assistant"
)

type CaseSummary struct {
	CaseID         string      `json:"case_id"`
	CallID         string      `json:"call_id"`
	Timestamp      time.Time   `json:"timestamp"`
	CallerPhone    string      `json:"caller_phone"`
	PatientName    string      `json:"patient_name"`
	Description    string      `json:"description"`
	Classification UrgencyTier `json:"classification"`
	Confidence     int         `json:"confidence"`
	EmotionalTone  string      `json:"emotional_tone"`
	ActionTaken    string      `json:"action_taken"`
	Channel        string      `json:"channel"`
}

// EmergencyAlert is the partial picture available the moment an emergency is first detected.
type EmergencyAlert struct {
	CallID      string    `json:"call_id"`
	CallerPhone string    `json:"caller_phone"`
	PatientName string    `json:"patient_name,omitempty"`
	Utterance   string    `json:"utterance"`
	Confidence  int       `json:"confidence"`
	Reasons     []string  `json:"reasons"`
	DetectedAt  time.Time `json:"detected_at"`
}

type Practice struct {
	Name                 string   `json:"name"`
	AdminEmail           string   `json:"admin_email"`
	EmergencyContacts    []string `json:"emergency_contacts"`
	EmergencyDoctorPhone string   `json:"emergency_doctor_phone"`
	NightDoctorPhone     string   `json:"night_doctor_phone"`
}

// DoctorPhone is the number emergencies are routed to.
func (p Practice) DoctorPhone() string {
	if p.EmergencyDoctorPhone != "" {
		return p.EmergencyDoctorPhone
	}
	return p.NightDoctorPhone
}

type Action string

const (
	ActionStartEmergencyIntake   Action = "start_emergency_intake"
	ActionContinueIntake         Action = "continue_intake"
	ActionConnectEmergencyDoctor Action = "connect_emergency_doctor"
	ActionScheduleAppointment    Action = "schedule_appointment"
	ActionRequestClarification   Action = "request_clarification"
	ActionTransferToStaff        Action = "transfer_to_staff"
)

type Priority string

const (
	PriorityImmediate Priority = "immediate"
	PriorityMedium    Priority = "medium"
	PriorityNormal    Priority = "normal"
)

type TTSOptions struct {
	Voice           string  `json:"voice"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed"`
}

type ResponsePlan struct {
	Type     UrgencyTier `json:"type"`
	Message  string      `json:"message"`
	Action   Action      `json:"action"`
	Priority Priority    `json:"priority"`
	TTS      TTSOptions  `json:"tts"`
}
