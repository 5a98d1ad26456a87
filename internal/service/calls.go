package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nightdesk/backend/internal/extract"
	"github.com/nightdesk/backend/internal/intake"
	"github.com/nightdesk/backend/internal/metrics"
	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/notify"
	"github.com/nightdesk/backend/internal/response"
	"github.com/nightdesk/backend/internal/store"
	"github.com/nightdesk/backend/internal/triage"
	"github.com/nightdesk/backend/internal/utils"
)

const FallbackMessage = "I'm sorry, I'm having trouble on my end. Please hold while I connect you to staff."

type Notifier interface {
	Dispatch(ctx context.Context, batch []notify.Notification)
}

// Turn is one caller utterance as delivered by a webhook.
type Turn struct {
	CallID      string
	CallerPhone string
	Utterance   string
	Channel     string
	StateToken  string
}

type Outcome struct {
	CallID         string                          `json:"call_id"`
	Plan           models.ResponsePlan             `json:"plan"`
	Classification *models.UtteranceClassification `json:"classification,omitempty"`
	State          models.CallConversationState    `json:"state"`
	StateToken     string                          `json:"state_token,omitempty"`
	Completed      bool                            `json:"completed"`
	Fallback       bool                            `json:"fallback"`
	TransferTo     string                          `json:"transfer_to,omitempty"`
}

type CallService struct {
	States     store.StateStore
	Cases      store.CaseLog
	Classifier *triage.Classifier
	Intake     *intake.Machine
	Responses  *response.Generator
	Planner    *notify.Planner
	Notifier   Notifier
	Practice   models.Practice
	EarlyAlert bool
	Logger     zerolog.Logger

	now func() time.Time
}

func NewCallService(states store.StateStore, cases store.CaseLog, classifier *triage.Classifier, responses *response.Generator, planner *notify.Planner, notifier Notifier, practice models.Practice, logger zerolog.Logger) *CallService {
	return &CallService{
		States:     states,
		Cases:      cases,
		Classifier: classifier,
		Intake:     intake.New(classifier),
		Responses:  responses,
		Planner:    planner,
		Notifier:   notifier,
		Practice:   practice,
		EarlyAlert: true,
		Logger:     logger,
		now:        time.Now,
	}
}

// HandleTurn runs one webhook turn through classification or intake. It
// always returns a usable Outcome; when err is non-nil the Outcome is the
// stateless fallback and the caller should log err.
func (s *CallService) HandleTurn(ctx context.Context, turn Turn) (Outcome, error) {
	out, err := s.handleTurn(ctx, turn)
	if errors.Is(err, store.ErrVersionConflict) {
		s.Logger.Warn().Str("call_id", turn.CallID).Msg("concurrent turn for call, replaying current prompt")
		out, err = s.replay(ctx, turn)
	}
	if err != nil {
		metrics.WebhookFallbacks.WithLabelValues("state_store").Inc()
		return s.Fallback(turn.CallID), err
	}
	return out, nil
}

// Fallback is the safe answer when call state cannot be trusted.
func (s *CallService) Fallback(callID string) Outcome {
	target := s.Practice.NightDoctorPhone
	if target == "" {
		target = s.Practice.DoctorPhone()
	}
	return Outcome{
		CallID:   callID,
		Fallback: true,
		Plan: models.ResponsePlan{
			Type:     models.TierUncertain,
			Message:  FallbackMessage,
			Action:   models.ActionTransferToStaff,
			Priority: models.PriorityImmediate,
			TTS:      s.Responses.Voices.For(models.TierUncertain),
		},
		TransferTo: utils.E164(target),
	}
}

// HandleHangup records the end of a call. An intake that never completed is
// abandoned and produces no doctor-facing notification.
func (s *CallService) HandleHangup(ctx context.Context, callID, status string) error {
	st, err := s.States.LoadState(ctx, callID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if st.Mode == models.ModeEmergencyIntake {
		metrics.IntakeSteps.WithLabelValues("abandoned").Inc()
		s.Logger.Warn().
			Str("call_id", callID).
			Str("status", status).
			Str("step", string(st.Step)).
			Bool("has_name", st.CollectedInfo.Name != "").
			Bool("has_phone", st.CollectedInfo.Phone != "").
			Msg("emergency intake abandoned")
		return nil
	}
	s.Logger.Info().Str("call_id", callID).Str("status", status).Str("mode", string(st.Mode)).Msg("call ended")
	return nil
}

func (s *CallService) Classify(utterance string) models.UtteranceClassification {
	return s.Classifier.Classify(utterance)
}

func (s *CallService) State(ctx context.Context, callID string) (*models.CallConversationState, error) {
	return s.States.LoadState(ctx, callID)
}

// Greeting is the first thing a caller hears.
func (s *CallService) Greeting() string {
	name := s.Practice.Name
	if name == "" {
		name = "our office"
	}
	return "Thank you for calling " + name + ". Our office is currently closed. Please tell me briefly how I can help you tonight."
}

func (s *CallService) handleTurn(ctx context.Context, turn Turn) (Outcome, error) {
	state, err := s.loadState(ctx, turn)
	if err != nil {
		return Outcome{}, err
	}
	switch state.Mode {
	case models.ModeEmergencyIntake:
		return s.advanceIntake(ctx, turn, state)
	case models.ModeCompleted:
		return s.completedOutcome(state), nil
	}
	return s.classifyTurn(ctx, turn, state)
}

func (s *CallService) loadState(ctx context.Context, turn Turn) (models.CallConversationState, error) {
	st, err := s.States.LoadState(ctx, turn.CallID)
	if err == nil {
		return *st, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.CallConversationState{}, err
	}
	if turn.StateToken != "" {
		tok, err := intake.DecodeToken(turn.StateToken)
		if err == nil && tok.CallID == turn.CallID {
			// Not in the store yet, so it is saved as a new entry.
			tok.Version = 0
			return tok, nil
		}
		s.Logger.Warn().Err(err).Str("call_id", turn.CallID).Msg("ignoring state token")
	}
	return models.NewCallState(turn.CallID), nil
}

func (s *CallService) classifyTurn(ctx context.Context, turn Turn, state models.CallConversationState) (Outcome, error) {
	cls := s.Classifier.Classify(turn.Utterance)
	metrics.Classifications.WithLabelValues(string(cls.Type)).Inc()
	info := extract.Extract(turn.Utterance)
	next := mergeExtracted(state, info)
	if info.Name == nil && next.CollectedInfo.Name != "" {
		name := next.CollectedInfo.Name
		info.Name = &name
	}
	plan := s.Responses.Build(cls, info, s.Practice.Name)

	if cls.Type == models.TierEmergency {
		next = intake.Start(next)
		next.Confidence = cls.Confidence
	}
	if err := s.States.SaveState(ctx, &next); err != nil {
		return Outcome{}, err
	}

	s.Logger.Info().
		Str("call_id", turn.CallID).
		Str("channel", turn.Channel).
		Str("tier", string(cls.Type)).
		Int("confidence", cls.Confidence).
		Strs("reasons", cls.Reasons).
		Str("tone", cls.EmotionalTone).
		Str("lexicon", s.Classifier.Lexicon().Version).
		Msg("utterance classified")

	out := Outcome{CallID: turn.CallID, Plan: plan, Classification: &cls, State: next}
	switch cls.Type {
	case models.TierEmergency:
		metrics.IntakeSteps.WithLabelValues(string(models.StepName)).Inc()
		if s.EarlyAlert {
			s.Notifier.Dispatch(ctx, s.Planner.PlanEmergencyDetected(models.EmergencyAlert{
				CallID:      turn.CallID,
				CallerPhone: turn.CallerPhone,
				PatientName: next.CollectedInfo.Name,
				Utterance:   turn.Utterance,
				Confidence:  cls.Confidence,
				Reasons:     cls.Reasons,
				DetectedAt:  s.now().UTC(),
			}))
		}
	case models.TierNonEmergency:
		s.finalize(ctx, models.CaseSummary{
			CaseID:         uuid.NewString(),
			CallID:         turn.CallID,
			Timestamp:      s.now().UTC(),
			CallerPhone:    firstNonEmpty(next.CollectedInfo.Phone, utils.NormalizeUSPhone(turn.CallerPhone), turn.CallerPhone),
			PatientName:    next.CollectedInfo.Name,
			Description:    turn.Utterance,
			Classification: cls.Type,
			Confidence:     cls.Confidence,
			EmotionalTone:  cls.EmotionalTone,
			ActionTaken:    string(plan.Action),
			Channel:        turn.Channel,
		})
	}
	out.StateToken = s.token(next)
	return out, nil
}

func (s *CallService) advanceIntake(ctx context.Context, turn Turn, state models.CallConversationState) (Outcome, error) {
	res, err := s.Intake.Advance(state, turn.Utterance, turn.CallerPhone)
	if err != nil {
		return Outcome{}, err
	}
	next := res.Next
	if err := s.States.SaveState(ctx, &next); err != nil {
		return Outcome{}, err
	}
	metrics.IntakeSteps.WithLabelValues(string(next.Step)).Inc()

	out := Outcome{
		CallID:    turn.CallID,
		State:     next,
		Completed: res.Completed,
		Plan: models.ResponsePlan{
			Type:     models.TierEmergency,
			Message:  res.Message,
			Action:   res.Action,
			Priority: models.PriorityImmediate,
			TTS:      s.Responses.Voices.For(models.TierEmergency),
		},
	}
	if res.Completed {
		info := next.CollectedInfo
		s.finalize(ctx, models.CaseSummary{
			CaseID:         uuid.NewString(),
			CallID:         turn.CallID,
			Timestamp:      s.now().UTC(),
			CallerPhone:    firstNonEmpty(info.Phone, utils.NormalizeUSPhone(turn.CallerPhone), turn.CallerPhone),
			PatientName:    info.Name,
			Description:    info.Description,
			Classification: models.TierEmergency,
			Confidence:     next.Confidence,
			EmotionalTone:  info.EmotionalTone,
			ActionTaken:    string(models.ActionConnectEmergencyDoctor),
			Channel:        turn.Channel,
		})
		out.TransferTo = utils.E164(s.Practice.DoctorPhone())
	}
	out.StateToken = s.token(next)
	return out, nil
}

// completedOutcome repeats the hand-off for turns that arrive after intake
// finished, such as a provider redelivering the last webhook.
func (s *CallService) completedOutcome(state models.CallConversationState) Outcome {
	return Outcome{
		CallID:    state.CallID,
		State:     state,
		Completed: true,
		Plan: models.ResponsePlan{
			Type:     models.TierEmergency,
			Message:  intake.ClosingMessage,
			Action:   models.ActionConnectEmergencyDoctor,
			Priority: models.PriorityImmediate,
			TTS:      s.Responses.Voices.For(models.TierEmergency),
		},
		TransferTo: utils.E164(s.Practice.DoctorPhone()),
		StateToken: s.token(state),
	}
}

func (s *CallService) replay(ctx context.Context, turn Turn) (Outcome, error) {
	st, err := s.States.LoadState(ctx, turn.CallID)
	if err != nil {
		return Outcome{}, err
	}
	switch st.Mode {
	case models.ModeCompleted:
		return s.completedOutcome(*st), nil
	case models.ModeEmergencyIntake:
		return Outcome{
			CallID: turn.CallID,
			State:  *st,
			Plan: models.ResponsePlan{
				Type:     models.TierEmergency,
				Message:  intake.Prompt(*st),
				Action:   models.ActionContinueIntake,
				Priority: models.PriorityImmediate,
				TTS:      s.Responses.Voices.For(models.TierEmergency),
			},
			StateToken: s.token(*st),
		}, nil
	}
	plan := s.Responses.Build(models.UtteranceClassification{Type: models.TierUncertain}, models.ExtractedInfo{}, s.Practice.Name)
	return Outcome{CallID: turn.CallID, State: *st, Plan: plan, StateToken: s.token(*st)}, nil
}

// finalize writes the case once and hands its notifications to the
// dispatcher. A redelivered turn finds the case already recorded and sends
// nothing.
func (s *CallService) finalize(ctx context.Context, c models.CaseSummary) {
	created, err := s.Cases.RecordCase(ctx, c)
	if err != nil {
		s.Logger.Error().Err(err).Str("call_id", c.CallID).Msg("failed to record case")
	} else if !created {
		s.Logger.Info().Str("call_id", c.CallID).Msg("case already recorded")
		return
	}

	s.Logger.Info().
		Str("case_id", c.CaseID).
		Str("call_id", c.CallID).
		Str("classification", string(c.Classification)).
		Int("confidence", c.Confidence).
		Str("tone", c.EmotionalTone).
		Str("action", c.ActionTaken).
		Str("caller", utils.MaskPhone(c.CallerPhone)).
		Msg("case finalized")

	s.Notifier.Dispatch(ctx, s.Planner.PlanCaseFinalized(c))
}

func (s *CallService) token(state models.CallConversationState) string {
	t, err := intake.EncodeToken(state)
	if err != nil {
		s.Logger.Warn().Err(err).Str("call_id", state.CallID).Msg("failed to encode state token")
		return ""
	}
	return t
}

// mergeExtracted adds newly revealed caller details without clearing any.
func mergeExtracted(state models.CallConversationState, info models.ExtractedInfo) models.CallConversationState {
	if info.Name != nil && state.CollectedInfo.Name == "" {
		state.CollectedInfo.Name = *info.Name
	}
	if info.Phone != nil && state.CollectedInfo.Phone == "" {
		state.CollectedInfo.Phone = *info.Phone
	}
	if info.PreferredCallbackTime != nil && state.CollectedInfo.PreferredCallbackTime == "" {
		state.CollectedInfo.PreferredCallbackTime = *info.PreferredCallbackTime
	}
	return state
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
