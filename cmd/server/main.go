package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nightdesk/backend/internal/config"
	"github.com/nightdesk/backend/internal/db"
	httpapi "github.com/nightdesk/backend/internal/http"
	"github.com/nightdesk/backend/internal/notify"
	"github.com/nightdesk/backend/internal/response"
	"github.com/nightdesk/backend/internal/service"
	"github.com/nightdesk/backend/internal/store"
	"github.com/nightdesk/backend/internal/triage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "nightdesk").Logger()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StateBackend).Msg("failed to open state backend")
	}
	defer backend.Close()

	classifier := triage.NewDefaultClassifier()
	if cfg.LexiconPath != "" {
		lex, err := triage.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load lexicon")
		}
		if classifier, err = triage.NewClassifier(lex); err != nil {
			logger.Fatal().Err(err).Msg("invalid lexicon")
		}
	}
	logger.Info().Str("lexicon", classifier.Lexicon().Version).Msg("classifier ready")

	var (
		sms   notify.SMSSender
		email notify.EmailSender
	)
	if cfg.TwilioConfigured() {
		sms = notify.TwilioSMS{AccountSID: cfg.TwilioAccountSID, AuthToken: cfg.TwilioAuthToken, From: cfg.TwilioFromNumber}
	} else {
		sms = notify.NewLogSender(logger)
		logger.Info().Msg("twilio not configured, logging sms instead of sending")
	}
	if cfg.SendGridConfigured() {
		email = notify.SendGridEmail{APIKey: cfg.SendGridAPIKey, From: cfg.EmailFrom, FromName: cfg.EmailFromName}
	} else {
		email = notify.NewLogSender(logger)
		logger.Info().Msg("sendgrid not configured, logging email instead of sending")
	}
	dispatcher := notify.NewDispatcher(sms, email, backend, cfg.NotifyTimeout, logger)

	practice := cfg.Practice()
	planner := notify.NewPlanner(practice, notify.PlanOptions{
		PatientConfirmationSMS: cfg.PatientConfirmationSMS,
		Location:               cfg.Location(),
	})
	planner.Logger = logger
	calls := service.NewCallService(
		backend,
		backend,
		classifier,
		response.NewGenerator(response.DefaultVoiceProfiles()),
		planner,
		dispatcher,
		practice,
		logger,
	)
	calls.EarlyAlert = cfg.EarlyAlert

	router := httpapi.Router(cfg, calls, backend, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("backend", cfg.StateBackend).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	if err := dispatcher.Wait(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("notifications still in flight at shutdown")
	}
	logger.Info().Msg("server stopped")
}

func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (store.Backend, error) {
	switch cfg.StateBackend {
	case config.BackendPostgres:
		s, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		return store.NewRedisStore(ctx, cfg.RedisURL, cfg.StateTTL)
	}
	logger.Warn().Msg("using in-memory state, calls will not survive a restart")
	return store.NewMemoryStore(), nil
}
