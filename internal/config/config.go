package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nightdesk/backend/internal/models"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PublicBaseURL  string        `mapstructure:"PUBLIC_BASE_URL"`

	PracticeName              string `mapstructure:"PRACTICE_NAME"`
	PracticeAdminEmail        string `mapstructure:"PRACTICE_ADMIN_EMAIL"`
	PracticeEmergencyContacts string `mapstructure:"PRACTICE_EMERGENCY_CONTACTS"`
	PracticeTimezone          string `mapstructure:"PRACTICE_TIMEZONE"`
	EmergencyDoctorPhone      string `mapstructure:"EMERGENCY_DOCTOR_PHONE"`
	NightDoctorPhone          string `mapstructure:"NIGHT_DOCTOR_PHONE"`
	UseConference             bool   `mapstructure:"USE_CONFERENCE"`

	StateBackend string        `mapstructure:"STATE_BACKEND"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	RedisURL     string        `mapstructure:"REDIS_URL"`
	StateTTL     time.Duration `mapstructure:"STATE_TTL"`

	TwilioAccountSID        string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken         string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber        string `mapstructure:"TWILIO_FROM_NUMBER"`
	TwilioValidateSignature bool   `mapstructure:"TWILIO_VALIDATE_SIGNATURE"`
	SendGridAPIKey          string `mapstructure:"SENDGRID_API_KEY"`
	EmailFrom               string `mapstructure:"EMAIL_FROM"`
	EmailFromName           string `mapstructure:"EMAIL_FROM_NAME"`
	AssistantID             string `mapstructure:"ASSISTANT_ID"`

	LexiconPath            string        `mapstructure:"LEXICON_PATH"`
	PatientConfirmationSMS bool          `mapstructure:"PATIENT_CONFIRMATION_SMS"`
	EarlyAlert             bool          `mapstructure:"EARLY_ALERT"`
	NotifyTimeout          time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("PRACTICE_NAME", "our dental office")
	v.SetDefault("PRACTICE_TIMEZONE", "America/New_York")
	v.SetDefault("USE_CONFERENCE", false)
	v.SetDefault("STATE_BACKEND", BackendMemory)
	v.SetDefault("STATE_TTL", "24h")
	v.SetDefault("TWILIO_VALIDATE_SIGNATURE", true)
	v.SetDefault("EMAIL_FROM_NAME", "After-hours desk")
	v.SetDefault("PATIENT_CONFIRMATION_SMS", false)
	v.SetDefault("EARLY_ALERT", true)
	v.SetDefault("NOTIFY_TIMEOUT", "30s")

	// Unmarshal only sees env vars viper already knows about.
	for _, key := range []string{
		"ADMIN_KEY", "PUBLIC_BASE_URL", "PRACTICE_ADMIN_EMAIL", "PRACTICE_EMERGENCY_CONTACTS",
		"EMERGENCY_DOCTOR_PHONE", "NIGHT_DOCTOR_PHONE", "DATABASE_URL", "REDIS_URL",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER", "SENDGRID_API_KEY",
		"EMAIL_FROM", "ASSISTANT_ID", "LEXICON_PATH",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))
	return cfg, nil
}

func (c Config) Practice() models.Practice {
	var contacts []string
	for _, p := range strings.Split(c.PracticeEmergencyContacts, ",") {
		if p = strings.TrimSpace(p); p != "" {
			contacts = append(contacts, p)
		}
	}
	return models.Practice{
		Name:                 c.PracticeName,
		AdminEmail:           c.PracticeAdminEmail,
		EmergencyContacts:    contacts,
		EmergencyDoctorPhone: c.EmergencyDoctorPhone,
		NightDoctorPhone:     c.NightDoctorPhone,
	}
}

// Location falls back to UTC when the timezone is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.PracticeTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func (c Config) SendGridConfigured() bool {
	return c.SendGridAPIKey != "" && c.EmailFrom != ""
}

func (c Config) Validate() error {
	var errs []error
	switch c.StateBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres state backend"))
		}
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis state backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend))
	}
	if c.EmergencyDoctorPhone == "" && c.NightDoctorPhone == "" {
		errs = append(errs, errors.New("EMERGENCY_DOCTOR_PHONE or NIGHT_DOCTOR_PHONE must be set"))
	}
	if c.TwilioValidateSignature && c.TwilioAuthToken == "" && c.Env != "dev" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required when signature validation is on"))
	}
	if c.StateTTL <= 0 {
		errs = append(errs, errors.New("STATE_TTL must be positive"))
	}
	return errors.Join(errs...)
}
