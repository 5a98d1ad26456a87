package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NIGHT_DOCTOR_PHONE", "313-555-0101")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StateBackend != BackendMemory {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StateTTL != 24*time.Hour || cfg.NotifyTimeout != 30*time.Second {
		t.Fatalf("unexpected durations ttl=%s notify=%s", cfg.StateTTL, cfg.NotifyTimeout)
	}
	if !cfg.EarlyAlert || !cfg.TwilioValidateSignature || cfg.PatientConfirmationSMS {
		t.Fatalf("unexpected flag defaults %+v", cfg)
	}
	if cfg.NightDoctorPhone != "313-555-0101" {
		t.Fatalf("expected env override, got %q", cfg.NightDoctorPhone)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STATE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STATE_TTL", "2h")
	t.Setenv("EARLY_ALERT", "false")
	t.Setenv("PRACTICE_EMERGENCY_CONTACTS", "313-555-0111, ,313-555-0122")
	t.Setenv("EMERGENCY_DOCTOR_PHONE", "313-555-0100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateBackend != BackendRedis || cfg.StateTTL != 2*time.Hour || cfg.EarlyAlert {
		t.Fatalf("env not applied: %+v", cfg)
	}
	p := cfg.Practice()
	if len(p.EmergencyContacts) != 2 || p.EmergencyContacts[1] != "313-555-0122" {
		t.Fatalf("unexpected contacts %v", p.EmergencyContacts)
	}
	if p.DoctorPhone() != "313-555-0100" {
		t.Fatalf("unexpected doctor phone %q", p.DoctorPhone())
	}
}

func TestValidate(t *testing.T) {
	base := Config{Env: "dev", StateBackend: BackendMemory, NightDoctorPhone: "3135550101", StateTTL: time.Hour}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StateBackend = "mongo" }},
		{"postgres without url", func(c *Config) { c.StateBackend = BackendPostgres }},
		{"redis without url", func(c *Config) { c.StateBackend = BackendRedis }},
		{"no doctor", func(c *Config) { c.NightDoctorPhone = "" }},
		{"prod signature without token", func(c *Config) { c.Env = "prod"; c.TwilioValidateSignature = true }},
		{"zero ttl", func(c *Config) { c.StateTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mod(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if got := (Config{PracticeTimezone: "Mars/Olympus"}).Location(); got != time.UTC {
		t.Fatalf("expected UTC, got %v", got)
	}
}
