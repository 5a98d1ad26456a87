package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestCallStateVersioningIntegration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	callID := "test-" + uuid.NewString()

	state := models.NewCallState(callID)
	if err := s.SaveState(ctx, &state); err != nil {
		t.Fatalf("insert: %v", err)
	}
	state.Mode = models.ModeEmergencyIntake
	state.Step = models.StepName
	if err := s.SaveState(ctx, &state); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale := state
	stale.Version = 1
	if err := s.SaveState(ctx, &stale); !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	got, err := s.LoadState(ctx, callID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != 2 || got.Step != models.StepName {
		t.Fatalf("unexpected state %+v", got)
	}
	if _, err := s.LoadState(ctx, "missing-"+callID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCaseAndLedgerIntegration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	callID := "test-" + uuid.NewString()

	routine := models.CaseSummary{CaseID: uuid.NewString(), CallID: callID, Timestamp: time.Now().UTC(), Classification: models.TierNonEmergency}
	created, err := s.RecordCase(ctx, routine)
	if err != nil || !created {
		t.Fatalf("record routine: %v %v", created, err)
	}

	c := models.CaseSummary{CaseID: uuid.NewString(), CallID: callID, Timestamp: time.Now().UTC(), Classification: models.TierEmergency, Confidence: 90}
	created, err = s.RecordCase(ctx, c)
	if err != nil || !created {
		t.Fatalf("emergency should replace routine case: %v %v", created, err)
	}
	created, err = s.RecordCase(ctx, c)
	if err != nil || created {
		t.Fatalf("second record must be ignored: %v %v", created, err)
	}

	first, err := s.MarkDispatched(ctx, callID+":final:sms", time.Hour)
	if err != nil || !first {
		t.Fatalf("first claim: %v %v", first, err)
	}
	second, _ := s.MarkDispatched(ctx, callID+":final:sms", time.Hour)
	if second {
		t.Fatalf("duplicate claim must fail")
	}
}
