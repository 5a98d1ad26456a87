package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nightdesk/backend/internal/models"
)

func TestRedisStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("redis connect: %v", err)
	}
	defer s.Close()

	callID := "test-" + uuid.NewString()
	state := models.NewCallState(callID)
	if err := s.SaveState(ctx, &state); err != nil {
		t.Fatalf("save: %v", err)
	}
	stale := state
	stale.Version = 0
	if err := s.SaveState(ctx, &stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	got, err := s.LoadState(ctx, callID)
	if err != nil || got.Version != 1 {
		t.Fatalf("unexpected state %+v %v", got, err)
	}

	created, err := s.RecordCase(ctx, models.CaseSummary{CallID: callID, PatientName: "Ana"})
	if err != nil || !created {
		t.Fatalf("record case: %v %v", created, err)
	}
	created, _ = s.RecordCase(ctx, models.CaseSummary{CallID: callID})
	if created {
		t.Fatalf("case must be write-once")
	}
	created, err = s.RecordCase(ctx, models.CaseSummary{CallID: callID, PatientName: "Ana", Classification: models.TierEmergency})
	if err != nil || !created {
		t.Fatalf("emergency should replace earlier case: %v %v", created, err)
	}
	if c, _ := s.GetCase(ctx, callID); c == nil || c.Classification != models.TierEmergency {
		t.Fatalf("unexpected stored case %+v", c)
	}

	first, _ := s.MarkDispatched(ctx, callID+":sms", time.Minute)
	second, _ := s.MarkDispatched(ctx, callID+":sms", time.Minute)
	if !first || second {
		t.Fatalf("ledger should dedupe, got %v %v", first, second)
	}
}
