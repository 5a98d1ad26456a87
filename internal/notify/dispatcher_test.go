package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nightdesk/backend/internal/store"
)

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return "SM" + to, nil
}

func (f *fakeSMS) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEmail struct {
	err error
}

func (f *fakeEmail) SendEmail(context.Context, Email) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func TestSendIsolatesFailures(t *testing.T) {
	sms := &fakeSMS{}
	d := NewDispatcher(sms, &fakeEmail{err: errors.New("sendgrid down")}, nil, time.Second, zerolog.Nop())

	batch := NewPlanner(testPractice(), PlanOptions{}).PlanCaseFinalized(emergencyCase())
	// email first
	batch = append([]Notification{batch[3]}, batch[:3]...)

	results := d.Send(context.Background(), batch)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Success || results[0].Error == "" {
		t.Fatalf("expected email failure to be reported, got %+v", results[0])
	}
	for _, r := range results[1:] {
		if !r.Success || r.ID == "" {
			t.Fatalf("sms should still be sent, got %+v", r)
		}
	}
	if sms.count() != 3 {
		t.Fatalf("expected 3 sms, got %d", sms.count())
	}
}

func TestSendWithoutSenderReportsFailure(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, time.Second, zerolog.Nop())
	results := d.Send(context.Background(), []Notification{{Channel: ChannelSMS, To: "+13135550100"}})
	if results[0].Success {
		t.Fatalf("expected failure without sms sender")
	}
}

func TestSendSkipsDuplicates(t *testing.T) {
	sms := &fakeSMS{}
	d := NewDispatcher(sms, &fakeEmail{}, store.NewMemoryStore(), time.Second, zerolog.Nop())
	batch := NewPlanner(testPractice(), PlanOptions{}).PlanCaseFinalized(emergencyCase())

	d.Send(context.Background(), batch)
	second := d.Send(context.Background(), batch)
	for _, r := range second {
		if !r.Duplicate {
			t.Fatalf("expected duplicate on redelivery, got %+v", r)
		}
	}
	if sms.count() != 3 {
		t.Fatalf("expected sms sent once per recipient, got %d", sms.count())
	}
}

func TestDispatchSurvivesCancelledRequest(t *testing.T) {
	sms := &fakeSMS{}
	d := NewDispatcher(sms, &fakeEmail{}, nil, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, []Notification{{Key: "k1", Channel: ChannelSMS, To: "+13135550100", Body: "hi"}})
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := d.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if sms.count() != 1 {
		t.Fatalf("expected detached send to complete, got %d", sms.count())
	}
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := NewDispatcher(&fakeSMS{}, &fakeEmail{}, nil, time.Second, zerolog.Nop())
	d.Dispatch(context.Background(), nil)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
