package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nightdesk/backend/internal/metrics"
	"github.com/nightdesk/backend/internal/store"
	"github.com/nightdesk/backend/internal/utils"
)

type Dispatcher struct {
	SMS       SMSSender
	Email     EmailSender
	Ledger    store.Ledger
	Logger    zerolog.Logger
	Timeout   time.Duration
	LedgerTTL time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(sms SMSSender, email EmailSender, ledger store.Ledger, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		SMS:       sms,
		Email:     email,
		Ledger:    ledger,
		Logger:    logger,
		Timeout:   timeout,
		LedgerTTL: 48 * time.Hour,
	}
}

// Dispatch sends the batch in the background and returns immediately. The
// work ignores ctx cancellation and is bounded by Timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []Notification) {
	if len(batch) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.Timeout)
		defer cancel()
		d.Send(sendCtx, batch)
	}()
}

// Send delivers the batch in order and reports one result per notification.
// A failing channel never stops the ones after it.
func (d *Dispatcher) Send(ctx context.Context, batch []Notification) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(batch))
	for _, n := range batch {
		res := d.sendOne(ctx, n)
		outcome := "sent"
		switch {
		case res.Duplicate:
			outcome = "duplicate"
		case !res.Success:
			outcome = "failed"
		}
		metrics.Notifications.WithLabelValues(string(n.Channel), outcome).Inc()

		ev := d.Logger.Info()
		if !res.Success && !res.Duplicate {
			ev = d.Logger.Error().Str("error", res.Error)
		}
		ev.Str("call_id", n.CallID).
			Str("stage", n.Stage).
			Str("channel", string(n.Channel)).
			Str("audience", string(n.Audience)).
			Str("recipient", mask(n)).
			Str("outcome", outcome).
			Str("provider_id", res.ID).
			Msg("notification")
		results = append(results, res)
	}
	return results
}

// Wait blocks until every dispatched batch has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) sendOne(ctx context.Context, n Notification) DeliveryResult {
	res := DeliveryResult{Key: n.Key, Channel: n.Channel, Recipient: n.To}

	if d.Ledger != nil && n.Key != "" {
		first, err := d.Ledger.MarkDispatched(ctx, n.Key, d.LedgerTTL)
		if err != nil {
			// Ledger errors fail open.
			d.Logger.Warn().Err(err).Str("key", n.Key).Msg("notification ledger unavailable")
		} else if !first {
			res.Duplicate = true
			return res
		}
	}

	var (
		id  string
		err error
	)
	switch n.Channel {
	case ChannelSMS:
		if d.SMS == nil {
			err = errors.New("no sms sender configured")
			break
		}
		id, err = d.SMS.SendSMS(ctx, n.To, n.Body)
	case ChannelEmail:
		if d.Email == nil {
			err = errors.New("no email sender configured")
			break
		}
		id, err = d.Email.SendEmail(ctx, Email{To: n.To, Subject: n.Subject, TextBody: n.Body, HTMLBody: n.HTML})
	default:
		err = errors.New("unknown channel " + string(n.Channel))
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.ID = id
	return res
}

func mask(n Notification) string {
	if n.Channel == ChannelSMS {
		return utils.MaskPhone(n.To)
	}
	return n.To
}
