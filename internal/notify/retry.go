package notify

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nightdesk/backend/internal/metrics"
)

const maxAttempts = 3

// withRetry runs op with exponential backoff. Client errors (4xx) are not
// retried.
func withRetry(ctx context.Context, provider string, maxElapsed time.Duration, op func() error) error {
	if maxElapsed <= 0 {
		maxElapsed = 10 * time.Second
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = maxElapsed

	attempt := func() error {
		start := time.Now()
		err := op()
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ProviderLatency.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())

		var se *statusError
		if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 && se.Status != 429 {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx))
}
