package notify

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// LogSender stands in for real providers when credentials are not
// configured. It only writes the message to the log.
type LogSender struct {
	Logger zerolog.Logger
	seq    atomic.Int64
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{Logger: logger}
}

func (l *LogSender) SendSMS(_ context.Context, to, body string) (string, error) {
	id := fmt.Sprintf("log-sms-%d", l.seq.Add(1))
	l.Logger.Info().Str("id", id).Str("to", to).Str("body", body).Msg("sms (not sent)")
	return id, nil
}

func (l *LogSender) SendEmail(_ context.Context, e Email) (string, error) {
	id := fmt.Sprintf("log-email-%d", l.seq.Add(1))
	l.Logger.Info().Str("id", id).Str("to", e.To).Str("subject", e.Subject).Msg("email (not sent)")
	return id, nil
}
