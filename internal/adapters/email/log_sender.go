package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"
)

// LogSender records messages in the log instead of delivering them. It is
// the backend for development and for deployments without a mail provider.
type LogSender struct {
	seq atomic.Int64
}

// NewLogSender returns a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs msg and returns a local id.
func (s *LogSender) Send(_ context.Context, msg Message) (Receipt, error) {
	if len(msg.To) == 0 {
		return Receipt{}, ErrNoRecipients
	}
	id := "log-" + strconv.FormatInt(s.seq.Add(1), 10)
	slog.Info("email_logged", "id", id, "to", msg.To, "subject", msg.Subject)
	return Receipt{ID: id, AcceptedAt: time.Now()}, nil
}

// Count reports how many messages have been logged.
func (s *LogSender) Count() int {
	return int(s.seq.Load())
}
