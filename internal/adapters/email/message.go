// Package email delivers club notifications. Resend is used when an API key
// is configured; otherwise messages are only logged.
package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a message has an empty To list.
var ErrNoRecipients = errors.New("email: message has no recipients")

// Message is one outgoing notification.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string            // optional plain-text alternative
	Tags    map[string]string // provider tags, e.g. {"event": "member_registered"}
}

// Receipt is what the provider reports for an accepted message.
type Receipt struct {
	ID         string
	AcceptedAt time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// NewSender picks the delivery backend: Resend when apiKey is set, the
// logging sender otherwise.
func NewSender(apiKey, from string) Sender {
	if apiKey == "" {
		return NewLogSender()
	}
	return NewResendSender(apiKey, from)
}
