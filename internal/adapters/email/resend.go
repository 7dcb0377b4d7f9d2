package email

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender builds a sender that mails as from.
// PRE: apiKey is a Resend API key; from is a verified sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// request maps a Message onto the Resend payload. Tags are sorted by name so
// the payload is stable.
func (s *ResendSender) request(msg Message) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	names := make([]string, 0, len(msg.Tags))
	for name := range msg.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: msg.Tags[name]})
	}
	return req
}

// Send submits msg to Resend.
// POST: on success the Receipt carries Resend's message id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(msg.To) == 0 {
		return Receipt{}, ErrNoRecipients
	}
	sent, err := s.client.Emails.SendWithContext(ctx, s.request(msg))
	if err != nil {
		return Receipt{}, fmt.Errorf("email: resend: %w", err)
	}
	slog.Info("email_sent", "provider", "resend", "id", sent.Id, "recipients", len(msg.To), "subject", msg.Subject)
	return Receipt{ID: sent.Id, AcceptedAt: time.Now()}, nil
}
