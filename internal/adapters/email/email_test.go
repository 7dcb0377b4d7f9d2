package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewSender verifies the backend follows the API key.
func TestNewSender(t *testing.T) {
	assert.IsType(t, &LogSender{}, NewSender("", "club@example.com"))
	assert.IsType(t, &ResendSender{}, NewSender("re_test", "club@example.com"))
}

// TestLogSender_Send verifies ids are sequential and recipients are required.
func TestLogSender_Send(t *testing.T) {
	s := NewLogSender()
	msg := Message{To: []string{"secretary@example.com"}, Subject: "New member"}

	first, err := s.Send(context.Background(), msg)
	require.NoError(t, err)
	second, err := s.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "log-1", first.ID)
	assert.Equal(t, "log-2", second.ID)
	assert.False(t, first.AcceptedAt.IsZero())
	assert.Equal(t, 2, s.Count())

	_, err = s.Send(context.Background(), Message{Subject: "nobody"})
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Equal(t, 2, s.Count())
}

// TestResendSender_Request verifies the payload mapping without calling the API.
func TestResendSender_Request(t *testing.T) {
	s := NewResendSender("re_test", "Club <club@example.com>")
	req := s.request(Message{
		To:      []string{"a@example.com"},
		Subject: "New member: Ana",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		Tags:    map[string]string{"member_id": "1000", "event": "member_registered"},
	})

	assert.Equal(t, "Club <club@example.com>", req.From)
	assert.Equal(t, []string{"a@example.com"}, req.To)
	assert.Equal(t, "<p>hi</p>", req.Html)
	assert.Equal(t, "hi", req.Text)
	require.Len(t, req.Tags, 2)
	assert.Equal(t, "event", req.Tags[0].Name)
	assert.Equal(t, "member_id", req.Tags[1].Name)
	assert.Equal(t, "1000", req.Tags[1].Value)
}

// TestResendSender_NoRecipients verifies an empty To list fails before any request.
func TestResendSender_NoRecipients(t *testing.T) {
	_, err := NewResendSender("re_test", "club@example.com").Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)
}
