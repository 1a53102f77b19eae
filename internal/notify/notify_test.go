package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeEscapesInput(t *testing.T) {
	msg, err := Welcome{To: "a@example.com", Name: "<b>Asha</b>", Gym: "Iron & Co", Start: "2025-01-01", End: "2025-02-01"}.Render()
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.To)
	assert.Equal(t, "Welcome to Iron & Co", msg.Subject)
	assert.Contains(t, msg.HTML, "&lt;b&gt;Asha&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "Iron &amp; Co")
}

func TestNewSenderWithoutKeyIsNoop(t *testing.T) {
	sender := NewSender("", "GymCore <noreply@example.com>", nil)
	_, ok := sender.(NoopSender)
	require.True(t, ok)

	_, err := sender.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"})
	assert.NoError(t, err)

	_, err = sender.Send(context.Background(), Message{Subject: "hi"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestNewSenderWithKeyUsesResend(t *testing.T) {
	_, ok := NewSender("re_test", "GymCore <noreply@example.com>", nil).(*ResendSender)
	assert.True(t, ok)
}
