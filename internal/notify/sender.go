// Package notify delivers transactional email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipient is returned for messages without an address.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// Message is a single outgoing email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender returns a Resend sender when apiKey is set, otherwise a sender
// that only logs.
func NewSender(apiKey, from string, logger *slog.Logger) Sender {
	if apiKey == "" {
		return NoopSender{Logger: logger}
	}
	return NewResendSender(apiKey, from, logger)
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewResendSender builds a ResendSender.
func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from, logger: logger}
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrNoRecipient
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		s.logger.Error("resend_send_failed", slog.String("subject", msg.Subject), slog.Any("error", err))
		return "", fmt.Errorf("resend send: %w", err)
	}
	s.logger.Info("resend_sent", slog.String("message_id", sent.Id), slog.String("subject", msg.Subject))
	return sent.Id, nil
}

// NoopSender logs messages instead of delivering them.
type NoopSender struct {
	Logger *slog.Logger
}

// Send implements Sender.
func (n NoopSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrNoRecipient
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email_skipped", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return "", nil
}
