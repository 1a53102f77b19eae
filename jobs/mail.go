package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gymcore/gymcore/internal/jobs"
	"github.com/gymcore/gymcore/internal/notify"
)

// SendEmailJob delivers queued email through a notify.Sender.
type SendEmailJob struct {
	Sender  notify.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskTypeSendEmail tasks.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sender == nil {
		return errors.New("send email: handler not configured")
	}
	var msg notify.Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTypeSendEmail)
	if msg.To == "" {
		return tracker.End(fmt.Errorf("%v: %w", notify.ErrNoRecipient, asynq.SkipRetry))
	}
	id, err := j.Sender.Send(ctx, msg)
	if errors.Is(err, notify.ErrNoRecipient) {
		return tracker.End(fmt.Errorf("%v: %w", err, asynq.SkipRetry))
	}
	if err != nil {
		return tracker.End(err)
	}
	logger(j.Logger).Info("email sent", slog.String("subject", msg.Subject), slog.String("message_id", id))
	j.Metrics.AddItems(TaskTypeSendEmail, 1)
	return tracker.End(nil)
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
