package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/gymcore/gymcore/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail delivers one transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskSweepUploads removes uploaded files no gym references.
	TaskSweepUploads = "uploads:sweep"
	// TaskExpireMemberships flags memberships past their end date.
	TaskExpireMemberships = "memberships:expire"
	// TaskPurgeSessions deletes expired rows of the postgres session store.
	TaskPurgeSessions = "sessions:purge"
)

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(msg notify.Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewSweepUploadsTask builds the periodic upload sweep.
func NewSweepUploadsTask() *asynq.Task {
	return asynq.NewTask(TaskSweepUploads, nil, asynq.MaxRetry(1))
}

// NewExpireMembershipsTask builds the daily membership expiry.
func NewExpireMembershipsTask() *asynq.Task {
	return asynq.NewTask(TaskExpireMemberships, nil, asynq.MaxRetry(3))
}

// NewPurgeSessionsTask builds the session cleanup.
func NewPurgeSessionsTask() *asynq.Task {
	return asynq.NewTask(TaskPurgeSessions, nil, asynq.MaxRetry(1))
}
