package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gymcore/gymcore/internal/jobs"
)

// UploadSweeper removes unreferenced files.
type UploadSweeper interface {
	Sweep(ctx context.Context, referenced []string, maxAge time.Duration, now time.Time) (int, error)
}

// ImageReferences lists upload URLs still in use.
type ImageReferences interface {
	ImageReferences(ctx context.Context) ([]string, error)
}

// SweepUploadsJob deletes uploads that stayed unreferenced for MaxAge.
type SweepUploadsJob struct {
	Store      UploadSweeper
	References ImageReferences
	MaxAge     time.Duration
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	Now        func() time.Time
}

// Handle processes TaskSweepUploads tasks.
func (j *SweepUploadsJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil || j.References == nil {
		return errors.New("sweep uploads: handler not configured")
	}
	tracker := j.Metrics.Track(TaskSweepUploads)
	refs, err := j.References.ImageReferences(ctx)
	if err != nil {
		return tracker.End(err)
	}
	maxAge := j.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	removed, err := j.Store.Sweep(ctx, refs, maxAge, now())
	j.Metrics.AddItems(TaskSweepUploads, int64(removed))
	if err != nil {
		return tracker.End(err)
	}
	logger(j.Logger).Info("upload sweep finished", slog.Int("removed", removed), slog.Int("referenced", len(refs)))
	return tracker.End(nil)
}

// MembershipExpirer flags ended memberships.
type MembershipExpirer interface {
	ExpireMemberships(ctx context.Context) (int64, error)
}

// ExpireMembershipsJob runs the daily membership expiry.
type ExpireMembershipsJob struct {
	Members MembershipExpirer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskExpireMemberships tasks.
func (j *ExpireMembershipsJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Members == nil {
		return errors.New("expire memberships: handler not configured")
	}
	tracker := j.Metrics.Track(TaskExpireMemberships)
	n, err := j.Members.ExpireMemberships(ctx)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddItems(TaskExpireMemberships, n)
	logger(j.Logger).Info("memberships expired", slog.Int64("count", n))
	return tracker.End(nil)
}

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeSessionsJob cleans the postgres session table.
type PurgeSessionsJob struct {
	Sessions SessionPurger
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes TaskPurgeSessions tasks.
func (j *PurgeSessionsJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("purge sessions: handler not configured")
	}
	tracker := j.Metrics.Track(TaskPurgeSessions)
	n, err := j.Sessions.PurgeExpired(ctx)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddItems(TaskPurgeSessions, n)
	logger(j.Logger).Info("sessions purged", slog.Int64("count", n))
	return tracker.End(nil)
}
