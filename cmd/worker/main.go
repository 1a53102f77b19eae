package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gymcore/gymcore/internal/app"
	"github.com/gymcore/gymcore/internal/gyms"
	jobmetrics "github.com/gymcore/gymcore/internal/jobs"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/notify"
	"github.com/gymcore/gymcore/internal/observability"
	"github.com/gymcore/gymcore/internal/platform/cache"
	"github.com/gymcore/gymcore/internal/platform/db"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/uploads"
	"github.com/gymcore/gymcore/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	uploadStore, err := uploads.NewStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes)
	if err != nil {
		logger.Error("prepare upload dir", slog.Any("error", err))
		os.Exit(1)
	}

	registry := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(registry.Registerer())
	if cfg.WorkerMetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.WorkerMetricsAddr)
		if err != nil {
			logger.Error("listen metrics", slog.String("addr", cfg.WorkerMetricsAddr), slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			logger.Info("serving worker metrics", slog.String("addr", ln.Addr().String()))
			if err := registry.Serve(ctx, ln); err != nil {
				logger.Error("metrics server", slog.Any("error", err))
			}
		}()
	}
	gymService := gyms.NewService(gyms.NewRepository(pool))
	// The worker never enqueues welcome mail itself.
	memberService := members.NewService(members.NewRepository(pool), gymService, nil, logger)

	mailJob := &jobs.SendEmailJob{Sender: notify.NewSender(cfg.ResendAPIKey, cfg.MailFrom, logger), Logger: logger, Metrics: metrics}
	sweepJob := &jobs.SweepUploadsJob{Store: uploadStore, References: gymService, Logger: logger, Metrics: metrics}
	expireJob := &jobs.ExpireMembershipsJob{Members: memberService, Logger: logger, Metrics: metrics}

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
		{Type: jobs.TaskSweepUploads, Handler: sweepJob.Handle},
		{Type: jobs.TaskExpireMemberships, Handler: expireJob.Handle},
	}
	cron := []jobs.CronRegistration{
		{Spec: "0 * * * *", Task: jobs.NewSweepUploadsTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		{Spec: "10 0 * * *", Task: jobs.NewExpireMembershipsTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
	}
	if cfg.SessionBackend == "postgres" {
		purgeJob := &jobs.PurgeSessionsJob{Sessions: shared.NewPGSessionStore(pool), Logger: logger, Metrics: metrics}
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskPurgeSessions, Handler: purgeJob.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: "30 3 * * *", Task: jobs.NewPurgeSessionsTask(), Options: []asynq.Option{asynq.MaxRetry(1)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts.AsynqOpt(),
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
