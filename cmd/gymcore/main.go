package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/app"
	"github.com/gymcore/gymcore/internal/auth"
	"github.com/gymcore/gymcore/internal/classes"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/observability"
	"github.com/gymcore/gymcore/internal/plans"
	"github.com/gymcore/gymcore/internal/platform/cache"
	"github.com/gymcore/gymcore/internal/platform/db"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/uploads"
	"github.com/gymcore/gymcore/internal/users"
	"github.com/gymcore/gymcore/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool, logger); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var sessionStore shared.SessionStore
	switch cfg.SessionBackend {
	case "postgres":
		sessionStore = shared.NewPGSessionStore(dbpool)
	default:
		sessionStore = shared.NewRedisSessionStore(redisClient)
	}
	sessionManager := shared.NewSessionManager(sessionStore, "gymcore_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	mailQueue := jobs.NewClient(redisOpts.AsynqOpt())
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	uploadStore, err := uploads.NewStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes)
	if err != nil {
		logger.Error("prepare upload dir", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbpool)
	gymService := gyms.NewService(gyms.NewRepository(dbpool))
	memberService := members.NewService(members.NewRepository(dbpool), gymService, mailQueue, logger)
	planService := plans.NewService(plans.NewRepository(dbpool), memberService)
	classService := classes.NewService(classes.NewRepository(dbpool), gymService, memberService)
	authService := auth.NewService(userRepo, logger)

	gate := access.Middleware{Users: userRepo, Gyms: gymService, Logger: logger}

	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        observability.NewMetrics(),
		AuthHandler:    auth.NewHandler(logger, authService, sessionManager, csrfManager, gate),
		AccessHandler:  access.NewHandler(gate),
		GymsHandler:    gyms.NewHandler(logger, gymService, gate),
		MembersHandler: members.NewHandler(logger, memberService, gate),
		PlansHandler:   plans.NewHandler(logger, planService, gate),
		ClassesHandler: classes.NewHandler(logger, classService, gate),
		UploadsHandler: uploads.NewHandler(logger, uploadStore, gate),
		JobHandler:     jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("sessions", cfg.SessionBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
