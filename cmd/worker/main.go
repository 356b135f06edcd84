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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/dashboard"
	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
	"github.com/bizdesk/bizdesk/internal/payables"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/jobs"
)

const (
	dashboardWarmupCron    = "5 * * * *"
	idempotencyCleanupCron = "30 3 * * *"
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
	loc := cfg.Location()

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4, MaxConnIdleTime: 5 * time.Minute})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	redisOpts := cfg.AsynqRedis()
	client := jobs.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	settingsService := settings.NewService(settings.NewRepository(pool), nil, logger)
	payableService := payables.NewService(payables.NewRepository(pool), payables.ServiceConfig{
		Logger:   logger,
		Location: loc,
	})
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), payableService, dashboard.ServiceConfig{
		Cache:    dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
		Logger:   logger,
		Location: loc,
	})

	reminderJob := &jobs.DueReminderJob{
		Payables: payableService,
		Company:  settingsService,
		Mail:     client,
		Logger:   logger,
		Metrics:  metrics,
		Days:     cfg.PayablesReminderDays,
		Location: loc,
	}
	warmupJob := &jobs.DashboardWarmupJob{Dashboard: dashboardService, Logger: logger, Metrics: metrics}
	cleanupJob := &jobs.IdempotencyCleanupJob{Store: shared.NewIdempotencyStore(pool), Logger: logger, Metrics: metrics}

	reminderTask, err := jobs.NewDueReminderTask(jobs.DueReminderPayload{})
	if err != nil {
		logger.Error("build reminder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Location:  loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPayablesDueReminder, Handler: reminderJob.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.PayablesReminderCron, Task: reminderTask},
			{Spec: dashboardWarmupCron, Task: jobs.NewDashboardWarmupTask()},
			{Spec: idempotencyCleanupCron, Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
