package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/issue-activity/backend/internal/config"
	"github.com/issue-activity/backend/internal/db"
	"github.com/issue-activity/backend/internal/events"
	"github.com/issue-activity/backend/internal/repositories"
	"github.com/issue-activity/backend/internal/services"
	"github.com/issue-activity/backend/internal/worker"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, int32(cfg.PostgresMaxConns), log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	activityRepo := repositories.NewActivityRepo(pool)
	lookupRepo := repositories.NewLookupRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	hooks := services.NewHookClient(services.HookConfig{
		BaseURL: cfg.HookBaseURL,
		Enabled: cfg.HookEnabled,
		Timeout: cfg.HookTimeout,
	}, log)
	activityService := services.NewActivityService(activityRepo, lookupRepo, hooks, publisher, cfg.ActivityEventsChannel, log)

	queue := events.NewRedisQueue(rdb, cfg.ActivityQueueKey, log)
	if n, err := queue.Len(ctx); err == nil {
		log.Info("worker started", zap.Int64("backlog", n), zap.Bool("hooks_enabled", hooks.Enabled()))
	}

	workers := worker.NewPool(queue, activityService, worker.Config{
		Concurrency:      cfg.WorkerConcurrency,
		PollTimeout:      cfg.WorkerPollTimeout,
		RetryDelay:       time.Second,
		MaxQueueFailures: cfg.WorkerMaxQueueFailures,
	}, log)

	if err := workers.Run(ctx); err != nil {
		log.Fatal("worker pool exited", zap.Error(err))
	}
	log.Info("shutting down worker")
}
