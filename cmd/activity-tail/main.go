package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/config"
	"github.com/issue-activity/backend/internal/db"
	"github.com/issue-activity/backend/internal/events"
	"go.uber.org/zap"
)

// activity-tail prints the live activity feed as JSON lines, optionally
// narrowed to one issue. Useful when checking a deployment end to end.

func main() {
	issueFlag := flag.String("issue", "", "only print activity for this issue id")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	var issueID uuid.UUID
	if *issueFlag != "" {
		id, err := uuid.Parse(*issueFlag)
		if err != nil {
			log.Fatal("invalid -issue", zap.Error(err))
		}
		issueID = id
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	out := json.NewEncoder(os.Stdout)
	subscriber := events.NewRedisSubscriber(rdb, log)
	err = subscriber.Subscribe(ctx, cfg.ActivityEventsChannel, func(event events.Event) {
		if issueID != uuid.Nil && event.IssueID != issueID {
			return
		}
		if err := out.Encode(event); err != nil {
			log.Warn("failed to write event", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.String("channel", cfg.ActivityEventsChannel), zap.Error(err))
	}

	log.Info("activity-tail started", zap.String("channel", cfg.ActivityEventsChannel))
	<-ctx.Done()
	log.Info("shutting down activity-tail")
}
