package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/issue-activity/backend/internal/activity"
	"github.com/issue-activity/backend/internal/events"
	"github.com/issue-activity/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Queue yields mutation events. Dequeue returns nil, nil when nothing
// arrived within timeout.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*models.MutationEvent, error)
}

type Processor interface {
	Process(ctx context.Context, ev models.MutationEvent) ([]models.IssueActivity, error)
}

type Config struct {
	Concurrency int
	PollTimeout time.Duration
	// RetryDelay is the pause after the queue itself fails.
	RetryDelay time.Duration
	// MaxQueueFailures consecutive queue errors stop the pool.
	MaxQueueFailures int
}

// Pool runs Concurrency consumers that each take one event at a time from the
// queue. A failing or panicking event is logged and dropped; the consumer
// moves on to the next one. A queue that keeps failing stops every consumer.
type Pool struct {
	queue Queue
	proc  Processor
	cfg   Config
	log   *zap.Logger
}

func NewPool(queue Queue, proc Processor, cfg Config, log *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxQueueFailures <= 0 {
		cfg.MaxQueueFailures = 30
	}
	return &Pool{queue: queue, proc: proc, cfg: cfg, log: log}
}

// Run blocks until ctx is cancelled and every consumer has finished the
// event it was working on. It returns the error of a consumer that gave up on
// the queue; the other consumers are stopped after their current event.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("worker pool started", zap.Int("concurrency", p.cfg.Concurrency))

	g, ctx := errgroup.WithContext(ctx)
	for i := range p.cfg.Concurrency {
		g.Go(func() error {
			return p.consume(ctx, p.log.With(zap.Int("consumer", i)))
		})
	}
	err := g.Wait()

	p.log.Info("worker pool stopped")
	return err
}

func (p *Pool) consume(ctx context.Context, log *zap.Logger) error {
	failures := 0
	for ctx.Err() == nil {
		ev, err := p.queue.Dequeue(ctx, p.cfg.PollTimeout)
		if err != nil && !errors.Is(err, events.ErrUndecodable) {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if failures >= p.cfg.MaxQueueFailures {
				return fmt.Errorf("queue failed %d times in a row: %w", failures, err)
			}
			log.Error("dequeue failed", zap.Int("failures", failures), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.cfg.RetryDelay):
			}
			continue
		}

		failures = 0
		switch {
		case err != nil:
			log.Warn("dropping undecodable message", zap.Error(err))
			continue
		case ev == nil:
			continue
		}

		// Shutdown stops the intake only; the event in hand runs to completion.
		p.handle(context.WithoutCancel(ctx), log, *ev)
	}
	return nil
}

func (p *Pool) handle(ctx context.Context, log *zap.Logger, ev models.MutationEvent) {
	fields := []zap.Field{
		zap.String("kind", ev.Type),
		zap.String("issue_id", ev.IssueID.String()),
		zap.String("actor_id", ev.ActorID.String()),
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing event", append(fields, zap.Any("panic", r), zap.Stack("stack"))...)
		}
	}()

	start := time.Now()
	saved, err := p.proc.Process(ctx, ev)
	switch {
	case errors.Is(err, models.ErrInvalidEvent), errors.Is(err, activity.ErrMalformedEvent):
		log.Warn("dropping invalid event", append(fields, zap.Error(err))...)
	case err != nil:
		log.Error("event processing failed", append(fields, zap.Error(err))...)
	default:
		log.Info("event processed", append(fields,
			zap.Int("activities", len(saved)),
			zap.Duration("took", time.Since(start)),
		)...)
	}
}
