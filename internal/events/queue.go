package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/issue-activity/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrUndecodable marks a queue message that was removed from the queue but
// could not be parsed as a mutation event.
var ErrUndecodable = errors.New("undecodable queue message")

// RedisQueue is the FIFO hand-off between the edit API and the workers:
// producers LPUSH, consumers BRPOP.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func NewRedisQueue(client *redis.Client, key string, log *zap.Logger) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, log: log}
}

func (q *RedisQueue) Enqueue(ctx context.Context, ev models.MutationEvent) error {
	if ev.EnqueuedAt.IsZero() {
		ev.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	depth, err := q.client.LPush(ctx, q.key, data).Result()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", ev.Type, err)
	}
	q.log.Debug("mutation event enqueued",
		zap.String("type", ev.Type),
		zap.String("issue_id", ev.IssueID.String()),
		zap.Int64("depth", depth),
	)
	return nil
}

// Dequeue blocks for up to timeout waiting for the next event. It returns
// nil and no error when the wait times out.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.MutationEvent, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// res is [key, value]
	var ev models.MutationEvent
	if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
		q.log.Debug("dropping undecodable queue message", zap.String("key", q.key), zap.Int("bytes", len(res[1])))
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return &ev, nil
}

// Len reports the number of events waiting.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
