package matchinginfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// RedisSyncQueue is a SyncQueue on a Redis list, with a sorted set holding
// jobs scheduled for a later retry.
type RedisSyncQueue struct {
	client    *redis.Client
	queueName string
	now       func() time.Time
}

var _ matching.SyncQueue = (*RedisSyncQueue)(nil)

func NewRedisSyncQueue(client *redis.Client, queueName string) *RedisSyncQueue {
	return &RedisSyncQueue{client: client, queueName: queueName, now: time.Now}
}

func (q *RedisSyncQueue) delayedKey() string { return q.queueName + ":delayed" }

func (q *RedisSyncQueue) Enqueue(ctx context.Context, jobID kernel.SyncJobID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for sync job %s: %w", jobID, err)
	}
	if err := q.client.LPush(ctx, q.queueName, data).Err(); err != nil {
		return fmt.Errorf("enqueue sync job %s: %w", jobID, err)
	}
	return nil
}

// Dequeue blocks up to timeout. It returns nil, nil when nothing arrived.
func (q *RedisSyncQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue sync job: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("invalid result from queue: expected 2 elements, got %d", len(result))
	}
	return []byte(result[1]), nil
}

func (q *RedisSyncQueue) EnqueueDelayed(ctx context.Context, jobID kernel.SyncJobID, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal delayed payload for sync job %s: %w", jobID, err)
	}

	score := float64(q.now().Add(delay).Unix())
	if err := q.client.ZAdd(ctx, q.delayedKey(), redis.Z{Score: score, Member: data}).Err(); err != nil {
		return fmt.Errorf("enqueue delayed sync job %s: %w", jobID, err)
	}
	return nil
}

// MoveDelayedToReady pushes every due delayed job onto the ready list.
func (q *RedisSyncQueue) MoveDelayedToReady(ctx context.Context) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("get delayed sync jobs: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	pipe := q.client.TxPipeline()
	for _, job := range due {
		pipe.LPush(ctx, q.queueName, job)
		pipe.ZRem(ctx, q.delayedKey(), job)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("move delayed sync jobs to ready: %w", err)
	}
	return len(due), nil
}

// Stats reports ready and delayed queue depth.
func (q *RedisSyncQueue) Stats(ctx context.Context) (map[string]any, error) {
	ready, err := q.client.LLen(ctx, q.queueName).Result()
	if err != nil {
		return nil, fmt.Errorf("get queue size: %w", err)
	}
	delayed, err := q.client.ZCard(ctx, q.delayedKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("get delayed queue size: %w", err)
	}
	return map[string]any{
		"queue_name":   q.queueName,
		"ready_jobs":   ready,
		"delayed_jobs": delayed,
		"total_jobs":   ready + delayed,
	}, nil
}

func (q *RedisSyncQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
