package matchinginfra

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/internal/ai/embeddings"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisEmbeddingCache(t *testing.T) {
	mr, client := newMiniRedis(t)
	ctx := context.Background()
	cache := NewRedisEmbeddingCache(client, "hireflow:emb:", time.Hour)

	miss, err := cache.Get(ctx, "openai:abc")
	require.NoError(t, err)
	assert.Nil(t, miss)

	want := embeddings.Embedding{Vector: []float32{0.25, -0.5}, Provider: "openai", Digest: "abc"}
	require.NoError(t, cache.Set(ctx, "openai:abc", want))
	assert.True(t, mr.Exists("hireflow:emb:openai:abc"))

	got, err := cache.Get(ctx, "openai:abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	mr.FastForward(2 * time.Hour)
	expired, err := cache.Get(ctx, "openai:abc")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestRedisEmbeddingCacheCorruptEntry(t *testing.T) {
	mr, client := newMiniRedis(t)
	cache := NewRedisEmbeddingCache(client, "p:", 0)
	require.NoError(t, mr.Set("p:bad", "not-json"))

	_, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisSyncQueueFIFO(t *testing.T) {
	_, client := newMiniRedis(t)
	ctx := context.Background()
	q := NewRedisSyncQueue(client, "sync")

	first := matching.SyncJob{ID: kernel.NewSyncJobID("sync-1"), MaxAttempts: 3}
	second := matching.SyncJob{ID: kernel.NewSyncJobID("sync-2"), MaxAttempts: 3}
	require.NoError(t, q.Enqueue(ctx, first.ID, first))
	require.NoError(t, q.Enqueue(ctx, second.ID, second))

	data, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	var got matching.SyncJob
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, first.ID, got.ID)

	data, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, second.ID, got.ID)
}

func TestRedisSyncQueueDelayed(t *testing.T) {
	_, client := newMiniRedis(t)
	ctx := context.Background()
	q := NewRedisSyncQueue(client, "sync")

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	job := matching.SyncJob{ID: kernel.NewSyncJobID("sync-3"), AttemptCount: 1}
	require.NoError(t, q.EnqueueDelayed(ctx, job.ID, job, 2*time.Minute))

	moved, err := q.MoveDelayedToReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["delayed_jobs"])
	assert.Equal(t, int64(0), stats["ready_jobs"])

	now = now.Add(3 * time.Minute)
	moved, err = q.MoveDelayedToReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	data, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	var got matching.SyncJob
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, 1, got.AttemptCount)

	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["total_jobs"])
	assert.NoError(t, q.Ping(ctx))
}
