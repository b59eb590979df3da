package matchinginfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/hireflow/internal/ai/embeddings"
)

// RedisEmbeddingCache keeps embeddings keyed by provider and text digest.
type RedisEmbeddingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ embeddings.Cache = (*RedisEmbeddingCache)(nil)

func NewRedisEmbeddingCache(client *redis.Client, prefix string, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) (*embeddings.Embedding, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached embedding %s: %w", key, err)
	}

	var e embeddings.Embedding
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cached embedding %s: %w", key, err)
	}
	return &e, nil
}

func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, e embeddings.Embedding) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode embedding %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache embedding %s: %w", key, err)
	}
	return nil
}
