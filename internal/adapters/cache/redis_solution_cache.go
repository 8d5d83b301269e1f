package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vrp-model-service/internal/domain"
)

const solutionKeyPrefix = "vrp:solution:"

// Redis-backed cache for decoded solutions, keyed by problem digest.
// Entries are JSON encoded and expire after the TTL passed to Put.
type RedisSolutionCache struct {
	client *redis.Client
}

func NewRedisSolutionCache(client *redis.Client) *RedisSolutionCache {
	return &RedisSolutionCache{client: client}
}

func (c *RedisSolutionCache) Get(ctx context.Context, key string) (*domain.Solution, bool, error) {
	if c.client == nil {
		return nil, false, errors.New("solution cache: client is nil")
	}

	raw, err := c.client.Get(ctx, solutionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get solution cache: %w", err)
	}

	var sol domain.Solution
	if err := json.Unmarshal(raw, &sol); err != nil {
		return nil, false, fmt.Errorf("get solution cache: decode entry: %w", err)
	}
	return &sol, true, nil
}

func (c *RedisSolutionCache) Put(ctx context.Context, key string, sol *domain.Solution, ttl time.Duration) error {
	if c.client == nil {
		return errors.New("solution cache: client is nil")
	}

	raw, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("put solution cache: encode entry: %w", err)
	}

	if err := c.client.Set(ctx, solutionKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("put solution cache: %w", err)
	}
	return nil
}
