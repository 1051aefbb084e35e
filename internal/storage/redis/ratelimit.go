package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rryowa/nexus/internal/util"
)

const (
	countKeyPrefix = "ratelimit:count:"
	blockKeyPrefix = "ratelimit:block:"
)

// RateLimitStorage is a fixed-window request counter. A key that exceeds the
// limit inside one window is blocked for the configured block time.
type RateLimitStorage struct {
	client    *redis.Client
	limit     int64
	interval  time.Duration
	blockTime time.Duration
}

func NewRateLimitStorage(client *redis.Client, cfg *util.RateLimiterConfig) *RateLimitStorage {
	return &RateLimitStorage{
		client:    client,
		limit:     int64(cfg.Limit),
		interval:  cfg.Interval,
		blockTime: cfg.BlockTime,
	}
}

// Allow records one hit for key. When the hit is refused it returns how long
// the caller should wait.
func (s *RateLimitStorage) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	blocked, err := s.client.TTL(ctx, blockKeyPrefix+key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("check block: %w", err)
	}
	if blocked > 0 {
		return false, blocked, nil
	}

	// The window key is created with its TTL before the increment, in one
	// transaction, so a counter never outlives its window.
	countKey := countKeyPrefix + key
	pipe := s.client.TxPipeline()
	pipe.SetNX(ctx, countKey, 0, s.interval)
	incr := pipe.Incr(ctx, countKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("count hit: %w", err)
	}
	count := incr.Val()

	if count > s.limit {
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, blockKeyPrefix+key, "blocked", s.blockTime)
		pipe.Del(ctx, countKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return false, 0, fmt.Errorf("block key: %w", err)
		}
		return false, s.blockTime, nil
	}
	return true, 0, nil
}
