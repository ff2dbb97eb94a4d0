package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	redis "github.com/redis/go-redis/v9"

	"kasirinaja/dashboard/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultNamespace = "kasirinaja:report:"

// RedisReportCache stores JSON encoded reports under a key namespace so
// Purge can drop them without touching other data in the same database.
type RedisReportCache struct {
	client    *redis.Client
	namespace string
}

func NewRedisReportCache(addr string, password string, db int, namespace string) *RedisReportCache {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisReportCache{
		client:    redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		namespace: namespace,
	}
}

func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisReportCache) Get(ctx context.Context, key string) (*domain.CompleteReport, bool, error) {
	raw, err := c.client.Get(ctx, c.namespace+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("report cache get %s: %w", key, err)
	}

	report := new(domain.CompleteReport)
	if err := json.Unmarshal(raw, report); err != nil {
		// A payload written by an older build is treated as a miss.
		return nil, false, nil
	}
	return report, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, value *domain.CompleteReport, ttl time.Duration) error {
	if value == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.namespace+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("report cache set %s: %w", key, err)
	}
	return nil
}

// Purge deletes every key in the namespace. Store revisions restart at zero
// with each process, so reports cached by a previous run must not survive it.
func (c *RedisReportCache) Purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.namespace+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan report cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("purge report cache: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
