package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"schemematch/internal/scheme/catalog"
	"schemematch/pkg/platform/sentinel"
)

// DefaultCacheKey holds the last known good catalog document.
const DefaultCacheKey = "scheme:catalog:last-good"

// RedisCache keeps one copy of the last document the primary source served
// successfully. It doubles as the fallback source when the primary is down.
type RedisCache struct {
	client *redis.Client
	key    string
}

// RedisCacheOption configures a RedisCache instance.
type RedisCacheOption func(*RedisCache)

// WithCacheKey overrides DefaultCacheKey.
func WithCacheKey(key string) RedisCacheOption {
	return func(c *RedisCache) {
		if key != "" {
			c.key = key
		}
	}
}

func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, key: DefaultCacheKey}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Load(ctx context.Context) (*catalog.Document, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cached catalog %s: %w", c.key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cached catalog: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	var doc catalog.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode cached catalog: %w", err)
	}
	return &doc, nil
}

// Save replaces the cached document. No TTL: a stale catalog beats no catalog.
func (c *RedisCache) Save(ctx context.Context, doc *catalog.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache catalog: %w", err)
	}
	return nil
}
