package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-pricing/internal/resilience"
)

const keyPrefix = "pricing:catalog:"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	// Breaker short-circuits reads and writes while Redis keeps failing.
	// Invalidation always goes through.
	Breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client or non-positive ttl disables it.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// GetJSON loads the cached payloads for keys into decode. Missing keys are skipped
// and returned as misses.
func (c *Cache) GetJSON(ctx context.Context, keys []string, decode func(key string, data []byte) error) ([]string, error) {
	if !c.enabled() || len(keys) == 0 {
		return keys, nil
	}
	var vals []any
	err := c.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		vals, err = c.client.MGet(ctx, keys...).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return keys, err
	}
	var misses []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, keys[i])
			continue
		}
		if err := decode(keys[i], []byte(s)); err != nil {
			misses = append(misses, keys[i])
		}
	}
	return misses, nil
}

// SetJSON serialises every entry and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, entries map[string]any) error {
	if !c.enabled() || len(entries) == 0 {
		return nil
	}
	encoded := make(map[string][]byte, len(entries))
	for key, v := range entries {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encoded[key] = data
	}
	return c.Breaker.Do(ctx, func(ctx context.Context) error {
		pipe := c.client.Pipeline()
		for key, data := range encoded {
			pipe.Set(ctx, key, data, c.ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

// Invalidate drops cached entries.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
