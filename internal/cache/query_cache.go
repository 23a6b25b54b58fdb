// Package cache holds the redis-backed query result cache and the recent
// query history.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

type QueryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewQueryCache(client *redisv9.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{client: client, ttl: ttl}
}

// Key derives the cache key from everything that shapes a result: the query
// text, the target connection string and the page size.
func Key(query, connString string, limit int) string {
	payload, _ := json.Marshal(map[string]any{"q": query, "cs": connString, "l": limit})
	sum := sha256.Sum256(payload)
	return "query:result:" + hex.EncodeToString(sum[:])
}

// Get returns the cached result payload, or found=false on a miss.
func (c *QueryCache) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get query result failed: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached query result failed: %w", err)
	}
	return payload, true, nil
}

func (c *QueryCache) Set(ctx context.Context, key string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal query result failed: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set query result failed: %w", err)
	}
	return nil
}
