package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
)

const keyPrefix = "noticeboard:payload:"

// RedisClient is the subset of the redis client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PayloadCache stores aggregated payloads in Redis with a fixed TTL.
type PayloadCache struct {
	client RedisClient
	ttl    time.Duration
}

var _ ports.PayloadCache = (*PayloadCache)(nil)

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// NewPayloadCache wraps client; entries expire after ttl.
func NewPayloadCache(client RedisClient, ttl time.Duration) *PayloadCache {
	return &PayloadCache{client: client, ttl: ttl}
}

// Key returns the cache key for a selection. Scoped keys carry the
// query-escaped department and year so no two selections share a key.
func Key(sel domain.Selection) string {
	if !sel.Scoped() {
		return keyPrefix + "common"
	}
	return keyPrefix + url.Values{"department": {sel.Department}, "year": {sel.Year}}.Encode()
}

// Get returns the cached payload. A miss is not an error.
func (c *PayloadCache) Get(ctx context.Context, sel domain.Selection) (domain.Payload, bool, error) {
	raw, err := c.client.Get(ctx, Key(sel)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Payload{}, false, nil
	}
	if err != nil {
		return domain.Payload{}, false, fmt.Errorf("redis get: %w", err)
	}

	var payload domain.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.Payload{}, false, fmt.Errorf("decode cached payload: %w", err)
	}
	return payload, true, nil
}

// Set stores payload for sel.
func (c *PayloadCache) Set(ctx context.Context, sel domain.Selection, payload domain.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := c.client.Set(ctx, Key(sel), string(raw), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
