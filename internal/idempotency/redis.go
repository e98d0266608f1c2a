package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard backs the Guard interface with Redis SET NX PX, matching
// spec §6's idempotency.backend: external_kv option. SET NX is atomic,
// so CheckAndMark needs no client-side locking even when the client is
// shared across symbol-sharded workers.
type RedisGuard struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisGuard wraps an existing Redis client. keyPrefix namespaces
// idempotency keys away from other uses of the same Redis instance
// (trade sink streams, analytics pub/sub).
func NewRedisGuard(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

func (g *RedisGuard) CheckAndMark(ctx context.Context, id string) (Outcome, error) {
	key := g.keyPrefix + id
	ok, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return Fresh, fmt.Errorf("idempotency guard: redis setnx: %w", err)
	}
	if !ok {
		return Duplicate, nil
	}
	return Fresh, nil
}
