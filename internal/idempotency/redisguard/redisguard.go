// Package redisguard implements the idempotency guard against Redis using
// SET NX EX, for non-AWS deployments.
package redisguard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard is a Redis-backed idempotency.Guard.
type Guard struct {
	Client *redis.Client
	Prefix string
}

func (g *Guard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullKey := g.Prefix + key
	ok, err := g.Client.SetNX(ctx, fullKey, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
