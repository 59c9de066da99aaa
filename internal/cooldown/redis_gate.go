package cooldown

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "cooldown:"

// RedisGate shares cooldowns between server processes. Redis key expiry
// replaces the sweeper.
type RedisGate struct {
	client redis.Cmdable
	window time.Duration
}

func NewRedisGate(client redis.Cmdable, window time.Duration) *RedisGate {
	return &RedisGate{client: client, window: window}
}

func redisKey(userID uint64) string {
	return redisKeyPrefix + strconv.FormatUint(userID, 10)
}

func (g *RedisGate) IsCoolingDown(ctx context.Context, userID uint64) (bool, error) {
	n, err := g.client.Exists(ctx, redisKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	return n > 0, nil
}

func (g *RedisGate) SetCooldown(ctx context.Context, userID uint64) error {
	if g.window <= 0 {
		return nil
	}
	if err := g.client.Set(ctx, redisKey(userID), 1, g.window).Err(); err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}

// Allow admits the caller only if it created the key (SET NX), which Redis
// does atomically for all processes.
func (g *RedisGate) Allow(ctx context.Context, userID uint64) (bool, error) {
	// a zero TTL would never expire
	if g.window <= 0 {
		return true, nil
	}
	ok, err := g.client.SetNX(ctx, redisKey(userID), 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to admit user %d: %w", userID, err)
	}
	return ok, nil
}
