package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardKeyTTL = 24 * time.Hour

// RedisAdapter implements the transition idempotency guard with SET NX. A
// key marks one (order, oldStatus, newStatus) transition as already applied;
// Release frees it so a failed adjustment can be retried.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Acquire(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, key, 1, guardKeyTTL).Result()
}

func (r *RedisAdapter) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
