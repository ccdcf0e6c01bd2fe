package dealock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the caller still owns it, so
// a lock that expired and was re-acquired by another instance is never
// released by the stale holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker for multi-instance deployments, backed by a
// Redis SET NX lease with a TTL safety bound.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a distributed per-deal locker. The TTL bounds how
// long a crashed holder can block a deal; it should comfortably exceed the
// longest turn (including the phrasing-stage timeout).
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

// Acquire polls SET NX until the lock is held or ctx is done.
func (r *RedisLocker) Acquire(ctx context.Context, dealID string) (func(), error) {
	key := "dealock:" + dealID
	token := uuid.New().String()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("dealock: acquire %s: %w", dealID, err)
		}
		if ok {
			return func() {
				// Best-effort: an expired lease is already gone.
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = releaseScript.Run(relCtx, r.client, []string{key}, token).Result()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
