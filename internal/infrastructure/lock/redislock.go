package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"techhive/internal/shared/logger"
)

// releaseScript deletes the key only when it still holds our token, so an
// expired lease released late cannot kill a lock someone else now holds.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker hands out short leases keyed per subscription so that only one
// worker settles a charge outcome at a time. The TTL bounds how long a
// crashed holder can block others.
type RedisLocker struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisLocker(client *redis.Client, log logger.Interface) *RedisLocker {
	return &RedisLocker{
		client: client,
		logger: log.Named("lock"),
	}
}

// TryLock attempts to take the lease without blocking. When acquired, the
// returned release function is safe to call after the TTL has passed.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The lease may already have expired; release is best effort.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warnw("failed to release lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}
