package repository

import (
	"context"
	"fmt"
	"time"

	appterrors "clinicflow/internal/appointments/errors"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still belongs to the caller,
// so an expired-and-reacquired lock is never released by its old owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisSlotLocker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSlotLocker(rdb *redis.Client, prefix string) SlotLocker {
	if prefix == "" {
		prefix = "clinicflow"
	}
	return &redisSlotLocker{rdb: rdb, prefix: prefix}
}

func (l *redisSlotLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	ok, err := l.rdb.SetNX(ctx, l.prefix+":"+key, owner, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	if !ok {
		return appterrors.ErrLockHeld
	}
	return nil
}

func (l *redisSlotLocker) Release(ctx context.Context, key, owner string) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
