package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("dispatch lock not acquired")

// Locker guards notification dispatch so one need is handled by one worker at a time.
type Locker interface {
	WithNeedLock(ctx context.Context, needID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisNeedLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisNeedLocker creates a locker that uses a per need Redis key
func NewRedisNeedLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisNeedLocker{
		client: client,
		ttl:    ttl,
	}
}

func needLockKey(needID uuid.UUID) string {
	return fmt.Sprintf("lock:need-dispatch:%s", needID.String())
}

func (l *redisNeedLocker) WithNeedLock(ctx context.Context, needID uuid.UUID, fn func(ctx context.Context) error) error {
	key := needLockKey(needID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisNeedLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release dispatch lock: %w", err)
	}
	return nil
}
