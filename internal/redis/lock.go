package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("session lock not acquired")
)

// Locker serialises work per session: while fn runs for a session, a second
// caller for the same session gets ErrLockNotAcquired.
type Locker interface {
	WithSessionLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error
}

type redisSessionLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionLocker creates a locker that uses a per session Redis key
func NewRedisSessionLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisSessionLocker{
		client: client,
		ttl:    ttl,
	}
}

func lockKey(sessionID string) string {
	return fmt.Sprintf("lock:session:%s", sessionID)
}

func (l *redisSessionLocker) WithSessionLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	key := lockKey(sessionID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		// Release even when ctx was cancelled mid-call.
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

func (l *redisSessionLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release session lock: %w", err)
	}
	return nil
}
