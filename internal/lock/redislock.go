// Package lock provides a Redis-backed distributed lock. Exports take one
// per session so two bills for the same counter can never render at once,
// even with the API and the worker in separate processes.
package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned by Acquire when the lock is already taken.
var ErrHeld = errors.New("lock: already held")

// Locker hands out token-fenced locks. The token travels with whoever owns
// the lock, so release can happen in a different process than acquire.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// Acquire takes the lock or fails immediately with ErrHeld. The returned
// token must be presented to Release.
func (l Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.R == nil {
		return "", errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrHeld
	}
	return token, nil
}

// Release frees the lock if token still owns it. A lock that expired and
// was re-acquired by someone else is left alone.
func (l Locker) Release(ctx context.Context, key, token string) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	err := l.R.Eval(ctx, script, []string{key}, token).Err()
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unknown command") {
		return l.R.Del(ctx, key).Err()
	}
	return err
}

// WithLock runs fn while holding the lock, retrying acquisition until the
// context is cancelled. The lock is released even when fn fails.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	for {
		token, err := l.Acquire(ctx, key, ttl)
		if err == nil {
			defer func() { _ = l.Release(context.Background(), key, token) }()
			return fn(ctx)
		}
		if !errors.Is(err, ErrHeld) {
			return err
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
