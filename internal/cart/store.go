package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "pos:session:"

// Store persists session state in Redis. Every mutation writes the whole
// State back under one key, refreshing its TTL.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (s Store) key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Load reads a session's state. It reports false when the session does not
// exist (never created, expired, or deleted).
func (s Store) Load(ctx context.Context, sessionID string) (State, bool, error) {
	if s.R == nil {
		return State{}, false, errors.New("cart: redis client not configured")
	}
	data, err := s.R.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("load session: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return state, true, nil
}

// Save writes a session's state, refreshing the TTL.
func (s Store) Save(ctx context.Context, sessionID string, state State) error {
	if s.R == nil {
		return errors.New("cart: redis client not configured")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.R.Set(ctx, s.key(sessionID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a session entirely.
func (s Store) Delete(ctx context.Context, sessionID string) error {
	if s.R == nil {
		return errors.New("cart: redis client not configured")
	}
	return s.R.Del(ctx, s.key(sessionID)).Err()
}
