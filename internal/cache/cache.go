package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSON wraps Redis helpers for JSON payloads with a fixed TTL.
type JSON struct {
	Client *redis.Client
	TTL    time.Duration
}

// Get unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c JSON) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.Client == nil || key == "" {
		return false, nil
	}
	data, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set serialises v as JSON and stores it with the configured TTL.
func (c JSON) Set(ctx context.Context, key string, v any) error {
	if c.Client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, data, c.TTL).Err()
}

// Delete removes cached keys, ignoring missing ones.
func (c JSON) Delete(ctx context.Context, keys ...string) error {
	if c.Client == nil || len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
