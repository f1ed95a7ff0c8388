package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache stores JSON-encoded query views. Concurrent misses for the same key
// share one loader call.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) getString(ctx context.Context, key string) (string, bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return s, true, nil
}

func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T

	s, ok, err := c.getString(ctx, key)
	if err != nil || !ok {
		return out, ok, err
	}

	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, false, fmt.Errorf("decode %s: %w", key, err)
	}

	return out, true, nil
}

func SetJSON(ctx context.Context, c *Cache, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// GetOrSetJSON returns the cached value for key or loads and caches it.
// A failed cache write is ignored; the loaded value is still returned.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
		return v, err
	}

	vAny, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
			return v, err
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		_ = SetJSON(ctx, c, key, v, ttl)

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := vAny.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache %s: unexpected type %T", key, vAny)
	}

	return v, nil
}

// Generation returns the current view generation, 0 if never bumped.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, KeyViewGeneration()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return n, err
}

// InvalidateViews bumps the view generation. Entries cached under older
// generations are never read again and expire with their TTL.
func (c *Cache) InvalidateViews(ctx context.Context) error {
	return c.rdb.Incr(ctx, KeyViewGeneration()).Err()
}

// GetOrSetView caches loader's result under the current generation.
func GetOrSetView[T any](
	ctx context.Context,
	c *Cache,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
	name string,
	parts ...string,
) (T, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	return GetOrSetJSON(ctx, c, KeyView(gen, name, parts...), ttl, loader)
}
