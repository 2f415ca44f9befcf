package cache

import (
	"context"
	"time"
)

// Cache is a read-through JSON cache. Misses and decode failures are not
// errors; callers fall back to the source of truth.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
