package cache

import (
	"context"
	"time"
)

// Cache stores values for a bounded time. A miss is reported through the
// boolean, never as an error.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
}

// Clock lets callers control expiry in tests.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}
