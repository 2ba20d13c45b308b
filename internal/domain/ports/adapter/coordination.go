package adapter

import (
	"context"
	"time"
)

// Locker serializes work on a key across instances. TryLock fails with
// domain.ErrLockBusy when the key is held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter counts hits per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
