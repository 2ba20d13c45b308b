package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"creator-ledger/internal/domain/ports/adapter"
	"creator-ledger/internal/infra/metrics"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// fixedWindow starts the window on the first hit of a key. INCR and PEXPIRE
// run in one script so a counter never outlives its window.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`)

type RateLimiter struct {
	cli *redis.Client
}

func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{cli: c.cli}
}

// Allow counts one hit against key and reports whether it is within limit.
// A non-positive window falls back to one minute.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		window = time.Minute
	}
	n, err := fixedWindow.Run(ctx, r.cli, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	if n > int64(limit) {
		metrics.IncRateLimited(scopeOf(key))
		return false, nil
	}
	return true, nil
}

// scopeOf keeps the metric label bounded: "rate_limit:tip:<user>" -> "tip".
func scopeOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) == 3 {
		return parts[1]
	}
	return parts[0]
}
