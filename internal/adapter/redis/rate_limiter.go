package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// slidingWindow trims entries older than the window, then records the new
// attempt only if the remaining count is under the limit.
// KEYS[1] key; ARGV now_ms, window_ms, limit, member.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

type slidingWindowLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) repository.RateLimiter {
	return &slidingWindowLimiter{client: client, now: time.Now}
}

func (l *slidingWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	nowMs := l.now().UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := slidingWindow.Run(ctx, l.client,
		[]string{rateLimitKeyPrefix + key},
		nowMs, window.Milliseconds(), limit, member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script failed for %s: %w", key, err)
	}
	return res == 1, nil
}
