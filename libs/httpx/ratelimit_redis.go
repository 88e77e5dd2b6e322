package httpx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter backed by Redis, shared by every
// replica of the service.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// The script returns the request count in the window and the window's
// remaining lifetime in milliseconds.
var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := redisFixedWindowScript.Run(ctx, rl.rdb, []string{rl.prefix + ":" + key}, rl.window.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected redis script result %v", res)
	}
	count, err := toInt64(res[0])
	if err != nil {
		return Decision{}, err
	}
	ttl, err := toInt64(res[1])
	if err != nil {
		return Decision{}, err
	}
	retry := time.Duration(ttl) * time.Millisecond
	if ttl < 0 {
		retry = rl.window
	}
	if count > int64(rl.limit) {
		return Decision{RetryAfter: retry}, nil
	}
	return Decision{Allowed: true, Remaining: rl.limit - int(count), RetryAfter: retry}, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis value type %T", v)
	}
}
