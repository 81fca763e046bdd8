package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] counter, ARGV[1] limit, ARGV[2] window in ms.
// Returns {allowed, count, ttl_ms}.
var allowScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if count >= limit then
	return {0, count, redis.call("PTTL", KEYS[1])}
end
count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, count, redis.call("PTTL", KEYS[1])}
`)

// Redis is a Limiter shared by every instance pointing at the same Redis.
type Redis struct {
	client redis.Scripter
	prefix string
}

// NewRedis returns a Redis limiter. Keys are stored under prefix.
func NewRedis(client redis.Scripter, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Allow runs the check and increment as one script so concurrent callers
// cannot both take the last slot.
func (r *Redis) Allow(ctx context.Context, key string, p Policy) (Decision, error) {
	if !p.valid() {
		return Decision{}, ErrInvalidPolicy
	}

	res, err := allowScript.Run(ctx, r.client, []string{r.prefix + key}, p.Limit, p.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}

	return decide(res[1], p.Limit, res[0] == 1, time.Duration(res[2])*time.Millisecond), nil
}
