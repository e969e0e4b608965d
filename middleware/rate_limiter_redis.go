package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisLimiter is a sliding-window limiter backed by Redis sorted sets, for
// deployments where several instances must share one counter table.
type RedisLimiter struct {
	rdb          *redis.Client
	maxPerMinute int
	maxPerHour   int
	prefix       string
}

// Purge, count and record for both windows run atomically in one script.
// Returns 0 allowed, 1 minute cap hit, 2 hour cap hit.
var slidingWindowScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], 0, ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[2], 0, ARGV[3])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[4]) then
  return 1
end
if redis.call("ZCARD", KEYS[2]) >= tonumber(ARGV[5]) then
  return 2
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[6])
redis.call("ZADD", KEYS[2], ARGV[1], ARGV[6])
redis.call("PEXPIRE", KEYS[1], 60000)
redis.call("PEXPIRE", KEYS[2], 3600000)
return 0
`)

func NewRedisLimiter(rdb *redis.Client, maxPerMinute, maxPerHour int) *RedisLimiter {
	return &RedisLimiter{
		rdb:          rdb,
		maxPerMinute: maxPerMinute,
		maxPerHour:   maxPerHour,
		prefix:       "ratelimit",
	}
}

func (l *RedisLimiter) Admit(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, l.rdb,
		[]string{l.minuteKey(key), l.hourKey(key)},
		now.UnixMicro(),
		now.Add(-minuteWindow).UnixMicro(),
		now.Add(-hourWindow).UnixMicro(),
		l.maxPerMinute,
		l.maxPerHour,
		member,
	).Int64()
	if err != nil {
		return Decision{}, err
	}

	switch res {
	case 1:
		return Decision{Reason: fmt.Sprintf("Rate limit exceeded: %d requests per minute", l.maxPerMinute)}, nil
	case 2:
		return Decision{Reason: fmt.Sprintf("Rate limit exceeded: %d requests per hour", l.maxPerHour)}, nil
	}
	return Decision{Allowed: true}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.minuteKey(key), l.hourKey(key)).Err()
}

func (l *RedisLimiter) ResetAll(ctx context.Context) error {
	iter := l.rdb.Scan(ctx, 0, l.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := l.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (l *RedisLimiter) minuteKey(key string) string {
	return l.prefix + ":m:" + key
}

func (l *RedisLimiter) hourKey(key string) string {
	return l.prefix + ":h:" + key
}
