package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultRedisPrefix namespaces limiter keys.
const DefaultRedisPrefix = "authcore:ratelimit:"

// recordAttempt trims attempts older than the window from a sorted set
// scored in microseconds, then adds the current one unless the set is full.
// It returns 1 when the attempt was recorded.
var recordAttempt = redis.NewScript(`
local since, now, limit, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', since)
if redis.call('ZCARD', KEYS[1]) >= limit then
	return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[5])
redis.call('PEXPIRE', KEYS[1], ttl)
return 1
`)

// RedisLimiter is a sliding window limiter whose state lives in Redis, so
// every replica of a service shares one budget per key.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	rate   int
	window time.Duration
	now    func() time.Time
}

// RedisConfig configures a RedisLimiter.
type RedisConfig struct {
	// Client is required. The limiter never closes it.
	Client redis.Cmdable

	// KeyPrefix defaults to DefaultRedisPrefix.
	KeyPrefix string

	// Rate is the number of attempts allowed per window. Defaults to
	// DefaultRate.
	Rate int

	// Window defaults to DefaultWindow.
	Window time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRedisLimiter creates a RedisLimiter.
func NewRedisLimiter(cfg *RedisConfig) *RedisLimiter {
	l := &RedisLimiter{
		client: cfg.Client,
		prefix: cfg.KeyPrefix,
		rate:   cfg.Rate,
		window: cfg.Window,
		now:    cfg.Now,
	}
	l.rate, l.window = normalize(l.rate, l.window)
	if l.prefix == "" {
		l.prefix = DefaultRedisPrefix
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

func (r *RedisLimiter) key(k string) string { return r.prefix + k }

// windowStart is the oldest score still inside the window.
func (r *RedisLimiter) windowStart(now time.Time) int64 {
	return now.Add(-r.window).UnixMicro()
}

// Allow records an attempt for key and reports whether it fits the window.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now()
	recorded, err := recordAttempt.Run(ctx, r.client, []string{r.key(key)},
		r.windowStart(now),
		now.UnixMicro(),
		r.rate,
		r.window.Milliseconds(),
		strconv.FormatInt(now.UnixNano(), 10),
	).Int()
	if err != nil {
		return false, oops.With("operation", "ratelimit_allow").Wrap(err)
	}
	return recorded == 1, nil
}

// Reset forgets every attempt recorded for key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return oops.With("operation", "ratelimit_reset").Wrap(err)
	}
	return nil
}

// Remaining reports how many attempts key has left in the current window.
func (r *RedisLimiter) Remaining(ctx context.Context, key string) (int, error) {
	k := r.key(key)
	since := strconv.FormatInt(r.windowStart(r.now()), 10)

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", since)
		card = pipe.ZCard(ctx, k)
		return nil
	})
	if err != nil {
		return 0, oops.With("operation", "ratelimit_remaining").Wrap(err)
	}
	return max(r.rate-int(card.Val()), 0), nil
}

// Close does nothing. The caller owns the client.
func (r *RedisLimiter) Close() error { return nil }

var _ Limiter = (*RedisLimiter)(nil)
