package window

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"opsgate/internal/ratelimit/models"
)

const (
	DefaultRedisPrefix  = "opsgate:rl:"
	defaultRedisTimeout = 500 * time.Millisecond
)

// checkScript applies the fixed-window rule atomically. A full window is
// reported without incrementing so the stored count never exceeds the limit.
//
// KEYS[1] window key; ARGV[1] limit; ARGV[2] window in ms.
// Returns {allowed (0|1), count, pttl}.
var checkScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= limit then
  return {0, current, redis.call("PTTL", KEYS[1])}
end
current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
return {1, current, ttl}
`)

// RedisStore shares windows across gateway instances.
type RedisStore struct {
	client  redis.Scripter
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTimeout bounds each script call.
func WithTimeout(timeout time.Duration) RedisOption {
	return func(s *RedisStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewRedisStore(client redis.Scripter, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  DefaultRedisPrefix,
		timeout: defaultRedisTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	vals, err := checkScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate window script: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("rate window script: unexpected reply length %d", len(vals))
	}

	allowed, count, ttlMs := vals[0] == 1, int(vals[1]), vals[2]
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}
	now := s.now()
	return models.NewResult(allowed, count, limit, now.Add(time.Duration(ttlMs)*time.Millisecond), now), nil
}
