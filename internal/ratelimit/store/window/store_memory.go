// Package window stores fixed rate windows keyed by client key.
package window

import (
	"context"
	"time"

	"opsgate/internal/ratelimit/models"
	platformsync "opsgate/pkg/platform/sync"
)

// entry is the state of one client's current window.
type entry struct {
	count   int
	resetAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.resetAt)
}

// InMemoryStore keeps windows in a sharded map. Every read-modify-write of a
// key happens under that key's shard lock.
type InMemoryStore struct {
	windows *platformsync.ShardedMap[entry]
	now     func() time.Time
}

type MemoryOption func(*InMemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		windows: platformsync.NewShardedMap[entry](),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check admits the request if the key's window has room and counts it.
// A rejected request does not increment the count. An expired window is
// replaced on access.
func (s *InMemoryStore) Check(_ context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	var result *models.RateLimitResult

	s.windows.Update(key, func(cur entry, ok bool) (entry, bool) {
		if !ok || cur.expired(now) {
			next := entry{count: 1, resetAt: now.Add(window)}
			result = models.NewResult(true, next.count, limit, next.resetAt, now)
			return next, true
		}
		if cur.count < limit {
			cur.count++
			result = models.NewResult(true, cur.count, limit, cur.resetAt, now)
			return cur, true
		}
		result = models.NewResult(false, cur.count, limit, cur.resetAt, now)
		return cur, true
	})

	return result, nil
}

// Count returns the live count for key, zero when absent or expired.
func (s *InMemoryStore) Count(key string) int {
	e, ok := s.windows.Get(key)
	if !ok || e.expired(s.now()) {
		return 0
	}
	return e.count
}

// Sweep removes windows that have expired at now and returns how many.
func (s *InMemoryStore) Sweep(now time.Time) int {
	return s.windows.Sweep(func(_ string, e entry) bool {
		return e.expired(now)
	})
}

// Len returns the number of stored windows, expired or not.
func (s *InMemoryStore) Len() int {
	return s.windows.Len()
}
