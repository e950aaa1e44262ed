package window

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	now   time.Time
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore(WithClock(func() time.Time { return s.now }))
}

func (s *InMemoryStoreSuite) check(key string, limit int) bool {
	res, err := s.store.Check(context.Background(), key, limit, time.Minute)
	s.Require().NoError(err)
	return res.Allowed
}

func (s *InMemoryStoreSuite) TestFirstRequestOpensWindow() {
	res, err := s.store.Check(context.Background(), "k", 3, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(2, res.Remaining)
	s.Equal(s.now.Add(time.Minute), res.ResetAt)
	s.Equal(1, s.store.Count("k"))
}

func (s *InMemoryStoreSuite) TestRejectsAtLimitWithoutIncrementing() {
	for range 3 {
		s.True(s.check("k", 3))
	}

	res, err := s.store.Check(context.Background(), "k", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Zero(res.Remaining)
	s.Equal(60, res.RetryAfter)
	s.Equal(3, s.store.Count("k"))

	s.False(s.check("k", 3))
	s.Equal(3, s.store.Count("k"))
}

func (s *InMemoryStoreSuite) TestWindowResetsAtBoundary() {
	for range 3 {
		s.check("k", 3)
	}
	s.False(s.check("k", 3))

	s.now = s.now.Add(time.Minute - time.Nanosecond)
	s.False(s.check("k", 3), "window still open")

	s.now = s.now.Add(time.Nanosecond)
	s.True(s.check("k", 3), "window elapsed exactly at resetAt")
	s.Equal(1, s.store.Count("k"))
}

func (s *InMemoryStoreSuite) TestKeysAreIndependent() {
	s.True(s.check("a", 1))
	s.False(s.check("a", 1))
	s.True(s.check("b", 1))
}

func (s *InMemoryStoreSuite) TestSweepRemovesOnlyExpired() {
	s.check("old", 5)
	s.now = s.now.Add(30 * time.Second)
	s.check("new", 5)

	removed := s.store.Sweep(s.now.Add(30 * time.Second))
	s.Equal(1, removed)
	s.Equal(1, s.store.Len())
	s.Zero(s.store.Count("old"))
	s.Equal(1, s.store.Count("new"))
}

func (s *InMemoryStoreSuite) TestConcurrentAdmissionsNeverExceedLimit() {
	store := NewInMemoryStore()
	const limit = 25

	res := testutil.RunConcurrent(200, func(int) error {
		r, err := store.Check(context.Background(), "ip:203.0.113.7:/api/agents", limit, time.Minute)
		if err != nil {
			return err
		}
		if !r.Allowed {
			return dErrors.New(dErrors.CodeRateLimitExceeded, "limited")
		}
		return nil
	})

	s.Equal(int32(limit), res.Successes)
	s.Equal(int32(200-limit), res.Rejected)
	s.Zero(res.Errors)
	s.Equal(limit, store.Count("ip:203.0.113.7:/api/agents"))
}
