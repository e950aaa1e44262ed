package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// Key collisions would let one client spend another client's window.

type KeySecuritySuite struct {
	suite.Suite
}

func TestKeySecuritySuite(t *testing.T) {
	suite.Run(t, new(KeySecuritySuite))
}

func (s *KeySecuritySuite) TestClientKeyFormat() {
	s.Equal("ip:203.0.113.9:/api/agents", NewClientKey("203.0.113.9", "/api/agents"))
	s.Equal("ip:unknown:/api/agents", NewClientKey("", "/api/agents"))
	s.Equal("route:203.0.113.9:/api/system/run-tests", NewRouteKey("203.0.113.9", "/api/system/run-tests"))
}

func (s *KeySecuritySuite) TestRouteKeyDoesNotShareGlobalWindow() {
	s.NotEqual(NewClientKey("10.0.0.1", "/api/system/run-tests"), NewRouteKey("10.0.0.1", "/api/system/run-tests"))
}

func (s *KeySecuritySuite) TestKeyCollisionAttack() {
	s.Run("colons in an IPv6 address are escaped", func() {
		key := NewClientKey("2001:db8::1", "/api/system")
		s.Equal("ip:2001_cdb8_c_c1:/api/system", key)
	})

	s.Run("delimiter in path cannot shift segments", func() {
		a := NewClientKey("10.0.0.1:x", "/p")
		b := NewClientKey("10.0.0.1", "x:/p")
		s.NotEqual(a, b)
	})

	s.Run("escape character is itself escaped", func() {
		a := NewClientKey("a_c", "/p")
		b := NewClientKey("a:", "/p")
		s.NotEqual(a, b)
	})
}

func (s *KeySecuritySuite) TestNewResult() {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Run("allowed result has no retry", func() {
		res := NewResult(true, 3, 5, now.Add(time.Minute), now)
		s.True(res.Allowed)
		s.Equal(2, res.Remaining)
		s.Zero(res.RetryAfter)
	})

	s.Run("rejected result rounds retry up", func() {
		res := NewResult(false, 5, 5, now.Add(1500*time.Millisecond), now)
		s.False(res.Allowed)
		s.Zero(res.Remaining)
		s.Equal(2, res.RetryAfter)
	})
}
