// Package killswitch holds the process-wide switch operators use to stop
// sensitive operations.
package killswitch

import (
	"context"
	"sync/atomic"

	"opsgate/internal/platform/metrics"
	"opsgate/pkg/platform/audit"
)

// Switch is safe for concurrent use. Last write wins.
type Switch struct {
	enabled atomic.Bool
	audit   *audit.Logger
	metrics *metrics.Metrics
}

type Option func(*Switch)

// WithAudit records every toggle on the system event log.
func WithAudit(l *audit.Logger) Option {
	return func(s *Switch) {
		s.audit = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Switch) {
		s.metrics = m
	}
}

// New creates a switch in the given initial state.
func New(initial bool, opts ...Option) *Switch {
	s := &Switch{}
	for _, opt := range opts {
		opt(s)
	}
	s.enabled.Store(initial)
	s.metrics.SetKillSwitch(initial)
	return s
}

func (s *Switch) IsEnabled() bool {
	return s.enabled.Load()
}

// SetEnabled changes the state and returns the previous one.
func (s *Switch) SetEnabled(ctx context.Context, enabled bool, actor string) (previous bool) {
	previous = s.enabled.Swap(enabled)
	s.metrics.SetKillSwitch(enabled)
	s.audit.LogAs(ctx, actor, audit.ActionKillSwitchUpdate, audit.StatusOK, map[string]any{
		"enabled":  enabled,
		"previous": previous,
	})
	return previous
}
