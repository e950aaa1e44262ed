package cleanup

import (
	"context"
	"log/slog"
	"time"

	"opsgate/internal/platform/metrics"
)

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	Removed   int           // Expired windows deleted
	Remaining int           // Windows left after the sweep
	Duration  time.Duration // Time taken for cleanup run
}

// WindowStore is satisfied by window.InMemoryStore.
type WindowStore interface {
	Sweep(now time.Time) int
	Len() int
}

type Option func(*WindowCleanupService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *WindowCleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *WindowCleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *WindowCleanupService) {
		s.metrics = m
	}
}

// WindowCleanupService periodically drops expired rate windows so keys that
// are never seen again do not accumulate.
type WindowCleanupService struct {
	store    WindowStore
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(store WindowStore, opts ...Option) *WindowCleanupService {
	service := &WindowCleanupService{
		store:    store,
		logger:   slog.Default(),
		interval: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *WindowCleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res := s.RunOnce(ctx)
			s.logger.Debug("rate_window_cleanup_completed",
				"removed", res.Removed,
				"remaining", res.Remaining,
				"duration_ms", res.Duration.Milliseconds(),
			)
		case <-ctx.Done():
			s.logger.Info("rate window cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep.
func (s *WindowCleanupService) RunOnce(_ context.Context) *CleanupResult {
	started := time.Now()
	removed := s.store.Sweep(s.now())
	res := &CleanupResult{
		Removed:   removed,
		Remaining: s.store.Len(),
		Duration:  time.Since(started),
	}

	s.metrics.ObserveCleanup("success", res.Removed, res.Duration)
	s.metrics.SetRateLimitEntries(res.Remaining)
	return res
}
