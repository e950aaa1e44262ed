package certs

import (
	"context"
	"log/slog"
	"time"
)

// Refresher keeps the cache warm so request paths rarely block on a fetch.
type Refresher struct {
	cache    *Cache
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher refreshes every interval, defaulting to half the cache TTL.
func NewRefresher(cache *Cache, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = cache.ttl / 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{cache: cache, interval: interval, logger: logger}
}

// Start loads the key set immediately, then refreshes on every tick until
// ctx is cancelled. A failed load is logged and retried on the next tick.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.RunOnce(ctx); err != nil {
		r.logger.WarnContext(ctx, "initial signer key load failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.WarnContext(ctx, "signer key refresh failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single refresh.
func (r *Refresher) RunOnce(ctx context.Context) error {
	_, err := r.cache.Refresh(ctx)
	return err
}
