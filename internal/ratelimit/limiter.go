// Package ratelimit admits at most a fixed number of requests per client key
// within a fixed window.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"opsgate/internal/platform/metrics"
	"opsgate/internal/ratelimit/models"
	dErrors "opsgate/pkg/domain-errors"
)

// Store applies the fixed-window rule for one key.
type Store interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Limiter checks a primary store and, if configured, answers from a fallback
// store when the primary fails.
type Limiter struct {
	primary  Store
	fallback Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Limiter)

// WithFallback answers from store whenever the primary returns an error.
func WithFallback(store Store) Option {
	return func(l *Limiter) {
		l.fallback = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func New(primary Store, opts ...Option) *Limiter {
	l := &Limiter{
		primary: primary,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for clientKey against limit per window.
func (l *Limiter) Check(ctx context.Context, clientKey string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if limit <= 0 || window <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate limit and window must be positive")
	}

	res, err := l.primary.Check(ctx, clientKey, limit, window)
	if err == nil {
		return res, nil
	}
	if l.fallback == nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rate window store failed")
	}

	l.logger.WarnContext(ctx, "rate window store failed, using fallback", "error", err)
	l.metrics.IncrementRateLimitFallback()
	return l.fallback.Check(ctx, clientKey, limit, window)
}
