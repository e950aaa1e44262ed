package certs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"opsgate/internal/platform/metrics"
	"opsgate/internal/platform/tracer"
)

const (
	DefaultTTL          = time.Hour
	DefaultFetchTimeout = 10 * time.Second
	DefaultRetryBackoff = 30 * time.Second

	fetchKey = "signer-keys"
)

// Cache serves the current key set snapshot, refetching when it is older
// than the TTL. A failed refetch keeps serving the previous snapshot, and
// further refetches from Get wait out the retry backoff.
type Cache struct {
	fetcher      Fetcher
	ttl          time.Duration
	fetchTimeout time.Duration
	retryBackoff time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	now          func() time.Time

	snapshot    atomic.Pointer[KeySet]
	lastFailure atomic.Int64 // unix nanos of the last failed fetch, 0 after a success
	group       singleflight.Group
}

// Option configures the Cache.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		if timeout > 0 {
			c.fetchTimeout = timeout
		}
	}
}

// WithRetryBackoff sets how long Get serves a stale snapshot after a failed
// fetch before trying again.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Cache) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:      fetcher,
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
		retryBackoff: DefaultRetryBackoff,
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a key set no older than the TTL when possible.
//
// On fetch failure with a previous snapshot present, the stale snapshot is
// returned together with an error wrapping ErrRefreshFailed; callers may use
// the snapshot. With no snapshot only the error is returned. Within the retry
// backoff of a failed fetch the stale snapshot is returned without fetching.
func (c *Cache) Get(ctx context.Context) (*KeySet, error) {
	ks := c.snapshot.Load()
	if ks == nil {
		return c.Refresh(ctx)
	}
	now := c.now()
	if now.Sub(ks.FetchedAt) < c.ttl {
		return ks, nil
	}
	if failed := c.lastFailure.Load(); failed != 0 && now.Sub(time.Unix(0, failed)) < c.retryBackoff {
		return ks, fmt.Errorf("%w: retry deferred after recent failure", ErrRefreshFailed)
	}
	return c.Refresh(ctx)
}

// Refresh fetches a new key set regardless of the current snapshot's age.
func (c *Cache) Refresh(ctx context.Context) (*KeySet, error) {
	// The fetch outlives the caller so an abandoned request still fills the cache.
	ch := c.group.DoChan(fetchKey, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx))
	})

	var err error
	select {
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(*KeySet), nil
		}
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}

	wrapped := fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	if stale := c.snapshot.Load(); stale != nil {
		return stale, wrapped
	}
	return nil, wrapped
}

// Snapshot returns the current snapshot without fetching. It may be nil.
func (c *Cache) Snapshot() *KeySet {
	return c.snapshot.Load()
}

// Health reports whether a key set has been loaded.
func (c *Cache) Health(_ context.Context) error {
	ks := c.snapshot.Load()
	if ks == nil {
		return errors.New("signer keys not loaded")
	}
	return nil
}

func (c *Cache) fetch(ctx context.Context) (ks *KeySet, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "certs.fetch")
	defer func() { span.End(err) }()

	started := c.now()
	raw, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.lastFailure.Store(c.now().UnixNano())
		c.metrics.ObserveSignerKeysRefresh("failure", -1)
		c.logger.WarnContext(ctx, "signer key fetch failed",
			"error", err,
			"has_snapshot", c.snapshot.Load() != nil,
		)
		return nil, err
	}

	keys, skipped := parseKeys(raw)
	if len(skipped) > 0 {
		c.logger.WarnContext(ctx, "skipped unparseable signer keys", "kids", skipped)
	}
	span.SetAttributes(tracer.Int("keys", len(keys)), tracer.Int("skipped", len(skipped)))
	if len(keys) == 0 {
		c.lastFailure.Store(c.now().UnixNano())
		c.metrics.ObserveSignerKeysRefresh("failure", -1)
		return nil, ErrNoUsableKeys
	}

	ks = &KeySet{Keys: keys, FetchedAt: c.now()}
	c.snapshot.Store(ks)
	c.lastFailure.Store(0)
	c.metrics.ObserveSignerKeysRefresh("success", len(keys))
	c.logger.DebugContext(ctx, "signer keys refreshed",
		"keys", len(keys),
		"duration_ms", c.now().Sub(started).Milliseconds(),
	)
	return ks, nil
}
