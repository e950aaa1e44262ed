// Package telemetry answers spend and usage questions from the telemetry
// store, and summarizes the agent event log when the store is unavailable.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"opsgate/internal/platform/metrics"
	"opsgate/internal/platform/tracer"
	"opsgate/internal/telemetry/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/platform/circuit"
)

const (
	DefaultQueryTimeout = 3 * time.Second
	DefaultRecentEvents = 20
)

// Store is the telemetry backend. Sums are returned as text.
type Store interface {
	SumCost(ctx context.Context, w models.Window) (string, error)
	SumTagged(ctx context.Context, tag models.Tag) (string, error)
	DailyUsage(ctx context.Context) (models.DailyUsage, error)
	MostUsedModel(ctx context.Context, w models.Window) (string, error)
	Insert(ctx context.Context, u models.Usage) error
}

// Aggregator runs bounded queries against the store. A nil store is valid:
// every query then fails with CodeTelemetryUnavailable.
type Aggregator struct {
	store        Store
	queryTimeout time.Duration
	eventLogPath string
	recentEvents int
	breaker      *circuit.Breaker
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	now          func() time.Time
}

type Option func(*Aggregator)

func WithQueryTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.queryTimeout = d
		}
	}
}

// WithEventLog sets the agent event log read by BuildFromEventLog and how
// many recent events it returns.
func WithEventLog(path string, recent int) Option {
	return func(a *Aggregator) {
		a.eventLogPath = path
		if recent > 0 {
			a.recentEvents = recent
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(a *Aggregator) {
		if t != nil {
			a.tracer = t
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(a *Aggregator) {
		if b != nil {
			a.breaker = b
		}
	}
}

func New(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:        store,
		queryTimeout: DefaultQueryTimeout,
		recentEvents: DefaultRecentEvents,
		breaker:      circuit.New("telemetry"),
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchAggregate returns total spend over w. A zero total is valid.
func (a *Aggregator) FetchAggregate(ctx context.Context, w models.Window) (*models.Aggregate, error) {
	if !w.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown telemetry window")
	}
	total, err := a.sum(ctx, "cost_"+string(w), func(qctx context.Context) (string, error) {
		return a.store.SumCost(qctx, w)
	})
	if err != nil {
		return nil, err
	}
	return &models.Aggregate{Window: w, TotalUSD: total, ComputedAt: a.now()}, nil
}

// FetchTaggedTotal returns cumulative spend over rows matching tag.
func (a *Aggregator) FetchTaggedTotal(ctx context.Context, tag models.Tag) (*models.Aggregate, error) {
	total, err := a.sum(ctx, "cost_tagged", func(qctx context.Context) (string, error) {
		return a.store.SumTagged(qctx, tag)
	})
	if err != nil {
		return nil, err
	}
	return &models.Aggregate{TotalUSD: total, ComputedAt: a.now()}, nil
}

// FetchLLMMetrics gathers the dashboard summary with concurrent queries. Any
// failed query fails the whole summary.
func (a *Aggregator) FetchLLMMetrics(ctx context.Context) (*models.LLMMetrics, error) {
	out := &models.LLMMetrics{Source: "database"}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		agg, err := a.FetchAggregate(gctx, models.WindowToday)
		if err != nil {
			return err
		}
		out.CostTodayUSD = agg.TotalUSD
		return nil
	})
	g.Go(func() error {
		agg, err := a.FetchAggregate(gctx, models.WindowMonth)
		if err != nil {
			return err
		}
		out.CostMonthUSD = agg.TotalUSD
		return nil
	})
	g.Go(func() error {
		return a.query(gctx, "daily_usage", func(qctx context.Context) error {
			usage, err := a.store.DailyUsage(qctx)
			out.TokensToday, out.RequestsToday = usage.Tokens, usage.Requests
			return err
		})
	})
	g.Go(func() error {
		return a.query(gctx, "most_used_model", func(qctx context.Context) error {
			model, err := a.store.MostUsedModel(qctx, models.WindowToday)
			out.MostUsedModel = model
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.MostUsedModel == "" {
		out.MostUsedModel = "N/A"
	}
	return out, nil
}

// RecordUsage inserts one telemetry row.
func (a *Aggregator) RecordUsage(ctx context.Context, u models.Usage) error {
	if math.IsNaN(u.CostUSD) || math.IsInf(u.CostUSD, 0) {
		return dErrors.New(dErrors.CodeInvalidInput, "usage cost must be finite")
	}
	return a.query(ctx, "insert", func(qctx context.Context) error {
		return a.store.Insert(qctx, u)
	})
}

// Health fails when no store is configured or the store has failed
// repeatedly.
func (a *Aggregator) Health(_ context.Context) error {
	if a.store == nil {
		return errors.New("telemetry store not configured")
	}
	if a.breaker.IsOpen() {
		return errors.New("telemetry store degraded")
	}
	return nil
}

// Configured reports whether a store is attached.
func (a *Aggregator) Configured() bool {
	return a.store != nil
}

func (a *Aggregator) sum(ctx context.Context, name string, fn func(context.Context) (string, error)) (float64, error) {
	var raw string
	err := a.query(ctx, name, func(qctx context.Context) error {
		var err error
		raw, err = fn(qctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	total, err := parseAmount(raw)
	if err != nil {
		a.logger.WarnContext(ctx, "telemetry aggregate unusable", "query", name, "value", raw)
		a.recordFailure()
		return 0, dErrors.Wrap(err, dErrors.CodeTelemetryUnavailable, "telemetry aggregate is not a finite number")
	}
	return total, nil
}

// query runs fn on a context detached from the caller's cancellation and
// bounded by the query timeout or the caller's deadline, whichever is sooner.
// While the breaker is open the store is not called at all.
func (a *Aggregator) query(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	if a.store == nil {
		return dErrors.New(dErrors.CodeTelemetryUnavailable, "telemetry store not configured")
	}
	if !a.breaker.Allow() {
		a.metrics.ObserveTelemetryQuery(name, "short_circuit", 0)
		return dErrors.New(dErrors.CodeTelemetryUnavailable, "telemetry store degraded")
	}

	qctx, cancel := a.detach(ctx)
	defer cancel()

	qctx, span := a.tracer.Start(qctx, "telemetry."+name)
	defer func() { span.End(err) }()

	started := time.Now()
	err = fn(qctx)
	elapsed := time.Since(started)

	if err != nil {
		a.recordFailure()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(qctx.Err(), context.DeadlineExceeded) {
			a.metrics.ObserveTelemetryQuery(name, "timeout", elapsed)
			return dErrors.Wrap(err, dErrors.CodeBackendTimeout, "telemetry query timed out")
		}
		a.metrics.ObserveTelemetryQuery(name, "error", elapsed)
		a.logger.WarnContext(ctx, "telemetry query failed", "query", name, "error", err)
		return dErrors.Wrap(err, dErrors.CodeTelemetryUnavailable, "telemetry store unavailable")
	}

	a.metrics.ObserveTelemetryQuery(name, "success", elapsed)
	if _, change := a.breaker.RecordSuccess(); change.Closed {
		a.metrics.SetTelemetryBreakerOpen(false)
		a.logger.InfoContext(ctx, "telemetry store recovered")
	}
	return nil
}

func (a *Aggregator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := a.queryTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (a *Aggregator) recordFailure() {
	if _, change := a.breaker.RecordFailure(); change.Opened {
		a.metrics.SetTelemetryBreakerOpen(true)
		a.logger.Warn("telemetry store marked degraded", "breaker", a.breaker.Name())
	}
}

func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite aggregate")
	}
	return v, nil
}
