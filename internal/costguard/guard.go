// Package costguard decides whether chargeable work fits under a spend
// ceiling.
//
// Two checks exist with opposite outage policies. The daily operational check
// admits traffic when telemetry cannot be read; the test budget check refuses
// the self-test routine in the same situation.
package costguard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"opsgate/internal/platform/metrics"
	"opsgate/internal/telemetry/models"
	dErrors "opsgate/pkg/domain-errors"
)

const DefaultTestTimeout = 5 * time.Second

type Kind string

const (
	KindDailyOperational Kind = "daily_operational"
	KindTestBudget       Kind = "test_budget"
)

type Reason string

const (
	ReasonWithinBudget         Reason = "within_budget"
	ReasonDailyBudgetExceeded  Reason = "daily_budget_exceeded"
	ReasonTestBudgetExceeded   Reason = "test_budget_exceeded"
	ReasonTelemetryUnavailable Reason = "telemetry_unavailable"
	ReasonTelemetryTimeout     Reason = "telemetry_timeout"
	ReasonUnknownKind          Reason = "unknown_budget_kind"
)

// Result is computed per check and never cached. FailSafe is set when the
// decision came from the outage policy rather than from a spend total.
type Result struct {
	Kind      Kind    `json:"kind"`
	Allowed   bool    `json:"allowed"`
	Reason    Reason  `json:"reason"`
	CostToday float64 `json:"cost_today"`
	MaxBudget float64 `json:"max_budget_usd"`
	FailSafe  bool    `json:"fail_safe"`
}

// Aggregator is the subset of telemetry.Aggregator the guard reads.
type Aggregator interface {
	FetchAggregate(ctx context.Context, w models.Window) (*models.Aggregate, error)
	FetchTaggedTotal(ctx context.Context, tag models.Tag) (*models.Aggregate, error)
}

type Guard struct {
	telemetry   Aggregator
	dailyMax    float64
	testMax     float64
	testTimeout time.Duration
	testTag     models.Tag
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Guard)

// WithTestTimeout bounds the test budget query. Default is 5s.
func WithTestTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.testTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func New(telemetry Aggregator, dailyMaxUSD, testMaxUSD float64, opts ...Option) *Guard {
	g := &Guard{
		telemetry:   telemetry,
		dailyMax:    dailyMaxUSD,
		testMax:     testMaxUSD,
		testTimeout: DefaultTestTimeout,
		testTag:     models.TagTestRuns,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckBudget runs the check named by kind. It never returns an error: every
// telemetry failure is folded into the result according to the kind's policy.
func (g *Guard) CheckBudget(ctx context.Context, kind Kind) Result {
	switch kind {
	case KindDailyOperational:
		return g.checkDaily(ctx)
	case KindTestBudget:
		return g.checkTest(ctx)
	default:
		return Result{Kind: kind, Reason: ReasonUnknownKind}
	}
}

func (g *Guard) checkDaily(ctx context.Context) Result {
	res := Result{Kind: KindDailyOperational, MaxBudget: g.dailyMax}

	agg, err := g.telemetry.FetchAggregate(ctx, models.WindowToday)
	if err != nil {
		g.logger.WarnContext(ctx, "daily budget check failing open", "error", err)
		g.metrics.IncrementFailSafe(string(KindDailyOperational))
		res.Allowed = true
		res.FailSafe = true
		res.Reason = ReasonTelemetryUnavailable
		return res
	}

	res.CostToday = agg.TotalUSD
	if agg.TotalUSD >= g.dailyMax {
		res.Reason = ReasonDailyBudgetExceeded
		return res
	}
	res.Allowed = true
	res.Reason = ReasonWithinBudget
	return res
}

func (g *Guard) checkTest(ctx context.Context) Result {
	res := Result{Kind: KindTestBudget, MaxBudget: g.testMax}

	ctx, cancel := context.WithTimeout(ctx, g.testTimeout)
	defer cancel()

	agg, err := g.telemetry.FetchTaggedTotal(ctx, g.testTag)
	if err != nil {
		g.logger.WarnContext(ctx, "test budget check failing closed", "error", err)
		g.metrics.IncrementFailSafe(string(KindTestBudget))
		res.FailSafe = true
		res.Reason = ReasonTelemetryUnavailable
		if isTimeout(err) {
			res.Reason = ReasonTelemetryTimeout
		}
		return res
	}

	res.CostToday = agg.TotalUSD
	if agg.TotalUSD >= g.testMax {
		res.Reason = ReasonTestBudgetExceeded
		return res
	}
	res.Allowed = true
	res.Reason = ReasonWithinBudget
	return res
}

func isTimeout(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeBackendTimeout) || errors.Is(err, context.DeadlineExceeded)
}
