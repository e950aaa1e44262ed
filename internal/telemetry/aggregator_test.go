package telemetry

//go:generate mockgen -source=aggregator.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"opsgate/internal/platform/metrics"
	"opsgate/internal/telemetry/mocks"
	"opsgate/internal/telemetry/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/platform/circuit"
)

type AggregatorSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	metrics *metrics.Metrics
	agg     *Aggregator
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.agg = New(s.store,
		WithQueryTimeout(50*time.Millisecond),
		WithMetrics(s.metrics),
		WithBreaker(circuit.New("telemetry", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))),
	)
}

func (s *AggregatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AggregatorSuite) TestFetchAggregate() {
	s.Run("sums the window", func() {
		s.store.EXPECT().SumCost(gomock.Any(), models.WindowToday).Return("0.42000000", nil)

		agg, err := s.agg.FetchAggregate(context.Background(), models.WindowToday)
		s.Require().NoError(err)
		s.InDelta(0.42, agg.TotalUSD, 1e-9)
		s.Equal(models.WindowToday, agg.Window)
	})

	s.Run("zero is a valid total", func() {
		s.store.EXPECT().SumCost(gomock.Any(), models.WindowMonth).Return("0", nil)

		agg, err := s.agg.FetchAggregate(context.Background(), models.WindowMonth)
		s.Require().NoError(err)
		s.Zero(agg.TotalUSD)
	})

	s.Run("unknown window", func() {
		_, err := s.agg.FetchAggregate(context.Background(), models.Window("year"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *AggregatorSuite) TestNonFiniteAggregatesAreUnavailable() {
	for _, raw := range []string{"NaN", "Infinity", "-Infinity", "", "twelve"} {
		s.Run(raw, func() {
			s.store.EXPECT().SumCost(gomock.Any(), models.WindowToday).Return(raw, nil)

			// Fresh breaker per value so earlier failures do not short-circuit.
			agg, err := New(s.store, WithMetrics(s.metrics)).FetchAggregate(context.Background(), models.WindowToday)
			s.Nil(agg)
			s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable), "got %v", err)
		})
	}
}

func (s *AggregatorSuite) TestStoreErrorIsUnavailable() {
	s.store.EXPECT().SumTagged(gomock.Any(), models.TagTestRuns).Return("", errors.New("connection refused"))

	_, err := s.agg.FetchTaggedTotal(context.Background(), models.TagTestRuns)
	s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.TelemetryQueriesTotal.WithLabelValues("cost_tagged", "error")))
}

func (s *AggregatorSuite) TestQueryTimeoutIsBackendTimeout() {
	s.store.EXPECT().SumCost(gomock.Any(), models.WindowToday).DoAndReturn(
		func(ctx context.Context, _ models.Window) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	_, err := s.agg.FetchAggregate(context.Background(), models.WindowToday)
	s.True(dErrors.HasCode(err, dErrors.CodeBackendTimeout), "got %v", err)
}

func (s *AggregatorSuite) TestQueryIgnoresCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.store.EXPECT().SumCost(gomock.Any(), models.WindowToday).DoAndReturn(
		func(qctx context.Context, _ models.Window) (string, error) {
			if qctx.Err() != nil {
				return "", qctx.Err()
			}
			if _, ok := qctx.Deadline(); !ok {
				return "", errors.New("query has no deadline")
			}
			return "1.5", nil
		})

	agg, err := s.agg.FetchAggregate(ctx, models.WindowToday)
	s.Require().NoError(err)
	s.InDelta(1.5, agg.TotalUSD, 1e-9)
}

func (s *AggregatorSuite) TestQueryHonoursShorterCallerDeadline() {
	agg := New(s.store, WithQueryTimeout(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s.store.EXPECT().SumTagged(gomock.Any(), models.TagTestRuns).DoAndReturn(
		func(qctx context.Context, _ models.Tag) (string, error) {
			deadline, ok := qctx.Deadline()
			if !ok || time.Until(deadline) > time.Second {
				return "", errors.New("caller deadline not applied")
			}
			<-qctx.Done()
			return "", qctx.Err()
		})

	_, err := agg.FetchTaggedTotal(ctx, models.TagTestRuns)
	s.True(dErrors.HasCode(err, dErrors.CodeBackendTimeout), "got %v", err)
}

func (s *AggregatorSuite) TestNilStore() {
	agg := New(nil)

	_, err := agg.FetchAggregate(context.Background(), models.WindowToday)
	s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable))
	_, err = agg.FetchTaggedTotal(context.Background(), models.TagTestRuns)
	s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable))
	s.Error(agg.RecordUsage(context.Background(), models.Usage{}))
	s.Error(agg.Health(context.Background()))
	s.False(agg.Configured())
}

func (s *AggregatorSuite) TestBreakerShortCircuitsDegradedStore() {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	agg := New(s.store,
		WithQueryTimeout(50*time.Millisecond),
		WithMetrics(s.metrics),
		WithBreaker(circuit.New("telemetry",
			circuit.WithFailureThreshold(2),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(10*time.Second),
			circuit.WithClock(func() time.Time { return now }),
		)),
	)
	s.store.EXPECT().SumCost(gomock.Any(), gomock.Any()).Return("", errors.New("down")).Times(2)

	s.NoError(agg.Health(context.Background()))
	for range 2 {
		_, _ = agg.FetchAggregate(context.Background(), models.WindowToday)
	}
	s.Error(agg.Health(context.Background()))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.TelemetryBreakerOpen))

	s.Run("open breaker fails fast without calling the store", func() {
		_, err := agg.FetchAggregate(context.Background(), models.WindowToday)
		s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable), "got %v", err)
		_, err = agg.FetchTaggedTotal(context.Background(), models.TagTestRuns)
		s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable), "got %v", err)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.TelemetryQueriesTotal.WithLabelValues("cost_today", "short_circuit")))
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.TelemetryQueriesTotal.WithLabelValues("cost_tagged", "short_circuit")))
	})

	s.Run("probe after cooldown closes the breaker", func() {
		now = now.Add(10 * time.Second)
		s.store.EXPECT().SumCost(gomock.Any(), gomock.Any()).Return("1", nil)

		_, err := agg.FetchAggregate(context.Background(), models.WindowToday)
		s.Require().NoError(err)
		s.NoError(agg.Health(context.Background()))
		s.Equal(float64(0), testutil.ToFloat64(s.metrics.TelemetryBreakerOpen))
	})
}

func (s *AggregatorSuite) TestFetchLLMMetrics() {
	s.Run("combines every query", func() {
		s.store.EXPECT().SumCost(gomock.Any(), models.WindowToday).Return("1.25", nil)
		s.store.EXPECT().SumCost(gomock.Any(), models.WindowMonth).Return("30.5", nil)
		s.store.EXPECT().DailyUsage(gomock.Any()).Return(models.DailyUsage{Tokens: 1200, Requests: 7}, nil)
		s.store.EXPECT().MostUsedModel(gomock.Any(), models.WindowToday).Return("", nil)

		m, err := s.agg.FetchLLMMetrics(context.Background())
		s.Require().NoError(err)
		s.InDelta(1.25, m.CostTodayUSD, 1e-9)
		s.InDelta(30.5, m.CostMonthUSD, 1e-9)
		s.Equal(int64(1200), m.TokensToday)
		s.Equal(int64(7), m.RequestsToday)
		s.Equal("N/A", m.MostUsedModel)
		s.Equal("database", m.Source)
	})

	s.Run("one failed query fails the summary", func() {
		s.store.EXPECT().SumCost(gomock.Any(), gomock.Any()).Return("1", nil).Times(2)
		s.store.EXPECT().DailyUsage(gomock.Any()).Return(models.DailyUsage{}, errors.New("down"))
		s.store.EXPECT().MostUsedModel(gomock.Any(), gomock.Any()).Return("gpt-4o", nil)

		m, err := s.agg.FetchLLMMetrics(context.Background())
		s.Nil(m)
		s.True(dErrors.HasCode(err, dErrors.CodeTelemetryUnavailable))
	})
}

func (s *AggregatorSuite) TestRecordUsage() {
	usage := models.Usage{Source: "test", Endpoint: "run-tests", Operation: "infra_test"}
	s.store.EXPECT().Insert(gomock.Any(), usage).Return(nil)
	s.NoError(s.agg.RecordUsage(context.Background(), usage))

	bad := usage
	bad.CostUSD = math.Inf(1)
	s.True(dErrors.HasCode(s.agg.RecordUsage(context.Background(), bad), dErrors.CodeInvalidInput))
}
