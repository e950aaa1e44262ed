package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"opsgate/internal/admin/mocks"
	tmodels "opsgate/internal/telemetry/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/platform/audit"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingEmitter) Emit(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEmitter) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func TestRunSelfTestRunsChecksConcurrently(t *testing.T) {
	ctrl := gomock.NewController(t)
	tel := mocks.NewMockTelemetry(ctrl)
	tel.EXPECT().RecordUsage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ tmodels.Usage) error {
			assert.NoError(t, ctx.Err())
			return nil
		})

	// Each probe waits for the other to start, so a sequential runner
	// would hit the deadline.
	var started sync.WaitGroup
	started.Add(2)
	probe := func(ctx context.Context) error {
		started.Done()
		waited := make(chan struct{})
		go func() {
			started.Wait()
			close(waited)
		}()
		select {
		case <-waited:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	emitter := &recordingEmitter{}
	svc := NewService(mocks.NewMockKillSwitch(ctrl), mocks.NewMockBudgetGuard(ctrl), tel,
		WithSelfTestCheck("redis", probe),
		WithSelfTestCheck("database", probe),
		WithSelfTestTimeout(time.Second),
		WithAudit(audit.NewLogger(nil, emitter)),
	)

	report, err := svc.RunSelfTest(context.Background(), "203.0.113.7", "internal")
	require.NoError(t, err)
	assert.True(t, report.OK)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "database", report.Checks[0].Name)
	assert.Equal(t, "redis", report.Checks[1].Name)

	ev := emitter.last()
	assert.Equal(t, string(audit.ActionRunTests), ev.Action)
	assert.Equal(t, "internal", ev.Actor)
	assert.Equal(t, audit.StatusOK, ev.Status)
}

func TestRunSelfTestTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	release := make(chan struct{})
	defer close(release)

	emitter := &recordingEmitter{}
	svc := NewService(mocks.NewMockKillSwitch(ctrl), mocks.NewMockBudgetGuard(ctrl), mocks.NewMockTelemetry(ctrl),
		WithSelfTestCheck("stuck", func(context.Context) error {
			<-release
			return nil
		}),
		WithSelfTestTimeout(10*time.Millisecond),
		WithAudit(audit.NewLogger(nil, emitter)),
	)

	report, err := svc.RunSelfTest(context.Background(), "", "admin:ops")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.Equal(t, "error", emitter.last().Level)
}

func TestSetKillSwitchReturnsPrevious(t *testing.T) {
	ctrl := gomock.NewController(t)
	ks := mocks.NewMockKillSwitch(ctrl)
	gomock.InOrder(
		ks.EXPECT().SetEnabled(gomock.Any(), true, "internal").Return(false),
		ks.EXPECT().SetEnabled(gomock.Any(), true, "internal").Return(true),
	)
	svc := NewService(ks, mocks.NewMockBudgetGuard(ctrl), mocks.NewMockTelemetry(ctrl))

	assert.False(t, svc.SetKillSwitch(context.Background(), true, "internal"))
	assert.True(t, svc.SetKillSwitch(context.Background(), true, "internal"))
}

func TestLLMMetricsFallbackPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	tel := mocks.NewMockTelemetry(ctrl)
	tel.EXPECT().FetchLLMMetrics(gomock.Any()).Return(nil, errors.New("connection refused"))
	tel.EXPECT().BuildFromEventLog(gomock.Any()).Return(&tmodels.EventSummary{
		Source:        "logs",
		TotalEvents:   2,
		EventsByActor: map[string]int{"planner": 1, "unknown": 1},
		Skipped:       4,
	}, nil)

	emitter := &recordingEmitter{}
	svc := NewService(mocks.NewMockKillSwitch(ctrl), mocks.NewMockBudgetGuard(ctrl), tel,
		WithAudit(audit.NewLogger(nil, emitter)))

	payload, err := svc.LLMMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "logs", payload["source"])
	assert.Equal(t, 2, payload["total_requests_today"])
	assert.Equal(t, 4, payload["skipped_lines"])
	assert.Equal(t, map[string]int{"planner": 1, "unknown": 1}, payload["usage_by_agent"])
	assert.Equal(t, "fallback", emitter.last().Status)
}

func TestInfraLogsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(mocks.NewMockKillSwitch(ctrl), mocks.NewMockBudgetGuard(ctrl), mocks.NewMockTelemetry(ctrl),
		WithLogPaths(t.TempDir()+"/missing.log"))

	_, _, err := svc.InfraLogs()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
