package admin

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"opsgate/internal/admin/types"
	"opsgate/internal/costguard"
	"opsgate/internal/platform/health"
	"opsgate/internal/telemetry"
	tmodels "opsgate/internal/telemetry/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/platform/audit"
)

const (
	DefaultSelfTestTimeout = 30 * time.Second
	infraLogTailBytes      = 20000
)

// KillSwitch is satisfied by killswitch.Switch.
type KillSwitch interface {
	IsEnabled() bool
	SetEnabled(ctx context.Context, enabled bool, actor string) (previous bool)
}

// BudgetGuard is satisfied by costguard.Guard.
type BudgetGuard interface {
	CheckBudget(ctx context.Context, kind costguard.Kind) costguard.Result
}

// Telemetry is the subset of telemetry.Aggregator the system endpoints use.
type Telemetry interface {
	FetchLLMMetrics(ctx context.Context) (*tmodels.LLMMetrics, error)
	BuildFromEventLog(ctx context.Context) (*tmodels.EventSummary, error)
	RecordUsage(ctx context.Context, u tmodels.Usage) error
}

// Service backs the operator endpoints under /system and /metrics.
type Service struct {
	killSwitch  KillSwitch
	budget      BudgetGuard
	telemetry   Telemetry
	checks      map[string]health.CheckFunc
	testTimeout time.Duration
	logPaths    []string
	version     string
	environment string
	started     time.Time
	logger      *slog.Logger
	audit       *audit.Logger
}

type Option func(*Service)

// WithSelfTestCheck adds a dependency probe to the self-test routine.
func WithSelfTestCheck(name string, check health.CheckFunc) Option {
	return func(s *Service) {
		s.checks[name] = check
	}
}

func WithSelfTestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.testTimeout = d
		}
	}
}

// WithLogPaths sets the candidate files served by InfraLogs, in order of
// preference.
func WithLogPaths(paths ...string) Option {
	return func(s *Service) {
		s.logPaths = paths
	}
}

func WithVersion(version, environment string) Option {
	return func(s *Service) {
		s.version = version
		s.environment = environment
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAudit(l *audit.Logger) Option {
	return func(s *Service) {
		s.audit = l
	}
}

// NewService creates the system service.
func NewService(killSwitch KillSwitch, budget BudgetGuard, telemetry Telemetry, opts ...Option) *Service {
	s := &Service{
		killSwitch:  killSwitch,
		budget:      budget,
		telemetry:   telemetry,
		checks:      make(map[string]health.CheckFunc),
		testTimeout: DefaultSelfTestTimeout,
		version:     "dev",
		started:     time.Now(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports gateway and process state.
func (s *Service) Status(ctx context.Context) *types.Status {
	hostname, _ := os.Hostname()
	status := &types.Status{
		System:         "opsgate",
		Gateway:        "active",
		GatewayVersion: s.version,
		Environment:    s.environment,
		UptimeSeconds:  time.Since(s.started).Seconds(),
		KillSwitch:     s.killSwitch.IsEnabled(),
		Goroutines:     runtime.NumGoroutine(),
		Memory:         readMemory(),
		Host: types.HostInfo{
			Hostname: hostname,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			NumCPU:   runtime.NumCPU(),
		},
	}
	s.audit.Log(ctx, audit.ActionSystemStatus, audit.StatusOK, map[string]any{
		"goroutines": status.Goroutines,
	})
	return status
}

func (s *Service) KillSwitchEnabled() bool {
	return s.killSwitch.IsEnabled()
}

// SetKillSwitch records actor as the operator who flipped the switch.
func (s *Service) SetKillSwitch(ctx context.Context, enabled bool, actor string) (previous bool) {
	previous = s.killSwitch.SetEnabled(ctx, enabled, actor)
	s.logger.InfoContext(ctx, "kill switch updated",
		"enabled", enabled,
		"previous", previous,
		"actor", actor,
	)
	return previous
}

// CheckTestBudget runs the fail-closed budget check for the self-test.
func (s *Service) CheckTestBudget(ctx context.Context) costguard.Result {
	return s.budget.CheckBudget(ctx, costguard.KindTestBudget)
}

// RunSelfTest probes every registered dependency concurrently. A failing
// probe is reported, not returned; only exceeding the routine's deadline is
// an error (CodeTimeout). Completed runs are recorded in the telemetry store.
func (s *Service) RunSelfTest(ctx context.Context, sourceIP, actor string) (*types.SelfTestReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.testTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make([]types.CheckResult, 0, len(s.checks))
		g       errgroup.Group
	)
	for name, check := range s.checks {
		g.Go(func() error {
			started := time.Now()
			err := check(ctx)
			res := types.CheckResult{
				Name:       name,
				Status:     "ok",
				DurationMS: time.Since(started).Milliseconds(),
			}
			if err != nil {
				res.Status = "error"
				res.Error = err.Error()
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.audit.LogAs(ctx, actor, audit.ActionRunTests, audit.StatusError, map[string]any{"reason": "timeout"})
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "test routine timed out")
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	report := &types.SelfTestReport{OK: true, SourceIP: sourceIP, Checks: results}
	for _, res := range results {
		if res.Status != "ok" {
			report.OK = false
		}
	}

	usage := tmodels.Usage{
		Source:    tmodels.TagTestRuns.Source,
		Endpoint:  tmodels.TagTestRuns.Endpoint,
		Operation: "infra_test",
		Agent:     actor,
	}
	if err := s.telemetry.RecordUsage(context.WithoutCancel(ctx), usage); err != nil {
		s.logger.WarnContext(ctx, "failed to record self-test usage", "error", err)
	}

	status := audit.StatusOK
	if !report.OK {
		status = audit.StatusError
	}
	s.audit.LogAs(ctx, actor, audit.ActionRunTests, status, map[string]any{"checks": len(results)})
	return report, nil
}

// InfraStatus reports runtime details for troubleshooting the host.
func (s *Service) InfraStatus() *types.RuntimeInfo {
	cwd, _ := os.Getwd()
	info := &types.RuntimeInfo{
		GoVersion:     runtime.Version(),
		UptimeSeconds: time.Since(s.started).Seconds(),
		Memory:        readMemory(),
		Cwd:           cwd,
	}
	for _, p := range s.logPaths {
		if fi, err := os.Stat(filepath.Dir(p)); err == nil && fi.IsDir() {
			info.LogsDirExists = true
			break
		}
	}
	return info
}

// InfraLogs returns the tail of the first existing log file. It fails with
// CodeNotFound when none exists.
func (s *Service) InfraLogs() (string, []byte, error) {
	path, data, err := telemetry.TailEventLog(s.logPaths, infraLogTailBytes)
	if errors.Is(err, telemetry.ErrNoEventLog) {
		return "", nil, dErrors.Wrap(err, dErrors.CodeNotFound, "No infra logs found.")
	}
	return path, data, err
}

// LLMMetrics returns the dashboard summary from the telemetry store, or a
// summary of the agent event log when the store cannot answer.
func (s *Service) LLMMetrics(ctx context.Context) (map[string]any, error) {
	m, err := s.telemetry.FetchLLMMetrics(ctx)
	if err == nil {
		s.audit.Log(ctx, audit.ActionMetricsLLM, audit.StatusOK, map[string]any{"source": m.Source})
		return map[string]any{
			"total_cost_today":     m.CostTodayUSD,
			"total_cost_month":     m.CostMonthUSD,
			"total_tokens_today":   m.TokensToday,
			"total_requests_today": m.RequestsToday,
			"most_used_model":      m.MostUsedModel,
			"source":               m.Source,
		}, nil
	}
	s.logger.WarnContext(ctx, "llm metrics falling back to event log", "error", err)

	summary, ferr := s.telemetry.BuildFromEventLog(ctx)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	s.audit.Log(ctx, audit.ActionMetricsLLM, "fallback", map[string]any{"source": summary.Source})
	return map[string]any{
		"total_cost_today":     0,
		"total_cost_month":     0,
		"total_tokens_today":   0,
		"total_requests_today": summary.TotalEvents,
		"most_used_model":      nil,
		"usage_by_agent":       summary.EventsByActor,
		"recent_operations":    summary.Recent,
		"skipped_lines":        summary.Skipped,
		"source":               summary.Source,
	}, nil
}

func readMemory() types.MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return types.MemoryStats{
		AllocBytes:     ms.Alloc,
		HeapInUseBytes: ms.HeapInuse,
		SysBytes:       ms.Sys,
		NumGC:          ms.NumGC,
	}
}
