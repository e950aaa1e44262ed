package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"opsgate/internal/admin"
	"opsgate/internal/costguard"
	"opsgate/internal/gating"
	"opsgate/internal/killswitch"
	"opsgate/internal/platform/config"
	"opsgate/internal/platform/health"
	"opsgate/internal/platform/logger"
	"opsgate/internal/platform/metrics"
	"opsgate/internal/platform/tracer"
	rlmiddleware "opsgate/internal/ratelimit/middleware"
	httptransport "opsgate/internal/transport/http"
	"opsgate/pkg/platform/audit"
	"opsgate/pkg/platform/middleware/metadata"
	"opsgate/pkg/platform/middleware/request"
)

const shutdownTimeout = 10 * time.Second

// main wires the gates, the operator endpoints and the background workers,
// then serves until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing opsgate",
		"addr", cfg.Server.Addr,
		"api_prefix", cfg.Server.APIPrefix,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"kill_switch", cfg.Gating.KillSwitchDefault,
	)

	shutdownTracing, err := tracer.Setup(ctx, cfg.Tracing.ServiceName, cfg.Server.Version, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	infra, err := openInfra(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer infra.Close()

	auditLog := audit.NewLogger(log, infra.publisher)

	signer := newSignerKeys(cfg, log, m)
	limiter, windows := newLimiter(cfg, log, m, infra.redis)
	telemetryAgg := newTelemetry(cfg, log, m, infra.db)

	ks := killswitch.New(cfg.Gating.KillSwitchDefault,
		killswitch.WithAudit(auditLog),
		killswitch.WithMetrics(m),
	)
	guard := costguard.New(telemetryAgg, cfg.Budget.DailyMaxUSD, cfg.Budget.TestMaxUSD,
		costguard.WithTestTimeout(cfg.Budget.TestBudgetTimeout),
		costguard.WithLogger(log),
		costguard.WithMetrics(m),
	)

	pipeline, err := gating.New(gating.State{
		KillSwitch: ks,
		Auth:       signer.gate,
		Limiter:    limiter,
		Budget:     guard,
	}, gating.Config{
		ProtectedPrefixes: cfg.ProtectedPaths(),
		KillSwitchPath:    cfg.Server.APIPrefix + "/system/kill-switch",
		RateLimit:         cfg.RateLimit.Max,
		RateWindow:        cfg.RateLimit.Window,
	},
		gating.WithLogger(log),
		gating.WithMetrics(m),
		gating.WithAudit(auditLog),
	)
	if err != nil {
		return err
	}

	health.Version = cfg.Server.Version
	healthHandler := health.New(cfg.Server.Environment)
	checks := infra.checks(cfg)
	checks["signer_keys"] = signer.cache.Health
	checks["telemetry"] = telemetryAgg.Health
	for name, check := range checks {
		healthHandler.RegisterCheck(name, check)
	}

	adminOpts := []admin.Option{
		admin.WithSelfTestTimeout(cfg.Budget.TestTimeout),
		admin.WithLogPaths(cfg.Telemetry.EventLogPath, cfg.Telemetry.SystemLogPath),
		admin.WithVersion(cfg.Server.Version, cfg.Server.Environment),
		admin.WithLogger(log),
		admin.WithAudit(auditLog),
	}
	for name, check := range checks {
		adminOpts = append(adminOpts, admin.WithSelfTestCheck(name, check))
	}
	adminService := admin.NewService(ks, guard, telemetryAgg, adminOpts...)
	runTestsLimit := rlmiddleware.New(limiter, log).Limit(cfg.Budget.TestRateLimit, cfg.Budget.TestRateWindow)

	proxies, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Config{
		APIPrefix:      cfg.Server.APIPrefix,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, httptransport.Deps{
		Logger:   log,
		Audit:    auditLog,
		Metadata: metadata.NewMiddleware(&metadata.Config{TrustedProxies: proxies}),
		Latency:  request.NewMetrics(reg),
		Gatherer: prometheus.DefaultGatherer,
		Health:   healthHandler,
		Pipeline: pipeline,
		Admin:    admin.New(adminService, runTestsLimit, log),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(background(gctx, signer.refresher.Start))
	g.Go(background(gctx, windows.Start))
	if infra.redis != nil {
		g.Go(background(gctx, func(ctx context.Context) error {
			return infra.redis.StartStatsRecorder(ctx, 15*time.Second, log)
		}))
	}

	return g.Wait()
}

// background adapts a worker that returns ctx.Err() on shutdown so that a
// normal stop does not fail the group.
func background(ctx context.Context, start func(context.Context) error) func() error {
	return func() error {
		if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
