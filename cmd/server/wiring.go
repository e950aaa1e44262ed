package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"opsgate/internal/auth/certs"
	"opsgate/internal/auth/gate"
	"opsgate/internal/auth/token"
	"opsgate/internal/platform/config"
	"opsgate/internal/platform/database"
	"opsgate/internal/platform/health"
	"opsgate/internal/platform/metrics"
	platformredis "opsgate/internal/platform/redis"
	"opsgate/internal/platform/tracer"
	"opsgate/internal/ratelimit"
	"opsgate/internal/ratelimit/store/window"
	"opsgate/internal/ratelimit/workers/cleanup"
	"opsgate/internal/telemetry"
	tstore "opsgate/internal/telemetry/store"
	"opsgate/pkg/platform/audit/publisher"
	auditfile "opsgate/pkg/platform/audit/store/file"
	"opsgate/pkg/platform/circuit"
)

const auditBufferSize = 1024

// infra holds the connections and sinks that outlive a single request.
type infra struct {
	db        *database.Pool
	redis     *platformredis.Client
	publisher *publisher.Publisher
	logger    *slog.Logger
}

func openInfra(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*infra, error) {
	in := &infra{logger: log}

	in.publisher = publisher.NewPublisher(auditfile.New(cfg.Telemetry.SystemLogPath),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithPublisherLogger(log),
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	db, err := database.New(ctx, dbCfg)
	if err != nil {
		// The budget gates treat a missing store as unavailable telemetry.
		log.Error("telemetry database unavailable", "error", err)
	} else if db != nil {
		if err := database.MigrateUp(ctx, db.DB()); err != nil {
			db.Close() //nolint:errcheck // best-effort cleanup on init failure
			in.Close()
			return nil, err
		}
		in.db = db
		log.Info("telemetry database connected")
	}

	client, err := platformredis.New(ctx, cfg.Redis, platformredis.NewPoolMetrics(reg))
	if err != nil {
		log.Error("redis unavailable, rate windows kept in memory", "error", err)
	} else if client != nil {
		in.redis = client
		log.Info("redis connected")
	}

	return in, nil
}

// checks returns the dependency probes shared by readiness and the self-test.
func (in *infra) checks(cfg *config.Config) map[string]health.CheckFunc {
	out := map[string]health.CheckFunc{
		"event_log": func(context.Context) error {
			dir := filepath.Dir(cfg.Telemetry.EventLogPath)
			fi, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return nil
		},
	}
	if in.db != nil {
		out["database"] = in.db.Health
	}
	if in.redis != nil {
		out["redis"] = in.redis.Health
	}
	return out
}

func (in *infra) Close() {
	in.publisher.Close()
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.logger.Warn("redis close failed", "error", err)
		}
	}
	if err := in.db.Close(); err != nil {
		in.logger.Warn("database close failed", "error", err)
	}
}

type signerKeys struct {
	cache     *certs.Cache
	refresher *certs.Refresher
	gate      *gate.Gate
}

func newSignerKeys(cfg *config.Config, log *slog.Logger, m *metrics.Metrics) *signerKeys {
	cache := certs.New(certs.NewHTTPFetcher(cfg.Auth.SignerKeysURL, &http.Client{}),
		certs.WithTTL(cfg.Auth.SignerKeysRefresh),
		certs.WithFetchTimeout(cfg.Auth.SignerKeysFetchTimeout),
		certs.WithLogger(log),
		certs.WithMetrics(m),
		certs.WithTracer(tracer.NewOTel()),
	)
	if cfg.Auth.ProjectID == "" {
		log.Warn("no project id configured, bearer tokens will be rejected")
	}
	if cfg.Auth.SharedSecret == "" {
		log.Warn("no shared secret configured, only bearer tokens are accepted")
	}
	verifier := token.New(cache, cfg.Auth.ProjectID, cfg.Auth.IssuerPrefix, token.WithLogger(log))
	return &signerKeys{
		cache:     cache,
		refresher: certs.NewRefresher(cache, 0, log),
		gate:      gate.New(cfg.Auth.SharedSecret, verifier, gate.WithLogger(log)),
	}
}

// newLimiter keeps rate windows in Redis when configured, answering from the
// in-memory table whenever Redis fails. The sweeper only tends the memory
// table; Redis expires its own keys.
func newLimiter(cfg *config.Config, log *slog.Logger, m *metrics.Metrics, client *platformredis.Client) (*ratelimit.Limiter, *cleanup.WindowCleanupService) {
	memory := window.NewInMemoryStore()
	sweeper := cleanup.New(memory,
		cleanup.WithInterval(cfg.RateLimit.CleanupInterval),
		cleanup.WithLogger(log),
		cleanup.WithMetrics(m),
	)

	opts := []ratelimit.Option{ratelimit.WithLogger(log), ratelimit.WithMetrics(m)}
	if cfg.RateLimit.Backend == "redis" && client != nil {
		primary := window.NewRedisStore(client, window.WithTimeout(cfg.Redis.ReadTimeout))
		return ratelimit.New(primary, append(opts, ratelimit.WithFallback(memory))...), sweeper
	}
	return ratelimit.New(memory, opts...), sweeper
}

func newTelemetry(cfg *config.Config, log *slog.Logger, m *metrics.Metrics, db *database.Pool) *telemetry.Aggregator {
	var store telemetry.Store
	if db != nil {
		store = tstore.NewPostgres(db.DB())
	}
	return telemetry.New(store,
		telemetry.WithQueryTimeout(cfg.Telemetry.QueryTimeout),
		telemetry.WithEventLog(cfg.Telemetry.EventLogPath, cfg.Telemetry.RecentEvents),
		telemetry.WithLogger(log),
		telemetry.WithMetrics(m),
		telemetry.WithTracer(tracer.NewOTel()),
		telemetry.WithBreaker(circuit.New("telemetry")),
	)
}
