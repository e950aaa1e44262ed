package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the gating pipeline. All
// methods are safe to call on a nil *Metrics.
type Metrics struct {
	GateDecisions    *prometheus.CounterVec
	PipelineDuration prometheus.Histogram

	KillSwitchEnabled prometheus.Gauge

	SignerKeysRefreshTotal *prometheus.CounterVec
	SignerKeysLoaded       prometheus.Gauge

	TelemetryQueriesTotal   *prometheus.CounterVec
	TelemetryQueryDuration  *prometheus.HistogramVec
	TelemetryBreakerOpen    prometheus.Gauge
	CostGuardFailSafeTotal  *prometheus.CounterVec
	RateLimitEntries        prometheus.Gauge
	RateLimitFallbacksTotal prometheus.Counter

	RateLimitCleanupRunsTotal       *prometheus.CounterVec
	RateLimitCleanupRemovedTotal    prometheus.Counter
	RateLimitCleanupDurationSeconds prometheus.Histogram
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgate_gate_decisions_total",
			Help: "Gate outcomes for protected requests",
		}, []string{"gate", "outcome"}),
		PipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsgate_pipeline_duration_seconds",
			Help:    "Time spent evaluating all gates for a protected request",
			Buckets: prometheus.DefBuckets,
		}),
		KillSwitchEnabled: f.NewGauge(prometheus.GaugeOpts{
			Name: "opsgate_kill_switch_enabled",
			Help: "1 when the kill switch is engaged",
		}),
		SignerKeysRefreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgate_signer_keys_refresh_total",
			Help: "Signer key set fetches by result",
		}, []string{"status"}),
		SignerKeysLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "opsgate_signer_keys_loaded",
			Help: "Number of keys in the current signer key set snapshot",
		}),
		TelemetryQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgate_telemetry_queries_total",
			Help: "Telemetry store queries by query and result",
		}, []string{"query", "status"}),
		TelemetryQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsgate_telemetry_query_duration_seconds",
			Help:    "Telemetry store query latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		TelemetryBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "opsgate_telemetry_breaker_open",
			Help: "1 while the telemetry store is considered degraded",
		}),
		CostGuardFailSafeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgate_costguard_fail_safe_total",
			Help: "Budget checks decided by fail-safe policy because telemetry was unavailable",
		}, []string{"kind"}),
		RateLimitEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "opsgate_ratelimit_window_entries",
			Help: "Live entries in the in-memory rate window table",
		}),
		RateLimitFallbacksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "opsgate_ratelimit_store_fallbacks_total",
			Help: "Checks answered by the in-memory store because the distributed store failed",
		}),
		RateLimitCleanupRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgate_ratelimit_cleanup_runs_total",
			Help: "Total number of rate window sweeps",
		}, []string{"status"}),
		RateLimitCleanupRemovedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "opsgate_ratelimit_cleanup_removed_total",
			Help: "Expired rate windows removed by the sweeper",
		}),
		RateLimitCleanupDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name: "opsgate_ratelimit_cleanup_duration_seconds",
			Help: "Duration of rate window sweeps in seconds",
		}),
	}
}

func (m *Metrics) ObserveDecision(gate, outcome string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(gate, outcome).Inc()
}

func (m *Metrics) ObservePipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(d.Seconds())
}

func (m *Metrics) SetKillSwitch(enabled bool) {
	if m == nil {
		return
	}
	m.KillSwitchEnabled.Set(boolToFloat(enabled))
}

func (m *Metrics) ObserveSignerKeysRefresh(status string, loaded int) {
	if m == nil {
		return
	}
	m.SignerKeysRefreshTotal.WithLabelValues(status).Inc()
	if loaded >= 0 {
		m.SignerKeysLoaded.Set(float64(loaded))
	}
}

func (m *Metrics) ObserveTelemetryQuery(query, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.TelemetryQueriesTotal.WithLabelValues(query, status).Inc()
	m.TelemetryQueryDuration.WithLabelValues(query).Observe(d.Seconds())
}

func (m *Metrics) SetTelemetryBreakerOpen(open bool) {
	if m == nil {
		return
	}
	m.TelemetryBreakerOpen.Set(boolToFloat(open))
}

func (m *Metrics) IncrementFailSafe(kind string) {
	if m == nil {
		return
	}
	m.CostGuardFailSafeTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetRateLimitEntries(n int) {
	if m == nil {
		return
	}
	m.RateLimitEntries.Set(float64(n))
}

func (m *Metrics) IncrementRateLimitFallback() {
	if m == nil {
		return
	}
	m.RateLimitFallbacksTotal.Inc()
}

func (m *Metrics) ObserveCleanup(status string, removed int, d time.Duration) {
	if m == nil {
		return
	}
	m.RateLimitCleanupRunsTotal.WithLabelValues(status).Inc()
	m.RateLimitCleanupRemovedTotal.Add(float64(removed))
	m.RateLimitCleanupDurationSeconds.Observe(d.Seconds())
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
