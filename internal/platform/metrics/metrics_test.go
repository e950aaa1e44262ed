package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision("auth", "rejected")
		m.ObservePipeline(time.Millisecond)
		m.SetKillSwitch(true)
		m.ObserveSignerKeysRefresh("success", 2)
		m.ObserveTelemetryQuery("daily", "success", time.Millisecond)
		m.SetTelemetryBreakerOpen(true)
		m.IncrementFailSafe("daily")
		m.SetRateLimitEntries(3)
		m.IncrementRateLimitFallback()
		m.ObserveCleanup("success", 1, time.Millisecond)
	})
}

func TestCollectorsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDecision("kill_switch", "rejected")
	m.ObserveDecision("kill_switch", "rejected")
	m.SetKillSwitch(true)
	m.ObserveCleanup("success", 4, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.GateDecisions.WithLabelValues("kill_switch", "rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.KillSwitchEnabled))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.RateLimitCleanupRemovedTotal))
}
