package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgate/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewAndHealth(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Health(context.Background()))

	mr.Close()
	assert.Error(t, c.Health(context.Background()))
}

func TestRecordPoolStats(t *testing.T) {
	mr := miniredis.RunT(t)
	metrics := NewPoolMetrics(prometheus.NewRegistry())
	c := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), metrics)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", "v", time.Minute).Err())
	c.RecordPoolStats()
	first := testutil.ToFloat64(metrics.totalConns)
	assert.GreaterOrEqual(t, first, float64(1))

	c.RecordPoolStats()
	assert.Equal(t, first, testutil.ToFloat64(metrics.totalConns))
}

func TestStatsRecorderStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), nil)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.StartStatsRecorder(ctx, time.Millisecond, nil) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}
