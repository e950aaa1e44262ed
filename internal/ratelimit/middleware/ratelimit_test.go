package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgate/internal/ratelimit/models"
	"opsgate/internal/ratelimit/store/window"
	"opsgate/pkg/requestcontext"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func request(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/system/run-tests", nil)
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
}

func TestLimitPerClient(t *testing.T) {
	h := New(window.NewInMemoryStore(), nil).Limit(2, time.Hour)(okHandler)

	for i := range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request("198.51.100.1"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("198.51.100.1"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

	var body models.RateLimitExceededResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Error)
	assert.Equal(t, 3600, body.RetryAfter)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("198.51.100.2"))
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own window")
}

type brokenLimiter struct{}

func (brokenLimiter) Check(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("store down")
}

func TestLimiterErrorLetsRequestThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	New(brokenLimiter{}, nil).Limit(1, time.Hour)(okHandler).ServeHTTP(rec, request("198.51.100.1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
