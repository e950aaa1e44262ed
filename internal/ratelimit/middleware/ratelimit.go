package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"opsgate/internal/ratelimit/models"
	"opsgate/pkg/platform/httputil"
	"opsgate/pkg/requestcontext"
)

// RateLimiter is satisfied by ratelimit.Limiter.
type RateLimiter interface {
	Check(ctx context.Context, clientKey string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Middleware applies route-specific limits on top of the gating pipeline's
// global limit.
type Middleware struct {
	limiter RateLimiter
	logger  *slog.Logger
}

func New(limiter RateLimiter, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{limiter: limiter, logger: logger}
}

// Limit admits limit requests per window for each client address on the
// route. Limiter errors let the request through.
func (m *Middleware) Limit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := models.NewRouteKey(requestcontext.ClientIP(ctx), r.URL.Path)

			result, err := m.limiter.Check(ctx, key, limit, window)
			if err != nil {
				m.logger.ErrorContext(ctx, "route rate limit check failed", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			AddHeaders(w, result)
			if !result.Allowed {
				WriteExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AddHeaders adds X-RateLimit-* headers to the response.
//
// Headers:
//   - X-RateLimit-Limit: window capacity
//   - X-RateLimit-Remaining: requests left in the window
//   - X-RateLimit-Reset: unix seconds when the window resets
func AddHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// WriteExceeded writes the 429 body with a Retry-After header.
func WriteExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests",
		RetryAfter: result.RetryAfter,
	})
}
