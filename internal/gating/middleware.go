package gating

import (
	"net/http"
	"strconv"

	"opsgate/internal/auth/models"
	rlmiddleware "opsgate/internal/ratelimit/middleware"
	"opsgate/pkg/platform/httputil"
)

// Middleware runs the pipeline before next. Rejections are written as JSON
// with the decision's status. Admitted requests carry the identity in their
// context and advertise its source in X-Request-Source.
func Middleware(p *Pipeline) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := p.Evaluate(r)
			rlmiddleware.AddHeaders(w, d.RateLimit)

			if !d.Allowed {
				if d.HTTPStatus == http.StatusTooManyRequests && d.RateLimit != nil {
					w.Header().Set("Retry-After", strconv.Itoa(d.RateLimit.RetryAfter))
				}
				httputil.WriteJSON(w, d.HTTPStatus, d.Details)
				return
			}

			if d.Identity != nil {
				w.Header().Set(models.HeaderRequestSource, d.Identity.Source)
				r = r.WithContext(models.WithIdentity(r.Context(), d.Identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}
