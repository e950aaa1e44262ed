package middleware

import (
	"net/http"
	"strings"

	"opsgate/internal/platform/privacy"
	"opsgate/pkg/platform/audit"
	"opsgate/pkg/requestcontext"

	"github.com/mssola/useragent"
)

// RequestLog records a "request received" entry in the system event log for
// every request before any gate runs.
func RequestLog(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			auditLog.Log(ctx, audit.ActionRequest, audit.StatusReceived, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"ip":     privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
				"client": DescribeClient(requestcontext.UserAgent(ctx)),
			})
			next.ServeHTTP(w, r)
		})
	}
}

// DescribeClient reduces a User-Agent header to "Browser on OS", or "bot" for
// crawlers. Automation clients such as curl report their product name.
func DescribeClient(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}

	browser, _ := ua.Browser()
	os := ua.OS()
	if os == "" {
		if browser == "" {
			return "unknown"
		}
		return browser
	}
	if browser == "" {
		browser = "unknown client"
	}
	return strings.TrimSpace(browser + " on " + os)
}
