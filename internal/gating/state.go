package gating

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"opsgate/internal/auth/models"
	"opsgate/internal/costguard"
	rlmodels "opsgate/internal/ratelimit/models"
)

// KillSwitch is satisfied by killswitch.Switch.
type KillSwitch interface {
	IsEnabled() bool
}

// Authenticator is satisfied by gate.Gate.
type Authenticator interface {
	Authenticate(ctx context.Context, h http.Header) (*models.Identity, error)
}

// RateLimiter is satisfied by ratelimit.Limiter.
type RateLimiter interface {
	Check(ctx context.Context, clientKey string, limit int, window time.Duration) (*rlmodels.RateLimitResult, error)
}

// BudgetGuard is satisfied by costguard.Guard.
type BudgetGuard interface {
	CheckBudget(ctx context.Context, kind costguard.Kind) costguard.Result
}

// State is everything a pipeline mutates or consults across requests. Each
// pipeline owns the State it was built with; nothing is shared implicitly.
type State struct {
	KillSwitch KillSwitch
	Auth       Authenticator
	Limiter    RateLimiter
	Budget     BudgetGuard
}

func (s State) validate() error {
	var errs []error
	if s.KillSwitch == nil {
		errs = append(errs, errors.New("kill switch is required"))
	}
	if s.Auth == nil {
		errs = append(errs, errors.New("authenticator is required"))
	}
	if s.Limiter == nil {
		errs = append(errs, errors.New("rate limiter is required"))
	}
	if s.Budget == nil {
		errs = append(errs, errors.New("budget guard is required"))
	}
	return errors.Join(errs...)
}

// Config selects the protected routes and the global rate limit.
type Config struct {
	// ProtectedPrefixes are full paths, API prefix included.
	ProtectedPrefixes []string
	// KillSwitchPath stays reachable with POST while the switch is engaged.
	KillSwitchPath string
	RateLimit      int
	RateWindow     time.Duration
}

func (c Config) validate() error {
	var errs []error
	if len(c.ProtectedPrefixes) == 0 {
		errs = append(errs, errors.New("at least one protected prefix is required"))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("rate limit and window must be positive"))
	}
	return errors.Join(errs...)
}

// prefixMatcher matches whole path segments, so /api/system protects
// /api/system/status but not /api/systems.
type prefixMatcher []string

func newPrefixMatcher(prefixes []string) prefixMatcher {
	out := make(prefixMatcher, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		out = append(out, p)
	}
	return out
}

func (m prefixMatcher) matches(p string) bool {
	for _, prefix := range m {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// cleanPath resolves dot segments and duplicate slashes before matching.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
