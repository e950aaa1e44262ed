// Package gating decides whether a request to a protected route may reach
// its handler.
//
// Protected requests pass four gates in a fixed order: kill switch, then
// authentication, then the rate limit, then the daily budget. The first gate
// that refuses decides the response.
package gating

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"opsgate/internal/auth/models"
	"opsgate/internal/costguard"
	"opsgate/internal/platform/metrics"
	"opsgate/internal/platform/privacy"
	rlmodels "opsgate/internal/ratelimit/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/platform/audit"
	"opsgate/pkg/requestcontext"
)

type Reason string

const (
	ReasonOpenPath             Reason = "open_path"
	ReasonAllowed              Reason = "allowed"
	ReasonKillSwitchEnabled    Reason = "kill_switch_enabled"
	ReasonCredentialMissing    Reason = "credential_missing"
	ReasonCredentialInvalid    Reason = "credential_invalid"
	ReasonSignerKeysTimeout    Reason = "signer_keys_timeout"
	ReasonRateLimitExceeded    Reason = "rate_limit_exceeded"
	ReasonDailyBudgetExceeded  Reason = Reason(costguard.ReasonDailyBudgetExceeded)
	ReasonTelemetryUnavailable Reason = Reason(costguard.ReasonTelemetryUnavailable)
)

// Gate names used in metrics and decisions.
const (
	GateKillSwitch = "kill_switch"
	GateAuth       = "auth"
	GateRateLimit  = "rate_limit"
	GateCostGuard  = "cost_guard"
)

// Decision is the outcome for one request. A rejected decision never
// carries an identity; an allowed protected decision always does.
//
// For rejections Details is the JSON response body. For admitted protected
// requests it holds the identity and budget snapshot for request logging.
type Decision struct {
	Allowed    bool
	Reason     Reason
	HTTPStatus int
	Gate       string
	Details    map[string]any
	Identity   *models.Identity
	Budget     *costguard.Result
	RateLimit  *rlmodels.RateLimitResult
}

type Pipeline struct {
	state          State
	protected      prefixMatcher
	killSwitchPath string
	rateLimit      int
	rateWindow     time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	audit          *audit.Logger
	now            func() time.Time
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithAudit records every rejection on the system event log.
func WithAudit(l *audit.Logger) Option {
	return func(p *Pipeline) {
		p.audit = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(state State, cfg Config, opts ...Option) (*Pipeline, error) {
	if err := state.validate(); err != nil {
		return nil, fmt.Errorf("gating state: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("gating config: %w", err)
	}

	p := &Pipeline{
		state:          state,
		protected:      newPrefixMatcher(cfg.ProtectedPrefixes),
		killSwitchPath: cleanPath(cfg.KillSwitchPath),
		rateLimit:      cfg.RateLimit,
		rateWindow:     cfg.RateWindow,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Protected reports whether requests to urlPath go through the gates.
func (p *Pipeline) Protected(urlPath string) bool {
	return p.protected.matches(cleanPath(urlPath))
}

// Evaluate runs the gates for r. Gate failures become rejections; nothing
// here returns an error.
func (p *Pipeline) Evaluate(r *http.Request) Decision {
	urlPath := cleanPath(r.URL.Path)
	if !p.protected.matches(urlPath) {
		return Decision{Allowed: true, Reason: ReasonOpenPath, HTTPStatus: http.StatusOK}
	}

	started := time.Now()
	defer func() { p.metrics.ObservePipeline(time.Since(started)) }()

	ctx := r.Context()
	toggle := r.Method == http.MethodPost && urlPath == p.killSwitchPath

	if !toggle && p.state.KillSwitch.IsEnabled() {
		return p.reject(ctx, r, GateKillSwitch, audit.ActionKillSwitchBlock, Decision{
			Reason:     ReasonKillSwitchEnabled,
			HTTPStatus: http.StatusLocked,
			Details: map[string]any{
				"error":   "AI_KILL_SWITCH_ENABLED",
				"message": "AI operations are temporarily disabled.",
			},
		})
	}
	p.metrics.ObserveDecision(GateKillSwitch, "passed")

	identity, err := p.state.Auth.Authenticate(ctx, r.Header)
	if err != nil {
		return p.reject(ctx, r, GateAuth, audit.ActionAuthReject, authRejection(err))
	}
	p.metrics.ObserveDecision(GateAuth, "passed")

	key := rlmodels.NewClientKey(requestcontext.ClientIP(ctx), urlPath)
	rl, err := p.state.Limiter.Check(ctx, key, p.rateLimit, p.rateWindow)
	switch {
	case err != nil:
		p.logger.ErrorContext(ctx, "rate limit check failed, admitting request", "error", err, "path", urlPath)
		p.metrics.ObserveDecision(GateRateLimit, "error")
		rl = nil
	case !rl.Allowed:
		return p.reject(ctx, r, GateRateLimit, audit.ActionRateLimitBlock, Decision{
			Reason:     ReasonRateLimitExceeded,
			HTTPStatus: http.StatusTooManyRequests,
			RateLimit:  rl,
			Details: map[string]any{
				"error":       "RATE_LIMIT_EXCEEDED",
				"message":     "Too many requests",
				"retry_after": rl.RetryAfter,
			},
		})
	default:
		p.metrics.ObserveDecision(GateRateLimit, "passed")
	}

	var budget *costguard.Result
	if !toggle {
		res := p.state.Budget.CheckBudget(ctx, costguard.KindDailyOperational)
		budget = &res
		if !res.Allowed {
			return p.reject(ctx, r, GateCostGuard, audit.ActionCostGuardBlock, Decision{
				Reason:     Reason(res.Reason),
				HTTPStatus: http.StatusForbidden,
				RateLimit:  rl,
				Budget:     budget,
				Details: map[string]any{
					"error":          "COST_GUARD_BLOCKED",
					"reason":         res.Reason,
					"cost_today":     res.CostToday,
					"max_budget_usd": res.MaxBudget,
					"fail_safe":      res.FailSafe,
				},
			})
		}
		outcome := "passed"
		if res.FailSafe {
			outcome = "fail_safe"
		}
		p.metrics.ObserveDecision(GateCostGuard, outcome)
	}

	return Decision{
		Allowed:    true,
		Reason:     ReasonAllowed,
		HTTPStatus: http.StatusOK,
		Identity:   identity,
		Budget:     budget,
		RateLimit:  rl,
		Details: map[string]any{
			"identity": identity,
			"budget":   budget,
		},
	}
}

// authRejection maps an authentication error to its response. A key set
// fetch that hit its deadline is reported as a backend timeout rather than
// as bad credentials.
func authRejection(err error) Decision {
	if dErrors.HasCode(err, dErrors.CodeBackendTimeout) {
		return Decision{
			Reason:     ReasonSignerKeysTimeout,
			HTTPStatus: http.StatusGatewayTimeout,
			Details: map[string]any{
				"error":   "BACKEND_TIMEOUT",
				"message": "signer key set unavailable",
				"reason":  ReasonSignerKeysTimeout,
			},
		}
	}

	reason := ReasonCredentialInvalid
	if dErrors.HasCode(err, dErrors.CodeCredentialMissing) {
		reason = ReasonCredentialMissing
	}
	return Decision{
		Reason:     reason,
		HTTPStatus: http.StatusUnauthorized,
		Details: map[string]any{
			"error":   "Unauthorized",
			"source":  "external",
			"reason":  reason,
			"message": err.Error(),
		},
	}
}

func (p *Pipeline) reject(ctx context.Context, r *http.Request, gate string, action audit.Action, d Decision) Decision {
	d.Allowed = false
	d.Gate = gate
	d.Identity = nil
	d.Details["timestamp"] = p.now().UTC().Format(time.RFC3339Nano)

	p.metrics.ObserveDecision(gate, "rejected")
	p.audit.Log(ctx, action, audit.StatusBlocked, map[string]any{
		"path":   r.URL.Path,
		"method": r.Method,
		"ip":     privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
		"reason": string(d.Reason),
	})
	return d
}
