// Package admin serves the operator endpoints: gateway status, the kill
// switch, the self-test routine, runtime diagnostics and LLM usage metrics.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsgate/internal/admin/types"
	"opsgate/internal/auth/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/platform/httputil"
	"opsgate/pkg/requestcontext"
)

// Handler handles the system endpoints. Routes are relative to the API
// prefix; the gating pipeline has already admitted every request that
// reaches them.
type Handler struct {
	service       *Service
	runTestsLimit func(http.Handler) http.Handler
	logger        *slog.Logger
}

// New creates a handler. runTestsLimit wraps the self-test route with its
// own rate limit; nil leaves the route unlimited.
func New(service *Service, runTestsLimit func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	if runTestsLimit == nil {
		runTestsLimit = func(next http.Handler) http.Handler { return next }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:       service,
		runTestsLimit: runTestsLimit,
		logger:        logger,
	}
}

// Register registers system routes with the router
func (h *Handler) Register(r chi.Router) {
	r.Get("/system/status", h.HandleStatus)
	r.Get("/system/kill-switch", h.HandleGetKillSwitch)
	r.Post("/system/kill-switch", h.HandleSetKillSwitch)
	r.With(h.runTestsLimit).Post("/system/run-tests", h.HandleRunTests)
	r.Get("/system/infra-status", h.HandleInfraStatus)
	r.Get("/system/infra-logs", h.HandleInfraLogs)
	r.Get("/metrics/llm", h.HandleLLMMetrics)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())
	status.Stamp()
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleGetKillSwitch(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.WithMeta(map[string]any{
		"kill_switch": h.service.KillSwitchEnabled(),
	}))
}

// HandleSetKillSwitch expects {"enabled": bool}.
func (h *Handler) HandleSetKillSwitch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndValidate[types.KillSwitchRequest](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}

	actor := models.IdentityFrom(ctx).Actor()
	previous := h.service.SetKillSwitch(ctx, *req.Enabled, actor)

	httputil.WriteJSON(w, http.StatusOK, httputil.WithMeta(map[string]any{
		"kill_switch": *req.Enabled,
		"previous":    previous,
		"updated_by":  actor,
	}))
}

// HandleRunTests runs the self-test routine if the test budget allows it.
func (h *Handler) HandleRunTests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	budget := h.service.CheckTestBudget(ctx)
	if !budget.Allowed {
		h.logger.WarnContext(ctx, "self-test refused by test budget",
			"reason", budget.Reason,
			"fail_safe", budget.FailSafe,
			"request_id", requestID,
		)
		httputil.WriteJSON(w, http.StatusForbidden, httputil.WithMeta(map[string]any{
			"error":          "COST_GUARD_BLOCKED",
			"reason":         budget.Reason,
			"cost_today":     budget.CostToday,
			"max_budget_usd": budget.MaxBudget,
			"fail_safe":      budget.FailSafe,
		}))
		return
	}

	actor := models.IdentityFrom(ctx).Actor()
	report, err := h.service.RunSelfTest(ctx, requestcontext.ClientIP(ctx), actor)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			httputil.WriteJSON(w, http.StatusGatewayTimeout, httputil.WithMeta(map[string]any{
				"error":   "TEST_ROUTINE_TIMEOUT",
				"message": "Test routine did not finish in time.",
			}))
			return
		}
		h.logger.ErrorContext(ctx, "self-test failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, httputil.WithMeta(map[string]any{
		"ok":        report.OK,
		"source_ip": report.SourceIP,
		"checks":    report.Checks,
		"budget":    budget,
	}))
}

func (h *Handler) HandleInfraStatus(w http.ResponseWriter, _ *http.Request) {
	info := h.service.InfraStatus()
	info.Stamp()
	httputil.WriteJSON(w, http.StatusOK, info)
}

// HandleInfraLogs serves the log tail as plain text.
func (h *Handler) HandleInfraLogs(w http.ResponseWriter, r *http.Request) {
	_, data, err := h.service.InfraLogs()
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("No infra logs found."))
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read infra logs", "error", err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) HandleLLMMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, err := h.service.LLMMetrics(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "llm metrics unavailable", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeTelemetryUnavailable, "llm metrics unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.WithMeta(payload))
}
