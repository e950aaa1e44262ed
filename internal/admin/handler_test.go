package admin

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"opsgate/internal/admin/mocks"
	"opsgate/internal/auth/models"
	"opsgate/internal/costguard"
	tmodels "opsgate/internal/telemetry/models"
	dErrors "opsgate/pkg/domain-errors"
	"opsgate/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	killSwitch *mocks.MockKillSwitch
	budget     *mocks.MockBudgetGuard
	telemetry  *mocks.MockTelemetry
	logDir     string
	router     chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.killSwitch = mocks.NewMockKillSwitch(s.ctrl)
	s.budget = mocks.NewMockBudgetGuard(s.ctrl)
	s.telemetry = mocks.NewMockTelemetry(s.ctrl)
	s.logDir = s.T().TempDir()
	s.mount()
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) mount(opts ...Option) {
	opts = append([]Option{
		WithLogPaths(filepath.Join(s.logDir, "system.log"), filepath.Join(s.logDir, "agents.log")),
		WithVersion("1.2.3", "test"),
	}, opts...)
	service := NewService(s.killSwitch, s.budget, s.telemetry, opts...)
	s.router = chi.NewRouter()
	New(service, nil, nil).Register(s.router)
}

func (s *HandlerSuite) do(method, target, body string, identity *models.Identity) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := requestcontext.WithClientMetadata(r.Context(), "192.0.2.10", "curl/8.0")
	if identity != nil {
		ctx = models.WithIdentity(ctx, identity)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r.WithContext(ctx))
	return w
}

func (s *HandlerSuite) body(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *HandlerSuite) TestStatus() {
	s.killSwitch.EXPECT().IsEnabled().Return(true)

	w := s.do(http.MethodGet, "/system/status", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.body(w)
	s.Equal("1.2.3", body["gateway_version"])
	s.Equal(true, body["kill_switch"])
	s.NotEmpty(body["last_updated"])
	s.Contains(body, "memory_usage")
}

func (s *HandlerSuite) TestKillSwitch() {
	s.Run("read", func() {
		s.killSwitch.EXPECT().IsEnabled().Return(false)

		w := s.do(http.MethodGet, "/system/kill-switch", "", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(false, s.body(w)["kill_switch"])
	})

	s.Run("toggle records the operator", func() {
		s.killSwitch.EXPECT().SetEnabled(gomock.Any(), true, "internal").Return(false)

		w := s.do(http.MethodPost, "/system/kill-switch", `{"enabled":true}`, models.NewInternalIdentity())
		s.Require().Equal(http.StatusOK, w.Code)
		body := s.body(w)
		s.Equal(true, body["kill_switch"])
		s.Equal(false, body["previous"])
		s.Equal("internal", body["updated_by"])
	})

	s.Run("token holder", func() {
		s.killSwitch.EXPECT().SetEnabled(gomock.Any(), false, "admin:ops-user").Return(true)

		w := s.do(http.MethodPost, "/system/kill-switch", `{"enabled":false}`, models.NewExternalIdentity("ops-user"))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("missing field is rejected", func() {
		w := s.do(http.MethodPost, "/system/kill-switch", `{}`, models.NewInternalIdentity())
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("VALIDATION_ERROR", s.body(w)["error"])
	})

	s.Run("malformed body is rejected", func() {
		w := s.do(http.MethodPost, "/system/kill-switch", `{"enabled":`, models.NewInternalIdentity())
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestRunTestsRefusedByBudget() {
	s.budget.EXPECT().CheckBudget(gomock.Any(), costguard.KindTestBudget).Return(costguard.Result{
		Kind:      costguard.KindTestBudget,
		Reason:    costguard.ReasonTelemetryTimeout,
		MaxBudget: 1,
		FailSafe:  true,
	})

	w := s.do(http.MethodPost, "/system/run-tests", "", models.NewInternalIdentity())
	s.Require().Equal(http.StatusForbidden, w.Code)
	body := s.body(w)
	s.Equal("COST_GUARD_BLOCKED", body["error"])
	s.Equal("telemetry_timeout", body["reason"])
	s.Equal(true, body["fail_safe"])
}

func (s *HandlerSuite) allowTestBudget() {
	s.budget.EXPECT().CheckBudget(gomock.Any(), costguard.KindTestBudget).
		Return(costguard.Result{Kind: costguard.KindTestBudget, Allowed: true, Reason: costguard.ReasonWithinBudget, MaxBudget: 1})
}

func (s *HandlerSuite) TestRunTests() {
	s.mount(
		WithSelfTestCheck("database", func(context.Context) error { return nil }),
		WithSelfTestCheck("redis", func(context.Context) error { return nil }),
	)
	s.allowTestBudget()
	s.telemetry.EXPECT().RecordUsage(gomock.Any(), tmodels.Usage{
		Source:    "test",
		Endpoint:  "run-tests",
		Operation: "infra_test",
		Agent:     "internal",
	}).Return(nil)

	w := s.do(http.MethodPost, "/system/run-tests", "", models.NewInternalIdentity())
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.body(w)
	s.Equal(true, body["ok"])
	s.Equal("192.0.2.10", body["source_ip"])
	checks, ok := body["checks"].([]any)
	s.Require().True(ok)
	s.Len(checks, 2)
	s.Equal("database", checks[0].(map[string]any)["name"])
}

func (s *HandlerSuite) TestRunTestsReportsFailingCheck() {
	s.mount(WithSelfTestCheck("database", func(context.Context) error { return errors.New("connection refused") }))
	s.allowTestBudget()
	s.telemetry.EXPECT().RecordUsage(gomock.Any(), gomock.Any()).Return(errors.New("store down"))

	w := s.do(http.MethodPost, "/system/run-tests", "", models.NewInternalIdentity())
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal(false, s.body(w)["ok"])
}

func (s *HandlerSuite) TestRunTestsTimeout() {
	s.mount(
		WithSelfTestTimeout(20*time.Millisecond),
		WithSelfTestCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return ctx.Err()
		}),
	)
	s.allowTestBudget()

	w := s.do(http.MethodPost, "/system/run-tests", "", models.NewInternalIdentity())
	s.Require().Equal(http.StatusGatewayTimeout, w.Code)
	s.Equal("TEST_ROUTINE_TIMEOUT", s.body(w)["error"])
}

func (s *HandlerSuite) TestInfraStatus() {
	w := s.do(http.MethodGet, "/system/infra-status", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.body(w)
	s.True(strings.HasPrefix(body["go_version"].(string), "go"))
	s.Equal(true, body["logs_dir_exists"])
}

func (s *HandlerSuite) TestInfraLogs() {
	s.Run("none yet", func() {
		w := s.do(http.MethodGet, "/system/infra-logs", "", nil)
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("No infra logs found.", w.Body.String())
	})

	s.Run("tail of the first existing file", func() {
		content := strings.Repeat("x", 25000) + "END"
		s.Require().NoError(os.WriteFile(filepath.Join(s.logDir, "agents.log"), []byte(content), 0o600))

		w := s.do(http.MethodGet, "/system/infra-logs", "", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal(20000, w.Body.Len())
		s.True(strings.HasSuffix(w.Body.String(), "END"))
		s.Contains(w.Header().Get("Content-Type"), "text/plain")
	})
}

func (s *HandlerSuite) TestLLMMetrics() {
	s.Run("from the store", func() {
		s.telemetry.EXPECT().FetchLLMMetrics(gomock.Any()).Return(&tmodels.LLMMetrics{
			CostTodayUSD:  1.5,
			CostMonthUSD:  12,
			TokensToday:   900,
			RequestsToday: 4,
			MostUsedModel: "gpt-4o",
			Source:        "database",
		}, nil)

		w := s.do(http.MethodGet, "/metrics/llm", "", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		body := s.body(w)
		s.Equal(1.5, body["total_cost_today"])
		s.Equal("gpt-4o", body["most_used_model"])
		s.Equal("database", body["source"])
	})

	s.Run("falls back to the event log", func() {
		s.telemetry.EXPECT().FetchLLMMetrics(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeTelemetryUnavailable, "telemetry store not configured"))
		s.telemetry.EXPECT().BuildFromEventLog(gomock.Any()).Return(&tmodels.EventSummary{
			Source:        "logs",
			TotalEvents:   3,
			EventsByActor: map[string]int{"planner": 3},
			Recent:        []map[string]any{{"actor": "planner"}},
		}, nil)

		w := s.do(http.MethodGet, "/metrics/llm", "", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		body := s.body(w)
		s.Equal("logs", body["source"])
		s.Equal(float64(3), body["total_requests_today"])
		s.Nil(body["most_used_model"])
	})

	s.Run("both sources down", func() {
		s.telemetry.EXPECT().FetchLLMMetrics(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeTelemetryUnavailable, "down"))
		s.telemetry.EXPECT().BuildFromEventLog(gomock.Any()).Return(nil, errors.New("permission denied"))

		w := s.do(http.MethodGet, "/metrics/llm", "", nil)
		s.Equal(http.StatusServiceUnavailable, w.Code)
	})
}
