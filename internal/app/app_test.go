package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/phrazzld/balance-proxy/internal/platform/logger"
	"github.com/phrazzld/balance-proxy/internal/service/auth"
	"github.com/phrazzld/balance-proxy/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://hub.example.com"

type testEnv struct {
	router     http.Handler
	automation *testutils.FakeAutomation
	identity   *testutils.FakeIdentity
	sleeps     []time.Duration
	app        *Application
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		automation: testutils.NewFakeAutomation(t, "automation-key"),
		identity:   testutils.NewFakeIdentity(t, "id-key", "id-secret", map[string]string{"2291": "Looked Up"}),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "debug", AllowedOrigin: testOrigin},
		Identity: config.IdentityConfig{
			BaseURL:        env.identity.URL,
			Mode:           "graphql",
			APIKey:         "id-key",
			APISecret:      "id-secret",
			RequestTimeout: 5 * time.Second,
		},
		Automation: config.AutomationConfig{
			BaseURL:         env.automation.URL,
			APIKey:          "automation-key",
			Model:           "gpt-4o",
			MaxPollAttempts: 30,
			PollInterval:    1500 * time.Millisecond,
			RequestTimeout:  5 * time.Second,
		},
		Auth:      config.AuthConfig{TokenLifetimeMinutes: 60},
		Telemetry: config.TelemetryConfig{ServiceName: "balance-proxy"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	log, _ := logger.GetTestLogger(t)
	var mu sync.Mutex
	app, err := New(cfg, log, Options{Sleep: func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		env.sleeps = append(env.sleeps, d)
		mu.Unlock()
		return ctx.Err()
	}})
	require.NoError(t, err)

	env.app = app
	env.router = app.Router()
	return env
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestBalance_CompletesAfterThreeAttempts(t *testing.T) {
	for _, path := range []string{BalancePath, LegacyBalancePath} {
		t.Run(path, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.automation.SetStatuses(
				`{"status":"pending"}`,
				`{"status":"pending"}`,
				`{"status":"completed","result":"4.5"}`,
			)

			w := env.do(http.MethodPost, path, `{"userName": "Jane Doe"}`, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"balance":"4.5"}`, w.Body.String())
			testutils.AssertCORSHeaders(t, w.Header(), testOrigin)
			assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

			assert.Equal(t, []string{"task-123", "task-123", "task-123"}, env.automation.Queries())
			assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}, env.sleeps)
			assert.Empty(t, env.identity.Lookups())

			submissions := env.automation.Submissions()
			require.Len(t, submissions, 1)
			assert.Equal(t, "gpt-4o", submissions[0]["llm_model"])
			assert.Contains(t, submissions[0]["task"], `"Jane Doe"`)
		})
	}
}

func TestBalance_UserIDIsLookedUp(t *testing.T) {
	env := newTestEnv(t, nil)
	env.automation.SetStatuses(`{"status":"finished","output":"Remaining: 7 days"}`)

	w := env.do(http.MethodPost, BalancePath, `{"userId": "2291"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":"7"}`, w.Body.String())
	assert.Equal(t, []string{"2291"}, env.identity.Lookups())
	submissions := env.automation.Submissions()
	require.Len(t, submissions, 1)
	assert.Contains(t, submissions[0]["task"], `"Looked Up"`)
}

func TestBalance_EmptyBodyMakesNoOutboundCalls(t *testing.T) {
	for _, body := range []string{"", "{}"} {
		t.Run("body="+body, func(t *testing.T) {
			env := newTestEnv(t, nil)

			w := env.do(http.MethodPost, BalancePath, body, nil)

			testutils.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid request body or missing userName.")
			testutils.AssertCORSHeaders(t, w.Header(), testOrigin)
			assert.Empty(t, env.identity.Lookups())
			assert.Empty(t, env.automation.Submissions())
			assert.Empty(t, env.automation.Queries())
		})
	}
}

func TestBalance_TaskFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.automation.SetStatuses(
		`{"status":"running"}`,
		`{"status":"failed","error":"sheet not shared"}`,
	)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Automation process failed."}`, w.Body.String())
	assert.Len(t, env.automation.Queries(), 2)
}

func TestBalance_FailureWithObjectErrorStopsAtFirstAttempt(t *testing.T) {
	env := newTestEnv(t, nil)
	env.automation.SetStatuses(`{"status":"failed","error":{"message":"sheet missing"}}`)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)

	testutils.AssertErrorResponse(t, w, http.StatusInternalServerError, "Automation process failed.")
	assert.Len(t, env.automation.Queries(), 1)
	assert.Empty(t, env.sleeps)
}

func TestBalance_CompletedWithFalseErrorReturnsBalance(t *testing.T) {
	env := newTestEnv(t, nil)
	env.automation.SetStatuses(`{"status":"finished","output":"4.5","error":false}`)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":"4.5"}`, w.Body.String())
	assert.Len(t, env.automation.Queries(), 1)
}

func TestBalance_TimesOutAfterBudget(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Automation process failed."}`, w.Body.String())
	assert.Len(t, env.automation.Queries(), 30)
	assert.Len(t, env.sleeps, 29)
}

func TestBalance_SubmissionWithoutHandle(t *testing.T) {
	env := newTestEnv(t, nil)
	env.automation.SetSubmitReply(http.StatusOK, `{"status":"accepted"}`)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Automation process failed."}`, w.Body.String())
	assert.Empty(t, env.automation.Queries(), "poller never runs without a handle")
}

func TestBalance_MissingSecretsFailAtRequestTime(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Identity.APIKey = ""
		cfg.Automation.APIKey = ""
	})

	w := env.do(http.MethodPost, BalancePath, `{"userId": "2291"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to look up user name."}`, w.Body.String())
	assert.Empty(t, env.identity.Lookups())

	w = env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Automation process failed."}`, w.Body.String())
	assert.Empty(t, env.automation.Submissions())
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		body   string
	}{
		{name: "configured", body: `{"userName":"Jane"}`},
		{name: "no body"},
		{name: "garbage body", body: "%%%"},
		{
			name: "no secrets and sessions required",
			mutate: func(cfg *config.Config) {
				cfg.Identity.APIKey = ""
				cfg.Identity.APISecret = ""
				cfg.Automation.APIKey = ""
				cfg.Auth.RequireSession = true
				cfg.Auth.JWTSecret = strings.Repeat("s", 32)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.mutate)

			for _, path := range []string{BalancePath, LegacyBalancePath} {
				w := env.do(http.MethodOptions, path, tt.body, nil)

				assert.Equal(t, http.StatusNoContent, w.Code)
				assert.Empty(t, w.Body.String())
				testutils.AssertCORSHeaders(t, w.Header(), testOrigin)
			}
			assert.Empty(t, env.identity.Lookups())
			assert.Empty(t, env.automation.Submissions())
		})
	}
}

func TestSessionRequired(t *testing.T) {
	secret := strings.Repeat("k", 40)
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Auth.RequireSession = true
		cfg.Auth.JWTSecret = secret
	})
	env.automation.SetStatuses(`{"status":"completed","result":12}`)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)
	testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "Authentication required")
	testutils.AssertCORSHeaders(t, w.Header(), testOrigin)
	assert.Empty(t, env.automation.Submissions())

	jwtSvc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: secret, TokenLifetimeMinutes: 5})
	require.NoError(t, err)
	token, err := jwtSvc.GenerateToken(context.Background(), "2291")
	require.NoError(t, err)

	w = env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`,
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":"12"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, HealthPath, "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	})
	env.automation.SetStatuses(`{"status":"pending"}`, `{"status":"completed","result":"4.5"}`)

	w := env.do(http.MethodPost, BalancePath, `{"userName": "Jane Doe"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `balance_proxy_poller_runs_total{outcome="completed"} 1`)
	assert.Contains(t, body, `balance_proxy_http_requests_total{code="200",method="POST",route="/api/balance"} 1`)
}

func TestMetricsEndpoint_DisabledByDefault(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestBudget(t *testing.T) {
	env := newTestEnv(t, nil)

	// 5s lookup + 5s submit + 30 queries at 5s + 29 delays of 1.5s
	want := 5*time.Second + 5*time.Second + 30*5*time.Second + 29*1500*time.Millisecond
	assert.Equal(t, want, env.app.RequestBudget())
}

func TestNew_Validation(t *testing.T) {
	log, _ := logger.GetTestLogger(t)

	_, err := New(nil, log, Options{})
	assert.Error(t, err)

	_, err = New(&config.Config{}, nil, Options{})
	assert.Error(t, err)

	_, err = New(&config.Config{Identity: config.IdentityConfig{BaseURL: "::bad"}}, log, Options{})
	assert.Error(t, err)
}
