// Package app wires configuration, clients and services into the HTTP
// router shared by the long-running server and the Lambda entrypoint.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/phrazzld/balance-proxy/internal/platform/automation"
	"github.com/phrazzld/balance-proxy/internal/platform/identity"
	"github.com/phrazzld/balance-proxy/internal/platform/metrics"
	"github.com/phrazzld/balance-proxy/internal/service"
	"github.com/phrazzld/balance-proxy/internal/service/auth"
)

// Application holds all the shared application dependencies.
type Application struct {
	// Configuration
	config *config.Config

	logger  *slog.Logger
	metrics *metrics.Metrics

	// Outbound clients
	identityClient   *identity.Client
	automationClient *automation.Client

	// Service interfaces
	balanceService service.BalanceService
	jwtService     auth.JWTService // nil unless sessions are required
}

// Options overrides dependencies, mainly for tests.
type Options struct {
	// HTTPClient is used for both outbound APIs when set.
	HTTPClient *http.Client
	// Sleep replaces the delay between poll attempts when set.
	Sleep service.SleepFunc
	// Metrics replaces the collector set when set.
	Metrics *metrics.Metrics
}

// New creates an Application with all dependencies initialized.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	app := &Application{
		config:  cfg,
		logger:  logger,
		metrics: opts.Metrics,
	}
	if app.metrics == nil {
		app.metrics = metrics.New()
	}

	var err error
	app.identityClient, err = identity.NewClient(cfg.Identity, opts.HTTPClient,
		logger.With("component", "identity_client"))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}

	app.automationClient, err = automation.NewClient(cfg.Automation, opts.HTTPClient,
		logger.With("component", "automation_client"))
	if err != nil {
		return nil, fmt.Errorf("failed to create automation client: %w", err)
	}

	submitter, err := service.NewSubmitter(app.automationClient, logger.With("component", "submitter"))
	if err != nil {
		return nil, fmt.Errorf("failed to create submitter: %w", err)
	}

	poller, err := service.NewPoller(app.automationClient, service.PollerConfig{
		MaxAttempts: cfg.Automation.MaxPollAttempts,
		Interval:    cfg.Automation.PollInterval,
	}, logger.With("component", "poller"))
	if err != nil {
		return nil, fmt.Errorf("failed to create poller: %w", err)
	}
	poller.SetSleepFunc(opts.Sleep)
	poller.SetObserver(app.metrics)

	app.balanceService, err = service.NewBalanceService(
		app.identityClient,
		submitter,
		poller,
		service.BalanceServiceConfig{
			LookupTimeout: cfg.Identity.RequestTimeout,
			SubmitTimeout: cfg.Automation.RequestTimeout,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance service: %w", err)
	}

	if cfg.Auth.RequireSession {
		app.jwtService, err = auth.NewJWTService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		logger.Info("session authentication required",
			"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)
	}

	logger.Info("application initialized",
		"identity_mode", cfg.Identity.Mode,
		"identity_credentials_present", cfg.Identity.APIKey != "" && cfg.Identity.APISecret != "",
		"automation_key_present", cfg.Automation.APIKey != "",
		"automation_model", cfg.Automation.Model,
		"max_poll_attempts", cfg.Automation.MaxPollAttempts,
		"poll_interval", cfg.Automation.PollInterval.String())

	return app, nil
}

// Config returns the configuration the application was built from.
func (a *Application) Config() *config.Config {
	return a.config
}

// RequestBudget is the longest a balance request can legitimately take:
// both stage deadlines plus every poll attempt and the delays between them.
// Server write timeouts must exceed it.
func (a *Application) RequestBudget() time.Duration {
	auto := a.config.Automation
	attempts := time.Duration(auto.MaxPollAttempts)

	return a.config.Identity.RequestTimeout +
		auto.RequestTimeout +
		attempts*auto.RequestTimeout +
		(attempts-1)*auto.PollInterval
}
