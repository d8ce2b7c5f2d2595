package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BALANCE_SERVER_PORT.
const EnvPrefix = "BALANCE"

// Default values for settings that are not supplied.
const (
	DefaultPort            = 8080
	DefaultLogLevel        = "info"
	DefaultAllowedOrigin   = "https://hub.bezla.com"
	DefaultIdentityBaseURL = "https://api.kajabi.com"
	DefaultIdentityMode    = "graphql"
	DefaultAutomationURL   = "https://api.browser-use.com/api/v1"
	DefaultAutomationModel = "gpt-4o"
	DefaultMaxPollAttempts = 30
	DefaultPollInterval    = 1500 * time.Millisecond
	DefaultRequestTimeout  = 15 * time.Second
	DefaultServiceName     = "balance-proxy"
	DefaultTokenLifetime   = 60
	DefaultMetricsPath     = "/metrics"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key with viper. AutomaticEnv only resolves keys
// viper already knows about, so secrets get an empty default too.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.log_level", DefaultLogLevel)
	v.SetDefault("server.allowed_origin", DefaultAllowedOrigin)

	v.SetDefault("identity.base_url", DefaultIdentityBaseURL)
	v.SetDefault("identity.mode", DefaultIdentityMode)
	v.SetDefault("identity.api_key", "")
	v.SetDefault("identity.api_secret", "")
	v.SetDefault("identity.request_timeout", 10*time.Second)

	v.SetDefault("automation.base_url", DefaultAutomationURL)
	v.SetDefault("automation.api_key", "")
	v.SetDefault("automation.model", DefaultAutomationModel)
	v.SetDefault("automation.max_poll_attempts", DefaultMaxPollAttempts)
	v.SetDefault("automation.poll_interval", DefaultPollInterval)
	v.SetDefault("automation.request_timeout", DefaultRequestTimeout)

	v.SetDefault("auth.require_session", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", DefaultTokenLifetime)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", DefaultServiceName)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", DefaultMetricsPath)
}
