package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Identity   IdentityConfig   `mapstructure:"identity"   validate:"required"`
	Automation AutomationConfig `mapstructure:"automation" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AllowedOrigin is echoed in Access-Control-Allow-Origin on every response.
	AllowedOrigin string `mapstructure:"allowed_origin" validate:"required"`
}

// IdentityConfig configures the user lookup API.
// The credential pair is optional at load time; lookups fail without it.
type IdentityConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	Mode           string        `mapstructure:"mode"            validate:"required,oneof=graphql rest"`
	APIKey         string        `mapstructure:"api_key"`
	APISecret      string        `mapstructure:"api_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// AutomationConfig configures the task-execution API and the polling budget.
type AutomationConfig struct {
	BaseURL         string        `mapstructure:"base_url"          validate:"required,url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"             validate:"required"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts" validate:"gte=1,lte=600"`
	PollInterval    time.Duration `mapstructure:"poll_interval"     validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   validate:"gt=0"`
}

// AuthConfig controls the optional session-credential check.
type AuthConfig struct {
	RequireSession bool   `mapstructure:"require_session"`
	JWTSecret      string `mapstructure:"jwt_secret"      validate:"required_if=RequireSession true,omitempty,min=32"`

	// TokenLifetimeMinutes bounds tokens issued by the session service.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gte=1,lte=1440"`
}

// TelemetryConfig controls OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" validate:"required"`
}

// MetricsConfig controls the Prometheus scrape endpoint. Metrics are always
// collected; Enabled only decides whether Path is routed.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"    validate:"required,startswith=/"`
}
