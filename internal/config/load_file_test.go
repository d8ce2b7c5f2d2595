package config_test

import (
	"testing"
	"time"

	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/phrazzld/balance-proxy/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromConfigFile(t *testing.T) {
	testutils.CreateTempConfigFile(t, `
server:
  port: 7070
  allowed_origin: https://pages.example.com
identity:
  mode: rest
automation:
  max_poll_attempts: 5
  poll_interval: 2s
`)
	t.Setenv("BALANCE_SERVER_PORT", "")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://pages.example.com", cfg.Server.AllowedOrigin)
	assert.Equal(t, "rest", cfg.Identity.Mode)
	assert.Equal(t, 5, cfg.Automation.MaxPollAttempts)
	assert.Equal(t, 2*time.Second, cfg.Automation.PollInterval)
	assert.Equal(t, config.DefaultAutomationModel, cfg.Automation.Model)
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	testutils.CreateTempConfigFile(t, `
automation:
  max_poll_attempts: 5
`)
	t.Setenv("BALANCE_AUTOMATION_MAX_POLL_ATTEMPTS", "9")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Automation.MaxPollAttempts)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	testutils.CreateTempConfigFile(t, "server: [unterminated\n")

	cfg, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
	assert.Nil(t, cfg)
}
