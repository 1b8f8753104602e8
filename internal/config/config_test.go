package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "argus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "")
	path := writeConfig(t, `
server:
  addr: ":9000"
sources:
  order: [espn-scrape, odds-api]
  fallback_enabled: false
  timeout: 3s
  cooldown:
    quota_exhausted: 0s
    rate_limited: 2m
oddsapi:
  api_key: "file_key"
  regions: [us, uk]
scheduler:
  enabled: true
  interval: 30s
  concurrency: 2
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"espn-scrape", "odds-api"}, cfg.Sources.Order)
	assert.False(t, cfg.Sources.FallbackEnabled)
	assert.Equal(t, 3*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Sources.Cooldown.QuotaExhausted)
	assert.Equal(t, 2*time.Minute, cfg.Sources.Cooldown.RateLimited)
	assert.Equal(t, 30*time.Second, cfg.Sources.Cooldown.ServerError, "unset keys keep defaults")
	assert.Equal(t, "file_key", cfg.OddsAPI.APIKey)
	assert.Equal(t, []string{"us", "uk"}, cfg.OddsAPI.Regions)
	assert.Equal(t, 48, cfg.Scheduler.WindowHours)

	require.NoError(t, cfg.Validate())
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "env_key")
	t.Setenv("ARGUS_SOURCES_TIMEOUT", "7s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"odds-api", "espn-scrape", "sportsbet-scrape"}, cfg.Sources.Order)
	assert.True(t, cfg.Sources.FallbackEnabled)
	assert.Equal(t, 7*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, time.Hour, cfg.Sources.Cooldown.QuotaExhausted)
	assert.Equal(t, "env_key", cfg.OddsAPI.APIKey)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "k")
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty order", func(c *Config) { c.Sources.Order = nil }},
		{"unknown source", func(c *Config) { c.Sources.Order = []string{"betfair"} }},
		{"duplicate source", func(c *Config) { c.Sources.Order = []string{"odds-api", "odds-api"} }},
		{"zero timeout", func(c *Config) { c.Sources.Timeout = 0 }},
		{"negative cooldown", func(c *Config) { c.Sources.Cooldown.ServerError = -time.Second }},
		{"missing api key", func(c *Config) { c.OddsAPI.APIKey = "" }},
		{"scheduler interval", func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.Interval = time.Second }},
		{"scheduler concurrency", func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.Concurrency = 0 }},
		{"redis url", func(c *Config) { c.Redis.Enabled = true; c.Redis.URL = "" }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ScrapersOnlyNeedNoKey(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "")
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Sources.Order = []string{"espn-scrape", "sportsbet-scrape"}
	assert.NoError(t, cfg.Validate())
}
