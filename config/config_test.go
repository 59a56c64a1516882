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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
gateway:
  listen: ":9090"
server:
  listen: ":9091"
analytics:
  property_id: "123456"
  credentials_file: /etc/ga/sa.json
  default_days: 7
  timeout: 5s
query:
  default_limit: 25
  limit_mode: legacy
cors:
  allowed_origins: ["https://dash.example.com"]
rate_limit:
  enabled: true
  rps: 2
  burst: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Gateway.Listen)
	assert.Equal(t, ":9091", cfg.Server.Listen)
	assert.Equal(t, "123456", cfg.Analytics.PropertyID)
	assert.Equal(t, "/etc/ga/sa.json", cfg.Analytics.CredentialsFile)
	assert.Equal(t, 7, cfg.Analytics.DefaultDays)
	assert.Equal(t, 5*time.Second, cfg.Analytics.Timeout)
	assert.Equal(t, 25, cfg.Query.DefaultLimit)
	assert.Equal(t, LimitModeLegacy, cfg.Query.LimitMode)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.0, cfg.RateLimit.RPS)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "analytics: {}"))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Gateway.Listen)
	assert.Equal(t, ":4001", cfg.Server.Listen)
	assert.Equal(t, 28, cfg.Analytics.DefaultDays)
	assert.Equal(t, 30*time.Second, cfg.Analytics.Timeout)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, LimitModeStrict, cfg.Query.LimitMode)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GA4_PROPERTY_ID", "987")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/creds.json")
	t.Setenv("PORT", "5050")
	t.Setenv("GAGW_UPSTREAM_TIMEOUT", "2s")

	cfg, err := Load(writeConfig(t, `
gateway:
  listen: ":9090"
analytics:
  property_id: "from-file"
`))
	require.NoError(t, err)

	assert.Equal(t, "987", cfg.Analytics.PropertyID)
	assert.Equal(t, "/tmp/creds.json", cfg.Analytics.CredentialsFile)
	assert.Equal(t, ":5050", cfg.Gateway.Listen)
	assert.Equal(t, 2*time.Second, cfg.Analytics.Timeout)
}

func TestDefaultUsesEnvironment(t *testing.T) {
	t.Setenv("GA4_PROPERTY_ID", "42")

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "42", cfg.Analytics.PropertyID)
	assert.Equal(t, ":4000", cfg.Gateway.Listen)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, "analytics: {}"))
	require.NoError(t, err)
	cfg.Analytics.PropertyID = ""
	assert.ErrorIs(t, cfg.Validate(), ErrMissingPropertyID)

	cfg.Analytics.PropertyID = "1"
	cfg.Query.LimitMode = "loose"
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}
