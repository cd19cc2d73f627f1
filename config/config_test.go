package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaultsEmptyURL(t *testing.T) {
	c := Config{}
	require.NoError(t, c.Normalize())
	require.Equal(t, DefaultBaseURL, c.BaseURL)
}

func TestNormalizeStripsTrailingSlash(t *testing.T) {
	c := Config{BaseURL: "http://example.com:8000/"}
	require.NoError(t, c.Normalize())
	require.Equal(t, "http://example.com:8000", c.BaseURL)
}

func TestNormalizeRejectsBadScheme(t *testing.T) {
	c := Config{BaseURL: "ftp://example.com"}
	require.Error(t, c.Normalize())

	c = Config{BaseURL: "localhost:8000"}
	require.Error(t, c.Normalize())
}

func TestNormalizeRejectsMissingHost(t *testing.T) {
	c := Config{BaseURL: "http://"}
	require.Error(t, c.Normalize())
}

func TestStreamTimeout(t *testing.T) {
	c := Config{StreamTimeoutSeconds: 300}
	require.Equal(t, 5*time.Minute, c.StreamTimeout())

	c.StreamTimeoutSeconds = 0
	require.Zero(t, c.StreamTimeout())

	c.StreamTimeoutSeconds = -5
	require.Zero(t, c.StreamTimeout())
}

func TestBackendHostPort(t *testing.T) {
	c := Config{BaseURL: "http://db.internal:8000"}
	host, port, err := c.BackendHostPort()
	require.NoError(t, err)
	require.Equal(t, "db.internal", host)
	require.Equal(t, 8000, port)
}

func TestBackendHostPortSchemeDefaults(t *testing.T) {
	c := Config{BaseURL: "http://db.internal"}
	host, port, err := c.BackendHostPort()
	require.NoError(t, err)
	require.Equal(t, "db.internal", host)
	require.Equal(t, 80, port)

	c = Config{BaseURL: "https://db.internal"}
	_, port, err = c.BackendHostPort()
	require.NoError(t, err)
	require.Equal(t, 443, port)
}

func TestAppConfigConversion(t *testing.T) {
	a := DefaultAppConfig()
	a.BaseURL = "http://example.com:9000"
	a.StreamTimeoutSeconds = 120
	a.SSH.Enabled = true
	a.SSH.Host = "bastion"

	c := a.Config()
	require.Equal(t, "http://example.com:9000", c.BaseURL)
	require.Equal(t, 120, c.StreamTimeoutSeconds)
	require.True(t, c.SSH.Enabled)
	require.Equal(t, "bastion", c.SSH.Host)
	require.Equal(t, 22, c.SSH.Port)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DATACHAT_URL", "http://env-host:7000")
	t.Setenv("DATACHAT_STREAM_TIMEOUT", "45")

	cfg := DefaultAppConfig()
	applyEnv(cfg)

	require.Equal(t, "http://env-host:7000", cfg.BaseURL)
	require.Equal(t, 45, cfg.StreamTimeoutSeconds)
}

func TestApplyEnvIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv("DATACHAT_STREAM_TIMEOUT", "not-a-number")

	cfg := DefaultAppConfig()
	applyEnv(cfg)

	require.Equal(t, DefaultStreamTimeoutSeconds, cfg.StreamTimeoutSeconds)
}
