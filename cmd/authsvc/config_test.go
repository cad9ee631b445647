package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %v", err)
	assert.Equal(t, code, oopsErr.Code())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authsvc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func serveFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := NewServeCmd().Flags()
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, 10*time.Minute, cfg.TwoFactor.ChallengeTTL)
	assert.Equal(t, "2FA Code", cfg.TwoFactor.EmailSubject)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadConfigLayering(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
log:
  format: text
jwt:
  ttl: 5m
  secret: from-file
cookie:
  same_site: strict
ratelimit:
  max_attempts: 3
`)
	t.Setenv("AUTHSVC_LOG__FORMAT", "json")
	t.Setenv("AUTHSVC_JWT__SECRET", "from-env")
	t.Setenv("AUTHSVC_RATELIMIT__WINDOW", "30s")
	t.Setenv("AUTHSVC_SERVER__ADDR", ":9001")

	cfg, err := loadConfig(path, serveFlags(t, "--listen", ":9002"))
	require.NoError(t, err)

	assert.Equal(t, ":9002", cfg.Server.Addr, "flag wins over env and file")
	assert.Equal(t, "json", cfg.Log.Format, "env wins over file")
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, "strict", cfg.Cookie.SameSite)
	assert.Equal(t, 3, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "info", cfg.Log.Level, "unset flag keeps default")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assertCode(t, err, "CONFIG_INVALID")
}

func TestEngineConfig(t *testing.T) {
	cfg := defaultServiceConfig()
	_, err := cfg.engineConfig()
	require.Error(t, err, "an empty secret must be rejected")
	assertCode(t, err, "CONFIG_INVALID")

	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Metrics.Latency = true
	ec, err := cfg.engineConfig()
	require.NoError(t, err)
	assert.Equal(t, []byte(cfg.JWT.Secret), ec.JWT.PrivateKey)
	assert.Equal(t, "authsvc", ec.JWT.Issuer)
	assert.True(t, ec.Metrics.EnableLatencyHistograms)
}

func TestEngineConfigReadsKeyFile(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "hmac.key")
	require.NoError(t, os.WriteFile(keyPath, []byte("fedcba9876543210fedcba9876543210"), 0o600))

	cfg := defaultServiceConfig()
	cfg.JWT.Secret = "ignored"
	cfg.JWT.PrivateKeyFile = keyPath
	ec, err := cfg.engineConfig()
	require.NoError(t, err)
	assert.Equal(t, "fedcba9876543210fedcba9876543210", string(ec.JWT.PrivateKey))

	cfg.JWT.PrivateKeyFile = filepath.Join(dir, "missing.key")
	_, err = cfg.engineConfig()
	assertCode(t, err, "CONFIG_INVALID")
}
