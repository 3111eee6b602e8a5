package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("AUTHGATE_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AUTHGATE_JWT_SECRET", "test-secret")
	t.Setenv("AUTHGATE_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("AUTHGATE_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("AUTHGATE_REFRESH_TOKEN_TTL", "72h")
	t.Setenv("AUTHGATE_COOKIE_SECURE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTokenTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("AUTHGATE_JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsInvertedTTLs(t *testing.T) {
	t.Setenv("AUTHGATE_JWT_SECRET", "test-secret")
	t.Setenv("AUTHGATE_ACCESS_TOKEN_TTL", "48h")
	t.Setenv("AUTHGATE_REFRESH_TOKEN_TTL", "1h")

	_, err := LoadConfig()
	assert.Error(t, err)
}
