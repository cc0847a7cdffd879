package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.TokenLifetime)
	assert.Equal(t, 5*time.Second, cfg.ClockSkew)
	assert.Equal(t, int64(100_000), cfg.DailyTokenLimit)
	assert.Equal(t, "mw-mcp-server", cfg.ServiceIdentity)
	assert.Equal(t, "MWAssistant", cfg.ExtensionIdentity)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_TTL_SEC", "60")
	t.Setenv("DAILY_TOKEN_LIMIT", "500")
	cfg := Load()
	assert.Equal(t, 60*time.Second, cfg.TokenLifetime)
	assert.Equal(t, int64(500), cfg.DailyTokenLimit)
}

func TestLoadRejectsUnparseableValues(t *testing.T) {
	// A typo in a numeric var must fall back to the default, not zero out
	// the token lifetime and reject every well-formed token.
	t.Setenv("JWT_TTL_SEC", "thirty")
	t.Setenv("JWT_CLOCK_SKEW_SEC", "5s")
	t.Setenv("DAILY_TOKEN_LIMIT", "lots")
	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.TokenLifetime)
	assert.Equal(t, 5*time.Second, cfg.ClockSkew)
	assert.Equal(t, int64(100_000), cfg.DailyTokenLimit)
}
