package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DB_DSN", "postgres://localhost/papertrade")
	t.Setenv("JWT_ISSUER", "papertrade")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "24h")
	t.Setenv("INTERNAL_API_TOKEN", "internal")
	t.Setenv("WS_ORIGIN", "http://localhost:3000")
}

func TestLoad(t *testing.T) {
	setRequired(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, time.Minute, c.TickInterval)
	assert.True(t, c.ValuationEnabled)
	assert.Equal(t, "0", c.StartingFunds)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TICK_INTERVAL", "1h")
	t.Setenv("VALUATION_ENABLED", "false")
	t.Setenv("STARTING_FUNDS", "10000")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, c.TickInterval)
	assert.False(t, c.ValuationEnabled)
	assert.Equal(t, "10000", c.StartingFunds)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestLoadBadTickInterval(t *testing.T) {
	setRequired(t)

	t.Setenv("TICK_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TICK_INTERVAL", "-1m")
	_, err = Load()
	assert.Error(t, err)
}
