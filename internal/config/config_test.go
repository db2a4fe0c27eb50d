package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"HTTP_PORT", "RESPONDER_DELAY_MS", "SEED_DATA", "LOG_LEVEL", "LOG_FORMAT",
	"LOG_OUTPUT_PATH", "ALLOWED_ORIGINS", "MESSAGE_RATE_RPS", "MESSAGE_RATE_BURST",
}

// unsetAll clears every key for the duration of the test. t.Setenv registers
// the restore of the previous value.
func unsetAll(t *testing.T) {
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	unsetAll(t)

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, time.Second, cfg.ResponderDelay)
	assert.True(t, cfg.SeedData)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.MessageRPS)
	assert.Equal(t, 10, cfg.MessageBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestFromEnv_SplitsOrigins(t *testing.T) {
	unsetAll(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example,")
	t.Setenv("SEED_DATA", "false")
	t.Setenv("RESPONDER_DELAY_MS", "250")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.SeedData)
	assert.Equal(t, 250*time.Millisecond, cfg.ResponderDelay)
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	unsetAll(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RESPONDER_DELAY_MS", "soon")
	t.Setenv("SEED_DATA", "maybe")
	t.Setenv("MESSAGE_RATE_RPS", "-1")
	t.Setenv("MESSAGE_RATE_BURST", "lots")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, time.Second, cfg.ResponderDelay)
	assert.True(t, cfg.SeedData)
	assert.Equal(t, 5.0, cfg.MessageRPS)
	assert.Equal(t, 10, cfg.MessageBurst)
}

func TestFromEnv_InvalidPort(t *testing.T) {
	unsetAll(t)
	t.Setenv("HTTP_PORT", "http")

	_, err := fromEnv()
	assert.Error(t, err)
}
