package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]any) *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("JWT_SECRET", "test-secret")
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("NOTIFY_TIMEOUT", "2s")
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.JWTExpiryDuration)
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"STORE_DRIVER":   "Postgres",
		"PGSQL_URL":      "postgres://localhost/school",
		"LOG_LEVEL":      "debug",
		"NOTIFY_TIMEOUT": "500ms",
		"NATS_URL":       "nats://localhost:4222",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.NotifyTimeout)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestFromViper_Errors(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"STORE_DRIVER": "postgres"}))
	assert.ErrorContains(t, err, "PGSQL_URL is required")

	_, err = fromViper(newTestViper(map[string]any{"STORE_DRIVER": "sqlite"}))
	assert.ErrorContains(t, err, "unsupported STORE_DRIVER")

	_, err = fromViper(newTestViper(map[string]any{"JWT_SECRET": ""}))
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromViper_InvalidDurationFallsBack(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{"NOTIFY_TIMEOUT": "soon", "LOG_LEVEL": "chatty"}))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
