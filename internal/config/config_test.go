package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	path := filepath.Join(t.TempDir(), "trains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
booking:
  filter_url: http://filter:3000
  reserve_timeout: 750ms
store:
  driver: sqlite
  path: /var/lib/trains/trains.db
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://filter:3000", cfg.Booking.FilterURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Booking.ReserveTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/trains/trains.db", cfg.Store.Path)
	// Untouched sections keep their defaults.
	assert.Equal(t, ":3000", cfg.Filter.Addr)
	assert.Equal(t, "5432", cfg.Store.Postgres.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FILTER_PORT":     "4000",
		"BOOKING_PORT":    "4001",
		"FILTER_URL":      "http://127.0.0.1:4000",
		"RESERVE_TIMEOUT": "2s",
		"STORE_DRIVER":    "postgres",
		"DB_HOST":         "db",
		"DB_MAX_CONNS":    "5",
		"BOOKING_URL":     "http://booking:3001/wsdl",
		"CLIENT_TIMEOUT":  "3s",
	}
	cfg := Default()
	require.NoError(t, applyEnv(cfg, func(k string) string { return env[k] }))

	assert.Equal(t, ":4000", cfg.Filter.Addr)
	assert.Equal(t, ":4001", cfg.Booking.Addr)
	assert.Equal(t, "http://127.0.0.1:4000", cfg.Booking.FilterURL)
	assert.Equal(t, 2*time.Second, cfg.Booking.ReserveTimeout)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "db", cfg.Store.Postgres.Host)
	assert.Equal(t, int32(5), cfg.Store.Postgres.MaxConns)
	assert.Contains(t, cfg.Store.Postgres.DSN(), "host=db")
	assert.Equal(t, "http://booking:3001/wsdl", cfg.Client.BookingURL)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
}

func TestApplyEnvBadDuration(t *testing.T) {
	cfg := Default()
	err := applyEnv(cfg, func(k string) string {
		if k == "RESERVE_TIMEOUT" {
			return "soon"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"file without path", func(c *Config) { c.Store.Path = "" }},
		{"no filter url", func(c *Config) { c.Booking.FilterURL = "" }},
		{"zero timeout", func(c *Config) { c.Booking.ReserveTimeout = 0 }},
		{"zero filter shutdown", func(c *Config) { c.Filter.ShutdownTimeout = 0 }},
		{"zero booking shutdown", func(c *Config) { c.Booking.ShutdownTimeout = 0 }},
		{"negative client timeout", func(c *Config) { c.Client.Timeout = -time.Second }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "train_id", "T001")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"train_id":"T001"`)
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Booking, cfg.Booking)
	assert.Equal(t, Default().Client, cfg.Client)
}
