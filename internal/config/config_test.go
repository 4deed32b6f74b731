package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshConfig(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	viper.AutomaticEnv()
	return build()
}

func TestDefaults(t *testing.T) {
	cfg := freshConfig(t)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 15, cfg.Barometer.RefreshDays)
	assert.Equal(t, 24, cfg.Barometer.Horizon)
	assert.False(t, cfg.Barometer.ClampBounds)
	assert.Equal(t, "https://api.stlouisfed.org", cfg.Barometer.FREDBaseURL)
	assert.Equal(t, 30*time.Second, cfg.Barometer.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.App.RunTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Cache.ForecastTTL())
	assert.Equal(t, 15*24*time.Hour, cfg.Barometer.RefreshAge())
	assert.Equal(t, "inflation_data.csv", filepath.Base(cfg.Barometer.ObservationsPath()))
	assert.Equal(t, "future_data.csv", filepath.Base(cfg.Barometer.ForecastPath()))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BAROMETER_HORIZON", "12")
	t.Setenv("BAROMETER_CLAMP_BOUNDS", "true")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_DSN", "postgres://localhost/pricing")

	cfg := freshConfig(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 12, cfg.Barometer.Horizon)
	assert.True(t, cfg.Barometer.ClampBounds)
	assert.Equal(t, "pgx", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"zero horizon", func(c *Config) { c.Barometer.Horizon = 0 }},
		{"bad base url", func(c *Config) { c.Barometer.EIABaseURL = "not a url" }},
		{"storage without bucket", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = "localhost:9000"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := freshConfig(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
