package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 3, cfg.StockMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, time.Hour, cfg.LowStockInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("NOTIFY_TIMEOUT", "2s")
	t.Setenv("TIER_OVERRIDES", "gold:25:30")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "gold:25:30", cfg.TierOverrides)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	base := Config{Env: "production", StockMaxRetries: 3, NotifyTimeout: time.Second}

	c := base
	assert.Error(t, c.Validate(), "secrets required in production")

	c.StaffJWTSecret, c.CompanyJWTSecret = "same", "same"
	assert.Error(t, c.Validate())

	c.CompanyJWTSecret = "other"
	assert.NoError(t, c.Validate())

	c.StockMaxRetries = 0
	assert.Error(t, c.Validate())
}
