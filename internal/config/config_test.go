package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit.GuestLimit)
	assert.Equal(t, 10, cfg.RateLimit.UserLimit)
	assert.Equal(t, 20, cfg.RateLimit.AdminLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.Risk.FailOpen)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "a-real-secret-value")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.App.IsProduction())
}

func TestLoadOverridesCeilings(t *testing.T) {
	t.Setenv("RATE_LIMIT_GUEST", "2")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.RateLimit.GuestLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:       AppConfig{Env: "development"},
			Auth:      AuthConfig{JWTSecret: "s", TokenTTLMinutes: 60, CookieSameSite: "Lax"},
			RateLimit: RateLimitConfig{Backend: "memory", WindowSeconds: 60, GuestLimit: 5, UserLimit: 10, AdminLimit: 20},
		}
	}

	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"empty secret":        func(c *Config) { c.Auth.JWTSecret = " " },
		"bad samesite":        func(c *Config) { c.Auth.CookieSameSite = "None" },
		"redis backend":       func(c *Config) { c.RateLimit.Backend = "redis" },
		"unknown backend":     func(c *Config) { c.RateLimit.Backend = "etcd" },
		"zero guest ceiling":  func(c *Config) { c.RateLimit.GuestLimit = 0 },
		"zero window":         func(c *Config) { c.RateLimit.WindowSeconds = 0 },
		"blocklist w/o redis": func(c *Config) { c.Risk.BlocklistEnabled = true },
		"zero ttl":            func(c *Config) { c.Auth.TokenTTLMinutes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
