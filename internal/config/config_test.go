package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	assert.False(t, cfg.LoginRequiresVerified)
	assert.True(t, cfg.RoleGateRequiresVerified)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=bookly sslmode=disable", cfg.DSN())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "18080")
	t.Setenv("DB_NAME", "bookly_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ALGORITHM", "HS512")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("REFRESH_TOKEN_TTL", "2h")
	t.Setenv("REVOCATION_TTL", "3h")
	t.Setenv("LOGIN_REQUIRES_VERIFIED", "true")
	t.Setenv("RATE_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.ServerPort)
	assert.Equal(t, "bookly_test", cfg.DBName)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "HS512", cfg.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 3*time.Hour, cfg.RevocationTTL)
	assert.True(t, cfg.LoginRequiresVerified)
	assert.Equal(t, 5, cfg.RateLimit)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"refresh not longer than access": {"ACCESS_TOKEN_TTL": "2h", "REFRESH_TOKEN_TTL": "2h"},
		"revocation shorter than refresh": {"REVOCATION_TTL": "1h"},
		"asymmetric algorithm":            {"JWT_ALGORITHM": "RS256"},
		"bcrypt cost too high":            {"BCRYPT_COST": "40"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
