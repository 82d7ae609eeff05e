package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/blood")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, 50.0, cfg.CriticalRadiusKm)
	assert.Equal(t, 100.0, cfg.UrgentRadiusKm)
	assert.Equal(t, 56*24*time.Hour, cfg.DonationInterval())
	assert.Equal(t, "blood-needs:posted", cfg.NeedStream)
}

func TestLoadRequired(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	t.Setenv("POSTGRES_DSN", "postgres://localhost/blood")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRedisURL(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/blood")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_URL", "redis://worker:pw@cache.internal:6380/0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr)
	assert.Equal(t, "worker", cfg.RedisUsername)
	assert.Equal(t, "pw", cfg.RedisPassword)
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/blood")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DONATION_INTERVAL_DAYS", "-1")

	_, err := Load()
	assert.Error(t, err)
}
