package config_test

import (
	"testing"
	"time"

	"github.com/rmagsino/iskolar/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabasePassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("ENV", "development")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("ENV", "development")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 5000, cfg.Auth.RateLimitCapacity)
	assert.Equal(t, 60*time.Second, cfg.Auth.RateLimitWindow)
	assert.Equal(t, "./uploads", cfg.Storage.UploadDir)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:3000")
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("ENV", "development")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("LOCKOUT_DURATION", "15m")
	t.Setenv("RATE_LIMIT_CAPACITY", "100")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 100, cfg.Auth.RateLimitCapacity)
}

func TestLoad_ProductionRequiresGoogleClientID(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("ENV", "production")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("ALLOWED_ORIGINS", "https://osas.example.edu")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestLoad_ProductionOriginsFromEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("ENV", "production")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("ALLOWED_ORIGINS", "https://osas.example.edu, https://portal.example.edu")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://osas.example.edu", "https://portal.example.edu"}, cfg.Server.AllowedOrigins)
}

func TestDSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Name:     "iskolar",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=iskolar sslmode=disable", db.DSN())
}
