package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryProviderNeedsNoDatabase(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("STORAGE_PROVIDER", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "8088")
	t.Setenv("JWT_EXPIRATION", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Provider)
	assert.Equal(t, "8088", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTExpiration)
	assert.Equal(t, "gemini-2.0-flash", cfg.Verification.Model)
	assert.False(t, cfg.Cloudinary.Enabled())
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("STORAGE_PROVIDER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "9000", Environment: "development"},
			Storage:  StorageConfig{Provider: "memory"},
			Auth:     AuthConfig{JWTSecret: "short", JWTExpiration: time.Hour},
			Cache:    CacheConfig{Provider: "memory"},
			Database: DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 2},
		}
	}

	t.Run("valid development config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("short secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.Server.Environment = "production"
		assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	})

	t.Run("redis provider needs url", func(t *testing.T) {
		cfg := base()
		cfg.Cache.Provider = "redis"
		assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	})

	t.Run("unknown storage provider", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Provider = "sqlite"
		assert.ErrorContains(t, cfg.Validate(), "STORAGE_PROVIDER")
	})

	t.Run("non numeric port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = "http"
		assert.Error(t, cfg.Validate())
	})
}
