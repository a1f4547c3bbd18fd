package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	Auth         AuthConfig
	Cache        CacheConfig
	Cloudinary   CloudinaryConfig
	Verification VerificationConfig
	Geocoding    GeocodingConfig
	Admin        AdminSeedConfig
	Logging      LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	CORSOrigin      string
	MaxBodyBytes    int64
	SwaggerUsername string
	SwaggerPassword string
}

// DatabaseConfig holds Postgres connection and migration settings
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	MigrationsPath     string
	AutoMigrate        bool
}

// StorageConfig selects the repository provider
type StorageConfig struct {
	Provider string // "postgres", "memory"
}

// AuthConfig holds token and OAuth settings
type AuthConfig struct {
	JWTSecret          string
	JWTExpiration      time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// CacheConfig holds cache provider settings
type CacheConfig struct {
	Provider      string // "memory", "redis"
	RedisURL      string
	RedisPassword string
	RedisDB       int
	DefaultTTL    time.Duration
}

// CloudinaryConfig holds image storage credentials
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// VerificationConfig holds settings for the AI image check
type VerificationConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
}

// GeocodingConfig holds settings for the OSM geocoder
type GeocodingConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit int
}

// AdminSeedConfig holds the bootstrap admin account
type AdminSeedConfig struct {
	Email    string
	Password string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, loading .env files outside production.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load()
		}
	}

	config := &Config{
		Server:       loadServerConfig(env),
		Database:     loadDatabaseConfig(),
		Storage:      StorageConfig{Provider: strings.ToLower(getEnv("STORAGE_PROVIDER", "postgres"))},
		Auth:         loadAuthConfig(),
		Cache:        loadCacheConfig(),
		Cloudinary:   loadCloudinaryConfig(),
		Verification: loadVerificationConfig(),
		Geocoding:    loadGeocodingConfig(),
		Admin: AdminSeedConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
			Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "9000"),
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Environment:     env,
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		GracefulTimeout: getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
		MaxBodyBytes:    int64(getIntEnv("MAX_BODY_BYTES", 12<<20)),
		SwaggerUsername: getEnv("SWAGGER_USERNAME", ""),
		SwaggerPassword: getEnv("SWAGGER_PASSWORD", ""),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:                getEnv("DATABASE_URL", ""),
		MaxOpenConns:       getIntEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:       getIntEnv("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:    getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime:    getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		SlowQueryThreshold: getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		AutoMigrate:        getBoolEnv("AUTO_MIGRATE", true),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", "ecotrack-development-secret-change-me"),
		JWTExpiration:      getDurationEnv("JWT_EXPIRATION", 24*time.Hour),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider:      strings.ToLower(getEnv("CACHE_PROVIDER", "memory")),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		DefaultTTL:    getDurationEnv("CACHE_TTL", 15*time.Minute),
	}
}

func loadCloudinaryConfig() CloudinaryConfig {
	return CloudinaryConfig{
		CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		Folder:    getEnv("CLOUDINARY_FOLDER", "ecotrack"),
	}
}

func loadVerificationConfig() VerificationConfig {
	return VerificationConfig{
		APIKey:          getEnv("GOOGLE_AI_KEY", ""),
		Model:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		BaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		Timeout:         getDurationEnv("VERIFY_TIMEOUT", 30*time.Second),
		RateLimit:       getIntEnv("VERIFY_RATE_LIMIT", 20),
		RateLimitWindow: getDurationEnv("VERIFY_RATE_WINDOW", time.Minute),
	}
}

func loadGeocodingConfig() GeocodingConfig {
	return GeocodingConfig{
		BaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		UserAgent: getEnv("GEOCODER_USER_AGENT", "EcoTrack/1.0"),
		Timeout:   getDurationEnv("GEOCODER_TIMEOUT", 10*time.Second),
		CacheTTL:  getDurationEnv("GEOCODER_CACHE_TTL", time.Hour),
		RateLimit: getIntEnv("GEOCODER_RATE_LIMIT", 60),
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if c.Storage.Provider == "postgres" {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database config: %w", err)
		}
	}
	if err := c.Auth.Validate(c.IsProduction()); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(s.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %s", s.Port)
	}
	return nil
}

// Validate validates the storage provider
func (s *StorageConfig) Validate() error {
	switch s.Provider {
	case "postgres", "memory":
		return nil
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER: %s", s.Provider)
	}
}

// Validate validates database configuration
func (d *DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}
	return nil
}

// Validate validates auth configuration
func (a *AuthConfig) Validate(production bool) error {
	if a.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if production && len(a.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if a.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}
	return nil
}

// Validate validates the cache provider
func (c *CacheConfig) Validate() error {
	switch c.Provider {
	case "memory", "":
		return nil
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache provider")
		}
		return nil
	default:
		return fmt.Errorf("unsupported CACHE_PROVIDER: %s", c.Provider)
	}
}

// Enabled reports whether Cloudinary credentials are present
func (c *CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// GoogleOAuthEnabled reports whether Google sign-in is configured
func (a *AuthConfig) GoogleOAuthEnabled() bool {
	return a.GoogleClientID != "" && a.GoogleClientSecret != "" && a.GoogleRedirectURL != ""
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment returns true when running in development
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getDefaultLogLevel(env string) string {
	if env == "production" {
		return "info"
	}
	return "debug"
}

func getDefaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "console"
}
