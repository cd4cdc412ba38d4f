package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Logging     LoggingConfig
	Catalog     CatalogConfig
	Progression ProgressionConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Environment     string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	MaxHeaderBytes  int
	ServerName      string
	CORSOrigin      string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	ConnectTimeout     time.Duration
	ConnectRetries     int
	MigrationsPath     string // empty means the embedded migrations
	AutoMigrate        bool
}

// CacheConfig selects and tunes the product lookup cache
type CacheConfig struct {
	Provider   string // memory or redis
	RedisURL   string
	DefaultTTL time.Duration
	KeyPrefix  string
	MaxEntries int
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// CatalogConfig configures the Open Food Facts collaborator
type CatalogConfig struct {
	Enabled    bool
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries uint64
}

// ProgressionConfig holds gamification rules
type ProgressionConfig struct {
	PointsPerScan        int
	AutoEnrollChallenges bool
	Timezone             string
	FallbackFootprint    float64
	FallbackWeightKg     float64
	MaxAlternatives      int
}

// Load reads configuration from the environment. Outside production a
// .env.<GO_ENV> file (or .env) is loaded first.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:      loadServerConfig(env),
		Database:    loadDatabaseConfig(env),
		Cache:       loadCacheConfig(),
		Logging:     loadLoggingConfig(env),
		Catalog:     loadCatalogConfig(),
		Progression: loadProgressionConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// ===============================
// SECTION LOADERS
// ===============================

func loadServerConfig(env string) ServerConfig {
	config := ServerConfig{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1<<20),
		ServerName:      getEnv("SERVER_NAME", "GreenLens"),
		CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
	}

	if env == "development" {
		config.GracefulTimeout = getDurationEnv("GRACEFUL_TIMEOUT", 10*time.Second)
	}

	return config
}

func loadDatabaseConfig(env string) DatabaseConfig {
	return DatabaseConfig{
		URL:                getEnv("DATABASE_URL", ""),
		MaxOpenConns:       getIntEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:       getIntEnv("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:    getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime:    getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		SlowQueryThreshold: getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		ConnectRetries:     getIntEnv("DB_CONNECT_RETRIES", 5),
		MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", ""),
		AutoMigrate:        getBoolEnv("DB_AUTO_MIGRATE", env != "production"),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider:   getEnv("CACHE_PROVIDER", "memory"),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DefaultTTL: getDurationEnv("CACHE_TTL", 24*time.Hour),
		KeyPrefix:  getEnv("CACHE_KEY_PREFIX", "greenlens:"),
		MaxEntries: getIntEnv("CACHE_MAX_ENTRIES", 10000),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
	}
}

func loadCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Enabled:    getBoolEnv("OFF_ENABLED", true),
		BaseURL:    getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		UserAgent:  getEnv("OFF_USER_AGENT", "GreenLens/1.0 (Environmental Impact Assistant)"),
		Timeout:    getDurationEnv("OFF_TIMEOUT", 10*time.Second),
		MaxRetries: uint64(getIntEnv("OFF_MAX_RETRIES", 2)),
	}
}

func loadProgressionConfig() ProgressionConfig {
	return ProgressionConfig{
		PointsPerScan:        getIntEnv("POINTS_PER_SCAN", 10),
		AutoEnrollChallenges: getBoolEnv("AUTO_ENROLL_CHALLENGES", true),
		Timezone:             getEnv("PROGRESSION_TIMEZONE", "UTC"),
		FallbackFootprint:    getFloat64Env("DEFAULT_FALLBACK_FOOTPRINT", 2.0),
		FallbackWeightKg:     getFloat64Env("DEFAULT_FALLBACK_WEIGHT_KG", 0.5),
		MaxAlternatives:      getIntEnv("MAX_ALTERNATIVES", 3),
	}
}

// ===============================
// VALIDATION
// ===============================

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog config: %w", err)
	}
	if err := c.Progression.Validate(); err != nil {
		return fmt.Errorf("progression config: %w", err)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}
	return nil
}

func (d *DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be positive")
	}
	if d.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns cannot be greater than MaxOpenConns")
	}
	if d.ConnMaxLifetime <= 0 {
		return fmt.Errorf("ConnMaxLifetime must be positive")
	}
	if d.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SlowQueryThreshold must be positive")
	}
	if d.ConnectRetries < 0 {
		return fmt.Errorf("ConnectRetries cannot be negative")
	}
	return nil
}

func (c *CacheConfig) Validate() error {
	switch c.Provider {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache provider")
		}
	default:
		return fmt.Errorf("unknown cache provider %q", c.Provider)
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

func (c *CatalogConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("OFF_BASE_URL must be an absolute URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("OFF_TIMEOUT must be positive")
	}
	return nil
}

func (p *ProgressionConfig) Validate() error {
	if p.PointsPerScan <= 0 {
		return fmt.Errorf("POINTS_PER_SCAN must be positive")
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("PROGRESSION_TIMEZONE %q: %w", p.Timezone, err)
	}
	if p.FallbackFootprint <= 0 {
		return fmt.Errorf("DEFAULT_FALLBACK_FOOTPRINT must be positive")
	}
	if p.MaxAlternatives <= 0 {
		return fmt.Errorf("MAX_ALTERNATIVES must be positive")
	}
	return nil
}

// Location returns the time zone that defines a user's calendar day.
func (p *ProgressionConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ===============================
// ENV HELPERS
// ===============================

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

func getFloat64Env(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
