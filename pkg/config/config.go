package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// ErrMainDomainMissing is returned by Load when MAIN_DOMAIN is not configured.
var ErrMainDomainMissing = errors.New("MAIN_DOMAIN must be set in the environment or .env")

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey           string
	Issuer               string
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
}

// CookieConfig controls how auth tokens are written as cookies
type CookieConfig struct {
	AccessName  string
	RefreshName string
	RefreshPath string
	Domain      string
	Secure      bool
	HTTPOnly    bool
	SameSite    http.SameSite
}

// TenantConfig holds tenant resolution configuration
type TenantConfig struct {
	MainDomain string
}

// RedisConfig holds redis configuration. An empty URL disables redis.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// BlacklistConfig selects the refresh token blacklist backend
type BlacklistConfig struct {
	Backend       string
	SweepInterval time.Duration
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	Tenant      TenantConfig
	Redis       RedisConfig
	Blacklist   BlacklistConfig
	NATS        NATSConfig
	Log         LogConfig
	Metrics     MetricsConfig
	CORS        CORSConfig
}

const (
	BlacklistBackendDatabase = "database"
	BlacklistBackendRedis    = "redis"
)

// Load loads configuration from the .env file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: getEnv("SERVICE_NAME", "tenant-auth-service"),
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "tenant_auth"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:           getEnv("JWT_SIGNING_KEY", "insecure-default-secret-key"),
			Issuer:               getEnv("JWT_ISSUER", "tenant-auth-service"),
			AccessTokenLifetime:  getEnvAsDuration("JWT_ACCESS_TOKEN_LIFETIME", 15*time.Minute),
			RefreshTokenLifetime: getEnvAsDuration("JWT_REFRESH_TOKEN_LIFETIME", 7*24*time.Hour),
		},
		Cookie: CookieConfig{
			AccessName:  getEnv("JWT_AUTH_COOKIE", "access_token"),
			RefreshName: getEnv("JWT_AUTH_REFRESH_COOKIE", "refresh_token"),
			RefreshPath: getEnv("JWT_AUTH_REFRESH_COOKIE_PATH", "/"),
			Domain:      getEnv("JWT_AUTH_COOKIE_DOMAIN", ""),
			Secure:      getEnvAsBool("JWT_AUTH_SECURE", true),
			HTTPOnly:    getEnvAsBool("JWT_AUTH_HTTPONLY", true),
			SameSite:    getEnvAsSameSite("JWT_AUTH_SAMESITE", http.SameSiteLaxMode),
		},
		Tenant: TenantConfig{
			MainDomain: strings.ToLower(strings.TrimSpace(getEnv("MAIN_DOMAIN", ""))),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 300*time.Second),
		},
		Blacklist: BlacklistConfig{
			Backend:       getEnv("TOKEN_BLACKLIST_BACKEND", BlacklistBackendDatabase),
			SweepInterval: getEnvAsDuration("TOKEN_BLACKLIST_SWEEP_INTERVAL", 1*time.Hour),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "auth"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://127.0.0.1:3000", "http://localhost:3000"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports configuration that would make the service unusable
func (c *Config) Validate() error {
	if c.Tenant.MainDomain == "" {
		return ErrMainDomainMissing
	}
	switch c.Blacklist.Backend {
	case BlacklistBackendDatabase:
		if c.Blacklist.SweepInterval <= 0 {
			return errors.New("TOKEN_BLACKLIST_SWEEP_INTERVAL must be positive")
		}
	case BlacklistBackendRedis:
		if c.Redis.URL == "" {
			return errors.New("TOKEN_BLACKLIST_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown TOKEN_BLACKLIST_BACKEND %q", c.Blacklist.Backend)
	}
	if c.JWT.AccessTokenLifetime <= 0 || c.JWT.RefreshTokenLifetime <= 0 {
		return errors.New("JWT token lifetimes must be positive")
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("main_domain", c.Tenant.MainDomain),
		zap.String("blacklist_backend", c.Blacklist.Backend),
		zap.Bool("redis_enabled", c.Redis.URL != ""),
		zap.Bool("nats_enabled", c.NATS.URL != ""),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsSameSite(key string, defaultValue http.SameSite) http.SameSite {
	switch strings.ToLower(getEnv(key, "")) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return defaultValue
	}
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
