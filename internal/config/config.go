// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 5001).
	Port int

	// BaseURL is the public-facing URL of this backend, used to build the
	// OAuth callback URL.
	BaseURL string

	// FrontendURL is where the React app lives. Used for the post-login
	// redirect and as the CORS allow-list entry.
	FrontendURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings (rate-gate counters).
	Redis RedisConfig

	// Auth holds token signing and cookie settings.
	Auth AuthConfig

	// GitHub holds the OAuth app credentials for federated sign-in.
	GitHub GitHubConfig

	// Predict holds the ML service proxy settings.
	Predict PredictConfig

	// RateGate holds the sliding-window admission control settings.
	RateGate RateGateConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "stockmounts").
	User string

	// Password is the MariaDB password (default: "stockmounts").
	Password string

	// Name is the database name (default: "stockmounts").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	// Report matched rows, not changed rows, so a no-op UPDATE on an
	// existing row is not mistaken for a missing row.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds token signing and session cookie settings.
type AuthConfig struct {
	// SecretKey is the HMAC signing key for session tokens (32+ bytes).
	SecretKey string

	// TokenTTL is how long an issued session token stays valid.
	TokenTTL time.Duration

	// CookieName is the name of the session cookie.
	CookieName string
}

// GitHubConfig holds the OAuth app credentials for GitHub sign-in.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string

	// CallbackURL is where GitHub redirects after authorization. Defaults
	// to BaseURL + "/api/auth/github/callback".
	CallbackURL string
}

// PredictConfig holds settings for the stock-prediction proxy.
type PredictConfig struct {
	// ServiceURL is the base URL of the Python ML service.
	ServiceURL string

	// Timeout bounds each proxied request so a stalled upstream can't
	// stall the pipeline.
	Timeout time.Duration
}

// RateGateConfig holds the sliding-window admission control settings.
type RateGateConfig struct {
	// Limit is the number of requests admitted per window per key.
	Limit int

	// Window is the sliding window duration.
	Window time.Duration
}

// CookiePolicy is the cookie attribute set resolved once at startup from
// the environment flag. Outside local development the session cookie must
// cross origins (frontend and backend are deployed separately), so it gets
// Secure + SameSite=None; in development it stays Strict over plain HTTP.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
}

// CookiePolicy resolves the cookie attributes for the current environment.
func (c *Config) CookiePolicy() CookiePolicy {
	if c.IsDevelopment() {
		return CookiePolicy{Secure: false, SameSite: http.SameSiteStrictMode}
	}
	return CookiePolicy{Secure: true, SameSite: http.SameSiteNoneMode}
}

// CORSOrigins returns the cross-origin allow-list: just the frontend.
func (c *Config) CORSOrigins() []string {
	return []string{c.FrontendURL}
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		Port:        getEnvInt("PORT", 5001),
		BaseURL:     getEnv("BASE_URL", "http://localhost:5001"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "stockmounts"),
			Password:        getEnv("DB_PASSWORD", "stockmounts"),
			Name:            getEnv("DB_NAME", "stockmounts"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:  getEnv("JWT_SECRET", ""),
			TokenTTL:   getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
			CookieName: getEnv("SESSION_COOKIE", "token"),
		},

		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", ""),
		},

		Predict: PredictConfig{
			ServiceURL: getEnv("ML_SERVICE_URL", "http://127.0.0.1:8000"),
			Timeout:    getEnvDuration("ML_SERVICE_TIMEOUT", 10*time.Second),
		},

		RateGate: RateGateConfig{
			Limit:  getEnvInt("RATE_LIMIT", 30),
			Window: getEnvDuration("RATE_WINDOW", 6*time.Second),
		},
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = strings.TrimRight(cfg.BaseURL, "/") + "/api/auth/github/callback"
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "168h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
