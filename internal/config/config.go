package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultAccessTokenTTL is the lifetime of an access token
	DefaultAccessTokenTTL = 3600 * time.Second
	// DefaultRefreshTokenTTL is the lifetime of a refresh token (7 days)
	DefaultRefreshTokenTTL = 604800 * time.Second
	// MinJWTSecretLength is the minimum HS256 key size in bytes
	MinJWTSecretLength = 32
)

// Config holds application configuration
type Config struct {
	DatabaseURL        string
	RedisURL           string
	ServerPort         string
	BaseURL            string
	FrontendURL        string
	EnableHSTS         bool
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	GoogleClientID     string
	GitHubClientID     string
	GitHubClientSecret string
	RateLimit          string
	ServerDebugMode    bool
	OTELEnabled        bool
	OTELEndpoint       string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "smart-auth"),
		AccessTokenTTL:     getEnvSeconds("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		RefreshTokenTTL:    getEnvSeconds("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		RateLimit:          getEnv("RATE_LIMIT", "5-S"),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET is required and must be at least %d bytes", MinJWTSecretLength)
	}

	return cfg, nil
}

// GoogleEnabled reports whether Google sign-in is configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvSeconds reads a positive integer number of seconds
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
