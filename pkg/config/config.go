package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration. It is built once at startup
// and passed by reference into every component.
type Config struct {
	Environment            string
	ServerPort             int
	DatabaseURL            string
	JWTSecret              string
	MLServiceURL           string
	RedisURL               string
	LogLevel               string
	DBMaxOpenConns         int
	SweeperIntervalMinutes int
	RootEmail              string
	RootPassword           string
	CORSAllowedOrigins     []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	sweeperInterval, err := strconv.Atoi(getEnv("SWEEPER_INTERVAL_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEPER_INTERVAL_MINUTES: %w", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		Environment:            getEnv("ENVIRONMENT", "development"),
		ServerPort:             port,
		DatabaseURL:            databaseURL,
		JWTSecret:              getEnv("JWT_SECRET", ""),
		MLServiceURL:           getEnv("ML_SERVICE_URL", "http://localhost:8000"),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DBMaxOpenConns:         maxOpenConns,
		SweeperIntervalMinutes: sweeperInterval,
		RootEmail:              getEnv("ROOT_EMAIL", "root@dataplane.local"),
		RootPassword:           getEnv("ROOT_PASSWORD", "admin"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
