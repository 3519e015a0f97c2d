package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database. Empty means run on the in-memory store.
	DatabaseURL string

	// JWT
	JWTSecret     string
	JWTIssuer     string
	JWTExpiration int // hours

	// Frontend
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3001"),
		AppName: envOrDefault("APP_NAME", "ChefAudit"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     envOrDefault("JWT_SECRET", "change-me-in-production"),
		JWTIssuer:     envOrDefault("JWT_ISSUER", "chefaudit"),
		JWTExpiration: envOrDefaultInt("JWT_EXPIRATION_HOURS", 24),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
