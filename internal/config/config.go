package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	LogDir      string // empty disables file logging
	// Storage provider OAuth app
	ProviderClientID     string
	ProviderClientSecret string
	ProviderTokenURL     string
	ProviderAuthURL      string
	ProviderAPIBaseURL   string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		LogDir:      getEnv("LOG_DIR", ""),

		ProviderClientID:     getEnv("STRATUS_CLIENT_ID", ""),
		ProviderClientSecret: getEnv("STRATUS_CLIENT_SECRET", ""),
		ProviderTokenURL:     getEnv("STRATUS_TOKEN_URL", "https://api.stratus.example/oauth2/token"),
		ProviderAuthURL:      getEnv("STRATUS_AUTH_URL", "https://api.stratus.example/oauth2/authorize"),
		ProviderAPIBaseURL:   getEnv("STRATUS_API_URL", "https://api.stratus.example/2.0"),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
