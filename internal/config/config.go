// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// Backend API
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	// Business locale
	BusinessTimezone string
	CurrencySymbol   string

	// Polling
	PollInterval time.Duration

	// Application
	Port     string
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:9000"),
		APIToken:   getEnv("API_TOKEN", ""),
		APITimeout: getEnvDuration("API_TIMEOUT_SECONDS", 30),

		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "Asia/Kuala_Lumpur"),
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "RM"),

		PollInterval: getEnvDuration("POLL_INTERVAL_SECONDS", 10),

		Port:     getEnv("PORT", "8080"),
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves an environment variable as whole seconds or
// returns a default value.
func getEnvDuration(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return time.Duration(intVal) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
