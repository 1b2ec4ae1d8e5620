/**
 * Configuration for the feed scanner.
 *
 * Loads configuration from environment variables (seeded from .env by
 * the entry point). File-based inputs (classification prompt, schedule
 * documents) are paths here; their contents are loaded by the packages
 * that own them.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
)

// Config holds scanner configuration.
type Config struct {
	// Classification service
	GeminiAPIKey string
	GeminiModel  string
	ProxyURL     string

	// Optional stores
	DatabaseURL string
	RedisURL    string

	// File-based inputs
	ConfigDir          string
	PromptFile         string
	RegionEmailsFile   string
	DeviceScheduleFile string

	// Artifact output root (overridable by the -result-dir flag)
	ResultDir string

	// Scan behaviour
	MinConfidence float64
	MaxIterations int
	ActionPause   time.Duration
	WaitInterval  time.Duration
	BackRetries   int
	CacheTTL      time.Duration

	// Device driver
	DeviceAgentPort int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	configDir := getEnvOrDefault("CONFIG_DIR", "configs")

	cfg := &Config{
		GeminiAPIKey:       getEnvOrThrow("GEMINI_API_KEY"),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		ProxyURL:           getEnvOrDefault("PROXY_URL", ""),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		ConfigDir:          configDir,
		PromptFile:         getEnvOrDefault("PROMPT_FILE", filepath.Join(configDir, "prompt.md")),
		RegionEmailsFile:   getEnvOrDefault("REGION_EMAILS_FILE", filepath.Join(configDir, "region_emails.json")),
		DeviceScheduleFile: getEnvOrDefault("DEVICE_SCHEDULE_FILE", filepath.Join(configDir, "device_schedule.json")),
		ResultDir:          getEnvOrDefault("RESULT_DIR", "downloads"),
		MinConfidence:      getEnvAsFloatOrDefault("MIN_CONFIDENCE", 0.6),
		MaxIterations:      getEnvAsIntOrDefault("MAX_ITERATIONS", 15),
		ActionPause:        time.Duration(getEnvAsIntOrDefault("ACTION_PAUSE_MS", 100)) * time.Millisecond,
		WaitInterval:       time.Duration(getEnvAsIntOrDefault("WAIT_INTERVAL_SEC", 60)) * time.Second,
		BackRetries:        getEnvAsIntOrDefault("BACK_RETRIES", 3),
		CacheTTL:           time.Duration(getEnvAsIntOrDefault("CACHE_TTL_HOURS", 24)) * time.Hour,
		DeviceAgentPort:    getEnvAsIntOrDefault("DEVICE_AGENT_PORT", 7912),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.NewConfigInvalidError("GEMINI_API_KEY is required")
	}

	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.NewConfigInvalidError(fmt.Sprintf("MIN_CONFIDENCE must be in [0,1], got %g", c.MinConfidence))
	}

	if c.MaxIterations < 1 || c.MaxIterations > 1000 {
		return errors.NewConfigInvalidError(fmt.Sprintf("MAX_ITERATIONS must be between 1 and 1000, got %d", c.MaxIterations))
	}

	if c.BackRetries < 1 || c.BackRetries > 10 {
		return errors.NewConfigInvalidError(fmt.Sprintf("BACK_RETRIES must be between 1 and 10, got %d", c.BackRetries))
	}

	if c.DeviceAgentPort < 1 || c.DeviceAgentPort > 65535 {
		return errors.NewConfigInvalidError(fmt.Sprintf("DEVICE_AGENT_PORT must be a valid port, got %d", c.DeviceAgentPort))
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable; absence is reported by Validate
func getEnvOrThrow(key string) string {
	return os.Getenv(key)
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
