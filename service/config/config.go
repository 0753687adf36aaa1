package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultAddress pre-fills the address input so a fresh start can fetch
// something immediately.
const DefaultAddress = "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"

// Config holds all application configuration. Every field has a working
// hard-coded default; environment variables only override.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Explorer configuration
	ExplorerBaseURL string
	ExplorerTimeout time.Duration

	// Tracker configuration
	DefaultAddress string
	AmountMode     string // "sum-outputs" or "net-result"
}

// Load reads configuration from environment variables, falling back to the
// built-in defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:      getEnvOrDefault("SERVER_ADDR", ":8080"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		ExplorerBaseURL: getEnvOrDefault("EXPLORER_BASE_URL", "https://blockchain.info"),
		DefaultAddress:  getEnvOrDefault("DEFAULT_ADDRESS", DefaultAddress),
		AmountMode:      getEnvOrDefault("AMOUNT_MODE", "sum-outputs"),
	}

	timeout, err := parseDuration("EXPLORER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.ExplorerTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.ExplorerBaseURL == "" {
		errs = append(errs, fmt.Errorf("ExplorerBaseURL is required"))
	}
	if !strings.HasPrefix(c.ExplorerBaseURL, "http://") && !strings.HasPrefix(c.ExplorerBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("ExplorerBaseURL must be an http(s) URL, got %q", c.ExplorerBaseURL))
	}

	if c.ExplorerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ExplorerTimeout must be positive"))
	}

	switch c.AmountMode {
	case "sum-outputs", "net-result":
	default:
		errs = append(errs, fmt.Errorf("AmountMode must be %q or %q, got %q", "sum-outputs", "net-result", c.AmountMode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}
