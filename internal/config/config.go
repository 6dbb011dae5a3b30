// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the whale alert terminal.
type Config struct {
	// Provider API keys
	AlchemyAPIKey    string
	EtherscanAPIKey  string
	InfuraAPIKey     string
	MoralisAPIKey    string
	MetasleuthAPIKey string

	// Token selection
	TokenSymbol  string
	TokenAddress string

	// Extraction
	MaxTransactions int
	HTTPTimeout     time.Duration

	// Price impact
	Timeframe   string
	HoursBefore int
	HoursAfter  int
	CandleLimit int

	// Output
	DataDir string

	// UI
	EnableTUI     bool
	UIRefreshRate time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Providers
		AlchemyAPIKey:    getEnv("ALCHEMY_API_KEY", ""),
		EtherscanAPIKey:  getEnv("ETHERSCAN_API_KEY", ""),
		InfuraAPIKey:     getEnv("INFURA_API_KEY", ""),
		MoralisAPIKey:    getEnv("MORALIS_API_KEY", ""),
		MetasleuthAPIKey: getEnv("METASLEUTH_API_KEY", ""),

		// Token
		TokenSymbol:  getEnv("TOKEN_SYMBOL", "PEPE"),
		TokenAddress: getEnv("TOKEN_ADDRESS", ""),

		// Extraction
		MaxTransactions: getEnvInt("MAX_TRANSACTIONS", 5),
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		// Price impact
		Timeframe:   getEnv("TIMEFRAME", "1h"),
		HoursBefore: getEnvInt("OHLCV_HOURS_BEFORE", 24),
		HoursAfter:  getEnvInt("OHLCV_HOURS_AFTER", 24),
		CandleLimit: getEnvInt("OHLCV_CANDLE_LIMIT", 100),

		// Output
		DataDir: getEnv("DATA_DIR", "./data"),

		// UI
		EnableTUI:     getEnvBool("ENABLE_TUI", true),
		UIRefreshRate: time.Duration(getEnvInt("UI_REFRESH_MS", 500)) * time.Millisecond,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.TokenSymbol == "" && c.TokenAddress == "" {
		return fmt.Errorf("TOKEN_SYMBOL or TOKEN_ADDRESS is required")
	}

	if c.MaxTransactions < 1 {
		return fmt.Errorf("MAX_TRANSACTIONS must be at least 1")
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}

	if c.HoursBefore < 0 || c.HoursAfter < 0 {
		return fmt.Errorf("OHLCV window hours must not be negative")
	}

	return nil
}

// MaskedAlchemyKey returns the API key with most characters hidden for logging.
func (c *Config) MaskedAlchemyKey() string {
	return maskSecret(c.AlchemyAPIKey)
}

// MaskedEtherscanKey returns the API key with most characters hidden for logging.
func (c *Config) MaskedEtherscanKey() string {
	return maskSecret(c.EtherscanAPIKey)
}

// MaskedInfuraKey returns the API key with most characters hidden for logging.
func (c *Config) MaskedInfuraKey() string {
	return maskSecret(c.InfuraAPIKey)
}

// MaskedMoralisKey returns the API key with most characters hidden for logging.
func (c *Config) MaskedMoralisKey() string {
	return maskSecret(c.MoralisAPIKey)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
