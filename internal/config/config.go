// Package config provides configuration management for Oracle.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	// LLM settings
	LLMProvider string
	LLMAPIKey   string
	LLMEndpoint string
	LLMModel    string
	MaxTokens   int
	Temperature float64

	// Data source API keys
	FredAPIKey         string
	TavilyAPIKey       string
	AlphaVantageAPIKey string

	// MongoDB settings
	MongoURI string
	MongoDB  string

	// Report output
	ReportsDir string

	// COT cache
	CotCacheMaxAge time.Duration

	// Scheduler settings (UTC)
	PremarketHour    int
	PremarketMinute  int
	PostmarketHour   int
	PostmarketMinute int

	// Email delivery (optional)
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string

	// Server settings
	HTTPAddr string
	Debug    bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{
		// LLM
		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMEndpoint: getEnv("LLM_ENDPOINT", ""),
		LLMModel:    getEnv("LLM_MODEL", "gpt-4o"),
		MaxTokens:   getEnvInt("MAX_TOKENS", 8000),
		Temperature: getEnvFloat("TEMPERATURE", 0.3),

		// Data sources
		FredAPIKey:         getEnv("FRED_API_KEY", ""),
		TavilyAPIKey:       getEnv("TAVILY_API_KEY", ""),
		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),

		// MongoDB
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "oracle"),

		// Reports
		ReportsDir: getEnv("REPORTS_DIR", "./reports"),

		// COT cache
		CotCacheMaxAge: getEnvDuration("COT_CACHE_MAX_AGE", 7*24*time.Hour),

		// Scheduler (UTC; 11:30/21:30 UTC track 06:30/16:30 ET)
		PremarketHour:    getEnvInt("PREMARKET_HOUR", 11),
		PremarketMinute:  getEnvInt("PREMARKET_MINUTE", 30),
		PostmarketHour:   getEnvInt("POSTMARKET_HOUR", 21),
		PostmarketMinute: getEnvInt("POSTMARKET_MINUTE", 30),

		// Email
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "oracle@local"),
		EmailTo:      getEnv("EMAIL_TO", ""),

		// Server
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Debug:    getEnvBool("DEBUG", false),
	}

	return cfg, nil
}

// Validate checks if required configuration is present. A missing LLM
// credential is fatal: the synthesis stage cannot run without it.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required (provider: %s)", c.LLMProvider)
	}
	if c.FredAPIKey == "" {
		log.Warn().Msg("FRED_API_KEY not set, economic indicators will be unavailable")
	}
	if c.TavilyAPIKey == "" {
		log.Warn().Msg("TAVILY_API_KEY not set, news search will be unavailable")
	}
	if c.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set, market quotes will be unavailable")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
