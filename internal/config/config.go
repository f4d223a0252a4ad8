package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config drives the web host (cmd/cashflow).
type Config struct {
	// HTTP Server
	Port string

	// Ledger store the view syncs against
	StoreURL     string
	StoreTimeout time.Duration

	// View
	WindowDays int

	// Rate limiting for mutating routes
	RateLimit       int
	RateLimitWindow time.Duration

	// AMQP, optional. Empty URL disables the change consumer.
	AMQPURL      string
	AMQPExchange string

	// AMQPQueue prefixes the consumer queue. Each process gets its own.
	AMQPQueue string

	LogLevel string
}

// StoreConfig drives the reference store (cmd/cashflow-store).
type StoreConfig struct {
	Port string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Memory backend seed file, optional
	SeedFile string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	CacheTTL                 time.Duration
	CacheCleanupInterval     time.Duration

	// AMQP, optional. Empty URL disables change events.
	AMQPURL      string
	AMQPExchange string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		StoreURL:     getEnv("STORE_URL", "http://localhost:5000"),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		WindowDays:   getEnvInt("WINDOW_DAYS", 90),

		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cashflow"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func LoadStore() *StoreConfig {
	return &StoreConfig{
		Port:         getEnv("STORE_PORT", "5000"),
		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cashflow.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Lancamentos"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		CacheTTL:                 getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheCleanupInterval:     getEnvDuration("CACHE_CLEANUP_INTERVAL", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cashflow"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	errors = appendPortErrors(errors, c.Port)

	if c.StoreURL == "" {
		errors = append(errors, "store URL cannot be empty")
	} else if u, err := url.Parse(c.StoreURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid store URL '%s': %v", c.StoreURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid store URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.StoreTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be positive", c.StoreTimeout))
	}

	if c.WindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid window %d days: must be at least 1", c.WindowDays))
	} else if c.WindowDays > 3660 {
		errors = append(errors, fmt.Sprintf("invalid window %d days: must be at most 3660", c.WindowDays))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}
	if c.RateLimitWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate limit window %v: must be at least 1 second", c.RateLimitWindow))
	}

	if c.AMQPURL != "" {
		errors = appendAMQPErrors(errors, c.AMQPURL)
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	return joinErrors(errors)
}

// Validate validates the store configuration and returns an error if invalid
func (c *StoreConfig) Validate() error {
	var errors []string

	errors = appendPortErrors(errors, c.Port)

	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "memory" && c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.CacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
		}
		if c.CacheCleanupInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
		}
	}

	if c.AMQPURL != "" {
		errors = appendAMQPErrors(errors, c.AMQPURL)
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	return joinErrors(errors)
}

func appendPortErrors(errors []string, p string) []string {
	if port, err := strconv.Atoi(p); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", p))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	return errors
}

func appendAMQPErrors(errors []string, raw string) []string {
	if parsedURL, err := url.Parse(raw); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", raw, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	return errors
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
