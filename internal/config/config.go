package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend API
	APIURL           string
	DashboardTimeout time.Duration
	UsersCacheTTL    time.Duration

	// Preferences
	PrefsBackend  string
	PrefsDBPath   string
	DefaultLocale string

	// Session defaults
	DefaultUserID int
	ChatMode      string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Logging
	LogLevel string
	LogFile  string
}

var (
	validPrefsBackends = []string{"memory", "sqlite"}
	validLocales       = []string{"pt", "en"}
	validChatModes     = []string{"assistant", "analyst", "educator", "simulator"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		APIURL:           getEnv("API_URL", "http://localhost:8005"),
		DashboardTimeout: getEnvDuration("DASHBOARD_TIMEOUT", 15*time.Second),
		UsersCacheTTL:    getEnvDuration("USERS_CACHE_TTL", 5*time.Minute),

		PrefsBackend:  getEnv("PREFS_BACKEND", "sqlite"),
		PrefsDBPath:   getEnv("PREFS_DB_PATH", "./data/finagent.db"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "pt"),

		DefaultUserID: getEnvInt("DEFAULT_USER_ID", 1),
		ChatMode:      getEnv("CHAT_MODE", "assistant"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finagent"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dashboard_refresh"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transacoes"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	return cfg
}

// ExportEnabled reports whether transactions can be exported to Google Sheets.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate backend API URL
	if c.APIURL == "" {
		errors = append(errors, "API URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if !slices.Contains(validPrefsBackends, c.PrefsBackend) {
		errors = append(errors, fmt.Sprintf("invalid preferences backend '%s': must be one of %v", c.PrefsBackend, validPrefsBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.PrefsBackend == "sqlite" {
		if c.PrefsDBPath == "" {
			errors = append(errors, "preferences database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.PrefsDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create preferences database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if !slices.Contains(validLocales, strings.ToLower(c.DefaultLocale)) {
		errors = append(errors, fmt.Sprintf("invalid default locale '%s': must be one of %v", c.DefaultLocale, validLocales))
	}

	if !slices.Contains(validChatModes, c.ChatMode) {
		errors = append(errors, fmt.Sprintf("invalid chat mode '%s': must be one of %v", c.ChatMode, validChatModes))
	}

	if c.DefaultUserID < 1 {
		errors = append(errors, fmt.Sprintf("invalid default user id %d: must be at least 1", c.DefaultUserID))
	}

	if c.DashboardTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid dashboard timeout %v: must be at least 1 second", c.DashboardTimeout))
	} else if c.DashboardTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid dashboard timeout %v: must be at most 5 minutes", c.DashboardTimeout))
	}

	if c.UsersCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid users cache TTL %v: must not be negative", c.UsersCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if export is enabled
	if c.ExportEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Return combined errors
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
