// Package config loads the application configuration from the
// environment. Load never fails; Validate reports every problem at
// once so a broken deployment shows the full list on first start.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection: memory, sqlite or supabase
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Supabase (store, change feed and receipt storage)
	SupabaseURL          string
	SupabaseKey          string
	SupabaseBucket       string
	SupabasePollInterval time.Duration

	// AMQP notification fanout; empty URL disables notifications
	AMQPURL      string
	AMQPExchange string

	// Google Sheets recap export; empty spreadsheet id disables it
	SheetsSpreadsheetID   string
	SheetsSheetName       string
	SheetsCredentialsFile string
	SheetsCredentialsJSON string

	// Identity this instance runs as
	UserID   string
	UserName string
	UserRole string

	// Reports
	ReportDir string

	// IANA timezone for monthly bucketing; empty means the host zone
	Timezone string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cashflow.db"),

		SupabaseURL:          getEnv("SUPABASE_URL", ""),
		SupabaseKey:          getEnv("SUPABASE_KEY", ""),
		SupabaseBucket:       getEnv("SUPABASE_BUCKET", "receipts"),
		SupabasePollInterval: getEnvDuration("SUPABASE_POLL_INTERVAL", 3*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cashflow.notifications"),

		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:       getEnv("SHEETS_SHEET_NAME", "Recap"),
		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
		SheetsCredentialsJSON: getEnv("SHEETS_CREDENTIALS_JSON", ""),

		UserID:   getEnv("USER_ID", ""),
		UserName: getEnv("USER_NAME", ""),
		UserRole: getEnv("USER_ROLE", "USER"),

		ReportDir: getEnv("REPORT_DIR", "./reports"),

		Timezone: getEnv("TIMEZONE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite", "supabase":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite supabase]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errs = append(errs, "SQLITE_DB_PATH cannot be empty when using the sqlite backend")
	}

	if c.DataBackend == "supabase" {
		if c.SupabaseURL == "" {
			errs = append(errs, "SUPABASE_URL is required when using the supabase backend")
		}
		if c.SupabaseKey == "" {
			errs = append(errs, "SUPABASE_KEY is required when using the supabase backend")
		}
		if c.SupabasePollInterval < 500*time.Millisecond {
			errs = append(errs, fmt.Sprintf("invalid supabase poll interval %v: must be at least 500ms", c.SupabasePollInterval))
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP_EXCHANGE cannot be empty when AMQP_URL is provided")
		}
	}

	if c.SheetsSpreadsheetID != "" {
		if c.SheetsCredentialsFile == "" && c.SheetsCredentialsJSON == "" {
			errs = append(errs, "either SHEETS_CREDENTIALS_FILE or SHEETS_CREDENTIALS_JSON must be provided for the sheets export")
		}
		if c.SheetsCredentialsFile != "" {
			if _, err := os.Stat(c.SheetsCredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("sheets credentials file does not exist: %s", c.SheetsCredentialsFile))
			}
		}
	}

	if c.UserID == "" {
		errs = append(errs, "USER_ID is required: the tracker needs to know who it runs as")
	}

	if c.UserRole != "USER" && c.UserRole != "ADMIN" {
		errs = append(errs, fmt.Sprintf("invalid user role '%s': must be USER or ADMIN", c.UserRole))
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Location resolves the configured timezone, falling back to the host
// zone. Call after Validate.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SheetsCredentials returns the service account JSON, reading the file
// variant when the inline one is not set.
func (c *Config) SheetsCredentials() ([]byte, error) {
	if c.SheetsCredentialsJSON != "" {
		return []byte(c.SheetsCredentialsJSON), nil
	}
	if c.SheetsCredentialsFile != "" {
		data, err := os.ReadFile(c.SheetsCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read sheets credentials: %w", err)
		}
		return data, nil
	}
	return nil, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
