// Package cli consolidates the initialization shared by the auxiliary
// commands (cmd/recap, cmd/notify-relay).
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Jexxy1517/CashFlowReportApp/internal/backend"
	"github.com/Jexxy1517/CashFlowReportApp/internal/config"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

// LoadEnvFile loads the optional .env file for local development.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the root logger at the given level and installs it
// as the slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{Level: ParseLevel(level)})
	log.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadAndValidateConfig loads the configuration, exiting the process
// when it does not validate.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend constructs the configured backend, exiting the process on
// failure. The caller owns Close.
func OpenBackend(logger *log.Logger, cfg *config.Config) datasource.Backend {
	store, err := backend.Open(backend.Config{
		Type:                 backend.Type(cfg.DataBackend),
		SQLiteDBPath:         cfg.SQLiteDBPath,
		SupabaseURL:          cfg.SupabaseURL,
		SupabaseKey:          cfg.SupabaseKey,
		SupabasePollInterval: cfg.SupabasePollInterval,
	}, logger)
	if err != nil {
		logger.Error("backend initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	return store
}
