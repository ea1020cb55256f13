// Package backend selects and constructs the configured datasource.Backend.
package backend

import (
	"fmt"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource/memory"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/storage"
	"github.com/Jexxy1517/CashFlowReportApp/internal/storage/supabase"
)

// Type names a storage backend.
type Type string

const (
	Memory   Type = "memory"
	SQLite   Type = "sqlite"
	Supabase Type = "supabase"
)

// IsValid reports whether the type is one of the known backends.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Supabase:
		return true
	}
	return false
}

// Config holds what each backend needs to come up.
type Config struct {
	Type Type

	// SQLite
	SQLiteDBPath string

	// Supabase
	SupabaseURL          string
	SupabaseKey          string
	SupabasePollInterval time.Duration
}

// Open constructs the configured backend. The caller owns Close on the
// returned backend.
func Open(cfg Config, logger *log.Logger) (datasource.Backend, error) {
	if logger == nil {
		logger = log.New(log.Config{})
	}

	switch cfg.Type {
	case SQLite:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("initialized sqlite backend", log.FieldBackend, string(cfg.Type))
		return store, nil

	case Supabase:
		store, err := supabase.NewStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabasePollInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize supabase backend: %w", err)
		}
		logger.Info("initialized supabase backend", log.FieldBackend, string(cfg.Type))
		return store, nil

	case Memory:
		logger.Info("initialized memory backend", log.FieldBackend, string(cfg.Type))
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
