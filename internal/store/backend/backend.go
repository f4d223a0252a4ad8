// Package backend builds the configured store.Store.
package backend

import (
	"context"
	"fmt"
	"time"

	"cashflow/internal/cache"
	"cashflow/internal/config"
	"cashflow/internal/log"
	"cashflow/internal/store"
	"cashflow/internal/store/memory"
	"cashflow/internal/store/sheets"
	"cashflow/internal/store/sqlite"
)

// Type names a backend.
type Type string

const (
	SQLite Type = "sqlite"
	Sheets Type = "sheets"
	Memory Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Sheets, Memory:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready store plus its cleanup, which is never nil.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	SQLiteDBPath string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	CacheTTL                 time.Duration

	// SeedFile preloads the memory backend.
	SeedFile string
}

// FromStoreConfig converts the process config to a backend config.
func FromStoreConfig(c *config.StoreConfig) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("store config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:                     t,
		SQLiteDBPath:             c.SQLiteDBPath,
		GoogleSpreadsheetID:      c.GoogleSpreadsheetID,
		GoogleSheetName:          c.GoogleSheetName,
		GoogleServiceAccountJSON: c.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: c.GoogleServiceAccountFile,
		CacheTTL:                 c.CacheTTL,
		SeedFile:                 c.SeedFile,
	}, nil
}

// Factory creates backends. Caches of backends that keep one are
// registered with the manager for periodic sweeping.
type Factory struct {
	logger *log.Logger
	caches *cache.Manager
}

// NewFactory creates a new backend factory. caches may be nil.
func NewFactory(logger *log.Logger, caches *cache.Manager) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger, caches: caches}
}

// Create builds the backend named by cfg.Type.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	switch cfg.Type {
	case SQLite:
		return f.createSQLite(cfg)
	case Sheets:
		return f.createSheets(ctx, cfg)
	case Memory:
		return f.createMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func noCleanup() error { return nil }

func (f *Factory) createSQLite(cfg Config) (*Result, error) {
	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *Factory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	client, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		CacheTTL:           cfg.CacheTTL,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("prepare sheet: %w", err)
	}
	if f.caches != nil {
		f.caches.Register(client.Cache())
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return &Result{Store: client, Cleanup: noCleanup}, nil
}

func (f *Factory) createMemory(cfg Config) (*Result, error) {
	if cfg.SeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return &Result{Store: memory.New(), Cleanup: noCleanup}, nil
	}
	s, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed file: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
	return &Result{Store: s, Cleanup: noCleanup}, nil
}
