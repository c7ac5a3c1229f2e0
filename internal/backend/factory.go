package backend

import (
	"context"
	"fmt"
	"log/slog"

	"mosques/internal/core"
	ports "mosques/internal/sheets"
	gsheet "mosques/internal/sheets/google"
	"mosques/internal/sheets/memory"
	"mosques/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend builds the configured store. Stores whose layout is created
// at runtime get it ensured here, and an empty geography table is seeded
// with the default governorates.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	result.Type = config.Type

	if le, ok := result.Store.(ports.LayoutEnsurer); ok {
		if err := le.EnsureLayout(ctx); err != nil {
			_ = result.Close()
			return nil, fmt.Errorf("ensure %s layout: %w", config.Type, err)
		}
	}
	seeded, err := result.Store.SeedGeography(ctx, core.DefaultGeography)
	if err != nil {
		f.logger.Warn("Failed to seed geography", "backend", config.Type, "error", err)
	} else if seeded {
		f.logger.Info("Seeded default geography", "backend", config.Type, "pairs", len(core.DefaultGeography))
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.NewWithCredentials(ctx, config.GoogleSpreadsheetID, gsheet.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Store: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Store: store}, nil
}
