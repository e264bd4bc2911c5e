package database

import (
	"fmt"

	"taggivm/internal/catalog"
	"taggivm/internal/config"
	"taggivm/internal/database/seed"
)

// NewDatabaseFromConfig opens the catalog database described by cfg.
// A "memory" database is created fresh and prepared on every call.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, clock catalog.Clock) (catalog.Database, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		return asDatabase(NewSQLiteDatabase(cfg.Path, clock))
	case "memory":
		data, err := seed.Default()
		if err != nil {
			return nil, err
		}
		return asDatabase(Initialize(MemoryPath, data, clock))
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// InitializeFromConfig creates the database described by cfg.
func InitializeFromConfig(cfg config.DatabaseConfig, data *seed.StaticData, clock catalog.Clock) (catalog.Database, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		return asDatabase(Initialize(cfg.Path, data, clock))
	case "memory":
		return asDatabase(Initialize(MemoryPath, data, clock))
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// asDatabase keeps a nil *SQLiteDatabase from becoming a non-nil interface.
func asDatabase(db *SQLiteDatabase, err error) (catalog.Database, error) {
	if err != nil {
		return nil, err
	}
	return db, nil
}
