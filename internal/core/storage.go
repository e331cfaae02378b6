package core

import (
	"fmt"
	"os"

	"origamicore/internal/infra/persistence/memory"
	"origamicore/internal/infra/persistence/postgres"
	"origamicore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterises a document store.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageConfigFromEnv reads the storage settings from the environment.
//
//	ORIGAMICORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ORIGAMICORE_SQLITE_PATH: path to sqlite file (default ./origamicore.db)
//	ORIGAMICORE_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv() StorageConfig {
	return StorageConfig{
		Driver:      StorageDriver(os.Getenv("ORIGAMICORE_STORAGE_DRIVER")),
		SQLitePath:  os.Getenv("ORIGAMICORE_SQLITE_PATH"),
		PostgresDSN: os.Getenv("ORIGAMICORE_POSTGRES_DSN"),
	}
}

// OpenDocumentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
func OpenDocumentStore(engine *RulesEngine) (DocumentStore, error) {
	return OpenDocumentStoreWith(StorageConfigFromEnv(), engine)
}

// OpenDocumentStoreWith opens the backend described by cfg. An empty driver
// means sqlite.
func OpenDocumentStoreWith(cfg StorageConfig, engine *RulesEngine) (DocumentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
