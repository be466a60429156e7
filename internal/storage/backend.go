package storage

import (
	"fmt"

	"github.com/kimballen/acre-Intrusion/internal/infrastructure/config"
)

// NewBackend builds the backend selected by cfg.Backend. db is only used
// by the sqlite backend and may be nil otherwise.
func NewBackend(cfg config.StorageConfig, db SQLDB) (Backend, error) {
	switch cfg.Backend {
	case config.StorageBackendSQLite, "":
		if db == nil {
			return nil, fmt.Errorf("sqlite storage backend requires a database")
		}
		return NewSQLiteBackend(db), nil
	case config.StorageBackendFile:
		return NewFileBackend(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
