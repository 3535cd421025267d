// internal/storage/factory.go
package storage

import (
	"fmt"
	"time"

	"github.com/mapgrid/usermarks/internal/config"
	"github.com/mapgrid/usermarks/internal/storage/memory"
	"github.com/mapgrid/usermarks/internal/storage/postgres"
	"github.com/mapgrid/usermarks/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New()
	case "sqlite":
		return sqlite.New(sqlite.Config{
			DumpPath:     cfg.Sqlite.DumpPath,
			DumpInterval: time.Duration(cfg.Sqlite.DumpIntervalSec) * time.Second,
		})
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
