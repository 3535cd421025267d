// Package sqlite implements annotation persistence using an in-memory SQLite
// database with periodic disk dumps via VACUUM INTO. It wraps the GORM
// backend via composition; the only SQLite-specific concerns are (a) creating
// the in-memory DB and (b) the periodic dump.
package sqlite

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mapgrid/usermarks/internal/database"
	"github.com/mapgrid/usermarks/internal/storage/gormstore"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
	Log          *slog.Logger
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	db       *gorm.DB
	cfg      Config
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config) (*Backend, error) {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	return &Backend{
		Backend:  gormstore.New(db),
		db:       db,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates the schema and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)
	return b.Backend.Close()
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via
// VACUUM INTO. VACUUM INTO creates a point-in-time snapshot, so no pause
// mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.cfg.Log.Error("dumping annotation DB to disk", "error", err)
			} else {
				b.cfg.Log.Debug("dumped annotation DB to disk", "duration", time.Since(start))
			}
		}
	}
}
