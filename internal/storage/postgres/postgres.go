// Package postgres implements annotation persistence on a Postgres database.
// All behavior lives in the shared GORM backend; this package only opens the
// connection from viper config.
package postgres

import (
	"fmt"

	"github.com/mapgrid/usermarks/internal/database"
	"github.com/mapgrid/usermarks/internal/storage/gormstore"
)

// Backend wraps the GORM backend over a Postgres connection.
type Backend struct {
	*gormstore.Backend
}

// New creates a new Postgres storage backend.
func New() (*Backend, error) {
	db, err := database.GetPostgresDB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &Backend{Backend: gormstore.New(db)}, nil
}
