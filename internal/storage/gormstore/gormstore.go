// Package gormstore implements annotation persistence on top of a GORM
// connection. The SQLite and Postgres backends wrap it via composition; the
// only driver-specific concerns live in those packages.
package gormstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

// Backend persists annotation groups through GORM.
type Backend struct {
	db *gorm.DB
}

// New creates a new GORM backend on an open connection.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveGroup stores the group, replacing any previous version wholesale. The
// replace mirrors the index contract: collections are swapped, never edited
// in place. The delete is unscoped; a soft-deleted row would still hold the
// group_id unique index and block the re-insert.
func (b *Backend) SaveGroup(g *model.AnnotationGroup) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		var existing model.AnnotationGroup
		err := tx.Unscoped().Where("group_id = ?", g.GroupID).First(&existing).Error
		if err == nil {
			if err := tx.Unscoped().Select(clause.Associations).Delete(&existing).Error; err != nil {
				return fmt.Errorf("replacing group %d: %w", g.GroupID, err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(g).Error; err != nil {
			return fmt.Errorf("saving group %d: %w", g.GroupID, err)
		}
		return nil
	})
}

// LoadGroup fetches one group with its marks and lines. The second return is
// false when the group does not exist; that is not an error.
func (b *Backend) LoadGroup(id core.GroupID) (*model.AnnotationGroup, bool, error) {
	var g model.AnnotationGroup
	err := b.db.Preload("Marks").Preload("Lines").
		Where("group_id = ?", int64(id)).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &g, true, nil
}

// LoadGroups fetches all groups with their marks and lines.
func (b *Backend) LoadGroups() ([]model.AnnotationGroup, error) {
	var groups []model.AnnotationGroup
	err := b.db.Preload("Marks").Preload("Lines").
		Order("group_id").Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// DeleteGroup removes a group and its annotations. Deleting an absent group
// is a no-op. The delete is unscoped so the group_id slot is free for reuse.
func (b *Backend) DeleteGroup(id core.GroupID) error {
	var g model.AnnotationGroup
	err := b.db.Unscoped().Where("group_id = ?", int64(id)).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return b.db.Unscoped().Select(clause.Associations).Delete(&g).Error
}
