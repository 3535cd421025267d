// internal/storage/storage.go
package storage

import (
	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

// Backend is the interface all annotation persistence implementations must
// satisfy. Persistence is a peer of the index core, not part of it: the core
// only ever sees the collections loaded from here.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Group persistence
	SaveGroup(g *model.AnnotationGroup) error
	LoadGroup(id core.GroupID) (*model.AnnotationGroup, bool, error)
	LoadGroups() ([]model.AnnotationGroup, error)
	DeleteGroup(id core.GroupID) error
}

// Exportable is an optional interface for backends that write a portable
// snapshot of the annotation set on Close.
type Exportable interface {
	GetExportedFilePath() string
}
