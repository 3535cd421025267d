// internal/storage/memory/memory.go
package memory

import (
	"sort"
	"sync"

	"github.com/mapgrid/usermarks/internal/config"
	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

// Backend stores annotation groups in memory and exports to JSON on Close.
type Backend struct {
	cfg    config.MemoryConfig
	groups map[core.GroupID]*model.AnnotationGroup

	exportedPath string
	mu           sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		groups: make(map[core.GroupID]*model.AnnotationGroup),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports the annotation set to JSON if an output dir is configured.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// SaveGroup stores a copy of the group, replacing any previous version.
func (b *Backend) SaveGroup(g *model.AnnotationGroup) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := *g
	b.groups[core.GroupID(g.GroupID)] = &stored
	return nil
}

// LoadGroup fetches one group. The second return is false when absent.
func (b *Backend) LoadGroup(id core.GroupID) (*model.AnnotationGroup, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	g, ok := b.groups[id]
	if !ok {
		return nil, false, nil
	}
	out := *g
	return &out, true, nil
}

// LoadGroups fetches all groups ordered by GroupID.
func (b *Backend) LoadGroups() ([]model.AnnotationGroup, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.AnnotationGroup, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}

// DeleteGroup removes a group. Deleting an absent group is a no-op.
func (b *Backend) DeleteGroup(id core.GroupID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.groups, id)
	return nil
}

// GetExportedFilePath returns the path written by the last export, if any.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportedPath
}
