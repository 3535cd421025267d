// Package cache holds host-side caches for flushed render data.
package cache

import (
	"sync"

	"github.com/mapgrid/usermarks/internal/render"
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

type tileGroupKey struct {
	tile  tiling.TileKey
	group core.GroupID
}

// TileCache retains the most recent render data flushed per (tile, group) so
// the frontend can redraw without regenerating. Latency here matters: lookups
// happen per frame, generation does not.
type TileCache struct {
	mu      sync.RWMutex
	entries map[tileGroupKey]render.Data
}

// NewTileCache creates a new TileCache
func NewTileCache() *TileCache {
	return &TileCache{
		entries: make(map[tileGroupKey]render.Data),
	}
}

// Get retrieves the cached payload for a (tile, group) pair
func (c *TileCache) Get(tile tiling.TileKey, group core.GroupID) (render.Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[tileGroupKey{tile: tile, group: group}]
	return d, ok
}

// Put stores a payload, replacing any previous one for the pair
func (c *TileCache) Put(tile tiling.TileKey, group core.GroupID, data render.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tileGroupKey{tile: tile, group: group}] = data
}

// DropGroup removes every cached payload belonging to the group
func (c *TileCache) DropGroup(group core.GroupID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.group == group {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached payloads
func (c *TileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset clears the cache
func (c *TileCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[tileGroupKey]render.Data)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
