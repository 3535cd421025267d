// Package catalog tracks the host's registered annotation groups.
package catalog

import (
	"sync"

	"github.com/mapgrid/usermarks/pkg/core"
)

// GroupInfo describes one registered annotation group.
type GroupInfo struct {
	ID      core.GroupID
	Name    string
	Visible bool
}

// Catalog maps group names to their IDs for the current session. The index
// core only speaks GroupID; the host speaks names.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]GroupInfo
	nextID core.GroupID
}

// New creates a new Catalog
func New() *Catalog {
	return &Catalog{
		byName: make(map[string]GroupInfo),
		nextID: 1,
	}
}

// Register returns the group registered under name, creating it with the next
// free ID if it does not exist.
func (c *Catalog) Register(name string) GroupInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if info, ok := c.byName[name]; ok {
		return info
	}
	info := GroupInfo{ID: c.nextID, Name: name}
	c.nextID++
	c.byName[name] = info
	return info
}

// Get retrieves a group by name
func (c *Catalog) Get(name string) (GroupInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.byName[name]
	return info, ok
}

// SetVisible records the host-side visibility flag for a group
func (c *Catalog) SetVisible(name string, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if info, ok := c.byName[name]; ok {
		info.Visible = visible
		c.byName[name] = info
	}
}

// Delete removes a group by name
func (c *Catalog) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byName, name)
}

// Groups returns a snapshot of all registered groups.
func (c *Catalog) Groups() []GroupInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]GroupInfo, 0, len(c.byName))
	for _, info := range c.byName {
		groups = append(groups, info)
	}
	return groups
}

// Reset clears all groups
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName = make(map[string]GroupInfo)
	c.nextID = 1
}
