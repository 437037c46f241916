// Package cache memoizes the resolution of active base sets to discovered features.
package cache

import "github.com/danielpatrickdp/ifdd/internal/featureset"

// #region types
// Stats counts cache traffic since creation.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Clears  uint64
	Entries int
}

// Cache maps an active base set to the feature indices it resolved to.
// It must be cleared whenever the feature basis changes.
type Cache struct {
	entries map[featureset.Key][]int
	stats   Stats
}

// #endregion types

// #region cache
// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[featureset.Key][]int)}
}

// Get looks up a previous resolution. The returned slice must not be modified.
func (c *Cache) Get(k featureset.Key) ([]int, bool) {
	v, ok := c.entries[k]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return v, ok
}

// Put stores a copy of resolved under k.
func (c *Cache) Put(k featureset.Key, resolved []int) {
	cp := make([]int, len(resolved))
	copy(cp, resolved)
	c.entries[k] = cp
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if len(c.entries) > 0 {
		c.entries = make(map[featureset.Key][]int)
	}
	c.stats.Clears++
}

// Len is the number of cached resolutions.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// #endregion cache
