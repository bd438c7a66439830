package engine

import "github.com/tracelens-labs/tracelens/pkg/sqlprov"

// boundedCache is a size-capped statement memo. Inserting a new key into
// a full cache drops the whole memo and starts over; repeated statements
// rebuild it.
type boundedCache struct {
	cap     int
	entries map[string]sqlprov.ColumnMap
}

func newBoundedCache(cap int) *boundedCache {
	return &boundedCache{cap: cap, entries: make(map[string]sqlprov.ColumnMap, cap)}
}

func (c *boundedCache) Get(key string) (sqlprov.ColumnMap, bool) {
	m, ok := c.entries[key]
	return m, ok
}

func (c *boundedCache) Put(key string, m sqlprov.ColumnMap) {
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.cap {
		c.entries = make(map[string]sqlprov.ColumnMap, c.cap)
	}
	c.entries[key] = m
}
