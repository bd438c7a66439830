package sqlprov

import "strconv"

// Cache memoizes column maps for previously analyzed statement text.
// Implementations must be safe for use by a single resolver; the resolver
// never shares a cache across goroutines.
type Cache interface {
	Get(key string) (ColumnMap, bool)
	Put(key string, m ColumnMap)
}

// mapCache is the default in-memory cache. Entries live for the lifetime
// of the owning resolver.
type mapCache struct {
	entries map[string]ColumnMap
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]ColumnMap)}
}

func (c *mapCache) Get(key string) (ColumnMap, bool) {
	m, ok := c.entries[key]
	return m, ok
}

func (c *mapCache) Put(key string, m ColumnMap) {
	c.entries[key] = m
}

// cacheKey derives a bounded memoization key from statement text. Long
// statements share a prefix but are disambiguated by total length.
func cacheKey(sql string) string {
	const prefixLen = 512
	if len(sql) <= prefixLen {
		return sql
	}
	return sql[:prefixLen] + "#" + strconv.Itoa(len(sql))
}
