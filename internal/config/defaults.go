package config

import "runtime"

// Default configuration values.
const (
	DefaultStateFile = ".tracelens/state.db"
	DefaultOutput    = "table"
)

// Analyzer defaults. Depth and span ceilings match the resolver's
// built-in limits; the cache cap is per resolver.
const (
	DefaultMaxDepth  = 20
	DefaultMaxSpans  = 50
	DefaultCacheSize = 256
)

// DefaultCatalogSchema is the schema scanned when a catalog DSN is
// configured without naming one.
const DefaultCatalogSchema = "public"

// ApplyDefaults fills fields whose defaults depend on other values and
// so cannot be seeded up front.
func (c *Config) ApplyDefaults() {
	if c.Engine.Parallelism <= 0 {
		c.Engine.Parallelism = runtime.NumCPU()
	}
	if c.Catalog != nil && c.Catalog.Schema == "" {
		c.Catalog.Schema = DefaultCatalogSchema
	}
}
