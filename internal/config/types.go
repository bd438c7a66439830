// Package config loads and validates tracelens configuration.
// Settings are merged from four layers in increasing precedence:
// built-in defaults, a tracelens.yaml file, TRACELENS_* environment
// variables, and CLI flags.
package config

// AnalyzerConfig bounds the SQL provenance resolver.
type AnalyzerConfig struct {
	// MaxDepth bounds scope-nesting recursion during statement analysis.
	MaxDepth int `koanf:"max_depth"`

	// MaxSpans bounds how many subquery spans a single statement may carve.
	MaxSpans int `koanf:"max_spans"`

	// CacheSize caps each resolver's memo of analyzed statements.
	// Zero or negative removes the cap.
	CacheSize int `koanf:"cache_size"`
}

// EngineConfig tunes lineage propagation across packages.
type EngineConfig struct {
	// Parallelism is the number of packages propagated concurrently.
	// Zero or negative selects the number of CPUs.
	Parallelism int `koanf:"parallelism"`
}

// CatalogConfig points at a live PostgreSQL catalog whose view
// definitions can be analyzed directly.
type CatalogConfig struct {
	// DSN is the connection string. ${VAR} references are expanded
	// from the environment so credentials can stay out of the file.
	DSN string `koanf:"dsn"`

	// Schema restricts which views are read.
	Schema string `koanf:"schema"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string         `koanf:"state_path"`
	OutputFormat string         `koanf:"output"`
	Verbose      bool           `koanf:"verbose"`
	Analyzer     AnalyzerConfig `koanf:"analyzer"`
	Engine       EngineConfig   `koanf:"engine"`
	Catalog      *CatalogConfig `koanf:"catalog"`

	// ProjectRoot is the directory the config file was found in, or the
	// working directory when there is no file. It is derived during
	// loading, never read from the file itself.
	ProjectRoot string `koanf:"-"`
}
