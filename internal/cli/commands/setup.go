package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tracelens-labs/tracelens/internal/config"
	"github.com/tracelens-labs/tracelens/internal/state"
	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	statePath := getEnvOrDefault("TRACELENS_STATE_PATH", config.DefaultStateFile)
	outputFormat := getEnvOrDefault("TRACELENS_OUTPUT", config.DefaultOutput)
	verbose := os.Getenv("TRACELENS_VERBOSE") == "true"

	cfg := &config.Config{
		StatePath:    statePath,
		OutputFormat: outputFormat,
		Verbose:      verbose,
	}
	cfg.ApplyDefaults()
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore opens the run database and applies pending migrations.
// The caller must Close the returned store.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore()
	store.SetLogger(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// newResolver builds an analyzer from the configured ceilings with the
// given variable overrides.
func newResolver(cfg *config.Config, vars sqlprov.VarResolver) *sqlprov.Resolver {
	return sqlprov.NewResolver(sqlprov.Options{
		Vars:     vars,
		MaxDepth: cfg.Analyzer.MaxDepth,
		MaxSpans: cfg.Analyzer.MaxSpans,
	})
}

// parseVars turns repeated --var Namespace::Name=value flags into a map.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("invalid --var %q (expected Name=value)", pair)
		}
		vars[pair[:eq]] = pair[eq+1:]
	}
	return vars, nil
}
