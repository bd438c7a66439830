package config

import (
	"fmt"
	"strings"
)

// outputFormats lists the render formats the CLI accepts.
var outputFormats = map[string]bool{
	"table":    true,
	"json":     true,
	"csv":      true,
	"md":       true,
	"markdown": true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if !outputFormats[strings.ToLower(c.OutputFormat)] {
		return fmt.Errorf("unknown output format %q (valid: table, json, csv, markdown)", c.OutputFormat)
	}
	if c.Analyzer.MaxDepth < 0 {
		return fmt.Errorf("analyzer.max_depth must not be negative")
	}
	if c.Analyzer.MaxSpans < 0 {
		return fmt.Errorf("analyzer.max_spans must not be negative")
	}
	return nil
}
