package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens-labs/tracelens/internal/config"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name     string
		setupDir func(t *testing.T, dir string)
		extra    []string
		wantErr  string
	}{
		{
			name: "init empty directory",
		},
		{
			name: "init existing config without force",
			setupDir: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("existing"), 0600))
			},
			wantErr: "already exists",
		},
		{
			name: "init existing config with force",
			setupDir: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("existing"), 0600))
			},
			extra: []string{"--force"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.setupDir != nil {
				tt.setupDir(t, dir)
			}

			cmd := NewInitCommand()
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetErr(&buf)
			cmd.SetArgs(append([]string{dir}, tt.extra...))

			err := cmd.Execute()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join(dir, config.ConfigFileName))
			require.NoError(t, err)
			assert.Contains(t, string(data), "state_path:")
			assert.Contains(t, string(data), "output: table")
			assert.Contains(t, buf.String(), "Created")
		})
	}
}

func TestInitCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	cmd := NewInitCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	info, err := os.Stat(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

// The starter file must round-trip through the loader unchanged.
func TestInitConfigLoads(t *testing.T) {
	defer config.ResetConfig()
	dir := t.TempDir()

	cmd := NewInitCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName), nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, config.DefaultMaxDepth, cfg.Analyzer.MaxDepth)
	assert.Equal(t, config.DefaultMaxSpans, cfg.Analyzer.MaxSpans)
	assert.Equal(t, config.DefaultCacheSize, cfg.Analyzer.CacheSize)
	assert.Nil(t, cfg.Catalog)
}
