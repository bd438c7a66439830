// Package commands_test provides tests for CLI command creation.
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAnalyzeCommand(t *testing.T) {
	cmd := NewAnalyzeCommand()

	assert.Equal(t, "analyze [file]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Verify flags exist (output is a global flag on root, not local)
	flags := []string{"var", "from-postgres", "schema"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewExtractCommand(t *testing.T) {
	cmd := NewExtractCommand()

	assert.Equal(t, "extract <snapshot>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"var", "unused", "save"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewRunsCommand(t *testing.T) {
	cmd := NewRunsCommand()

	assert.Equal(t, "runs", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	subs := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	assert.True(t, subs["list"], "runs should have a list subcommand")
	assert.True(t, subs["show"], "runs should have a show subcommand")
}

func TestNewTraceCommand(t *testing.T) {
	cmd := NewTraceCommand()

	assert.Equal(t, "trace <table.column>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestParseVars(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "empty",
			pairs: nil,
			want:  nil,
		},
		{
			name:  "single pair",
			pairs: []string{"User::Query=SELECT 1"},
			want:  map[string]string{"User::Query": "SELECT 1"},
		},
		{
			name:  "value containing equals",
			pairs: []string{"User::Filter=a=b"},
			want:  map[string]string{"User::Filter": "a=b"},
		},
		{
			name:  "multiple pairs",
			pairs: []string{"A=1", "B=2"},
			want:  map[string]string{"A": "1", "B": "2"},
		},
		{
			name:    "missing equals",
			pairs:   []string{"User::Query"},
			wantErr: true,
		},
		{
			name:    "empty name",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVars(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target     string
		wantTable  string
		wantColumn string
	}{
		{"dbo.Orders.OrderID", "dbo.Orders", "OrderID"},
		{"Orders.OrderID", "Orders", "OrderID"},
		{"CustomerKey", "", "CustomerKey"},
		{"dbo.Orders.", "dbo.Orders", ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			table, column := splitTarget(tt.target)
			assert.Equal(t, tt.wantTable, table)
			assert.Equal(t, tt.wantColumn, column)
		})
	}
}
