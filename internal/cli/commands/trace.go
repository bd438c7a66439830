package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracelens-labs/tracelens/internal/config"
	"github.com/tracelens-labs/tracelens/internal/state"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <table.column>",
		Short: "Search saved lineage rows for a column",
		Long: `Search every saved run for lineage rows whose source or destination
matches the given column. Matching is case-insensitive.

The argument splits on the last dot: "dbo.Orders.OrderID" searches for
column OrderID on table dbo.Orders. Without a dot the search matches
the column name on any table.`,
		Example: `  # Where does dbo.Orders.OrderID flow?
  tracelens trace dbo.Orders.OrderID

  # Any column named CustomerKey, whatever the table
  tracelens trace CustomerKey

  # Output as JSON
  tracelens trace dbo.Orders.OrderID --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args[0])
		},
	}
	return cmd
}

func runTrace(cmd *cobra.Command, target string) error {
	cfg := getConfig()

	table, column := splitTarget(target)
	if column == "" {
		return fmt.Errorf("invalid column reference %q", target)
	}

	store, err := openStore(cfg, config.GetLogger(cmd.Context()))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	hits, err := store.TraceColumn(cmd.Context(), table, column)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cfg.OutputFormat == "json" {
		return renderJSON(w, hits)
	}
	return hitsGrid(hits).render(w, cfg.OutputFormat)
}

// splitTarget splits "table.column" on the last dot, so schema-qualified
// tables like dbo.Orders keep their dots. No dot means column only.
func splitTarget(target string) (table, column string) {
	if idx := strings.LastIndexByte(target, '.'); idx >= 0 {
		return target[:idx], target[idx+1:]
	}
	return "", target
}

func hitsGrid(hits []state.TraceHit) grid {
	g := grid{header: []string{"Run", "Package", "Source", "Destination", "Expression"}}
	for _, h := range hits {
		g.rows = append(g.rows, []string{
			h.RunID, h.Package,
			h.Row.SourceTable + "." + h.Row.SourceColumn,
			h.Row.DestinationTable + "." + h.Row.DestinationColumn,
			h.Row.Expression,
		})
	}
	return g
}
