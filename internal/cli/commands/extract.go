package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracelens-labs/tracelens/internal/config"
	"github.com/tracelens-labs/tracelens/internal/engine"
	"github.com/tracelens-labs/tracelens/internal/snapshot"
	"github.com/tracelens-labs/tracelens/pkg/dataflow"
	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

// ExtractOptions holds options for the extract command.
type ExtractOptions struct {
	Vars   []string
	Unused bool
	Save   bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <snapshot>",
		Short: "Extract column lineage from a pipeline snapshot",
		Long: `Load a pipeline snapshot (JSON or YAML) and propagate lineage
identifiers through every package to produce source-to-destination
column mappings.

Tasks inside a package are ordered topologically; a task whose paths
form a cycle is reported and skipped while its siblings still
propagate. Each package ends with a coverage summary.`,
		Example: `  # Extract lineage from a snapshot
  tracelens extract pipeline.json

  # Include the unused-column report
  tracelens extract pipeline.yaml --unused

  # Persist the run for later inspection
  tracelens extract pipeline.json --save

  # Override a variable-held query
  tracelens extract pipeline.json --var "User::SourceQuery=SELECT id FROM dbo.Orders"

  # Output as JSON
  tracelens extract pipeline.json --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable override Namespace::Name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Unused, "unused", false, "Report source columns that never reach a destination")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Persist the run to the state database")

	return cmd
}

func runExtract(cmd *cobra.Command, path string, opts *ExtractOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	vars, err := parseVars(opts.Vars)
	if err != nil {
		return err
	}

	pkgs, err := snapshot.Load(path)
	if err != nil {
		return err
	}

	var resolve sqlprov.VarResolver
	if len(vars) > 0 {
		resolve = sqlprov.MapVars(vars)
	}
	eng := engine.New(engine.Config{
		Parallelism: cfg.Engine.Parallelism,
		MaxDepth:    cfg.Analyzer.MaxDepth,
		MaxSpans:    cfg.Analyzer.MaxSpans,
		CacheSize:   cfg.Analyzer.CacheSize,
		Vars:        resolve,
		Logger:      logger,
	})

	results, err := eng.Extract(cmd.Context(), pkgs)
	if err != nil {
		return err
	}

	// Task failures go to stderr; the healthy tasks still report.
	for _, res := range results {
		for _, taskErr := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: package %s: %v\n", res.Package, taskErr)
		}
	}

	if opts.Save {
		if err := saveResults(cmd, cfg, logger, results); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if cfg.OutputFormat == "json" {
		return renderJSON(w, results)
	}
	for i, res := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if err := renderResult(w, cfg.OutputFormat, res, opts.Unused); err != nil {
			return err
		}
	}
	return nil
}

// saveResults persists every package result and prints the run IDs.
func saveResults(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, results []*dataflow.Result) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, res := range results {
		run, err := store.SaveRun(cmd.Context(), res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s (package %s, %d rows)\n", run.ID, run.Package, run.Rows)
	}
	return nil
}

// renderResult prints one package section: the lineage rows, optionally
// the unused-column report, and the coverage summary footer.
func renderResult(w io.Writer, format string, res *dataflow.Result, unused bool) error {
	_, _ = fmt.Fprintf(w, "Package: %s\n", res.Package)
	if err := rowsGrid(res.Rows).render(w, format); err != nil {
		return err
	}

	if unused && len(res.Unused) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Unused columns:")
		if err := unusedGrid(res.Unused).render(w, format); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Summary:")
	return summaryGrid(res.Summary).render(w, format)
}

func rowsGrid(rows []dataflow.Row) grid {
	g := grid{header: []string{
		"Source Component", "Source Table", "Source Column",
		"Destination Component", "Destination Table", "Destination Column", "Expression",
	}}
	for _, r := range rows {
		g.rows = append(g.rows, []string{
			r.SourceComponent, r.SourceTable, r.SourceColumn,
			r.DestinationComponent, r.DestinationTable, r.DestinationColumn, r.Expression,
		})
	}
	return g
}

func unusedGrid(unused []dataflow.UnusedColumns) grid {
	g := grid{header: []string{"Component", "Columns"}}
	for _, u := range unused {
		g.rows = append(g.rows, []string{u.Component, strings.Join(u.Columns, ", ")})
	}
	return g
}

func summaryGrid(s dataflow.Summary) grid {
	return grid{
		header: []string{"Rows", "Mapped", "Exact", "Name Match", "Inferred", "Placeholder", "Orphaned", "Unused", "Score"},
		rows: [][]string{{
			strconv.Itoa(s.Rows), strconv.Itoa(s.Mapped), strconv.Itoa(s.Exact),
			strconv.Itoa(s.NameMatch), strconv.Itoa(s.Inferred), strconv.Itoa(s.Placeholder),
			strconv.Itoa(s.Orphaned), strconv.Itoa(s.Unused),
			fmt.Sprintf("%.1f%%", s.Score),
		}},
	}
}
