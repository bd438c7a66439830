package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tracelens-labs/tracelens/internal/catalog"
	"github.com/tracelens-labs/tracelens/internal/config"
	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Vars         []string
	FromPostgres string
	Schema       string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze SQL text for column-level provenance",
		Long: `Analyze a SQL statement or script and report where every projected
column comes from.

Each statement is classified (INSERT, SELECT INTO, UPDATE, CREATE VIEW,
SELECT) and its projection is resolved through CTEs, derived tables,
subqueries and set operations down to source tables and columns. Join
key pairs from ON clauses are reported alongside.

Reads from the file argument, or from stdin when the argument is
missing or "-".`,
		Example: `  # Analyze a script file
  tracelens analyze etl_load.sql

  # Analyze a statement from stdin
  echo "SELECT o.id AS OrderID FROM dbo.Orders o" | tracelens analyze

  # Resolve @[User::SourceQuery] references before analysis
  tracelens analyze load.sql --var "User::SourceQuery=SELECT id FROM dbo.Orders"

  # Analyze every view definition in a live Postgres schema
  tracelens analyze --from-postgres "postgres://localhost/warehouse" --schema reporting

  # Output as JSON
  tracelens analyze etl_load.sql --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable override Namespace::Name=value (repeatable)")
	cmd.Flags().StringVar(&opts.FromPostgres, "from-postgres", "", "Postgres DSN to load view definitions from (empty: catalog.dsn from config)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "Schema to load views from (default: catalog.schema from config)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	cfg := getConfig()

	vars, err := parseVars(opts.Vars)
	if err != nil {
		return err
	}
	var resolve sqlprov.VarResolver
	if len(vars) > 0 {
		resolve = sqlprov.MapVars(vars)
	}
	r := newResolver(cfg, resolve)

	if cmd.Flags().Changed("from-postgres") {
		return analyzeCatalog(cmd, cfg, r, opts)
	}

	script, err := readScript(cmd, args)
	if err != nil {
		return err
	}
	infos := r.AnalyzeScript(script)
	if len(infos) == 0 {
		return fmt.Errorf("no SQL statements found")
	}

	w := cmd.OutOrStdout()
	switch cfg.OutputFormat {
	case "json":
		return renderJSON(w, infos)
	case "csv":
		return provenanceGrid(infos).render(w, "csv")
	default:
		return renderStatements(w, cfg.OutputFormat, infos)
	}
}

// readScript loads the SQL to analyze from the file argument or stdin.
func readScript(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// renderStatements prints one section per statement: a heading, the
// provenance grid and the join keys when any were found.
func renderStatements(w io.Writer, format string, infos []*sqlprov.StatementInfo) error {
	for i, info := range infos {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "Statement %d: %s -> %s\n", i+1, info.Kind, info.Destination)
		if err := columnsGrid(info).render(w, format); err != nil {
			return err
		}
		if len(info.JoinKeys) > 0 {
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, "Join keys:")
			if err := joinKeysGrid(info.JoinKeys).render(w, format); err != nil {
				return err
			}
		}
	}
	return nil
}

func columnsGrid(info *sqlprov.StatementInfo) grid {
	g := grid{header: []string{"Column", "Source Table", "Source Column", "Type", "Expression"}}
	for _, alias := range info.Columns.Aliases() {
		p := info.Columns[alias]
		g.rows = append(g.rows, []string{alias, p.SourceTable, p.SourceColumn, string(p.Type), p.Expression})
	}
	return g
}

func joinKeysGrid(keys []sqlprov.JoinKey) grid {
	g := grid{header: []string{"Left", "Right", "Join"}}
	for _, k := range keys {
		g.rows = append(g.rows, []string{
			k.LeftTable + "." + k.LeftColumn,
			k.RightTable + "." + k.RightColumn,
			k.JoinType,
		})
	}
	return g
}

// provenanceGrid flattens all statements into one grid for CSV output.
func provenanceGrid(infos []*sqlprov.StatementInfo) grid {
	g := grid{header: []string{"statement", "kind", "destination", "column", "source_table", "source_column", "type", "expression"}}
	for i, info := range infos {
		n := strconv.Itoa(i + 1)
		for _, alias := range info.Columns.Aliases() {
			p := info.Columns[alias]
			g.rows = append(g.rows, []string{n, string(info.Kind), info.Destination, alias, p.SourceTable, p.SourceColumn, string(p.Type), p.Expression})
		}
	}
	return g
}

// viewAnalysis pairs a catalog view with the analysis of its definition.
type viewAnalysis struct {
	Schema     string                   `json:"schema"`
	View       string                   `json:"view"`
	Statements []*sqlprov.StatementInfo `json:"statements"`
}

// analyzeCatalog loads every view definition in a Postgres schema and
// runs the analyzer over each one.
func analyzeCatalog(cmd *cobra.Command, cfg *config.Config, r *sqlprov.Resolver, opts *AnalyzeOptions) error {
	dsn := opts.FromPostgres
	if dsn == "" && cfg.Catalog != nil {
		dsn = cfg.Catalog.DSN
	}
	if dsn == "" {
		return fmt.Errorf("postgres DSN required (--from-postgres or catalog.dsn in config)")
	}

	schema := opts.Schema
	if schema == "" && cfg.Catalog != nil {
		schema = cfg.Catalog.Schema
	}
	if schema == "" {
		schema = config.DefaultCatalogSchema
	}

	ctx := cmd.Context()
	db, err := catalog.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	views, err := catalog.LoadViews(ctx, db, schema)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return fmt.Errorf("no views found in schema %q", schema)
	}

	analyses := make([]viewAnalysis, 0, len(views))
	for _, v := range views {
		analyses = append(analyses, viewAnalysis{
			Schema:     v.Schema,
			View:       v.Name,
			Statements: r.AnalyzeScript(v.Definition),
		})
	}

	w := cmd.OutOrStdout()
	switch cfg.OutputFormat {
	case "json":
		return renderJSON(w, analyses)
	case "csv":
		g := grid{header: []string{"view", "column", "source_table", "source_column", "type", "expression"}}
		for _, a := range analyses {
			name := a.Schema + "." + a.View
			for _, info := range a.Statements {
				for _, alias := range info.Columns.Aliases() {
					p := info.Columns[alias]
					g.rows = append(g.rows, []string{name, alias, p.SourceTable, p.SourceColumn, string(p.Type), p.Expression})
				}
			}
		}
		return g.render(w, "csv")
	default:
		for i, a := range analyses {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "View: %s.%s\n", a.Schema, a.View)
			if err := renderStatements(w, cfg.OutputFormat, a.Statements); err != nil {
				return err
			}
		}
		return nil
	}
}
