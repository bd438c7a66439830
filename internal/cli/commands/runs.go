package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tracelens-labs/tracelens/internal/config"
	"github.com/tracelens-labs/tracelens/internal/state"
)

// NewRunsCommand creates the runs command with its subcommands.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved lineage runs",
		Long:  `List and show lineage extraction runs saved with 'extract --save'.`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		Example: `  # List all saved runs, newest first
  tracelens runs list

  # Output as JSON
  tracelens runs list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRunsList(cmd)
		},
	}
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved run with its lineage rows",
		Example: `  # Show one run
  tracelens runs show 2f1c9a6e-4c7b-4b4e-9d52-8f6a2c3e1d00

  # Output as JSON
  tracelens runs show 2f1c9a6e-4c7b-4b4e-9d52-8f6a2c3e1d00 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(cmd, args[0])
		},
	}
}

func runRunsList(cmd *cobra.Command) error {
	cfg := getConfig()

	store, err := openStore(cfg, config.GetLogger(cmd.Context()))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cfg.OutputFormat == "json" {
		return renderJSON(w, runs)
	}
	return runsGrid(runs).render(w, cfg.OutputFormat)
}

func runRunsShow(cmd *cobra.Command, id string) error {
	cfg := getConfig()

	store, err := openStore(cfg, config.GetLogger(cmd.Context()))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	saved, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cfg.OutputFormat == "json" {
		return renderJSON(w, saved)
	}

	_, _ = fmt.Fprintf(w, "Run %s (package %s, saved %s)\n",
		saved.Run.ID, saved.Run.Package, saved.Run.CreatedAt.Format("2006-01-02 15:04:05"))
	if err := rowsGrid(saved.Rows).render(w, cfg.OutputFormat); err != nil {
		return err
	}

	if len(saved.Unused) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Unused columns:")
		return unusedGrid(saved.Unused).render(w, cfg.OutputFormat)
	}
	return nil
}

func runsGrid(runs []*state.Run) grid {
	g := grid{header: []string{"ID", "Package", "Created", "Rows", "Unused", "Score"}}
	for _, r := range runs {
		g.rows = append(g.rows, []string{
			r.ID, r.Package, r.CreatedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Rows), strconv.Itoa(r.Unused),
			fmt.Sprintf("%.1f%%", r.Score),
		})
	}
	return g
}
