package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
)

// SaveRun persists one propagation result: the run record, every
// lineage row and the unused-column report, in a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, res *dataflow.Result) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Package:   res.Package,
		CreatedAt: time.Now().UTC(),
		Rows:      len(res.Rows),
		Unused:    res.Summary.Unused,
		Score:     res.Summary.Score,
	}

	s.logger.Debug("saving run",
		slog.String("id", run.ID),
		slog.String("package", run.Package),
		slog.Int("rows", run.Rows))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, package, created_at, row_count, unused_count, score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Package, run.CreatedAt, run.Rows, run.Unused, run.Score,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range res.Rows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lineage_rows (run_id, source_component, source_table, source_column,
			    source_type, expression, destination_component, destination_table,
			    destination_column, destination_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.SourceComponent, r.SourceTable, r.SourceColumn,
			r.SourceType, r.Expression, r.DestinationComponent, r.DestinationTable,
			r.DestinationColumn, r.DestinationType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert lineage row: %w", err)
		}
	}

	for _, u := range res.Unused {
		for _, col := range u.Columns {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO unused_columns (run_id, component, column_name) VALUES (?, ?, ?)`,
				run.ID, u.Component, col,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to insert unused column: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run, nil
}

// ListRuns returns all saved runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, package, created_at, row_count, unused_count, score
		 FROM runs ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.Package, &run.CreatedAt, &run.Rows, &run.Unused, &run.Score); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads one run with its lineage rows and unused-column report.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*SavedRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	saved := &SavedRun{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, package, created_at, row_count, unused_count, score FROM runs WHERE id = ?`,
		id,
	).Scan(&saved.Run.ID, &saved.Run.Package, &saved.Run.CreatedAt,
		&saved.Run.Rows, &saved.Run.Unused, &saved.Run.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_component, source_table, source_column, source_type, expression,
		    destination_component, destination_table, destination_column, destination_type
		 FROM lineage_rows WHERE run_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get lineage rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r dataflow.Row
		err := rows.Scan(&r.SourceComponent, &r.SourceTable, &r.SourceColumn, &r.SourceType,
			&r.Expression, &r.DestinationComponent, &r.DestinationTable,
			&r.DestinationColumn, &r.DestinationType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lineage row: %w", err)
		}
		saved.Rows = append(saved.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unused, err := s.db.QueryContext(ctx,
		`SELECT component, column_name FROM unused_columns WHERE run_id = ? ORDER BY component, column_name`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get unused columns: %w", err)
	}
	defer unused.Close()

	for unused.Next() {
		var component, column string
		if err := unused.Scan(&component, &column); err != nil {
			return nil, fmt.Errorf("failed to scan unused column: %w", err)
		}
		n := len(saved.Unused)
		if n == 0 || saved.Unused[n-1].Component != component {
			saved.Unused = append(saved.Unused, dataflow.UnusedColumns{Component: component})
			n++
		}
		saved.Unused[n-1].Columns = append(saved.Unused[n-1].Columns, column)
	}
	return saved, unused.Err()
}

// TraceColumn finds every saved lineage row whose source or destination
// matches the given column, optionally narrowed to a table. Matching is
// case-insensitive.
func (s *SQLiteStore) TraceColumn(ctx context.Context, table, column string) ([]TraceHit, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT l.run_id, r.package,
	    l.source_component, l.source_table, l.source_column, l.source_type, l.expression,
	    l.destination_component, l.destination_table, l.destination_column, l.destination_type
	 FROM lineage_rows l JOIN runs r ON r.id = l.run_id`
	var args []any
	if table == "" {
		query += ` WHERE UPPER(l.source_column) = UPPER(?) OR UPPER(l.destination_column) = UPPER(?)`
		args = []any{column, column}
	} else {
		query += ` WHERE (UPPER(l.source_table) = UPPER(?) AND UPPER(l.source_column) = UPPER(?))
		    OR (UPPER(l.destination_table) = UPPER(?) AND UPPER(l.destination_column) = UPPER(?))`
		args = []any{table, column, table, column}
	}
	query += ` ORDER BY l.run_id, l.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to trace column: %w", err)
	}
	defer rows.Close()

	var hits []TraceHit
	for rows.Next() {
		var h TraceHit
		err := rows.Scan(&h.RunID, &h.Package,
			&h.Row.SourceComponent, &h.Row.SourceTable, &h.Row.SourceColumn,
			&h.Row.SourceType, &h.Row.Expression,
			&h.Row.DestinationComponent, &h.Row.DestinationTable,
			&h.Row.DestinationColumn, &h.Row.DestinationType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
