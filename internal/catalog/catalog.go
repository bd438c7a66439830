// Package catalog reads view definitions from a live PostgreSQL catalog
// so they can be analyzed without a pipeline snapshot.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// View is one catalog view and its defining statement.
type View struct {
	Schema     string
	Name       string
	Definition string
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// LoadViews reads the name and definition of every view in the schema
// from pg_catalog.pg_views, ordered by name.
func LoadViews(ctx context.Context, db *sql.DB, schema string) ([]View, error) {
	const query = `
		SELECT schemaname, viewname, definition
		FROM pg_catalog.pg_views
		WHERE schemaname = $1
		ORDER BY viewname
	`

	rows, err := db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query pg_views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []View
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.Schema, &v.Name, &v.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan view row: %w", err)
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}

	return views, nil
}
