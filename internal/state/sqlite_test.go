package state

import (
	"context"
	"testing"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func testResult() *dataflow.Result {
	rows := []dataflow.Row{
		{
			SourceComponent: "Src", SourceTable: "S1", SourceColumn: "COLA",
			Expression:           "COLA",
			DestinationComponent: "Dest", DestinationTable: "dbo.T", DestinationColumn: "A",
		},
		{
			SourceComponent: "Src", SourceTable: "S1", SourceColumn: "COLB",
			DestinationComponent: "Dest", DestinationTable: "dbo.T", DestinationColumn: "B",
		},
	}
	return &dataflow.Result{
		Package: "Nightly",
		Rows:    rows,
		Unused:  []dataflow.UnusedColumns{{Component: "Src", Columns: []string{"COLC", "COLD"}}},
		Summary: dataflow.Summary{Rows: 2, Mapped: 2, Unused: 2, Score: 100},
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"runs", "lineage_rows", "unused_columns"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
			continue
		}
		rows.Close()
	}
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.SaveRun(ctx, testResult())
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if run.ID == "" {
		t.Error("run ID should not be empty")
	}
	if run.Package != "Nightly" || run.Rows != 2 || run.Unused != 2 {
		t.Errorf("run = %+v", run)
	}

	saved, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if saved.Run.ID != run.ID || saved.Run.Score != 100 {
		t.Errorf("saved run = %+v", saved.Run)
	}
	if len(saved.Rows) != 2 {
		t.Fatalf("rows = %+v, want 2", saved.Rows)
	}
	if saved.Rows[0].SourceColumn != "COLA" || saved.Rows[1].SourceColumn != "COLB" {
		t.Errorf("row order not preserved: %+v", saved.Rows)
	}
	if len(saved.Unused) != 1 || saved.Unused[0].Component != "Src" {
		t.Fatalf("unused = %+v", saved.Unused)
	}
	if len(saved.Unused[0].Columns) != 2 {
		t.Errorf("unused columns = %v", saved.Unused[0].Columns)
	}
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("expected error for nonexistent run")
	}
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, testResult())
	if err != nil {
		t.Fatalf("failed to save first run: %v", err)
	}
	second, err := store.SaveRun(ctx, &dataflow.Result{Package: "Hourly"})
	if err != nil {
		t.Fatalf("failed to save second run: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %+v, want 2", runs)
	}
	ids := map[string]bool{runs[0].ID: true, runs[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Errorf("listed ids = %v", ids)
	}
}

func TestSQLiteStore_TraceColumn(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveRun(ctx, testResult()); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	// Source side, case-insensitive.
	hits, err := store.TraceColumn(ctx, "s1", "cola")
	if err != nil {
		t.Fatalf("failed to trace: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %+v, want 1", hits)
	}
	if hits[0].Package != "Nightly" || hits[0].Row.SourceColumn != "COLA" {
		t.Errorf("hit = %+v", hits[0])
	}

	// Destination side.
	hits, err = store.TraceColumn(ctx, "dbo.T", "B")
	if err != nil {
		t.Fatalf("failed to trace: %v", err)
	}
	if len(hits) != 1 || hits[0].Row.DestinationColumn != "B" {
		t.Errorf("hits = %+v", hits)
	}

	// Column only.
	hits, err = store.TraceColumn(ctx, "", "A")
	if err != nil {
		t.Fatalf("failed to trace: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %+v, want 1", hits)
	}

	// No match.
	hits, err = store.TraceColumn(ctx, "S1", "missing")
	if err != nil {
		t.Fatalf("failed to trace: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %+v, want none", hits)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	if _, err := store.SaveRun(ctx, testResult()); err == nil {
		t.Error("SaveRun should fail when not opened")
	}
	if _, err := store.ListRuns(ctx); err == nil {
		t.Error("ListRuns should fail when not opened")
	}
	if _, err := store.GetRun(ctx, "x"); err == nil {
		t.Error("GetRun should fail when not opened")
	}
	if _, err := store.TraceColumn(ctx, "t", "c"); err == nil {
		t.Error("TraceColumn should fail when not opened")
	}
	if err := store.Migrate(); err == nil {
		t.Error("Migrate should fail when not opened")
	}
}
