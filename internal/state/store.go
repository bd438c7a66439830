// Package state persists lineage extraction runs in SQLite. A run
// captures the full output of one package propagation: the lineage
// rows, the unused-column report and the quality summary, so results
// can be listed, reloaded and searched later without re-parsing the
// snapshot.
package state

import (
	"time"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
)

// Run is the stored metadata of one lineage extraction.
type Run struct {
	ID        string    `json:"id"`
	Package   string    `json:"package"`
	CreatedAt time.Time `json:"created_at"`
	Rows      int       `json:"rows"`
	Unused    int       `json:"unused"`
	Score     float64   `json:"score"`
}

// SavedRun is a fully loaded run: metadata plus the persisted rows and
// unused-column report.
type SavedRun struct {
	Run    Run                      `json:"run"`
	Rows   []dataflow.Row           `json:"rows"`
	Unused []dataflow.UnusedColumns `json:"unused,omitempty"`
}

// TraceHit is one lineage row matching a column search, annotated with
// the run it was saved under.
type TraceHit struct {
	RunID   string       `json:"run_id"`
	Package string       `json:"package"`
	Row     dataflow.Row `json:"row"`
}
