package dataflow

import "errors"

// ErrCycle reports that a task's paths do not form a DAG. The error is
// scoped to the task that stalled; sibling tasks keep propagating.
var ErrCycle = errors.New("dataflow graph contains a cycle")

// Entry is one upstream origin carried by a lineage id. A lineage id
// maps to a list of entries, never a single value, so a column
// assembled from several origins keeps all of them.
type Entry struct {
	// Component introduced the origin (a source, lookup or the
	// transform that synthesized a placeholder).
	Component string `json:"component"`
	// Table is the originating table or a sentinel such as
	// "Transformation" or "Variable/Expression".
	Table string `json:"table"`
	// Column is the originating column name.
	Column string `json:"column"`
	// Expression accumulates the logic trail, one breadcrumb per hop.
	Expression string `json:"expression,omitempty"`
	// Type is the origin's data type, or a tag for synthesized entries.
	Type string `json:"type,omitempty"`
}

// Row is one resolved source-to-destination column mapping, emitted
// only at destination components: one row per incoming column slot per
// upstream origin.
type Row struct {
	SourceComponent      string `json:"source_component"`
	SourceTable          string `json:"source_table"`
	SourceColumn         string `json:"source_column"`
	SourceType           string `json:"source_type,omitempty"`
	Expression           string `json:"expression,omitempty"`
	DestinationComponent string `json:"destination_component"`
	DestinationTable     string `json:"destination_table"`
	DestinationColumn    string `json:"destination_column"`
	DestinationType      string `json:"destination_type,omitempty"`
}

// TaskError records a propagation failure scoped to one task.
type TaskError struct {
	Task string `json:"task"`
	Err  error  `json:"-"`
}

func (e TaskError) Error() string {
	return "task " + e.Task + ": " + e.Err.Error()
}

func (e TaskError) Unwrap() error { return e.Err }

// Result is the lineage outcome for one package.
type Result struct {
	Package string          `json:"package"`
	Rows    []Row           `json:"rows"`
	Unused  []UnusedColumns `json:"unused,omitempty"`
	Summary Summary         `json:"summary"`
	// Errors holds per-task failures; rows from failed tasks are
	// dropped while sibling tasks stay in the result.
	Errors []TaskError `json:"errors,omitempty"`
}
