// Package dataflow reconstructs column-level lineage for ETL pipeline
// graphs. Components carry per-task lineage ids on their column slots;
// a topological walk applies per-kind transfer rules so that every
// column arriving at a destination can be traced back to the table,
// column or expression that produced it.
package dataflow

// Kind identifies the transfer semantics of a pipeline component.
// Snapshots normalize vendor class ids to one of these values before
// propagation; dispatch is exact, never substring-based.
type Kind string

const (
	// KindSource reads rows from a relational table or query.
	KindSource Kind = "Source"
	// KindLookup joins a reference table or query into the flow.
	// Lookups seed lineage exactly like sources.
	KindLookup Kind = "Lookup"
	// KindFileSource reads rows from a flat file or spreadsheet.
	KindFileSource Kind = "FileSource"
	// KindDestination writes rows out; the only row-emitting sink.
	KindDestination Kind = "Destination"
	// KindUnionAll concatenates inputs, matching columns by position.
	KindUnionAll Kind = "UnionAll"
	// KindDataConvert casts a single input column to a new type.
	KindDataConvert Kind = "DataConversion"
	// KindMergeJoin combines two sorted inputs on a join key.
	KindMergeJoin Kind = "MergeJoin"
	// KindSort reorders rows, re-emitting columns under new ids.
	KindSort Kind = "Sort"
	// KindAggregate groups rows, re-emitting columns under new ids.
	KindAggregate Kind = "Aggregate"
	// KindDerivedColumn computes new columns from expressions over
	// input columns and variables.
	KindDerivedColumn Kind = "DerivedColumn"
	// KindSynchronous is any in-place transform whose outputs reuse
	// the input lineage ids (multicast, row count, conditional split).
	KindSynchronous Kind = "Synchronous"
	// KindUnknown is a transform whose semantics are not modeled.
	KindUnknown Kind = "Unknown"
)

// Column is one column slot on a pin. Only the fields relevant to the
// owning component's kind are populated.
type Column struct {
	// LineageID tracks the column across component boundaries within
	// one dataflow task. Empty ids are never recorded.
	LineageID string
	// Name is the column's name inside the flow.
	Name string
	// CachedName is the upstream name the component captured when it
	// was configured; expressions may reference either name.
	CachedName string
	// DataType is the rendered type, e.g. "DT_WSTR(50)".
	DataType string
	// Expression holds a derived-column expression.
	Expression string
	// SourceRef names the input lineage id feeding a data conversion,
	// possibly wrapped in the vendor's "#{...}" form.
	SourceRef string
	// SourceName is the column's name in the underlying table when it
	// differs from Name (external metadata or lookup reference).
	SourceName string
	// TargetName is the column's name in the destination table.
	TargetName string
}

// Pin is one input or output connection point of a component.
type Pin struct {
	ID      string
	Name    string
	Columns []Column
}

// Component is a node in a dataflow task graph.
type Component struct {
	ID   string
	Name string
	Kind Kind
	// Connection names the connection manager the component uses.
	Connection string
	// Table is the source or destination table, when configured.
	Table string
	// Query is the SQL text a source or lookup executes.
	Query string
	// QueryVar names a package variable holding the query text.
	QueryVar string
	Inputs   []Pin
	Outputs  []Pin
}

// Path is a directed edge from an output pin to an input pin.
type Path struct {
	From string
	To   string
}

// Task is one dataflow pipeline: components wired by paths. Lineage
// ids are scoped to the task and never compared across tasks.
type Task struct {
	Name       string
	Components []*Component
	Paths      []Path
}

// Package groups dataflow tasks with the variables visible to them.
type Package struct {
	Name      string
	Variables map[string]string
	Tasks     []*Task
}
