package dataflow

import (
	"strings"

	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

// ColumnOrigin describes where one projected source column comes from.
type ColumnOrigin struct {
	// Alias is the column's name inside the flow.
	Alias string `json:"alias"`
	// Column is the original column in the source table.
	Column string `json:"column"`
	// Table is the originating table, or "N/A" when unresolvable.
	Table string `json:"table"`
	// Expression is the projection logic from the source query.
	Expression string `json:"expression,omitempty"`
	// DataType is the column's declared type.
	DataType string `json:"data_type,omitempty"`
}

// sourceOutline is the analyzed shape of one source or lookup
// component: its resolved query plus the origin of every projected
// column, in output order.
type sourceOutline struct {
	comp    *Component
	query   string // resolved SQL text, "" when the component reads a table or file
	columns []ColumnOrigin
}

// aliasMatch finds the origin whose alias equals name.
func (o *sourceOutline) aliasMatch(name string) (ColumnOrigin, bool) {
	for _, c := range o.columns {
		if c.Alias == name {
			return c, true
		}
	}
	return ColumnOrigin{}, false
}

// aliasFold finds the origin whose alias equals name ignoring case.
func (o *sourceOutline) aliasFold(name string) (ColumnOrigin, bool) {
	for _, c := range o.columns {
		if strings.EqualFold(c.Alias, name) {
			return c, true
		}
	}
	return ColumnOrigin{}, false
}

// isErrorPin reports whether a pin is an error output; error rows
// never carry lineage.
func isErrorPin(p Pin) bool {
	return strings.Contains(p.Name, "Error")
}

// outline resolves a source or lookup component's query and maps each
// output column back to its origin. Columns the query cannot explain
// fall back to the component's table, then to its connection for file
// reads, and finally to "N/A".
func (p *Propagator) outline(comp *Component) *sourceOutline {
	o := &sourceOutline{comp: comp, query: p.componentQuery(comp)}

	var colmap sqlprov.ColumnMap
	if o.query != "" {
		colmap = p.resolver.ColumnSources(o.query)
	}

	for _, pin := range comp.Outputs {
		if isErrorPin(pin) {
			continue
		}
		for _, col := range pin.Columns {
			lookup := col.Name
			if col.SourceName != "" {
				lookup = col.SourceName
			}

			table, column, expr := "N/A", lookup, ""
			switch {
			case len(colmap) > 0:
				prov, ok := colmap[strings.ToUpper(lookup)]
				if !ok {
					prov, ok = colmap["*"]
				}
				if ok {
					if prov.SourceTable != "" {
						table = prov.SourceTable
					}
					if prov.SourceColumn != "" {
						column = prov.SourceColumn
					}
					expr = prov.Expression
				}
				// A miss on a projection with a wildcard still names
				// the wildcard's table.
				if table == "N/A" {
					if w, hasStar := colmap["*"]; hasStar && w.SourceTable != "" {
						table = w.SourceTable
					}
				}
			case comp.Table != "":
				table = comp.Table
			case comp.Kind == KindFileSource && comp.Connection != "":
				table = comp.Connection
				expr = "File Read"
			}

			o.columns = append(o.columns, ColumnOrigin{
				Alias:      col.Name,
				Column:     column,
				Table:      table,
				Expression: expr,
				DataType:   col.DataType,
			})
		}
	}
	return o
}

// componentQuery returns the SQL a source executes: the inline query
// text, or the value of the package variable it names.
func (p *Propagator) componentQuery(comp *Component) string {
	if comp.Query != "" {
		return comp.Query
	}
	if comp.QueryVar == "" || p.vars == nil {
		return ""
	}
	namespace, name := splitVarName(comp.QueryVar)
	if v, ok := p.vars(namespace, name); ok {
		return v
	}
	return ""
}

// splitVarName splits "Namespace::Name" at the last separator.
func splitVarName(ref string) (string, string) {
	if i := strings.LastIndex(ref, "::"); i >= 0 {
		return ref[:i], ref[i+2:]
	}
	return "", ref
}
