// Package sqlprov derives column-level provenance from SQL text.
//
// The analysis is heuristic: SELECT, INSERT, UPDATE and CREATE VIEW
// statements are decomposed without a full dialect grammar. Common table
// expressions, derived tables, scalar subqueries, set operations and
// expression trees are resolved on a best-effort basis, and anything the
// analyzer cannot resolve degrades to a sentinel value instead of an
// error.
package sqlprov

import (
	"sort"
	"strings"
)

// ExprType classifies a projected expression.
type ExprType string

const (
	ExprLiteral    ExprType = "LITERAL"
	ExprColumn     ExprType = "COLUMN"
	ExprCase       ExprType = "CASE"
	ExprFunction   ExprType = "FUNCTION"
	ExprArithmetic ExprType = "ARITHMETIC"
	ExprWildcard   ExprType = "WILDCARD"
	ExprProcedure  ExprType = "PROCEDURE"
	ExprUnion      ExprType = "UNION"
)

// Sentinel source-table values for provenance that cannot be tied to a
// physical table.
const (
	// SourceExpression marks a column computed from literals or
	// expressions with no table origin.
	SourceExpression = "Expression/Literal"
	// SourceAmbiguous marks an unqualified column that several tables
	// could supply.
	SourceAmbiguous = "Ambiguous"
	// SourceUnknown marks provenance the analyzer could not determine.
	SourceUnknown = "Unknown"
	// CalculatedColumn is the source-column sentinel for computed values.
	CalculatedColumn = "Calculated"
)

// SubquerySource names a subquery whose own columns could not be resolved.
func SubquerySource(name string) string {
	return "Subquery(" + name + ")"
}

// Dependency is one column reference feeding a projected expression.
// Table is empty for unqualified references.
type Dependency struct {
	Table  string `json:"table,omitempty"`
	Column string `json:"column"`
}

// Provenance describes where one projected column comes from. SourceTable
// and SourceColumn hold comma-joined, sorted sets when a column merges
// several origins (UNION branches, multi-reference expressions).
type Provenance struct {
	SourceTable  string       `json:"source_table"`
	SourceColumn string       `json:"source_column"`
	Expression   string       `json:"expression"`
	Type         ExprType     `json:"type"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Logic        string       `json:"logic,omitempty"`
}

// ColumnMap maps a normalized (upper-cased) projected-column alias to its
// provenance. A duplicate alias later in the projection overwrites the
// earlier entry.
type ColumnMap map[string]Provenance

// SourceTables returns the distinct physical and sentinel source tables
// referenced by the map, sorted.
func (m ColumnMap) SourceTables() []string {
	set := make(map[string]struct{})
	for _, p := range m {
		for _, t := range strings.Split(p.SourceTable, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tables := make([]string, 0, len(set))
	for t := range set {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// clone returns a shallow copy so cached maps never escape to callers.
func (m ColumnMap) clone() ColumnMap {
	out := make(ColumnMap, len(m))
	for alias, p := range m {
		out[alias] = p
	}
	return out
}

// Aliases returns the projected-column aliases in sorted order.
func (m ColumnMap) Aliases() []string {
	aliases := make([]string, 0, len(m))
	for a := range m {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// joinSorted renders a set as the comma-joined, sorted form used for
// merged provenance fields.
func joinSorted(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for s := range set {
		items = append(items, s)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}
