package dataflow

import (
	"regexp"
	"strings"
)

// transfer derives the origin entries for one output column minting a
// new lineage id. Implementations receive the owning component, the
// output pin, the column's position k on that pin, and the column
// itself. The second return is false when the kind never mints records
// (synchronous pass-through); an empty entry list with true still
// claims the id.
type transfer interface {
	mint(st *taskState, comp *Component, pin Pin, k int, col Column) ([]Entry, bool)
}

// transferRules dispatches on the closed Kind set. Sources, lookups
// and destinations are handled by the walk itself, not by a rule.
var transferRules = map[Kind]transfer{
	KindUnionAll:      unionRule{},
	KindDataConvert:   convertRule{},
	KindMergeJoin:     nameMatchRule{},
	KindSort:          nameMatchRule{},
	KindAggregate:     nameMatchRule{},
	KindDerivedColumn: derivedRule{},
	KindSynchronous:   synchronousRule{},
	KindUnknown:       unknownRule{},
}

// ruleFor returns the transfer rule for a kind, falling back to the
// unknown rule so an unmodeled component degrades instead of failing.
func ruleFor(kind Kind) transfer {
	if r, ok := transferRules[kind]; ok {
		return r
	}
	return unknownRule{}
}

// synchronousRule covers transforms whose outputs reuse input ids.
// Nothing is minted; downstream consumers read the existing records.
type synchronousRule struct{}

func (synchronousRule) mint(*taskState, *Component, Pin, int, Column) ([]Entry, bool) {
	return nil, false
}

// unionRule matches columns by position: the k-th output column
// collects the k-th input column of every union input, deduplicated by
// table and column.
type unionRule struct{}

func (unionRule) mint(st *taskState, comp *Component, _ Pin, k int, _ Column) ([]Entry, bool) {
	var entries []Entry
	seen := make(map[[2]string]struct{})
	for _, in := range comp.Inputs {
		if k >= len(in.Columns) {
			continue
		}
		upstream, ok := st.lineage[in.Columns[k].LineageID]
		if !ok {
			continue
		}
		for _, src := range upstream {
			key := [2]string{src.Table, src.Column}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			src.Expression += " -> Union(" + comp.Name + ")"
			entries = append(entries, src)
		}
	}
	return entries, true
}

// convertRule follows the recorded source-lineage reference of a data
// conversion output, tagging each copied entry with the target type.
type convertRule struct{}

func (convertRule) mint(st *taskState, _ *Component, _ Pin, _ int, col Column) ([]Entry, bool) {
	ref := strings.TrimSpace(col.SourceRef)
	ref = strings.NewReplacer("#{", "", "}", "").Replace(ref)
	if ref == "" {
		return nil, true
	}
	upstream, ok := st.lineage[ref]
	if !ok {
		return nil, true
	}
	entries := make([]Entry, 0, len(upstream))
	for _, src := range upstream {
		src.Expression += " -> Conv(" + col.DataType + ")"
		entries = append(entries, src)
	}
	return entries, true
}

// nameMatchRule passes columns through asynchronous transforms whose
// outputs keep their input names (merge join, sort, aggregate). A
// column with no matching input gets a Transformation placeholder.
type nameMatchRule struct{}

func (nameMatchRule) mint(st *taskState, comp *Component, _ Pin, _ int, col Column) ([]Entry, bool) {
	if lid, ok := st.names.lookup(col.Name); ok {
		if upstream, hit := st.lineage[lid]; hit {
			entries := make([]Entry, 0, len(upstream))
			entries = append(entries, upstream...)
			return entries, true
		}
	}
	return []Entry{{
		Component:  comp.Name,
		Table:      "Transformation",
		Column:     col.Name,
		Expression: "Async (" + comp.Name + ")",
		Type:       col.DataType,
	}}, true
}

// exprKeywordSet excludes literals, type tokens and built-in function
// names from derived-column dependency extraction.
var exprKeywordSet = map[string]struct{}{
	"TRUE": {}, "FALSE": {}, "NULL": {}, "ISNULL": {}, "TRIM": {}, "LEN": {},
	"SUBSTRING": {}, "GETDATE": {}, "DATEADD": {}, "DATEDIFF": {},
	"DT_STR": {}, "DT_WSTR": {}, "DT_DBTIMESTAMP": {}, "DT_I4": {}, "DT_R8": {},
}

// exprDepRe captures [Bracketed Name] spans or bare identifiers.
var exprDepRe = regexp.MustCompile(`\[(.*?)\]|\b([a-zA-Z_]\w*)\b`)

// expressionDeps extracts candidate column and variable names from a
// derived-column expression.
func expressionDeps(expr string) []string {
	var deps []string
	for _, m := range exprDepRe.FindAllStringSubmatch(expr, -1) {
		val := m[1]
		if val == "" {
			val = m[2]
		}
		if val == "" || strings.HasPrefix(val, `"`) || isDigits(val) {
			continue
		}
		if _, kw := exprKeywordSet[strings.ToUpper(val)]; kw {
			continue
		}
		deps = append(deps, val)
	}
	return deps
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// derivedRule resolves a derived-column expression's dependencies
// against the input columns, accumulating one copied entry per
// resolvable dependency (fan-in). Dependencies containing "::" are
// package variables, not columns; an expression referencing only
// variables yields a single Variable/Expression entry, and one with
// nothing resolvable yields a generic placeholder.
type derivedRule struct{}

func (derivedRule) mint(st *taskState, comp *Component, _ Pin, _ int, col Column) ([]Entry, bool) {
	var entries []Entry
	expr := col.Expression
	if expr != "" {
		deps := expressionDeps(expr)
		var colDeps []string
		for _, d := range deps {
			if !strings.Contains(d, "::") {
				colDeps = append(colDeps, d)
			}
		}
		if len(colDeps) == 0 && len(deps) > 0 {
			entries = append(entries, Entry{
				Component:  comp.Name,
				Table:      "Variable/Expression",
				Column:     "Expression",
				Expression: expr,
				Type:       "Derived",
			})
		}
		for _, d := range colDeps {
			lid, ok := st.names.lookup(d)
			if !ok {
				continue
			}
			upstream, hit := st.lineage[lid]
			if !hit {
				continue
			}
			for _, src := range upstream {
				src.Expression += " -> Derived(" + d + ")"
				entries = append(entries, src)
			}
		}
	}
	if len(entries) == 0 {
		if expr == "" {
			expr = "Derived"
		}
		entries = append(entries, Entry{
			Component:  comp.Name,
			Table:      "Derived / Transformation",
			Column:     col.Name,
			Expression: expr,
			Type:       col.DataType,
		})
	}
	return entries, true
}

// unknownRule placeholds any kind without modeled semantics.
type unknownRule struct{}

func (unknownRule) mint(_ *taskState, comp *Component, _ Pin, _ int, col Column) ([]Entry, bool) {
	return []Entry{{
		Component:  comp.Name,
		Table:      "Transformation",
		Column:     col.Name,
		Expression: "Unknown Logic",
		Type:       col.DataType,
	}}, true
}

// nameIndex maps input column names to lineage ids. Later bindings of
// the same name win; case-insensitive lookups scan names in first-seen
// order.
type nameIndex struct {
	byName map[string]string
	keys   []string
}

func newNameIndex(comp *Component) *nameIndex {
	ix := &nameIndex{byName: make(map[string]string)}
	for _, in := range comp.Inputs {
		for _, col := range in.Columns {
			ix.add(col.Name, col.LineageID)
			ix.add(col.CachedName, col.LineageID)
		}
	}
	return ix
}

func (ix *nameIndex) add(name, id string) {
	if name == "" {
		return
	}
	if _, dup := ix.byName[name]; !dup {
		ix.keys = append(ix.keys, name)
	}
	ix.byName[name] = id
}

func (ix *nameIndex) lookup(name string) (string, bool) {
	if id, ok := ix.byName[name]; ok {
		return id, true
	}
	for _, k := range ix.keys {
		if strings.EqualFold(k, name) {
			return ix.byName[k], true
		}
	}
	return "", false
}
