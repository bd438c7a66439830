package sqlprov

import (
	"regexp"
	"sort"
	"strings"
)

// tableRef is one bound target: either a physical table or the name of a
// registered derived scope.
type tableRef struct {
	name  string
	scope bool
}

// tablePattern captures the last segment of a possibly qualified table
// name after FROM or JOIN, plus an optional alias. Qualifiers and
// brackets are tolerated and discarded.
var tablePattern = regexp.MustCompile(`(?:FROM|JOIN)\s+(?:\[?[\w.\[\]]+\]?\.)?(?:\[?[\w.\[\]]+\]?\.)?(\[?\w+\]?)(?:\s+(?:AS\s+)?(\w+))?`)

// reservedAlias lists keywords the alias capture swallows when a table
// reference carries no alias; binding falls back to the table name.
var reservedAlias = map[string]struct{}{
	"LEFT": {}, "RIGHT": {}, "INNER": {}, "OUTER": {}, "JOIN": {}, "ON": {},
	"WHERE": {}, "GROUP": {}, "ORDER": {}, "BY": {}, "SELECT": {}, "FROM": {},
	derivedMask: {},
}

// aliasBinding resolves lexical table aliases within one statement scope.
type aliasBinding struct {
	refs   map[string]tableRef
	scopes scopeTable
}

// bindTables builds the alias table for a masked statement. Scope names
// bind first and are never shadowed by physical bindings; among physical
// bindings the first occurrence of an alias wins.
func bindTables(masked string, scopes scopeTable) *aliasBinding {
	b := &aliasBinding{refs: make(map[string]tableRef, len(scopes)), scopes: scopes}
	for name := range scopes {
		b.refs[name] = tableRef{name: name, scope: true}
	}
	for _, m := range tablePattern.FindAllStringSubmatch(masked, -1) {
		table := strings.Trim(m[1], "[]")
		alias := m[2]
		if alias == "" {
			alias = table
		} else if _, reserved := reservedAlias[alias]; reserved {
			alias = table
		}
		if _, bound := b.refs[alias]; !bound {
			b.refs[alias] = tableRef{name: table}
		}
	}
	return b
}

// uniqueTables returns the distinct bound targets, sorted. A scope and a
// physical table sharing a name count as two targets.
func (b *aliasBinding) uniqueTables() []tableRef {
	set := make(map[tableRef]struct{}, len(b.refs))
	for _, ref := range b.refs {
		set[ref] = struct{}{}
	}
	tables := make([]tableRef, 0, len(set))
	for ref := range set {
		tables = append(tables, ref)
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].name != tables[j].name {
			return tables[i].name < tables[j].name
		}
		return !tables[i].scope && tables[j].scope
	})
	return tables
}

func (b *aliasBinding) isScope(name string) bool {
	_, ok := b.scopes[name]
	return ok
}

// resolveColumn maps a bound target and column name to (table, column)
// provenance, consulting scope column maps when the target is a scope.
func (b *aliasBinding) resolveColumn(ref tableRef, col string) (string, string) {
	if ref.scope || b.isScope(ref.name) {
		return b.lookupScope(ref.name, col)
	}
	return ref.name, col
}

// lookupScope resolves col inside a named scope, falling back to the
// scope's wildcard entry and finally to a Subquery sentinel.
func (b *aliasBinding) lookupScope(name, col string) (string, string) {
	m, ok := b.scopes[name]
	if !ok {
		return SubquerySource(name), col
	}
	if p, ok := m[col]; ok {
		return orUnknown(p.SourceTable), orDefault(p.SourceColumn, col)
	}
	if w, ok := m["*"]; ok {
		return orUnknown(w.SourceTable), col
	}
	return SubquerySource(name), col
}

// resolveExpr resolves a whole projected expression against a bound
// target when the expression carried no recognizable column reference.
// The lookup key is the tail segment after the last dot.
func (b *aliasBinding) resolveExpr(ref tableRef, expr string) (string, string) {
	if !ref.scope && !b.isScope(ref.name) {
		return ref.name, expr
	}
	m := b.scopes[ref.name]
	key := expr
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	key = strings.ToUpper(strings.Trim(key, "[]"))
	if p, ok := m[key]; ok {
		return orUnknown(p.SourceTable), orUnknown(p.SourceColumn)
	}
	if w, ok := m["*"]; ok {
		return orUnknown(w.SourceTable), orUnknown(w.SourceColumn)
	}
	return SubquerySource(ref.name), expr
}

func orUnknown(s string) string {
	if s == "" {
		return SourceUnknown
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
