package sqlprov

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultMaxDepth = 20
	defaultMaxSpans = 50
)

// Options configures a Resolver. The zero value gives a private cache,
// no variable resolution and default ceilings.
type Options struct {
	// Cache memoizes column maps across statements analyzed by this
	// resolver. Leave nil for a private in-memory cache.
	Cache Cache
	// Vars substitutes placeholder variables before analysis. Leave nil
	// to analyze text verbatim.
	Vars VarResolver
	// MaxDepth bounds scope-nesting recursion; deeper scopes resolve to
	// an empty map. Zero means 20.
	MaxDepth int
	// MaxSpans bounds how many subquery spans a single statement may
	// mask. Zero means 50.
	MaxSpans int
}

// Resolver analyzes SQL text and derives column-level provenance. It
// never returns errors: statements it cannot interpret produce empty or
// sentinel-valued results. A Resolver is not safe for concurrent use.
type Resolver struct {
	cache    Cache
	vars     VarResolver
	maxDepth int
	maxSpans int
}

// NewResolver builds a Resolver from opts.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		cache:    opts.Cache,
		vars:     opts.Vars,
		maxDepth: opts.MaxDepth,
		maxSpans: opts.MaxSpans,
	}
	if r.cache == nil {
		r.cache = newMapCache()
	}
	if r.maxDepth <= 0 {
		r.maxDepth = defaultMaxDepth
	}
	if r.maxSpans <= 0 {
		r.maxSpans = defaultMaxSpans
	}
	return r
}

var (
	selectHeadRe = regexp.MustCompile(`SELECT\s+`)
	fromWordRe   = regexp.MustCompile(`\bFROM\b`)
	sepAliasRe   = regexp.MustCompile(`(?i)(?:\s+AS\s+|\s+)((?:\[[^\]]+\])|(?:\w+))\s*$`)
	parenAliasRe = regexp.MustCompile(`(?i)\)((?:\[[^\]]+\])|(?:\w+))\s*$`)
)

// aliasStopWords are expression tail words never taken as a column alias.
var aliasStopWords = map[string]struct{}{
	"END": {}, "AS": {}, "AND": {}, "OR": {}, "IS": {}, "NULL": {}, "NOT": {},
}

// ColumnSources analyzes one statement and maps every projected column
// alias (upper-cased) to its provenance. Unparseable text yields an
// empty map, never an error.
func (r *Resolver) ColumnSources(sql string) ColumnMap {
	return r.columnSources(sql, 0).clone()
}

// columnSources is the recursive entry point shared by CTE bodies,
// derived tables, scalar subqueries and set-operation branches.
func (r *Resolver) columnSources(sql string, depth int) ColumnMap {
	if sql == "" || sql == "N/A" || depth > r.maxDepth {
		return ColumnMap{}
	}
	if r.vars != nil && strings.Contains(sql, "@[") {
		sql = ResolveVariables(sql, r.vars)
	}
	key := cacheKey(sql)
	if m, ok := r.cache.Get(key); ok {
		return m
	}
	m := r.parse(sql, depth)
	r.cache.Put(key, m)
	return m
}

func (r *Resolver) parse(sql string, depth int) (m ColumnMap) {
	// Malformed input aborts only this unit, never the extraction.
	defer func() {
		if rec := recover(); rec != nil {
			m = ColumnMap{}
		}
	}()

	clean := strings.ToUpper(strings.TrimSpace(StripComments(sql)))

	// EXEC pivots the whole result set onto the procedure name.
	if strings.HasPrefix(clean, "EXEC") {
		if fields := strings.Fields(clean); len(fields) > 1 {
			return ColumnMap{"*": {
				SourceTable: fields[1],
				Expression:  "Stored Procedure Result",
				Type:        ExprProcedure,
				Logic:       "Stored Procedure Result",
			}}
		}
	}

	scopes := scopeTable{}
	clean = r.extractCTEs(clean, scopes, depth)

	if branches := splitUnionBranches(clean); len(branches) > 0 {
		return r.mergeUnion(branches, depth)
	}

	masked := r.maskSubqueries(clean, scopes, depth)
	binding := bindTables(masked, scopes)
	uniques := binding.uniqueTables()
	var defaultRef tableRef
	hasDefault := len(uniques) == 1
	if hasDefault {
		defaultRef = uniques[0]
	}

	// The projection comes from the unmasked text so scalar subqueries
	// keep their bodies.
	sel := selectHeadRe.FindStringIndex(clean)
	if sel == nil {
		return ColumnMap{}
	}
	selStart := sel[1]
	selectClause := clean[selStart:]
	for _, loc := range fromWordRe.FindAllStringIndex(clean, -1) {
		if loc[0] < selStart {
			continue
		}
		if seg := clean[selStart:loc[0]]; balancedParens(seg) {
			selectClause = seg
			break
		}
	}

	columns := splitTopLevel(selectClause, ',')
	out := ColumnMap{}
	star := false
	for _, col := range columns {
		if col == "*" {
			star = true
		}
		alias, p := r.resolveProjection(col, binding, uniques, defaultRef, hasDefault, depth)
		if alias != "" {
			out[alias] = p
		}
	}
	if star {
		r.expandStar(out, binding, defaultRef, hasDefault)
	}
	return out
}

// mergeUnion resolves each set-operation branch separately and merges
// per-alias origins. The first branch defines the output schema and the
// representative expression.
func (r *Resolver) mergeUnion(branches []string, depth int) ColumnMap {
	results := make([]ColumnMap, 0, len(branches))
	for _, branch := range branches {
		results = append(results, r.columnSources(branch, depth+1))
	}
	logic := fmt.Sprintf("Union of %d branches", len(branches))
	if len(branches) == 1 {
		logic = "Union of 1 branch"
	}

	first := results[0]
	merged := make(ColumnMap, len(first))
	for alias, p := range first {
		tables := make(map[string]struct{})
		cols := make(map[string]struct{})
		for _, res := range results {
			bp, ok := res[alias]
			if !ok {
				continue
			}
			tables[orDefault(bp.SourceTable, "N/A")] = struct{}{}
			cols[orDefault(bp.SourceColumn, alias)] = struct{}{}
		}
		merged[alias] = Provenance{
			SourceTable:  joinSorted(tables),
			SourceColumn: joinSorted(cols),
			Expression:   p.Expression,
			Type:         ExprUnion,
			Dependencies: p.Dependencies,
			Logic:        logic,
		}
	}
	return merged
}

// resolveProjection maps one projection-list item to its provenance and
// normalized alias.
func (r *Resolver) resolveProjection(col string, b *aliasBinding, uniques []tableRef, def tableRef, hasDef bool, depth int) (string, Provenance) {
	alias, expr := splitAlias(col)
	info := decompose(expr)

	tables := make(map[string]struct{})
	cols := make(map[string]struct{})

	// A parenthesized SELECT in projection position is parsed
	// recursively; its origins are unioned into this column's.
	if isScalarSubquery(strings.ToUpper(expr)) {
		inner := expr
		if strings.HasPrefix(inner, "(") && strings.HasSuffix(inner, ")") {
			inner = strings.TrimSpace(inner[1 : len(inner)-1])
		}
		if strings.HasPrefix(strings.ToUpper(inner), "SELECT") {
			for subAlias, sub := range r.columnSources(inner, depth+1) {
				if sub.SourceTable != "" && sub.SourceTable != "N/A" {
					tables[sub.SourceTable] = struct{}{}
				}
				if c := orDefault(sub.SourceColumn, subAlias); c != "N/A" {
					cols[c] = struct{}{}
				}
			}
		}
	}

	foundRef := false
	for _, ref := range info.refs {
		if ref.table == "" {
			foundRef = true
			if hasDef {
				t, c := b.resolveColumn(def, ref.column)
				tables[t] = struct{}{}
				cols[c] = struct{}{}
			} else {
				tables[SourceAmbiguous] = struct{}{}
				cols[ref.column] = struct{}{}
			}
			continue
		}
		if target, bound := b.refs[ref.table]; bound {
			foundRef = true
			t, c := b.resolveColumn(target, ref.column)
			tables[t] = struct{}{}
			cols[c] = struct{}{}
		}
	}

	// With no usable reference and no literal, fall back to resolving
	// the whole expression against the bound tables.
	if !foundRef && !isLiteralExpr(expr) && len(tables) == 0 {
		if hasDef {
			t, c := b.resolveExpr(def, expr)
			tables[t] = struct{}{}
			cols[c] = struct{}{}
		} else {
			for _, u := range uniques {
				t, c := b.resolveExpr(u, expr)
				tables[t] = struct{}{}
				cols[c] = struct{}{}
			}
		}
	}

	resTable := SourceExpression
	if len(tables) > 0 {
		resTable = joinSorted(tables)
	}
	resCol := CalculatedColumn
	if len(cols) > 0 {
		resCol = joinSorted(cols)
	}

	return strings.ToUpper(strings.Trim(alias, "[]")), Provenance{
		SourceTable:  resTable,
		SourceColumn: cleanColumns(resCol),
		Expression:   expr,
		Type:         info.typ,
		Dependencies: dependencies(info.refs),
		Logic:        info.logic,
	}
}

// expandStar widens a bare * projection: through the sole derived scope
// when one table is bound and it is a scope, otherwise onto the single
// physical table. Multi-table stars stay unexpanded.
func (r *Resolver) expandStar(out ColumnMap, b *aliasBinding, def tableRef, hasDef bool) {
	if !hasDef {
		return
	}
	if def.scope || b.isScope(def.name) {
		m := b.scopes[def.name]
		for alias, p := range m {
			if alias == "*" && len(m) > 1 {
				continue
			}
			out[alias] = p
		}
		return
	}
	out["*"] = Provenance{
		SourceTable:  def.name,
		SourceColumn: "*",
		Expression:   "SELECT *",
		Type:         ExprWildcard,
		Logic:        "SELECT *",
	}
}

// splitAlias separates one projection item into alias and expression.
// It recognizes the T-SQL "alias = expr" form, trailing aliases with or
// without AS, and falls back to the tail segment of the expression.
func splitAlias(col string) (alias, expr string) {
	if strings.Contains(col, "=") && !strings.HasPrefix(col, "'") {
		parts := strings.SplitN(col, "=", 2)
		head := strings.TrimSpace(parts[0])
		if head != "" && !strings.ContainsAny(head, " (") {
			return head, strings.TrimSpace(parts[1])
		}
	}
	if m := sepAliasRe.FindStringSubmatchIndex(col); m != nil {
		found := col[m[2]:m[3]]
		if _, stop := aliasStopWords[strings.ToUpper(found)]; !stop {
			return found, strings.TrimSpace(col[:m[0]])
		}
	} else if m := parenAliasRe.FindStringSubmatchIndex(col); m != nil {
		found := col[m[2]:m[3]]
		if _, stop := aliasStopWords[strings.ToUpper(found)]; !stop {
			return found, strings.TrimSpace(col[:m[2]])
		}
	}
	expr = strings.TrimSpace(col)
	alias = expr
	if i := strings.LastIndexByte(alias, '.'); i >= 0 {
		alias = alias[i+1:]
	}
	return strings.Trim(alias, "[]"), expr
}

// cleanColumns reduces every comma-separated part to its tail segment
// after the last dot and re-joins the distinct parts sorted.
func cleanColumns(s string) string {
	set := make(map[string]struct{})
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if i := strings.LastIndexByte(c, '.'); i >= 0 {
			c = c[i+1:]
		}
		set[c] = struct{}{}
	}
	return joinSorted(set)
}
