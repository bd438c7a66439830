package sqlprov

import (
	"regexp"
	"strings"
)

// JoinKey is one resolved equality pair from an ON clause.
type JoinKey struct {
	LeftTable   string `json:"left_table"`
	LeftColumn  string `json:"left_column"`
	RightTable  string `json:"right_table"`
	RightColumn string `json:"right_column"`
	JoinType    string `json:"join_type"`
}

// joinReservedAlias extends the projection binder's reserved words with
// keywords that can trail a table reference in join position.
var joinReservedAlias = map[string]struct{}{
	"LEFT": {}, "RIGHT": {}, "INNER": {}, "OUTER": {}, "JOIN": {}, "ON": {},
	"WHERE": {}, "GROUP": {}, "ORDER": {}, "BY": {}, "SELECT": {}, "FROM": {},
	"WITH": {}, "OPTION": {}, derivedMask: {},
}

// onBoundaryWords terminate an ON condition span.
var onBoundaryWords = []string{
	"LEFT", "RIGHT", "INNER", "OUTER", "JOIN", "WHERE", "GROUP", "ORDER", "UNION", "OPTION",
}

var joinPairRe = regexp.MustCompile(`([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)\s*=\s*([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)

// JoinKeys extracts resolved join-key pairs from every ON clause in a
// statement. Derived tables and CTEs are masked and registered first so
// conditions inside subqueries never leak into the scan, and scope
// columns resolve back to their physical origins.
func (r *Resolver) JoinKeys(sql string) []JoinKey {
	if sql == "" || sql == "N/A" {
		return nil
	}
	if r.vars != nil && strings.Contains(sql, "@[") {
		sql = ResolveVariables(sql, r.vars)
	}
	clean := strings.ToUpper(strings.TrimSpace(StripComments(sql)))
	scopes := scopeTable{}
	clean = r.extractCTEs(clean, scopes, 0)
	masked := r.maskSubqueries(clean, scopes, 0)
	aliases := bindJoinAliases(masked)

	var keys []JoinKey
	pos := 0
	for {
		on := indexWordFrom(masked, pos, "ON")
		if on < 0 {
			break
		}
		condStart := skipSpaces(masked, on+len("ON"))
		condEnd := len(masked)
		for _, w := range onBoundaryWords {
			if idx := indexWordFrom(masked, condStart, w); idx >= 0 && idx < condEnd {
				condEnd = idx
			}
		}
		condition := masked[condStart:condEnd]
		joinType := joinTypeBefore(masked, on)

		for _, m := range joinPairRe.FindAllStringSubmatch(condition, -1) {
			lt, lc := resolveJoinSide(aliases, scopes, m[1], m[2])
			rt, rc := resolveJoinSide(aliases, scopes, m[3], m[4])
			keys = append(keys, JoinKey{
				LeftTable:   lt,
				LeftColumn:  lc,
				RightTable:  rt,
				RightColumn: rc,
				JoinType:    joinType,
			})
		}
		pos = condEnd
	}
	return keys
}

// bindJoinAliases binds lexical aliases for the join scan. Unlike the
// projection binder, later bindings overwrite earlier ones.
func bindJoinAliases(masked string) map[string]string {
	aliases := make(map[string]string)
	for _, m := range tablePattern.FindAllStringSubmatch(masked, -1) {
		table := strings.Trim(m[1], "[]")
		alias := m[2]
		if alias == "" {
			alias = table
		} else if _, reserved := joinReservedAlias[alias]; reserved {
			alias = table
		}
		aliases[alias] = table
	}
	return aliases
}

// resolveJoinSide maps alias.column to a real table and column,
// resolving through scope column maps with a wildcard fallback.
func resolveJoinSide(aliases map[string]string, scopes scopeTable, alias, col string) (string, string) {
	real, bound := aliases[alias]
	if !bound {
		real = alias
	}
	table, column := real, col
	if m, isScope := scopes[real]; isScope {
		p, hit := m[col]
		if !hit {
			p, hit = m["*"]
		}
		if hit {
			table = orDefault(p.SourceTable, table)
			column = orDefault(p.SourceColumn, column)
		}
	}
	return table, column
}

// joinTypeBefore derives the join type from the keywords preceding an ON
// clause. A bare JOIN and everything unrecognized default to INNER.
func joinTypeBefore(s string, onIdx int) string {
	join := lastIndexWord(s[:onIdx], "JOIN")
	if join < 0 {
		return "INNER"
	}
	prefix := strings.TrimRight(s[:join], " \t\r\n")
	word := lastWord(prefix)
	if word == "OUTER" {
		prefix = strings.TrimRight(prefix[:len(prefix)-len(word)], " \t\r\n")
		word = lastWord(prefix)
	}
	switch word {
	case "LEFT", "RIGHT", "FULL", "CROSS":
		return word
	}
	return "INNER"
}
