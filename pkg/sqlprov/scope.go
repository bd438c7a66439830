package sqlprov

import (
	"regexp"
	"strings"
)

// scopeTable maps a derived-scope name (CTE alias or derived-table alias,
// upper-cased) to the ColumnMap of its body. Scopes live for the duration
// of one statement analysis and are never shared across statements.
type scopeTable map[string]ColumnMap

// Placeholder tokens substituted for parenthesized SELECT bodies so table
// binding sees a flat statement.
const (
	derivedMask = "SUBQUERY_MASK"
	scalarMask  = "SCALAR_MASK"
)

var (
	declareRe     = regexp.MustCompile(`^\s*DECLARE\s`)
	withRe        = regexp.MustCompile(`^\s*WITH\s`)
	cteHeadRe     = regexp.MustCompile(`(\w+)\s+AS\s*\(`)
	derivedOpenRe = regexp.MustCompile(`\(\s*SELECT\b`)
	maskAliasRe   = regexp.MustCompile(`^\s*(?:AS\s+)?(\w+)`)
)

// derivedContexts are the keywords that make a parenthesized SELECT a
// derived table rather than a scalar subquery.
var derivedContexts = map[string]struct{}{
	"FROM": {}, "JOIN": {}, "APPLY": {}, "UPDATE": {}, "INTO": {},
}

// maskAliasStop rejects keywords the alias scan would otherwise swallow
// after a derived table with no alias.
var maskAliasStop = map[string]struct{}{
	"ON": {}, "JOIN": {}, "LEFT": {}, "RIGHT": {}, "WHERE": {}, "ORDER": {}, "GROUP": {},
}

// extractCTEs strips leading DECLARE statements, registers every CTE of a
// leading WITH clause into scopes (parsing each body recursively), and
// returns the main statement text. Input must already be upper-cased and
// comment-free.
func (r *Resolver) extractCTEs(s string, scopes scopeTable, depth int) string {
	for declareRe.MatchString(s) {
		if idx := strings.IndexByte(s, ';'); idx >= 0 {
			s = strings.TrimSpace(s[idx+1:])
			continue
		}
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = strings.TrimSpace(s[nl+1:])
			continue
		}
		break
	}

	m := withRe.FindStringIndex(s)
	if m == nil {
		return s
	}
	cteStart := m[1]

	// The main SELECT is the first one at paren depth zero after WITH.
	mainSelect := -1
	depthP := 0
scan:
	for i := cteStart; i < len(s); {
		switch s[i] {
		case '\'':
			i = skipString(s, i)
			continue
		case '(':
			depthP++
		case ')':
			if depthP > 0 {
				depthP--
			}
		case 'S':
			if depthP == 0 && hasWordAt(s, i, "SELECT") {
				mainSelect = i
				break scan
			}
		}
		i++
	}
	if mainSelect < 0 {
		return s
	}

	cteSection := s[cteStart:mainSelect]
	pos := 0
	for pos < len(cteSection) {
		loc := cteHeadRe.FindStringSubmatchIndex(cteSection[pos:])
		if loc == nil {
			break
		}
		alias := cteSection[pos+loc[2] : pos+loc[3]]
		open := pos + loc[1] - 1
		closing := matchParen(cteSection, open)
		if closing < 0 {
			break
		}
		scopes[alias] = r.columnSources(cteSection[open+1:closing], depth+1)
		pos = closing + 1
	}
	return strings.TrimSpace(s[mainSelect:])
}

// maskSubqueries replaces every parenthesized SELECT with a placeholder
// group. Derived tables are parsed recursively and registered in scopes
// under their alias before masking; scalar subqueries are masked without
// being named and are resolved later at projection position.
func (r *Resolver) maskSubqueries(s string, scopes scopeTable, depth int) string {
	for spans := 0; spans < r.maxSpans; spans++ {
		loc := derivedOpenRe.FindStringIndex(s)
		if loc == nil {
			break
		}
		open := loc[0]
		context := lastWord(strings.TrimSpace(s[:open]))
		_, derived := derivedContexts[context]

		closing := matchParen(s, open)
		if closing < 0 {
			break
		}
		body := s[open+1 : closing]
		remainder := s[closing+1:]

		if derived {
			if m := maskAliasRe.FindStringSubmatch(remainder); m != nil {
				if _, stop := maskAliasStop[m[1]]; !stop {
					scopes[m[1]] = r.columnSources(body, depth+1)
				}
			}
		}

		mask := " (" + scalarMask + ") "
		if derived {
			mask = " (" + derivedMask + ") "
		}
		s = s[:open] + mask + remainder
	}
	return s
}
