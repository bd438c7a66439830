package sqlprov

import (
	"regexp"
	"strings"
)

// colRef is one column reference found in a projected expression. table
// is empty for unqualified references.
type colRef struct {
	table  string
	column string
}

// exprKeywords are words the reference scan never treats as columns:
// clause keywords, operators, built-in function names, type names and the
// STR literal mask.
var exprKeywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "CASE": {}, "WHEN": {}, "THEN": {},
	"ELSE": {}, "END": {}, "AND": {}, "OR": {}, "NOT": {}, "IN": {}, "IS": {},
	"NULL": {}, "LIKE": {}, "BETWEEN": {}, "EXISTS": {}, "CAST": {}, "CONVERT": {},
	"COALESCE": {}, "ISNULL": {}, "ABS": {}, "ROUND": {}, "FLOOR": {}, "CEILING": {},
	"SUM": {}, "COUNT": {}, "AVG": {}, "MIN": {}, "MAX": {}, "LEFT": {}, "RIGHT": {},
	"SUBSTRING": {}, "LEN": {}, "TRIM": {}, "LTRIM": {}, "RTRIM": {}, "DATEADD": {},
	"DATEDIFF": {}, "DATEPART": {}, "GETDATE": {}, "YEAR": {}, "MONTH": {}, "DAY": {},
	"AS": {}, "ON": {}, "JOIN": {}, "INNER": {}, "OUTER": {}, "CROSS": {}, "APPLY": {},
	"TOP": {}, "DISTINCT": {}, "INT": {}, "VARCHAR": {}, "CHAR": {}, "DATE": {},
	"DATETIME": {}, "BIT": {}, "DECIMAL": {}, "NUMERIC": {}, "FLOAT": {}, "TRUE": {},
	"FALSE": {}, "UNKNOWN": {}, "STR": {},
}

// funcNames is the built-in function vocabulary used to classify a
// projection as a function call. These names are already excluded from
// the reference scan by exprKeywords, so their arguments are the only
// dependencies reported.
var funcNames = map[string]struct{}{
	"CAST": {}, "CONVERT": {}, "COALESCE": {}, "ISNULL": {}, "ABS": {}, "ROUND": {},
	"FLOOR": {}, "CEILING": {}, "SUM": {}, "COUNT": {}, "AVG": {}, "MIN": {}, "MAX": {},
	"LEFT": {}, "RIGHT": {}, "SUBSTRING": {}, "LEN": {}, "TRIM": {}, "LTRIM": {},
	"RTRIM": {}, "DATEADD": {}, "DATEDIFF": {}, "DATEPART": {}, "GETDATE": {},
	"YEAR": {}, "MONTH": {}, "DAY": {},
}

var (
	dottedRefRe = regexp.MustCompile(`\b([a-zA-Z_]\w*)\s*\.\s*([a-zA-Z_]\w*)\b`)
	bareWordRe  = regexp.MustCompile(`\b([a-zA-Z_]\w*)\b`)
	colShapeRe  = regexp.MustCompile(`^\[?[A-Za-z_]\w*\]?(?:\s*\.\s*\[?[A-Za-z_]\w*\]?)?$`)
)

// extractRefs scans an expression for column references: qualified
// alias.column pairs first, then bare words that are not keywords and not
// part of a dotted pair. String literals are masked beforehand so their
// content never matches. Duplicates are preserved.
func extractRefs(expr string) []colRef {
	masked := maskLiterals(expr)
	var refs []colRef
	for _, m := range dottedRefRe.FindAllStringSubmatch(masked, -1) {
		refs = append(refs, colRef{table: strings.ToUpper(m[1]), column: strings.ToUpper(m[2])})
	}
	for _, loc := range bareWordRe.FindAllStringSubmatchIndex(masked, -1) {
		word := strings.ToUpper(masked[loc[2]:loc[3]])
		if _, kw := exprKeywords[word]; kw {
			continue
		}
		if loc[2] > 0 && masked[loc[2]-1] == '.' {
			continue
		}
		if loc[3] < len(masked) && masked[loc[3]] == '.' {
			continue
		}
		refs = append(refs, colRef{column: word})
	}
	return refs
}

// exprInfo is the structural classification of one projected expression.
type exprInfo struct {
	typ   ExprType
	refs  []colRef
	logic string
}

// decompose classifies a projected expression and extracts its column
// dependencies. Scalar subqueries are recognized but left for the
// resolver, which parses their bodies recursively.
func decompose(expr string) exprInfo {
	trimmed := strings.TrimSpace(expr)
	upper := strings.ToUpper(trimmed)

	switch {
	case trimmed == "":
		return exprInfo{typ: ExprLiteral, logic: "Constant"}
	case trimmed == "*":
		return exprInfo{typ: ExprWildcard, logic: "SELECT *"}
	case isLiteralExpr(trimmed):
		return exprInfo{typ: ExprLiteral, logic: "Constant"}
	case isScalarSubquery(upper):
		return exprInfo{typ: ExprFunction, logic: "Scalar subquery"}
	}

	refs := extractRefs(trimmed)
	if hasWordAt(upper, 0, "CASE") {
		return exprInfo{typ: ExprCase, refs: refs, logic: "Conditional (CASE)"}
	}
	if name, ok := funcCallName(upper); ok {
		return exprInfo{typ: ExprFunction, refs: refs, logic: "Function " + name}
	}
	if hasTopLevelOperator(trimmed) {
		return exprInfo{typ: ExprArithmetic, refs: refs, logic: "Computed expression"}
	}
	if len(refs) == 1 && colShapeRe.MatchString(trimmed) {
		return exprInfo{typ: ExprColumn, refs: refs, logic: "Direct copy"}
	}
	if len(refs) > 0 {
		return exprInfo{typ: ExprArithmetic, refs: refs, logic: "Computed expression"}
	}
	return exprInfo{typ: ExprLiteral, logic: "Constant"}
}

// isScalarSubquery reports whether an upper-cased expression opens a
// parenthesized SELECT within its first few characters.
func isScalarSubquery(upper string) bool {
	if !strings.HasPrefix(upper, "(") {
		return false
	}
	head := upper
	if len(head) > 20 {
		head = head[:20]
	}
	return strings.Contains(head, "SELECT")
}

// isLiteralExpr reports whether an expression is a quoted string, a
// bare number or NULL.
func isLiteralExpr(s string) bool {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return true
	}
	if strings.EqualFold(s, "NULL") {
		return true
	}
	return isNumeric(s)
}

// isNumeric accepts digit runs with at most one decimal point.
func isNumeric(s string) bool {
	t := strings.Replace(s, ".", "", 1)
	if t == "" {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] < '0' || t[i] > '9' {
			return false
		}
	}
	return true
}

// funcCallName matches expressions of the form NAME(...) where NAME is a
// known built-in and the parentheses close at the end of the expression.
func funcCallName(upper string) (string, bool) {
	open := strings.IndexByte(upper, '(')
	if open <= 0 || !strings.HasSuffix(upper, ")") {
		return "", false
	}
	name := strings.TrimSpace(upper[:open])
	if _, ok := funcNames[name]; !ok {
		return "", false
	}
	if matchParen(upper, open) != len(upper)-1 {
		return "", false
	}
	return name, true
}

// hasTopLevelOperator reports whether an arithmetic or concatenation
// operator appears outside parentheses and string literals.
func hasTopLevelOperator(s string) bool {
	depth := 0
	for i := 0; i < len(s); {
		switch s[i] {
		case '\'':
			i = skipString(s, i)
			continue
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '+', '-', '*', '/', '%', '&', '|':
			if depth == 0 {
				return true
			}
		}
		i++
	}
	return false
}

// dependencies converts scanned references into the deduplicated,
// order-preserving form stored on Provenance.
func dependencies(refs []colRef) []Dependency {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[colRef]struct{}, len(refs))
	deps := make([]Dependency, 0, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		deps = append(deps, Dependency{Table: ref.table, Column: ref.column})
	}
	return deps
}
