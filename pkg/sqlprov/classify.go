package sqlprov

import (
	"regexp"
	"sort"
	"strings"
)

// StatementKind labels the operation a statement performs.
type StatementKind string

const (
	KindInsert     StatementKind = "INSERT"
	KindSelectInto StatementKind = "SELECT INTO"
	KindUpdate     StatementKind = "UPDATE"
	KindSelect     StatementKind = "SELECT"
	KindCreateView StatementKind = "CREATE VIEW"
	KindCreateProc StatementKind = "CREATE PROCEDURE"
	KindUnknown    StatementKind = "UNKNOWN"
)

// StatementInfo is the analysis of one statement: operation kind, the
// destination it writes ("N/A" when it writes nowhere), raw FROM/JOIN
// source tokens, per-column provenance and join-key pairs.
type StatementInfo struct {
	Kind        StatementKind `json:"kind"`
	Destination string        `json:"destination"`
	Sources     []string      `json:"sources,omitempty"`
	Columns     ColumnMap     `json:"columns"`
	JoinKeys    []JoinKey     `json:"join_keys,omitempty"`
}

var (
	createRe     = regexp.MustCompile(`(?i)^\s*(?:CREATE|ALTER)\s+(VIEW|PROCEDURE|PROC)\s+([\[\]\w.]+)`)
	insertIntoRe = regexp.MustCompile(`(?i)\bINSERT\s+INTO\b`)
	insertDestRe = regexp.MustCompile(`(?i)INSERT\s+INTO\s+([\[\]\w.]+)`)
	selectWordRe = regexp.MustCompile(`(?i)\bSELECT\b`)
	intoWordRe   = regexp.MustCompile(`(?i)\bINTO\b`)
	fromAnyRe    = regexp.MustCompile(`(?i)\bFROM\b`)
	intoDestRe   = regexp.MustCompile(`(?i)\bINTO\s+([\[\]\w.]+)`)
	updateWordRe = regexp.MustCompile(`(?i)\bUPDATE\b`)
	updateDestRe = regexp.MustCompile(`(?i)UPDATE\s+([\[\]\w.]+)`)
	setClauseRe  = regexp.MustCompile(`(?is)\bSET\b\s+(.*?)(\bFROM\b|\bWHERE\b|$)`)
	fromRestRe   = regexp.MustCompile(`(?is)(\bFROM\b.*)`)
	rawSourceRe  = regexp.MustCompile(`(?i)(?:FROM|JOIN)\s+([\[\]\w.]+)`)
	batchSepRe   = regexp.MustCompile(`(?im)^[ \t]*GO[ \t]*\r?$`)
)

// rawSourceExclude drops keyword captures from the raw source scan.
var rawSourceExclude = map[string]struct{}{
	"SELECT": {}, "WHERE": {}, "GROUP": {}, "ORDER": {}, "LEFT": {}, "RIGHT": {},
	"INNER": {}, "OUTER": {}, "CROSS": {}, "APPLY": {},
}

// Classify analyzes a single statement. UPDATE statements are rewritten
// into a virtual SELECT so SET expressions resolve through the same
// machinery as projections. Returns nil for blank input.
func (r *Resolver) Classify(stmt string) *StatementInfo {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil
	}
	clean := StripComments(stmt)
	info := &StatementInfo{Kind: KindUnknown, Destination: "N/A"}

	switch {
	case createRe.MatchString(clean):
		m := createRe.FindStringSubmatch(clean)
		if strings.EqualFold(m[1], "VIEW") {
			info.Kind = KindCreateView
		} else {
			info.Kind = KindCreateProc
		}
		info.Destination = m[2]
		if loc := selectWordRe.FindStringIndex(clean); loc != nil {
			info.Columns = r.columnSources(clean[loc[0]:], 0)
		}

	case insertIntoRe.MatchString(clean):
		info.Kind = KindInsert
		if m := insertDestRe.FindStringSubmatch(clean); m != nil {
			info.Destination = m[1]
		}
		if loc := selectWordRe.FindStringIndex(clean); loc != nil {
			info.Columns = r.columnSources(clean[loc[0]:], 0)
		}

	case intoWordRe.MatchString(clean) && fromAnyRe.MatchString(clean):
		if m := intoDestRe.FindStringSubmatch(clean); m != nil {
			info.Kind = KindSelectInto
			info.Destination = m[1]
			info.Columns = r.columnSources(intoDestRe.ReplaceAllString(clean, ""), 0)
		}

	case updateWordRe.MatchString(clean):
		info.Kind = KindUpdate
		if m := updateDestRe.FindStringSubmatch(clean); m != nil {
			info.Destination = m[1]
		}
		if virtual := updateToSelect(clean); virtual != "" {
			info.Columns = r.columnSources(virtual, 0)
		}
	}

	if info.Kind == KindUnknown {
		if results := r.columnSources(clean, 0); len(results) > 0 {
			info.Kind = KindSelect
			info.Columns = results
		}
	}
	if info.Columns == nil {
		info.Columns = ColumnMap{}
	} else {
		info.Columns = info.Columns.clone()
	}

	seen := make(map[string]struct{})
	for _, m := range rawSourceRe.FindAllStringSubmatch(clean, -1) {
		tbl := m[1]
		if _, kw := rawSourceExclude[strings.ToUpper(tbl)]; kw {
			continue
		}
		if _, dup := seen[tbl]; dup {
			continue
		}
		seen[tbl] = struct{}{}
		info.Sources = append(info.Sources, tbl)
	}
	sort.Strings(info.Sources)

	info.JoinKeys = r.JoinKeys(clean)
	return info
}

// AnalyzeScript splits a script into statements and classifies each one.
// Blank statements are dropped.
func (r *Resolver) AnalyzeScript(script string) []*StatementInfo {
	var infos []*StatementInfo
	for _, stmt := range SplitStatements(script) {
		if info := r.Classify(stmt); info != nil {
			infos = append(infos, info)
		}
	}
	return infos
}

// SplitStatements splits a SQL script on semicolons outside strings and
// parentheses. A line holding only GO, the T-SQL batch separator, also
// ends a statement. Comments are stripped first.
func SplitStatements(script string) []string {
	clean := batchSepRe.ReplaceAllString(StripComments(script), ";")
	var stmts []string
	start := 0
	depth := 0
	for i := 0; i < len(clean); {
		switch {
		case clean[i] == '\'':
			i = skipString(clean, i)
			continue
		case clean[i] == '(':
			depth++
		case clean[i] == ')':
			if depth > 0 {
				depth--
			}
		case clean[i] == ';' && depth == 0:
			if s := strings.TrimSpace(clean[start:i]); s != "" {
				stmts = append(stmts, s)
			}
			start = i + 1
		}
		i++
	}
	if s := strings.TrimSpace(clean[start:]); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// updateToSelect rewrites UPDATE ... SET a = x, b = y [FROM ...] into a
// virtual SELECT with one "expr AS target" item per assignment, carrying
// the original FROM clause along for alias resolution.
func updateToSelect(clean string) string {
	m := setClauseRe.FindStringSubmatch(clean)
	if m == nil {
		return ""
	}
	var items []string
	for _, assign := range splitTopLevel(m[1], ',') {
		eq := strings.IndexByte(assign, '=')
		if eq < 0 {
			continue
		}
		target := strings.TrimSpace(assign[:eq])
		expr := strings.TrimSpace(assign[eq+1:])
		items = append(items, expr+" AS "+target)
	}
	if len(items) == 0 {
		return ""
	}
	virtual := "SELECT " + strings.Join(items, ", ")
	if rest := fromRestRe.FindStringSubmatch(clean); rest != nil {
		virtual += " " + rest[1]
	}
	return virtual
}
