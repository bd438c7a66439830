package dataflow

import (
	"sort"
	"strings"
)

// expressionOnlyTables are source-table sentinels marking a column as
// computed rather than read; such columns are never reported unused.
var expressionOnlyTables = map[string]struct{}{
	"Expression/Literal": {},
	"Expression":         {},
	"Literal":            {},
	"Static Value":       {},
	"Calculation":        {},
}

// UnusedColumns lists the projected columns of one source component
// that never reached any destination, candidates for removal from the
// source query.
type UnusedColumns struct {
	Component string   `json:"component"`
	Columns   []string `json:"columns"`
}

// unusedColumns diffs each source outline's projection against the
// origins appearing in the emitted rows, matching by source component
// name and origin column (case-insensitive).
func unusedColumns(outlines []*sourceOutline, rows []Row) []UnusedColumns {
	used := make(map[string]map[string]struct{})
	for _, r := range rows {
		if r.SourceComponent == "" || r.SourceColumn == "" {
			continue
		}
		cols, ok := used[r.SourceComponent]
		if !ok {
			cols = make(map[string]struct{})
			used[r.SourceComponent] = cols
		}
		cols[strings.ToUpper(r.SourceColumn)] = struct{}{}
	}

	var report []UnusedColumns
	for _, o := range outlines {
		var unused []string
		for _, c := range o.columns {
			if c.Column == "" || c.Column == "N/A" {
				continue
			}
			if _, hit := used[o.comp.Name][strings.ToUpper(c.Column)]; hit {
				continue
			}
			if _, expr := expressionOnlyTables[c.Table]; expr {
				continue
			}
			unused = append(unused, c.Column)
		}
		if len(unused) > 0 {
			sort.Strings(unused)
			report = append(report, UnusedColumns{Component: o.comp.Name, Columns: unused})
		}
	}
	return report
}
