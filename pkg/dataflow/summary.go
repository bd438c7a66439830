package dataflow

import "strings"

// unmappedTables mark a row as orphaned: an origin that was never
// traced to a table or expression.
var unmappedTables = map[string]struct{}{
	"N/A": {}, "Unknown": {}, "": {}, "None": {},
}

// placeholderTables mark entries synthesized by transfer rules rather
// than traced from a source.
var placeholderTables = map[string]struct{}{
	"Transformation":           {},
	"Variable/Expression":      {},
	"Derived / Transformation": {},
}

// Summary aggregates match quality over a set of lineage rows.
type Summary struct {
	Components  int `json:"components"`
	Rows        int `json:"rows"`
	Mapped      int `json:"mapped"`
	Exact       int `json:"exact"`
	NameMatch   int `json:"name_match"`
	Inferred    int `json:"inferred"`
	Placeholder int `json:"placeholder"`
	Orphaned    int `json:"orphaned"`
	Unused      int `json:"unused"`

	// Score is the share of rows traced back to a source table or
	// valid expression, in percent.
	Score float64 `json:"score"`

	// TableUse counts rows per origin table; comma-joined multi-table
	// origins count once per table.
	TableUse map[string]int `json:"table_use,omitempty"`
}

// Summarize classifies rows by how their origin was established. Rows
// whose source table is a missing-value sentinel count as orphaned;
// the rest are mapped and further split into exact traces, name
// matches, inferred rows and rule placeholders.
func Summarize(rows []Row) Summary {
	s := Summary{Rows: len(rows), TableUse: make(map[string]int)}
	for _, r := range rows {
		for _, t := range strings.Split(r.SourceTable, ",") {
			s.TableUse[strings.TrimSpace(t)]++
		}
		if _, orphan := unmappedTables[r.SourceTable]; orphan {
			s.Orphaned++
			continue
		}
		s.Mapped++
		switch {
		case strings.HasSuffix(r.Expression, "(Name Match)"):
			s.NameMatch++
		case r.SourceType == "Inferred":
			s.Inferred++
		default:
			if _, ph := placeholderTables[r.SourceTable]; ph {
				s.Placeholder++
			} else {
				s.Exact++
			}
		}
	}
	if s.Rows > 0 {
		s.Score = float64(s.Mapped) / float64(s.Rows) * 100
	}
	return s
}
