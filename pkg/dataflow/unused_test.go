package dataflow

import (
	"reflect"
	"testing"
)

func TestUnusedColumns(t *testing.T) {
	outlines := []*sourceOutline{
		{
			comp: &Component{Name: "Src"},
			columns: []ColumnOrigin{
				{Alias: "A", Column: "A", Table: "T"},
				{Alias: "B", Column: "B", Table: "T"},
				{Alias: "L", Column: "Calculated", Table: "Expression/Literal"},
				{Alias: "N", Column: "N/A", Table: "N/A"},
			},
		},
		{
			comp: &Component{Name: "Other"},
			columns: []ColumnOrigin{
				{Alias: "X", Column: "X", Table: "T2"},
			},
		},
	}
	rows := []Row{
		{SourceComponent: "Src", SourceColumn: "a"}, // case-insensitive hit on A
		{SourceComponent: "Other", SourceColumn: "X"},
	}

	got := unusedColumns(outlines, rows)
	want := []UnusedColumns{{Component: "Src", Columns: []string{"B"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unusedColumns = %+v, want %+v", got, want)
	}
}

func TestUnusedColumns_AllUsed(t *testing.T) {
	outlines := []*sourceOutline{{
		comp:    &Component{Name: "Src"},
		columns: []ColumnOrigin{{Alias: "A", Column: "A", Table: "T"}},
	}}
	rows := []Row{{SourceComponent: "Src", SourceColumn: "A"}}

	if got := unusedColumns(outlines, rows); got != nil {
		t.Errorf("unusedColumns = %+v, want none", got)
	}
}
