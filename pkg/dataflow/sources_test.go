package dataflow

import (
	"testing"

	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

func TestOutline_QueryColumns(t *testing.T) {
	comp := &Component{
		ID: "s1", Name: "Src", Kind: KindSource,
		Query: "SELECT a AS X, 'k' AS Lit FROM t",
		Outputs: []Pin{{ID: "s1.out", Name: "Output", Columns: []Column{
			{LineageID: "#1", Name: "X", DataType: "DT_I4"},
			{LineageID: "#2", Name: "Lit"},
		}}},
	}

	o := newTestPropagator().outline(comp)
	if len(o.columns) != 2 {
		t.Fatalf("columns = %+v, want 2", o.columns)
	}
	want := ColumnOrigin{Alias: "X", Column: "A", Table: "T", Expression: "A", DataType: "DT_I4"}
	if o.columns[0] != want {
		t.Errorf("columns[0] = %+v, want %+v", o.columns[0], want)
	}
	if o.columns[1].Table != "Expression/Literal" || o.columns[1].Column != "Calculated" {
		t.Errorf("literal column = %+v", o.columns[1])
	}
}

func TestOutline_SourceNameOverride(t *testing.T) {
	comp := &Component{
		ID: "s1", Name: "Src", Kind: KindSource,
		Query: "SELECT real_col FROM t",
		Outputs: []Pin{{ID: "s1.out", Columns: []Column{
			{LineageID: "#1", Name: "FriendlyName", SourceName: "real_col"},
		}}},
	}

	o := newTestPropagator().outline(comp)
	if len(o.columns) != 1 {
		t.Fatalf("columns = %+v", o.columns)
	}
	if o.columns[0].Alias != "FriendlyName" {
		t.Errorf("alias = %q", o.columns[0].Alias)
	}
	if o.columns[0].Column != "REAL_COL" || o.columns[0].Table != "T" {
		t.Errorf("origin = %+v", o.columns[0])
	}
}

func TestOutline_WildcardFallback(t *testing.T) {
	comp := &Component{
		ID: "s1", Name: "Src", Kind: KindSource,
		Query: "SELECT * FROM t",
		Outputs: []Pin{{ID: "s1.out", Columns: []Column{
			{LineageID: "#1", Name: "Anything"},
		}}},
	}

	o := newTestPropagator().outline(comp)
	if o.columns[0].Table != "T" {
		t.Errorf("table = %q, want the wildcard's table", o.columns[0].Table)
	}
}

func TestOutline_TableMode(t *testing.T) {
	comp := &Component{
		ID: "s1", Name: "Src", Kind: KindSource, Table: "dbo.Customers",
		Outputs: []Pin{{ID: "s1.out", Columns: []Column{
			{LineageID: "#1", Name: "Id"},
			{LineageID: "#2", Name: "Email"},
		}}},
	}

	o := newTestPropagator().outline(comp)
	if o.query != "" {
		t.Errorf("query = %q, want none", o.query)
	}
	if len(o.columns) != 2 {
		t.Fatalf("columns = %+v, want 2", o.columns)
	}
	for _, c := range o.columns {
		if c.Table != "dbo.Customers" || c.Column != c.Alias {
			t.Errorf("column = %+v", c)
		}
	}
}

func TestOutline_FileSource(t *testing.T) {
	comp := &Component{
		ID: "f1", Name: "Flat File", Kind: KindFileSource, Connection: "extract.csv",
		Outputs: []Pin{{ID: "f1.out", Columns: []Column{
			{LineageID: "#1", Name: "Col0"},
		}}},
	}

	o := newTestPropagator().outline(comp)
	want := ColumnOrigin{Alias: "Col0", Column: "Col0", Table: "extract.csv", Expression: "File Read"}
	if o.columns[0] != want {
		t.Errorf("column = %+v, want %+v", o.columns[0], want)
	}
}

func TestOutline_QueryFromVariable(t *testing.T) {
	p := NewPropagator(Options{
		Vars: sqlprov.MapVars(map[string]string{
			"User::SrcQuery": "SELECT a FROM t",
		}),
	})
	comp := &Component{
		ID: "s1", Name: "Src", Kind: KindSource, QueryVar: "User::SrcQuery",
		Outputs: []Pin{{ID: "s1.out", Columns: []Column{
			{LineageID: "#1", Name: "A"},
		}}},
	}

	o := p.outline(comp)
	if o.query != "SELECT a FROM t" {
		t.Fatalf("query = %q", o.query)
	}
	if o.columns[0].Table != "T" || o.columns[0].Column != "A" {
		t.Errorf("column = %+v", o.columns[0])
	}
}

func TestOutline_ErrorPinSkipped(t *testing.T) {
	comp := &Component{
		ID: "s1", Name: "Src", Kind: KindSource, Table: "dbo.T",
		Outputs: []Pin{
			{ID: "s1.out", Name: "Output", Columns: []Column{{LineageID: "#1", Name: "A"}}},
			{ID: "s1.err", Name: "Error Output", Columns: []Column{{LineageID: "#9", Name: "ErrorCode"}}},
		},
	}

	o := newTestPropagator().outline(comp)
	if len(o.columns) != 1 || o.columns[0].Alias != "A" {
		t.Errorf("columns = %+v, want only the data pin's column", o.columns)
	}
}

func TestSplitVarName(t *testing.T) {
	tests := []struct {
		ref, namespace, name string
	}{
		{"User::SrcQuery", "User", "SrcQuery"},
		{"SrcQuery", "", "SrcQuery"},
		{"A::B::C", "A::B", "C"},
	}
	for _, tt := range tests {
		ns, name := splitVarName(tt.ref)
		if ns != tt.namespace || name != tt.name {
			t.Errorf("splitVarName(%q) = %q, %q, want %q, %q", tt.ref, ns, name, tt.namespace, tt.name)
		}
	}
}
