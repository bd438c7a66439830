package sqlprov

import (
	"reflect"
	"testing"
)

func TestClassify_Insert(t *testing.T) {
	info := newTestResolver().Classify(
		`INSERT INTO Sales.Orders (OrderID, Total) SELECT id, amount FROM staging.orders`)

	if info.Kind != KindInsert {
		t.Fatalf("kind = %s, want %s", info.Kind, KindInsert)
	}
	if info.Destination != "Sales.Orders" {
		t.Errorf("destination = %q, want %q", info.Destination, "Sales.Orders")
	}
	expectColumn(t, info.Columns, "ID", "ORDERS", "ID")
	expectColumn(t, info.Columns, "AMOUNT", "ORDERS", "AMOUNT")
	if !reflect.DeepEqual(info.Sources, []string{"staging.orders"}) {
		t.Errorf("sources = %v", info.Sources)
	}
}

func TestClassify_SelectInto(t *testing.T) {
	info := newTestResolver().Classify(
		`SELECT a, b INTO archive.snapshot FROM live.events`)

	if info.Kind != KindSelectInto {
		t.Fatalf("kind = %s, want %s", info.Kind, KindSelectInto)
	}
	if info.Destination != "archive.snapshot" {
		t.Errorf("destination = %q", info.Destination)
	}
	expectColumn(t, info.Columns, "A", "EVENTS", "A")
}

func TestClassify_UpdateRewritesToVirtualSelect(t *testing.T) {
	info := newTestResolver().Classify(
		`UPDATE dim.Customer SET FullName = s.First + ' ' + s.Last, Active = 1 FROM staging.Customer s WHERE s.id = dim.Customer.id`)

	if info.Kind != KindUpdate {
		t.Fatalf("kind = %s, want %s", info.Kind, KindUpdate)
	}
	if info.Destination != "dim.Customer" {
		t.Errorf("destination = %q", info.Destination)
	}
	p := expectColumn(t, info.Columns, "FULLNAME", "CUSTOMER", "FIRST, LAST")
	if p.Type != ExprArithmetic {
		t.Errorf("type = %s, want %s", p.Type, ExprArithmetic)
	}
	expectColumn(t, info.Columns, "ACTIVE", SourceExpression, CalculatedColumn)
}

func TestClassify_CreateView(t *testing.T) {
	info := newTestResolver().Classify(
		`CREATE VIEW dbo.ActiveUsers AS SELECT id, name FROM users WHERE active = 1`)

	if info.Kind != KindCreateView {
		t.Fatalf("kind = %s, want %s", info.Kind, KindCreateView)
	}
	if info.Destination != "dbo.ActiveUsers" {
		t.Errorf("destination = %q", info.Destination)
	}
	expectColumn(t, info.Columns, "ID", "USERS", "ID")
}

func TestClassify_AlterProcedure(t *testing.T) {
	info := newTestResolver().Classify(
		`ALTER PROCEDURE dbo.RefreshTotals AS SELECT SUM(amount) AS total FROM sales`)

	if info.Kind != KindCreateProc {
		t.Fatalf("kind = %s, want %s", info.Kind, KindCreateProc)
	}
	if info.Destination != "dbo.RefreshTotals" {
		t.Errorf("destination = %q", info.Destination)
	}
}

func TestClassify_PlainSelectFallback(t *testing.T) {
	info := newTestResolver().Classify(`SELECT a FROM t`)

	if info.Kind != KindSelect {
		t.Fatalf("kind = %s, want %s", info.Kind, KindSelect)
	}
	if info.Destination != "N/A" {
		t.Errorf("destination = %q, want N/A", info.Destination)
	}
}

func TestClassify_UnknownWhenNothingParses(t *testing.T) {
	info := newTestResolver().Classify(`TRUNCATE TABLE t`)

	if info.Kind != KindUnknown {
		t.Fatalf("kind = %s, want %s", info.Kind, KindUnknown)
	}
	if len(info.Columns) != 0 {
		t.Errorf("columns = %v, want empty", info.Columns)
	}
}

func TestClassify_BlankReturnsNil(t *testing.T) {
	if info := newTestResolver().Classify("   "); info != nil {
		t.Errorf("expected nil, got %+v", info)
	}
}

func TestClassify_SourcesSortedAndDeduplicated(t *testing.T) {
	info := newTestResolver().Classify(
		`SELECT a.x, b.y FROM beta a JOIN alpha b ON a.id = b.id JOIN beta c ON c.id = a.id`)

	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(info.Sources, want) {
		t.Errorf("sources = %v, want %v", info.Sources, want)
	}
}

func TestAnalyzeScript_SplitsBatches(t *testing.T) {
	script := `
		INSERT INTO t1 SELECT a FROM s1;
		GO
		UPDATE t2 SET x = b FROM s2
	`
	infos := newTestResolver().AnalyzeScript(script)

	if len(infos) != 2 {
		t.Fatalf("statements = %d, want 2", len(infos))
	}
	if infos[0].Kind != KindInsert || infos[1].Kind != KindUpdate {
		t.Errorf("kinds = %s, %s", infos[0].Kind, infos[1].Kind)
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   int
	}{
		{"single", "SELECT 1", 1},
		{"semicolons", "SELECT 1; SELECT 2; SELECT 3", 3},
		{"semicolon in string", "SELECT 'a;b'; SELECT 2", 2},
		{"go separator", "SELECT 1\nGO\nSELECT 2", 2},
		{"trailing separator", "SELECT 1;", 1},
		{"blank", "  ;  ; ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitStatements(tt.script); len(got) != tt.want {
				t.Errorf("SplitStatements(%q) = %v, want %d parts", tt.script, got, tt.want)
			}
		})
	}
}
