package sqlprov

import "testing"

func TestJoinKeys_InnerPair(t *testing.T) {
	keys := newTestResolver().JoinKeys(
		`SELECT a.x, b.y FROM T1 a JOIN T2 b ON a.id = b.id`)

	if len(keys) != 1 {
		t.Fatalf("keys = %v, want 1", keys)
	}
	want := JoinKey{LeftTable: "T1", LeftColumn: "ID", RightTable: "T2", RightColumn: "ID", JoinType: "INNER"}
	if keys[0] != want {
		t.Errorf("key = %+v, want %+v", keys[0], want)
	}
}

func TestJoinKeys_JoinTypes(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"bare join", `SELECT 1 FROM a JOIN b ON a.k = b.k`, "INNER"},
		{"inner join", `SELECT 1 FROM a INNER JOIN b ON a.k = b.k`, "INNER"},
		{"left join", `SELECT 1 FROM a LEFT JOIN b ON a.k = b.k`, "LEFT"},
		{"left outer join", `SELECT 1 FROM a LEFT OUTER JOIN b ON a.k = b.k`, "LEFT"},
		{"right join", `SELECT 1 FROM a RIGHT JOIN b ON a.k = b.k`, "RIGHT"},
		{"full outer join", `SELECT 1 FROM a FULL OUTER JOIN b ON a.k = b.k`, "FULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := newTestResolver().JoinKeys(tt.sql)
			if len(keys) != 1 {
				t.Fatalf("keys = %v, want 1", keys)
			}
			if keys[0].JoinType != tt.want {
				t.Errorf("join type = %q, want %q", keys[0].JoinType, tt.want)
			}
		})
	}
}

func TestJoinKeys_CompoundCondition(t *testing.T) {
	keys := newTestResolver().JoinKeys(
		`SELECT 1 FROM t1 a JOIN t2 b ON a.k1 = b.k1 AND a.k2 = b.k2`)

	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2", keys)
	}
	if keys[1].LeftColumn != "K2" || keys[1].RightColumn != "K2" {
		t.Errorf("second pair = %+v", keys[1])
	}
}

func TestJoinKeys_MultipleJoins(t *testing.T) {
	keys := newTestResolver().JoinKeys(`
		SELECT o.id
		FROM orders o
		JOIN customers c ON o.cust_id = c.id
		LEFT JOIN regions r ON c.region_id = r.id
		WHERE o.total > 0`)

	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2", keys)
	}
	if keys[0].LeftTable != "ORDERS" || keys[0].RightTable != "CUSTOMERS" {
		t.Errorf("first key = %+v", keys[0])
	}
	if keys[1].JoinType != "LEFT" || keys[1].RightTable != "REGIONS" {
		t.Errorf("second key = %+v", keys[1])
	}
}

func TestJoinKeys_ResolvesThroughCTE(t *testing.T) {
	keys := newTestResolver().JoinKeys(
		`WITH c AS (SELECT id AS cid FROM t) SELECT x FROM c JOIN t2 ON c.cid = t2.id`)

	if len(keys) != 1 {
		t.Fatalf("keys = %v, want 1", keys)
	}
	if keys[0].LeftTable != "T" || keys[0].LeftColumn != "ID" {
		t.Errorf("left side = %+v, want T.ID", keys[0])
	}
	if keys[0].RightTable != "T2" || keys[0].RightColumn != "ID" {
		t.Errorf("right side = %+v", keys[0])
	}
}

func TestJoinKeys_SubqueryConditionsMasked(t *testing.T) {
	keys := newTestResolver().JoinKeys(
		`SELECT 1 FROM big b JOIN (SELECT id FROM small s2 JOIN tiny t2 ON s2.id = t2.id) d ON b.id = d.id`)

	// Only the outer ON survives masking; the derived body resolves
	// through its scope.
	if len(keys) != 1 {
		t.Fatalf("keys = %v, want 1", keys)
	}
	if keys[0].LeftTable != "BIG" {
		t.Errorf("left table = %q, want BIG", keys[0].LeftTable)
	}
}

func TestJoinKeys_NoJoins(t *testing.T) {
	if keys := newTestResolver().JoinKeys(`SELECT a FROM t`); len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}
