package sqlprov

import "testing"

func TestResolveVariables(t *testing.T) {
	vars := MapVars(map[string]string{
		"User::SourceQuery": "SELECT a FROM t",
		"Region":            "WEST",
	})

	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "namespaced reference",
			sql:  "@[User::SourceQuery]",
			want: "SELECT a FROM t",
		},
		{
			name: "bare name fallback",
			sql:  "SELECT * FROM sales_@[Region]",
			want: "SELECT * FROM sales_WEST",
		},
		{
			name: "unresolved stays verbatim",
			sql:  "SELECT @[User::Missing] FROM t",
			want: "SELECT @[User::Missing] FROM t",
		},
		{
			name: "no references",
			sql:  "SELECT a FROM t",
			want: "SELECT a FROM t",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveVariables(tt.sql, vars); got != tt.want {
				t.Errorf("ResolveVariables(%q) = %q, want %q", tt.sql, got, tt.want)
			}
		})
	}
}

func TestResolveVariables_NilResolver(t *testing.T) {
	sql := "SELECT @[User::Q] FROM t"
	if got := ResolveVariables(sql, nil); got != sql {
		t.Errorf("nil resolver changed input: %q", got)
	}
}
