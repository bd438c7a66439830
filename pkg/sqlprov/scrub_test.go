package sqlprov

import "testing"

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "line comment removed up to newline",
			in:   "SELECT a -- trailing FROM ghost\nFROM t",
			want: "SELECT a \nFROM t",
		},
		{
			name: "block comment removed",
			in:   "SELECT /* hidden */ a FROM t",
			want: "SELECT  a FROM t",
		},
		{
			name: "nested block comments",
			in:   "SELECT /* outer /* inner */ still outer */ a FROM t",
			want: "SELECT  a FROM t",
		},
		{
			name: "dash pair inside string survives",
			in:   "SELECT '--not a comment' FROM t",
			want: "SELECT '--not a comment' FROM t",
		},
		{
			name: "comment opener inside string survives",
			in:   "SELECT '/* literal */' FROM t",
			want: "SELECT '/* literal */' FROM t",
		},
		{
			name: "doubled quote escape keeps string open",
			in:   "SELECT 'it''s -- fine' FROM t",
			want: "SELECT 'it''s -- fine' FROM t",
		},
		{
			name: "unterminated block comment swallows rest",
			in:   "SELECT a /* runs off",
			want: "SELECT a ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripComments(tt.in); got != tt.want {
				t.Errorf("StripComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchParen(t *testing.T) {
	tests := []struct {
		s    string
		open int
		want int
	}{
		{"(a)", 0, 2},
		{"(a(b)c)", 0, 6},
		{"(a(b)c)", 2, 4},
		{"(')' )", 0, 5},
		{"(never closes", 0, -1},
		{"x", 0, -1},
	}
	for _, tt := range tests {
		if got := matchParen(tt.s, tt.open); got != tt.want {
			t.Errorf("matchParen(%q, %d) = %d, want %d", tt.s, tt.open, got, tt.want)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel("a, f(b, c), 'x, y', d", ',')
	want := []string{"a", "f(b, c)", "'x, y'", "d"}
	if len(got) != len(want) {
		t.Fatalf("splitTopLevel = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitUnionBranches(t *testing.T) {
	if got := splitUnionBranches("SELECT A FROM T1"); got != nil {
		t.Errorf("no union: got %v", got)
	}

	got := splitUnionBranches("SELECT A FROM T1 UNION ALL SELECT B FROM T2 UNION SELECT C FROM T3")
	if len(got) != 3 {
		t.Fatalf("branches = %v, want 3", got)
	}
	if got[1] != "SELECT B FROM T2" {
		t.Errorf("branch 1 = %q", got[1])
	}

	// UNION inside parens stays put.
	if got := splitUnionBranches("SELECT X FROM (SELECT A FROM T1 UNION SELECT B FROM T2) D"); got != nil {
		t.Errorf("parenthesized union should not split, got %v", got)
	}

	// UNION_RESERVED is a word, not the keyword.
	if got := splitUnionBranches("SELECT A FROM T1_UNION_T2"); got != nil {
		t.Errorf("word containing UNION should not split, got %v", got)
	}
}
