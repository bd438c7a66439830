package sqlprov

import "strings"

// Low-level text scanning helpers. All of them treat single-quoted
// string literals as opaque, with doubled quotes as the escape form, so
// structural characters inside literals never influence grouping.

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// hasWordAt reports whether word appears at s[i:] on word boundaries.
func hasWordAt(s string, i int, word string) bool {
	if i < 0 || i+len(word) > len(s) || s[i:i+len(word)] != word {
		return false
	}
	if i > 0 && isWordByte(s[i-1]) {
		return false
	}
	end := i + len(word)
	return end == len(s) || !isWordByte(s[end])
}

// skipString advances past the string literal opening at s[i] and returns
// the index just after its closing quote, or len(s) when unterminated.
func skipString(s string, i int) int {
	for i++; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	return i
}

// matchParen returns the index of the parenthesis closing the group that
// opens at s[open], or -1 when the group never closes.
func matchParen(s string, open int) int {
	if open < 0 || open >= len(s) || s[open] != '(' {
		return -1
	}
	depth := 1
	for i := open + 1; i < len(s); {
		switch s[i] {
		case '\'':
			i = skipString(s, i)
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// maskLiterals replaces the content of every string literal with STR so
// later reference scans never match text inside strings.
func maskLiterals(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\'' {
			b.WriteString("'STR'")
			i = skipString(s, i)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// splitTopLevel splits s on sep occurrences outside parentheses and
// string literals. Parts are trimmed; empty parts are dropped.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	flush := func(end int) {
		if p := strings.TrimSpace(s[start:end]); p != "" {
			parts = append(parts, p)
		}
	}
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\'':
			i = skipString(s, i)
			continue
		case s[i] == '(':
			depth++
		case s[i] == ')':
			if depth > 0 {
				depth--
			}
		case s[i] == sep && depth == 0:
			flush(i)
			start = i + 1
		}
		i++
	}
	flush(len(s))
	return parts
}

// splitUnionBranches splits an upper-cased statement on word-boundary
// UNION tokens at paren depth zero, skipping the optional ALL keyword.
// It returns nil when the statement has no top-level set operation;
// empty branches are dropped.
func splitUnionBranches(s string) []string {
	var branches []string
	found := false
	depth := 0
	start := 0
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\'':
			i = skipString(s, i)
			continue
		case s[i] == '(':
			depth++
		case s[i] == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && s[i] == 'U' && hasWordAt(s, i, "UNION"):
			found = true
			if b := strings.TrimSpace(s[start:i]); b != "" {
				branches = append(branches, b)
			}
			i += len("UNION")
			j := skipSpaces(s, i)
			if hasWordAt(s, j, "ALL") {
				i = j + len("ALL")
			}
			start = i
			continue
		}
		i++
	}
	if !found {
		return nil
	}
	if b := strings.TrimSpace(s[start:]); b != "" {
		branches = append(branches, b)
	}
	return branches
}

// lastWord returns the final word of s ignoring trailing whitespace, or
// "" when s does not end in a word character.
func lastWord(s string) string {
	end := len(s)
	for end > 0 && isSpaceByte(s[end-1]) {
		end--
	}
	start := end
	for start > 0 && isWordByte(s[start-1]) {
		start--
	}
	return s[start:end]
}

// balancedParens reports whether s opens and closes the same number of
// parentheses. It is a counting check, not a nesting check.
func balancedParens(s string) bool {
	return strings.Count(s, "(") == strings.Count(s, ")")
}

// indexWordFrom returns the index of the next word-boundary occurrence of
// word in s at or after from, or -1.
func indexWordFrom(s string, from int, word string) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(word) <= len(s); i++ {
		if s[i] == word[0] && hasWordAt(s, i, word) {
			return i
		}
	}
	return -1
}

// lastIndexWord returns the index of the last word-boundary occurrence
// of word in s, or -1.
func lastIndexWord(s, word string) int {
	for i := len(s) - len(word); i >= 0; i-- {
		if s[i] == word[0] && hasWordAt(s, i, word) {
			return i
		}
	}
	return -1
}
