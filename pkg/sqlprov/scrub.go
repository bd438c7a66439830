package sqlprov

import "strings"

// StripComments removes line comments and block comments from SQL text.
// Block comments nest, following T-SQL rules. String literals are left
// intact, including doubled-quote escapes, so comment markers inside
// strings do not terminate the string. Line comments are removed up to
// but not including the newline.
func StripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	inString := false
	inLine := false
	blockDepth := 0

	for i := 0; i < len(sql); {
		ch := sql[i]
		var next byte
		if i+1 < len(sql) {
			next = sql[i+1]
		}

		switch {
		case inLine:
			if ch == '\n' {
				inLine = false
				b.WriteByte(ch)
			}
			i++
		case blockDepth > 0:
			switch {
			case ch == '/' && next == '*':
				blockDepth++
				i += 2
			case ch == '*' && next == '/':
				blockDepth--
				i += 2
			default:
				i++
			}
		case inString:
			b.WriteByte(ch)
			if ch == '\'' {
				if next == '\'' {
					b.WriteByte(next)
					i += 2
					continue
				}
				inString = false
			}
			i++
		case ch == '\'':
			inString = true
			b.WriteByte(ch)
			i++
		case ch == '-' && next == '-':
			inLine = true
			i += 2
		case ch == '/' && next == '*':
			blockDepth = 1
			i += 2
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}
