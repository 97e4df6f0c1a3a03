package sqlhandle

import (
	"strconv"
	"strings"
)

// scanPlaceholders walks query and calls emit with the byte offset of
// every `?` parameter marker. Markers inside string literals, quoted
// identifiers and comments do not count. We only need a cursor over the
// buffer, not a token stream; the rules below are the lowest common
// denominator of the supported drivers:
//
//   - 'single quoted' and "double quoted" strings, quote doubled to
//     escape, backslash escapes honored
//   - `backtick` and [bracket] quoted identifiers
//   - -- line comments and /* block comments */, the latter nesting
func scanPlaceholders(query string, emit func(offset int)) {
	i, n := 0, len(query)
	for i < n {
		switch c := query[i]; c {
		case '?':
			emit(i)
			i++
		case '\'', '"':
			i++
			for i < n {
				if query[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				if query[i] == c {
					if i+1 < n && query[i+1] == c {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case '`':
			i++
			for i < n && query[i] != '`' {
				i++
			}
			if i < n {
				i++
			}
		case '[':
			i++
			for i < n && query[i] != ']' {
				i++
			}
			if i < n {
				i++
			}
		case '-':
			if i+1 < n && query[i+1] == '-' {
				for i < n && query[i] != '\n' {
					i++
				}
			} else {
				i++
			}
		case '/':
			if i+1 < n && query[i+1] == '*' {
				depth := 1
				i += 2
				for i < n && depth > 0 {
					switch {
					case i+1 < n && query[i] == '*' && query[i+1] == '/':
						depth--
						i += 2
					case i+1 < n && query[i] == '/' && query[i+1] == '*':
						depth++
						i += 2
					default:
						i++
					}
				}
			} else {
				i++
			}
		default:
			i++
		}
	}
}

// numPlaceholders counts the `?` parameter markers in query.
func numPlaceholders(query string) int {
	n := 0
	scanPlaceholders(query, func(int) { n++ })
	return n
}

// rebindDollar rewrites `?` markers to `$1..$n` for drivers that use
// numbered placeholders (pgx).
func rebindDollar(query string) string {
	var buf strings.Builder
	arg, last := 0, 0
	scanPlaceholders(query, func(offset int) {
		arg++
		buf.WriteString(query[last:offset])
		buf.WriteByte('$')
		buf.WriteString(strconv.Itoa(arg))
		last = offset + 1
	})
	if last == 0 {
		return query
	}
	buf.WriteString(query[last:])
	return buf.String()
}
