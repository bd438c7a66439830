package sqlprov

import (
	"regexp"
	"strings"
)

// VarResolver resolves a placeholder variable to its literal text. The
// namespace is empty for unqualified references.
type VarResolver func(namespace, name string) (string, bool)

// MapVars builds a VarResolver over a map keyed "Namespace::Name".
// Qualified lookups fall back to the bare name.
func MapVars(vars map[string]string) VarResolver {
	return func(namespace, name string) (string, bool) {
		if namespace != "" {
			if v, ok := vars[namespace+"::"+name]; ok {
				return v, true
			}
		}
		v, ok := vars[name]
		return v, ok
	}
}

var varRefRe = regexp.MustCompile(`@\[([\w\s:]+)\]`)

// ResolveVariables replaces @[Namespace::Name] placeholders in sql.
// Unresolved placeholders stay verbatim so later analysis still sees
// them as opaque tokens.
func ResolveVariables(sql string, resolve VarResolver) string {
	if resolve == nil || !strings.Contains(sql, "@[") {
		return sql
	}
	return varRefRe.ReplaceAllStringFunc(sql, func(ref string) string {
		inner := ref[2 : len(ref)-1]
		namespace, name := "", inner
		if i := strings.LastIndex(inner, "::"); i >= 0 {
			namespace, name = inner[:i], inner[i+2:]
		}
		if v, ok := resolve(namespace, name); ok {
			return v
		}
		return ref
	})
}
