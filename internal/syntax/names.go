package syntax

import "strings"

// splitCallee separates "a.b.c" into ("a.b", "c"). Call arguments and
// index expressions inside the qualifier are kept verbatim.
func splitCallee(callee string) (qualifier, member string) {
	depth := 0
	for i := len(callee) - 1; i >= 0; i-- {
		switch callee[i] {
		case ')', ']':
			depth++
		case '(', '[':
			depth--
		case '.':
			if depth == 0 {
				return strings.TrimSuffix(callee[:i], "?"), callee[i+1:]
			}
		}
	}
	return "", callee
}

// compact removes whitespace and newlines from a callee expression so that
// multi-line member chains compare equal to their single-line form.
func compact(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func exportedName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

// resolveRelative turns "from ..util import x" into an absolute module name
// relative to the importing module.
func resolveRelative(module, target string) string {
	if !strings.HasPrefix(target, ".") {
		return target
	}
	dots := len(target) - len(strings.TrimLeft(target, "."))
	rest := target[dots:]
	parts := strings.Split(module, ".")
	// One dot is the importing module's own package.
	keep := len(parts) - dots
	if keep < 0 {
		keep = 0
	}
	base := strings.Join(parts[:keep], ".")
	switch {
	case base == "":
		return rest
	case rest == "":
		return base
	default:
		return base + "." + rest
	}
}

func unquote(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`, "`"} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

func lastSegment(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}
