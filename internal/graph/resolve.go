package graph

import (
	"fmt"
	"strings"

	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// Status is the outcome of resolving one call site.
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusAmbiguous Status = "ambiguous"
	StatusDangling  Status = "dangling"
)

// Resolution is the result of resolving one call site.
type Resolution struct {
	Status  Status
	Targets []string // one id when resolved, every candidate when ambiguous
	Reason  string   // why a call site is dangling or ambiguous
}

// Resolver maps call sites to definitions using the global table.
type Resolver struct {
	table *symbols.Table
}

// NewResolver creates a resolver over a complete symbol table.
func NewResolver(table *symbols.Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve applies the resolution order: an exact match in the caller's own
// module (lexical scope, receiver, imports and qualifiers), then a unique
// short-name match across the analyzed set, then ambiguity, then dangling.
func (r *Resolver) Resolve(cs symbols.CallSite) Resolution {
	if cs.Hint == syntax.HintDynamic || cs.Member == "" {
		return Resolution{Status: StatusDangling, Reason: "dynamic call expression"}
	}
	lang := ""
	if fi := r.table.File(cs.Path); fi != nil {
		lang = string(fi.Language)
	}
	if cs.Qualifier == "" {
		return r.direct(cs, lang)
	}
	return r.attribute(cs, lang)
}

func (r *Resolver) direct(cs symbols.CallSite, lang string) Resolution {
	name := cs.Member

	for scope := cs.Scope; ; scope = parentScope(scope) {
		if res, ok := r.exact(r.table.InScope(cs.Module, join(scope, name)), false); ok {
			return res
		}
		if scope == "" {
			break
		}
	}

	if fi := r.table.File(cs.Path); fi != nil {
		if target, ok := fi.Imports[name]; ok {
			if d := r.imported(target); d != nil {
				return resolved(d)
			}
			if _, analyzed := r.moduleOf(target); !analyzed {
				return Resolution{Status: StatusDangling, Reason: fmt.Sprintf("external import %s", target)}
			}
		}
	}

	return r.global(name, lang, false)
}

func (r *Resolver) attribute(cs symbols.CallSite, lang string) Resolution {
	q, m := cs.Qualifier, cs.Member
	head, rest := q, ""
	if i := strings.IndexByte(q, '.'); i >= 0 {
		head, rest = q[:i], q[i+1:]
	}

	switch {
	case isSelf(q) || (cs.RecvVar != "" && q == cs.RecvVar):
		if cls := r.table.Class(cs.Module, cs.Owner); cls != nil {
			if d := r.table.Method(cls, m); d != nil {
				return resolved(d)
			}
		}
	case isSuper(q):
		if cls := r.table.Class(cs.Module, cs.Owner); cls != nil {
			for _, anc := range r.table.Ancestors(cls) {
				if d := r.table.Method(anc, m); d != nil {
					return resolved(d)
				}
			}
		}
	}

	if fi := r.table.File(cs.Path); fi != nil {
		if target, ok := fi.Imports[head]; ok {
			full := target
			if rest != "" {
				full += "." + rest
			}
			if d := r.imported(full + "." + m); d != nil {
				return resolved(d)
			}
			if _, analyzed := r.moduleOf(full); !analyzed {
				return Resolution{Status: StatusDangling, Reason: fmt.Sprintf("external module %s", full)}
			}
		}
	}

	if r.table.HasModule(q) {
		if res, ok := r.exact(r.table.InScope(q, m), true); ok {
			return res
		}
	}

	if cls := r.lexicalClass(cs, q); cls != nil {
		if d := r.table.Method(cls, m); d != nil {
			return resolved(d)
		}
	}

	return r.global(m, lang, true)
}

// exact turns the definitions sharing one qualified name into a resolution.
// Conditional redefinitions leave more than one candidate.
func (r *Resolver) exact(defs []*symbols.Definition, methods bool) (Resolution, bool) {
	var cands []*symbols.Definition
	for _, d := range defs {
		if d.Kind == symbols.KindMethod && !methods {
			continue
		}
		cands = append(cands, d)
	}
	switch len(cands) {
	case 0:
		return Resolution{}, false
	case 1:
		return resolved(cands[0]), true
	default:
		return ambiguous(cands, "redefined in the same scope"), true
	}
}

// global matches a short name across every analyzed definition of the same
// language family. Nested definitions are invisible outside their parent.
func (r *Resolver) global(name, lang string, methods bool) Resolution {
	var cands []*symbols.Definition
	for _, d := range r.table.ByName(name) {
		if d.Nested || (d.Kind == symbols.KindMethod && !methods) {
			continue
		}
		if family(string(d.Language)) != family(lang) {
			continue
		}
		cands = append(cands, d)
	}
	switch len(cands) {
	case 0:
		return Resolution{Status: StatusDangling, Reason: fmt.Sprintf("no definition named %s", name)}
	case 1:
		return resolved(cands[0])
	default:
		return ambiguous(cands, fmt.Sprintf("%d definitions named %s", len(cands), name))
	}
}

// imported resolves a dotted import target ("pkg.util.helper",
// "pkg.util.Class.method") to a definition.
func (r *Resolver) imported(target string) *symbols.Definition {
	for i := strings.LastIndexByte(target, '.'); i > 0; i = strings.LastIndexByte(target[:i], '.') {
		mod, ok := r.table.FindModule(target[:i])
		if !ok {
			continue
		}
		if defs := r.table.InScope(mod, target[i+1:]); len(defs) > 0 {
			return defs[0]
		}
		return nil
	}
	return nil
}

// moduleOf reports whether any prefix of a dotted target is an analyzed
// module.
func (r *Resolver) moduleOf(target string) (string, bool) {
	for t := target; t != ""; t = parentScope(t) {
		if m, ok := r.table.FindModule(t); ok {
			return m, true
		}
	}
	return "", false
}

// lexicalClass finds a class named by a qualifier from the caller's scope
// outwards, falling back to an imported class.
func (r *Resolver) lexicalClass(cs symbols.CallSite, q string) *symbols.Definition {
	for scope := cs.Scope; ; scope = parentScope(scope) {
		if c := r.table.Class(cs.Module, join(scope, q)); c != nil {
			return c
		}
		if scope == "" {
			break
		}
	}
	if fi := r.table.File(cs.Path); fi != nil {
		if target, ok := fi.Imports[q]; ok {
			if d := r.imported(target); d != nil && d.Kind == symbols.KindClass {
				return d
			}
		}
	}
	return nil
}

func resolved(d *symbols.Definition) Resolution {
	return Resolution{Status: StatusResolved, Targets: []string{d.ID}}
}

func ambiguous(defs []*symbols.Definition, reason string) Resolution {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return Resolution{Status: StatusAmbiguous, Targets: ids, Reason: reason}
}

func isSelf(q string) bool {
	return q == "self" || q == "cls" || q == "this"
}

func isSuper(q string) bool {
	return q == "super" || strings.HasPrefix(q, "super(")
}

// family groups languages whose symbols may call each other.
func family(lang string) string {
	switch syntax.Language(lang) {
	case syntax.LangJavaScript, syntax.LangTypeScript, syntax.LangTSX:
		return "script"
	}
	return lang
}

func parentScope(scope string) string {
	if i := strings.LastIndexByte(scope, '.'); i >= 0 {
		return scope[:i]
	}
	return ""
}

func join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
