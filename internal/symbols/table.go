package symbols

import (
	"strings"
)

// Table is the global symbol table. It is built once after every file has
// been indexed and is read-only afterwards.
type Table struct {
	files   []*FileIndex
	byPath  map[string]*FileIndex
	defs    []*Definition
	byID    map[string]*Definition
	byName  map[string][]*Definition
	byScope map[string][]*Definition // module + "\x00" + scope
	members map[string][]*Definition // module + "\x00" + owner scope
	modules map[string]bool
}

// NewTable merges per-file indexes in input order.
func NewTable(files []*FileIndex) *Table {
	t := &Table{
		files:   files,
		byPath:  make(map[string]*FileIndex, len(files)),
		byID:    make(map[string]*Definition),
		byName:  make(map[string][]*Definition),
		byScope: make(map[string][]*Definition),
		members: make(map[string][]*Definition),
		modules: make(map[string]bool),
	}
	for _, fi := range files {
		t.byPath[fi.Path] = fi
		t.modules[fi.Module] = true
		for _, d := range fi.Definitions {
			if _, dup := t.byID[d.ID]; dup {
				continue
			}
			t.defs = append(t.defs, d)
			t.byID[d.ID] = d
			t.byName[d.Name] = append(t.byName[d.Name], d)
			t.byScope[key(d.Module, d.Scope)] = append(t.byScope[key(d.Module, d.Scope)], d)
			if d.Owner != "" {
				t.members[key(d.Module, d.Owner)] = append(t.members[key(d.Module, d.Owner)], d)
			}
		}
	}
	return t
}

func key(module, scope string) string {
	return module + "\x00" + scope
}

// Files returns the indexed files in input order.
func (t *Table) Files() []*FileIndex {
	return t.files
}

// File returns the index of one file.
func (t *Table) File(path string) *FileIndex {
	return t.byPath[path]
}

// Definitions returns every definition in input order.
func (t *Table) Definitions() []*Definition {
	return t.defs
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	return len(t.defs)
}

// Lookup returns the definition with the given id.
func (t *Table) Lookup(id string) (*Definition, bool) {
	d, ok := t.byID[id]
	return d, ok
}

// ByName returns every definition with the given short name.
func (t *Table) ByName(name string) []*Definition {
	return t.byName[name]
}

// InScope returns the definitions declared with exactly the given scope in
// a module.
func (t *Table) InScope(module, scope string) []*Definition {
	return t.byScope[key(module, scope)]
}

// HasModule reports whether any analyzed file belongs to module.
func (t *Table) HasModule(module string) bool {
	return t.modules[module]
}

// FindModule maps an import target to an analyzed module. Exact matches
// win; otherwise the target and a module may differ by a leading prefix
// (a Go module path, a source root such as "src") as long as exactly one
// module has the longest overlap.
func (t *Table) FindModule(target string) (string, bool) {
	if target == "" {
		return "", false
	}
	if t.modules[target] {
		return target, true
	}
	best, bestLen, tie := "", 0, false
	for m := range t.modules {
		if m == "_" {
			continue
		}
		var overlap int
		switch {
		case strings.HasSuffix(target, "."+m):
			overlap = len(m)
		case strings.HasSuffix(m, "."+target):
			overlap = len(target)
		default:
			continue
		}
		switch {
		case overlap > bestLen:
			best, bestLen, tie = m, overlap, false
		case overlap == bestLen:
			tie = true
		}
	}
	if best == "" || tie {
		return "", false
	}
	return best, true
}

// Members returns the methods owned by a class.
func (t *Table) Members(class *Definition) []*Definition {
	if class == nil || class.Kind != KindClass {
		return nil
	}
	return t.members[key(class.Module, class.Scope)]
}

// Class returns the class declared with the given scope in a module.
func (t *Table) Class(module, scope string) *Definition {
	for _, d := range t.InScope(module, scope) {
		if d.Kind == KindClass {
			return d
		}
	}
	return nil
}

// ResolveBase finds the class a base-class expression of class refers to.
func (t *Table) ResolveBase(class *Definition, base string) *Definition {
	if class == nil || base == "" {
		return nil
	}
	// Lexical: siblings of the class, then module level.
	for scope := parentScope(class.Scope); ; scope = parentScope(scope) {
		if c := t.Class(class.Module, join(scope, base)); c != nil && c != class {
			return c
		}
		if scope == "" {
			break
		}
	}
	if fi := t.File(class.Path); fi != nil {
		if c := t.importedClass(fi, base); c != nil {
			return c
		}
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		if m, ok := t.FindModule(base[:i]); ok {
			if c := t.Class(m, base[i+1:]); c != nil {
				return c
			}
		}
		base = base[i+1:]
	}
	var found *Definition
	for _, d := range t.ByName(base) {
		if d.Kind != KindClass || d == class {
			continue
		}
		if found != nil {
			return nil
		}
		found = d
	}
	return found
}

func (t *Table) importedClass(fi *FileIndex, expr string) *Definition {
	head, rest := expr, ""
	if i := strings.IndexByte(expr, '.'); i >= 0 {
		head, rest = expr[:i], expr[i+1:]
	}
	target, ok := fi.Imports[head]
	if !ok {
		return nil
	}
	if rest != "" {
		target += "." + rest
	}
	i := strings.LastIndexByte(target, '.')
	if i < 0 {
		return nil
	}
	m, ok := t.FindModule(target[:i])
	if !ok {
		return nil
	}
	return t.Class(m, target[i+1:])
}

// Ancestors returns the transitive base classes of a class that resolve
// to analyzed definitions, nearest first.
func (t *Table) Ancestors(class *Definition) []*Definition {
	var out []*Definition
	seen := map[*Definition]bool{class: true}
	queue := []*Definition{class}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, b := range c.Bases {
			bc := t.ResolveBase(c, b)
			if bc == nil || seen[bc] {
				continue
			}
			seen[bc] = true
			out = append(out, bc)
			queue = append(queue, bc)
		}
	}
	return out
}

// Method looks up a member by name on a class and then on its ancestors.
func (t *Table) Method(class *Definition, name string) *Definition {
	if class == nil {
		return nil
	}
	for _, c := range append([]*Definition{class}, t.Ancestors(class)...) {
		for _, m := range t.Members(c) {
			if m.Name == name {
				return m
			}
		}
	}
	return nil
}

func parentScope(scope string) string {
	if i := strings.LastIndexByte(scope, '.'); i >= 0 {
		return scope[:i]
	}
	return ""
}
