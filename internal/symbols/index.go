package symbols

import (
	"strconv"

	"codeintel/internal/syntax"
)

type frame struct {
	def     *Definition
	scope   string
	owner   string
	recvVar string
	inFunc  bool
}

type indexer struct {
	fi   *FileIndex
	seen map[string]bool
}

// Index records one Definition per declaration and one CallSite per
// call-like expression of a unit.
func Index(unit *syntax.Unit) *FileIndex {
	fi := &FileIndex{
		Path:         unit.Path,
		Module:       unit.Module,
		Language:     unit.Language,
		Imports:      unit.Imports,
		PublicAPI:    unit.PublicAPI,
		HasPublicAPI: unit.HasPublicAPI,
		Unit:         unit,
	}
	ix := &indexer{fi: fi, seen: make(map[string]bool)}
	ix.walk(unit.Root, frame{})
	return fi
}

func (ix *indexer) walk(n *syntax.Node, f frame) {
	for _, c := range n.Children {
		switch {
		case c.Kind.IsDefinition():
			def := ix.define(c, f)
			inner := frame{
				def:     def,
				scope:   def.Scope,
				owner:   f.owner,
				recvVar: f.recvVar,
				inFunc:  f.inFunc || c.Kind == syntax.KindFunction,
			}
			switch {
			case def.Kind == KindClass:
				inner.owner = def.Scope
				inner.recvVar = ""
			case def.Kind == KindMethod:
				inner.owner = def.Owner
				if c.RecvVar != "" {
					inner.recvVar = c.RecvVar
				}
			}
			ix.walk(c, inner)
		case c.Kind == syntax.KindCall:
			ix.call(c, f)
			ix.walk(c, f)
		default:
			ix.walk(c, f)
		}
	}
}

func (ix *indexer) define(n *syntax.Node, f frame) *Definition {
	name := n.Name
	if name == "" {
		name = "<anonymous>"
	}
	d := &Definition{
		Name:       name,
		Kind:       KindFunction,
		Path:       ix.fi.Path,
		Module:     ix.fi.Module,
		Language:   ix.fi.Language,
		StartLine:  n.StartLine,
		EndLine:    n.EndLine,
		StartByte:  n.StartByte,
		EndByte:    n.EndByte,
		Bases:      n.Bases,
		Decorators: n.Decorators,
		Exported:   n.Exported,
		Accessor:   n.Accessor,
		Async:      n.Async,
		Nested:     f.inFunc,
		Body:       n,
	}
	if f.def != nil {
		d.Parent = f.def.ID
	}

	switch {
	case n.Kind == syntax.KindClass:
		d.Kind = KindClass
		d.Scope = join(f.scope, name)
	case n.Receiver != "":
		d.Kind = KindMethod
		d.Owner = n.Receiver
		d.Scope = n.Receiver + "." + name
	case f.def != nil && f.def.Kind == KindClass:
		d.Kind = KindMethod
		d.Owner = f.def.Scope
		d.Scope = join(f.scope, name)
	default:
		d.Scope = join(f.scope, name)
	}

	d.QualifiedName = Qualify(d.Module, d.Scope)
	d.ID = ix.fi.Path + "#" + d.Scope
	if ix.seen[d.ID] {
		d.ID += "@" + strconv.Itoa(n.StartLine)
	}
	ix.seen[d.ID] = true

	ix.fi.Definitions = append(ix.fi.Definitions, d)
	return d
}

func (ix *indexer) call(n *syntax.Node, f frame) {
	cs := CallSite{
		Path:      ix.fi.Path,
		Module:    ix.fi.Module,
		Scope:     f.scope,
		Owner:     f.owner,
		RecvVar:   f.recvVar,
		Callee:    n.Callee,
		Qualifier: n.Qualifier,
		Member:    n.Member,
		Hint:      n.Hint,
		Line:      n.StartLine,
	}
	if f.def != nil {
		cs.Caller = f.def.ID
	}
	ix.fi.Calls = append(ix.fi.Calls, cs)
}

// Qualify joins a module and a scope into a qualified name. Files at the
// root of the tree have module "_" and qualify to the bare scope.
func Qualify(module, scope string) string {
	if module == "" || module == "_" {
		return scope
	}
	return module + "." + scope
}

func join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
