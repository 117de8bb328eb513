//go:build cgo

package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type goRules struct{}

// Method names that take or release a lock or spawn managed goroutines.
var goConcurrency = map[string]bool{
	"Lock":    true,
	"RLock":   true,
	"TryLock": true,
	"Go":      true,
	"Wait":    true,
}

func (goRules) atomic(t string) bool {
	return t == "interpreted_string_literal" || t == "raw_string_literal" || t == "rune_literal"
}

func (goRules) leafClass(t string) TokenClass {
	switch t {
	case "identifier", "field_identifier", "type_identifier", "package_identifier", "label_name", "blank_identifier":
		return TokIdentifier
	case "int_literal", "float_literal", "imaginary_literal", "rune_literal",
		"interpreted_string_literal", "raw_string_literal", "true", "false", "nil", "iota":
		return TokLiteral
	default:
		return TokOperator
	}
}

func (r goRules) lower(l *lowerer, n *sitter.Node, parent *Node) bool {
	switch n.Type() {
	case "package_clause":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "package_identifier" {
				l.unit.Package = l.text(c)
			}
		}
		return true

	case "import_spec":
		r.recordImport(l, n)
		return true

	case "function_declaration":
		fn := l.open(KindFunction, n, parent)
		fn.Name = l.fieldText(n, "name")
		fn.Exported = exportedName(fn.Name)
		l.walkField(n, "body", fn)
		return true

	case "method_declaration":
		fn := l.open(KindFunction, n, parent)
		fn.Name = l.fieldText(n, "name")
		fn.Exported = exportedName(fn.Name)
		fn.Receiver, fn.RecvVar = receiverOf(l, n.ChildByFieldName("receiver"))
		l.walkField(n, "body", fn)
		return true

	case "type_spec":
		typ := n.ChildByFieldName("type")
		if typ == nil || typ.Type() == "interface_type" {
			return true
		}
		cls := l.open(KindClass, n, parent)
		cls.Name = l.fieldText(n, "name")
		cls.Exported = exportedName(cls.Name)
		if typ.Type() == "struct_type" {
			cls.Bases = embeddedTypes(l, typ)
		}
		l.walk(typ, cls)
		return true

	case "func_literal":
		lam := l.open(KindLambda, n, parent)
		l.walkField(n, "body", lam)
		return true

	case "if_statement":
		br := l.open(KindBranch, n, parent)
		if p := n.Parent(); p != nil && p.Type() == "if_statement" {
			if alt := p.ChildByFieldName("alternative"); alt != nil && alt.StartByte() == n.StartByte() {
				br.Chained = true
			}
		}
		l.walkChildren(n, br)
		return true

	case "for_statement":
		loop := l.open(KindLoop, n, parent)
		loop.Loop = LoopConditional
		for i := 0; i < int(n.NamedChildCount()); i++ {
			switch n.NamedChild(i).Type() {
			case "range_clause", "for_clause":
				loop.Loop = LoopIteration
			}
		}
		l.walkChildren(n, loop)
		return true

	case "expression_switch_statement", "type_switch_statement":
		sw := l.open(KindSwitch, n, parent)
		l.walkChildren(n, sw)
		return true

	case "select_statement":
		sel := l.open(KindConcurrency, n, parent)
		l.walkChildren(n, sel)
		return true

	case "expression_case", "type_case", "communication_case":
		cs := l.open(KindCase, n, parent)
		l.walkChildren(n, cs)
		return true

	case "go_statement", "send_statement":
		c := l.open(KindConcurrency, n, parent)
		l.walkChildren(n, c)
		return true

	case "unary_expression":
		if l.fieldText(n, "operator") == "<-" {
			c := l.open(KindConcurrency, n, parent)
			l.walkChildren(n, c)
			return true
		}
		return false

	case "defer_statement":
		r.lowerDefer(l, n, parent)
		return true

	case "binary_expression":
		switch l.fieldText(n, "operator") {
		case "&&", "||":
			op := l.open(KindBoolOp, n, parent)
			l.walkChildren(n, op)
			return true
		}
		return false

	case "return_statement":
		ret := l.open(KindReturn, n, parent)
		l.walkChildren(n, ret)
		return true

	case "call_expression":
		r.lowerCall(l, n, parent)
		return true

	case "composite_literal":
		if t := n.ChildByFieldName("type"); t != nil {
			switch t.Type() {
			case "type_identifier", "qualified_type":
				l.call(t, l.text(t), HintReference, parent)
			}
		}
		l.walkField(n, "body", parent)
		return true
	}
	return false
}

func (goRules) lowerCall(l *lowerer, n *sitter.Node, parent *Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		l.walkChildren(n, parent)
		return
	}
	var hint CallHint
	switch fn.Type() {
	case "identifier":
		hint = HintDirect
	case "selector_expression":
		hint = HintAttribute
	default:
		hint = HintDynamic
	}
	name := l.text(fn)

	target := parent
	switch {
	case hint == HintDirect && name == "panic":
		target = l.open(KindRaise, n, parent)
	case hint == HintAttribute && goConcurrency[lastSegment(name)]:
		target = l.open(KindConcurrency, n, parent)
	}
	c := l.call(n, name, hint, target)
	switch hint {
	case HintDynamic:
		l.walk(fn, c)
	case HintAttribute:
		l.walkField(fn, "operand", c)
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		switch a.Type() {
		case "identifier", "selector_expression":
			l.call(a, l.text(a), HintReference, c)
		default:
			l.walk(a, c)
		}
	}
}

// lowerDefer turns "defer func() { recover() }()" into an exception guard
// and every other defer into a scoped resource release.
func (r goRules) lowerDefer(l *lowerer, n *sitter.Node, parent *Node) {
	var call *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "call_expression" {
			call = c
		}
	}
	if call != nil {
		if lit := call.ChildByFieldName("function"); lit != nil && lit.Type() == "func_literal" {
			body := lit.ChildByFieldName("body")
			if body != nil && callsRecover(l, body) {
				try := l.open(KindTry, n, parent)
				h := l.open(KindHandler, lit, try)
				h.Empty = recoverOnly(l, body)
				l.walkChildren(body, h)
				return
			}
		}
	}
	res := l.open(KindResource, n, parent)
	l.walkChildren(n, res)
}

func (goRules) recordImport(l *lowerer, n *sitter.Node) {
	if l.unit.Imports == nil {
		l.unit.Imports = make(map[string]string)
	}
	p := strings.Trim(l.fieldText(n, "path"), "\"`")
	if p == "" {
		return
	}
	alias := l.fieldText(n, "name")
	switch alias {
	case "_", ".":
		return
	case "":
		alias = p[strings.LastIndexByte(p, '/')+1:]
	}
	l.unit.Imports[alias] = strings.ReplaceAll(p, "/", ".")
}

func receiverOf(l *lowerer, recv *sitter.Node) (typ, name string) {
	if recv == nil {
		return "", ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		p := recv.NamedChild(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		name = l.fieldText(p, "name")
		typ = baseTypeName(l.fieldText(p, "type"))
		return typ, name
	}
	return "", ""
}

// baseTypeName strips pointers, packages and type arguments: "*pkg.T[K]" -> "T".
func baseTypeName(s string) string {
	s = strings.TrimLeft(compact(s), "*")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	return lastSegment(s)
}

func embeddedTypes(l *lowerer, st *sitter.Node) []string {
	var bases []string
	var fields *sitter.Node
	for i := 0; i < int(st.NamedChildCount()); i++ {
		if c := st.NamedChild(i); c.Type() == "field_declaration_list" {
			fields = c
		}
	}
	if fields == nil {
		return nil
	}
	for i := 0; i < int(fields.NamedChildCount()); i++ {
		f := fields.NamedChild(i)
		if f.Type() != "field_declaration" || f.ChildByFieldName("name") != nil {
			continue
		}
		if t := f.ChildByFieldName("type"); t != nil {
			bases = append(bases, baseTypeName(l.text(t)))
		}
	}
	return bases
}

// statements returns the statements of a Go block, looking through the
// statement_list wrapper newer grammars emit.
func statements(block *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		c := block.NamedChild(i)
		switch c.Type() {
		case "statement_list":
			out = append(out, statements(c)...)
		case "comment":
		default:
			out = append(out, c)
		}
	}
	return out
}

func callsRecover(l *lowerer, n *sitter.Node) bool {
	if n.Type() == "call_expression" && l.fieldText(n, "function") == "recover" {
		return true
	}
	if n.Type() == "func_literal" {
		return false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if callsRecover(l, n.NamedChild(i)) {
			return true
		}
	}
	return false
}

// recoverOnly reports whether a deferred handler does nothing beyond
// calling recover().
func recoverOnly(l *lowerer, body *sitter.Node) bool {
	for _, s := range statements(body) {
		text := compact(l.text(s))
		switch s.Type() {
		case "expression_statement", "assignment_statement":
			if text != "recover()" && text != "_=recover()" {
				return false
			}
		case "if_statement":
			cons := s.ChildByFieldName("consequence")
			if s.ChildByFieldName("alternative") != nil || cons == nil || len(statements(cons)) > 0 {
				return false
			}
			if !strings.Contains(text, "recover()") {
				return false
			}
		default:
			return false
		}
	}
	return true
}
