//go:build cgo

package syntax

import (
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// scriptRules lower JavaScript, TypeScript and TSX.
type scriptRules struct {
	lang Language
}

var scriptConcurrency = map[string]bool{
	"Promise.all":        true,
	"Promise.allSettled": true,
	"Promise.any":        true,
	"Promise.race":       true,
	"Worker":             true,
	"SharedWorker":       true,
	"Atomics.wait":       true,
}

func (scriptRules) atomic(t string) bool {
	return t == "string" || t == "template_string" || t == "regex"
}

func (scriptRules) leafClass(t string) TokenClass {
	switch t {
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "private_property_identifier",
		"type_identifier", "statement_identifier", "this", "super":
		return TokIdentifier
	case "number", "string", "template_string", "regex", "true", "false", "null", "undefined":
		return TokLiteral
	default:
		return TokOperator
	}
}

func (r scriptRules) lower(l *lowerer, n *sitter.Node, parent *Node) bool {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		fn := l.open(KindFunction, n, parent)
		fn.Name = l.fieldText(n, "name")
		if fn.Name == "" {
			fn.Name = "default"
		}
		fn.Async = l.hasOperator(n, "async")
		l.walkField(n, "body", fn)
		return true

	case "method_definition":
		fn := l.open(KindFunction, n, parent)
		fn.Name = l.fieldText(n, "name")
		fn.Async = l.hasOperator(n, "async")
		fn.Accessor = l.hasOperator(n, "get", "set")
		fn.Decorators = r.decorators(l, n, parent)
		fn.Exported = !strings.HasPrefix(fn.Name, "#") && !l.hasChildType(n, "accessibility_modifier", "private")
		l.walkField(n, "body", fn)
		return true

	case "class_declaration", "abstract_class_declaration", "class":
		cls := l.open(KindClass, n, parent)
		cls.Name = l.fieldText(n, "name")
		cls.Decorators = r.decorators(l, n, parent)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if h := n.NamedChild(i); h.Type() == "class_heritage" {
				cls.Bases = r.heritage(l, h)
			}
		}
		l.walkField(n, "body", cls)
		return true

	case "variable_declarator", "field_definition", "public_field_definition":
		nameField := "name"
		if n.Type() == "field_definition" {
			nameField = "property"
		}
		value := n.ChildByFieldName("value")
		name := l.fieldText(n, nameField)
		if value == nil || name == "" {
			return false
		}
		switch value.Type() {
		case "arrow_function", "function_expression", "function", "generator_function":
			fn := l.open(KindFunction, n, parent)
			fn.Name = name
			fn.Async = l.hasOperator(value, "async")
			fn.Decorators = r.decorators(l, n, parent)
			l.walkField(value, "body", fn)
			return true
		case "class":
			before := len(parent.Children)
			l.walk(value, parent)
			for _, c := range parent.Children[before:] {
				if c.Kind == KindClass && c.Name == "" {
					c.Name = name
				}
			}
			return true
		}
		return false

	case "arrow_function", "function_expression", "function", "generator_function":
		lam := l.open(KindLambda, n, parent)
		l.walkField(n, "body", lam)
		return true

	case "export_statement":
		r.lowerExport(l, n, parent)
		return true

	case "import_statement":
		r.recordImport(l, n)
		return true

	case "interface_declaration", "type_alias_declaration", "enum_declaration",
		"function_signature", "method_signature", "abstract_method_signature", "ambient_declaration":
		return true

	case "if_statement":
		br := l.open(KindBranch, n, parent)
		if p := n.Parent(); p != nil && p.Type() == "else_clause" {
			br.Chained = true
		}
		l.walkChildren(n, br)
		return true

	case "for_statement", "for_in_statement":
		loop := l.open(KindLoop, n, parent)
		loop.Loop = LoopIteration
		l.walkChildren(n, loop)
		return true

	case "while_statement", "do_statement":
		loop := l.open(KindLoop, n, parent)
		loop.Loop = LoopConditional
		l.walkChildren(n, loop)
		return true

	case "switch_statement":
		sw := l.open(KindSwitch, n, parent)
		l.walkChildren(n, sw)
		return true

	case "switch_case":
		cs := l.open(KindCase, n, parent)
		l.walkChildren(n, cs)
		return true

	case "try_statement":
		try := l.open(KindTry, n, parent)
		l.walkChildren(n, try)
		return true

	case "catch_clause":
		h := l.open(KindHandler, n, parent)
		h.Empty = isEmptyBlock(n.ChildByFieldName("body"), "empty_statement")
		l.walkChildren(n, h)
		return true

	case "ternary_expression":
		t := l.open(KindTernary, n, parent)
		l.walkChildren(n, t)
		return true

	case "binary_expression":
		switch l.fieldText(n, "operator") {
		case "&&", "||", "??":
			op := l.open(KindBoolOp, n, parent)
			l.walkChildren(n, op)
			return true
		}
		return false

	case "await_expression":
		c := l.open(KindConcurrency, n, parent)
		l.walkChildren(n, c)
		return true

	case "return_statement":
		ret := l.open(KindReturn, n, parent)
		l.walkChildren(n, ret)
		return true

	case "throw_statement":
		rs := l.open(KindRaise, n, parent)
		l.walkChildren(n, rs)
		return true

	case "call_expression":
		r.lowerCall(l, n, n.ChildByFieldName("function"), parent)
		return true

	case "new_expression":
		r.lowerCall(l, n, n.ChildByFieldName("constructor"), parent)
		return true

	case "jsx_opening_element", "jsx_self_closing_element":
		if name := n.ChildByFieldName("name"); name != nil {
			text := l.text(name)
			if text != "" && exportedName(lastSegment(text)) {
				l.call(name, text, HintReference, parent)
			}
		}
		return false
	}
	return false
}

func (scriptRules) lowerCall(l *lowerer, n, fn *sitter.Node, parent *Node) {
	if fn == nil {
		l.walkChildren(n, parent)
		return
	}
	var hint CallHint
	switch fn.Type() {
	case "identifier":
		hint = HintDirect
	case "member_expression":
		hint = HintAttribute
	default:
		hint = HintDynamic
	}
	name := strings.ReplaceAll(l.text(fn), "?.", ".")

	target := parent
	if scriptConcurrency[name] {
		target = l.open(KindConcurrency, n, parent)
	}
	c := l.call(n, name, hint, target)
	switch hint {
	case HintDynamic:
		l.walk(fn, c)
	case HintAttribute:
		l.walkField(fn, "object", c)
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		switch a.Type() {
		case "identifier", "member_expression":
			l.call(a, l.text(a), HintReference, c)
		default:
			l.walk(a, c)
		}
	}
}

// decorators lowers decorator expressions attached to n into parent and
// returns their names.
func (scriptRules) decorators(l *lowerer, n *sitter.Node, parent *Node) []string {
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "decorator" || d.NamedChildCount() == 0 {
			continue
		}
		expr := d.NamedChild(0)
		name := l.text(expr)
		if expr.Type() == "call_expression" {
			name = l.fieldText(expr, "function")
			l.walk(expr, parent)
		} else {
			l.call(expr, name, HintReference, parent)
		}
		names = append(names, compact(name))
	}
	return names
}

func (scriptRules) heritage(l *lowerer, h *sitter.Node) []string {
	var bases []string
	for i := 0; i < int(h.NamedChildCount()); i++ {
		c := h.NamedChild(i)
		switch c.Type() {
		case "implements_clause":
			continue
		case "extends_clause":
			if v := c.ChildByFieldName("value"); v != nil {
				c = v
			} else if c.NamedChildCount() > 0 {
				c = c.NamedChild(0)
			}
		}
		name := compact(l.text(c))
		if j := strings.IndexAny(name, "<("); j >= 0 {
			name = name[:j]
		}
		if name != "" {
			bases = append(bases, name)
		}
	}
	return bases
}

func (r scriptRules) lowerExport(l *lowerer, n *sitter.Node, parent *Node) {
	l.unit.HasPublicAPI = true
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		before := len(parent.Children)
		l.walk(decl, parent)
		for _, c := range parent.Children[before:] {
			if c.Kind.IsDefinition() {
				if c.Name == "" {
					c.Name = "default"
				}
				c.Exported = true
				l.unit.PublicAPI = append(l.unit.PublicAPI, c.Name)
			}
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "export_clause":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() == "export_specifier" {
					l.unit.PublicAPI = append(l.unit.PublicAPI, l.fieldText(spec, "name"))
				}
			}
		case "identifier":
			// export default name
			l.unit.PublicAPI = append(l.unit.PublicAPI, l.text(c))
		case "string":
			// re-export source
		default:
			before := len(parent.Children)
			l.walk(c, parent)
			for _, d := range parent.Children[before:] {
				if d.Kind.IsDefinition() {
					if d.Name == "" {
						d.Name = "default"
					}
					d.Exported = true
					l.unit.PublicAPI = append(l.unit.PublicAPI, d.Name)
				}
			}
		}
	}
}

func (scriptRules) recordImport(l *lowerer, n *sitter.Node) {
	if l.unit.Imports == nil {
		l.unit.Imports = make(map[string]string)
	}
	src := unquote(l.fieldText(n, "source"))
	if src == "" {
		return
	}
	target := scriptModule(l.unit.Path, src)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				l.unit.Imports[l.text(c)] = target + ".default"
			case "namespace_import":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					if id := c.NamedChild(k); id.Type() == "identifier" {
						l.unit.Imports[l.text(id)] = target
					}
				}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					spec := c.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					name := l.fieldText(spec, "name")
					alias := l.fieldText(spec, "alias")
					if alias == "" {
						alias = name
					}
					l.unit.Imports[alias] = target + "." + name
				}
			}
		}
	}
}

// scriptModule converts an import source into a module name. Relative
// sources resolve against the importing file; bare package names are kept.
func scriptModule(from, src string) string {
	if _, ok := extensions[path.Ext(src)]; ok {
		src = strings.TrimSuffix(src, path.Ext(src))
	}
	if strings.HasPrefix(src, ".") {
		src = path.Join(path.Dir(strings.ReplaceAll(from, "\\", "/")), src)
		return ModuleName(src+".js", LangJavaScript)
	}
	return strings.ReplaceAll(src, "/", ".")
}

// hasChildType reports whether n has a named child of type t spelling text.
func (l *lowerer) hasChildType(n *sitter.Node, t, text string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == t && l.text(c) == text {
			return true
		}
	}
	return false
}
