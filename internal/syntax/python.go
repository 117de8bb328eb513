//go:build cgo

package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type pythonRules struct{}

// Calls that start threads, tasks or locks.
var pythonConcurrency = map[string]bool{
	"Thread":              true,
	"Process":             true,
	"Pool":                true,
	"ThreadPoolExecutor":  true,
	"ProcessPoolExecutor": true,
	"Lock":                true,
	"RLock":               true,
	"Semaphore":           true,
	"BoundedSemaphore":    true,
	"create_task":         true,
	"ensure_future":       true,
	"gather":              true,
	"run_in_executor":     true,
	"start_new_thread":    true,
}

func (pythonRules) atomic(t string) bool {
	return t == "string" || t == "concatenated_string"
}

func (pythonRules) leafClass(t string) TokenClass {
	switch t {
	case "identifier":
		return TokIdentifier
	case "integer", "float", "string", "concatenated_string", "true", "false", "none", "ellipsis":
		return TokLiteral
	default:
		return TokOperator
	}
}

func (r pythonRules) lower(l *lowerer, n *sitter.Node, parent *Node) bool {
	switch n.Type() {
	case "decorated_definition":
		var decorators []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() != "decorator" || c.NamedChildCount() == 0 {
				continue
			}
			expr := c.NamedChild(0)
			name := l.text(expr)
			if expr.Type() == "call" {
				name = l.fieldText(expr, "function")
				l.walk(expr, parent)
			} else {
				l.call(expr, name, HintReference, parent)
			}
			decorators = append(decorators, compact(name))
		}
		def := n.ChildByFieldName("definition")
		if def == nil {
			return true
		}
		before := len(parent.Children)
		l.walk(def, parent)
		for _, c := range parent.Children[before:] {
			if c.Kind.IsDefinition() {
				c.Decorators = decorators
				c.Accessor = isPropertyDecorator(decorators)
			}
		}
		return true

	case "function_definition":
		fn := l.open(KindFunction, n, parent)
		fn.Name = l.fieldText(n, "name")
		fn.Async = l.hasOperator(n, "async")
		fn.Exported = !strings.HasPrefix(fn.Name, "_")
		l.walkField(n, "parameters", fn)
		l.walkField(n, "body", fn)
		return true

	case "class_definition":
		cls := l.open(KindClass, n, parent)
		cls.Name = l.fieldText(n, "name")
		cls.Exported = !strings.HasPrefix(cls.Name, "_")
		if sup := n.ChildByFieldName("superclasses"); sup != nil {
			for i := 0; i < int(sup.NamedChildCount()); i++ {
				b := sup.NamedChild(i)
				switch b.Type() {
				case "identifier", "attribute":
					cls.Bases = append(cls.Bases, compact(l.text(b)))
				default:
					l.walk(b, parent)
				}
			}
		}
		l.walkField(n, "body", cls)
		return true

	case "lambda":
		lam := l.open(KindLambda, n, parent)
		l.walkChildren(n, lam)
		return true

	case "if_statement", "elif_clause":
		br := l.open(KindBranch, n, parent)
		br.Chained = n.Type() == "elif_clause"
		l.walkChildren(n, br)
		return true

	case "if_clause":
		br := l.open(KindBranch, n, parent)
		l.walkChildren(n, br)
		return true

	case "for_statement", "for_in_clause":
		loop := l.open(KindLoop, n, parent)
		loop.Loop = LoopIteration
		l.walkChildren(n, loop)
		return true

	case "while_statement":
		loop := l.open(KindLoop, n, parent)
		loop.Loop = LoopConditional
		l.walkChildren(n, loop)
		return true

	case "match_statement":
		sw := l.open(KindSwitch, n, parent)
		l.walkChildren(n, sw)
		return true

	case "case_clause":
		cs := l.open(KindCase, n, parent)
		l.walkChildren(n, cs)
		return true

	case "try_statement":
		try := l.open(KindTry, n, parent)
		l.walkChildren(n, try)
		return true

	case "except_clause", "except_group_clause":
		h := l.open(KindHandler, n, parent)
		if body := lastNamedOfType(n, "block"); body != nil {
			h.Empty = onlyEllipsis(body)
		}
		l.walkChildren(n, h)
		return true

	case "with_statement":
		res := l.open(KindResource, n, parent)
		res.Async = l.hasOperator(n, "async")
		l.walkChildren(n, res)
		return true

	case "boolean_operator":
		op := l.open(KindBoolOp, n, parent)
		l.walkChildren(n, op)
		return true

	case "conditional_expression":
		t := l.open(KindTernary, n, parent)
		l.walkChildren(n, t)
		return true

	case "await":
		c := l.open(KindConcurrency, n, parent)
		l.walkChildren(n, c)
		return true

	case "return_statement":
		ret := l.open(KindReturn, n, parent)
		l.walkChildren(n, ret)
		return true

	case "raise_statement":
		rs := l.open(KindRaise, n, parent)
		l.walkChildren(n, rs)
		return true

	case "call":
		r.lowerCall(l, n, parent)
		return true

	case "import_statement", "import_from_statement":
		r.recordImport(l, n)
		return true

	case "expression_statement":
		if parent != nil && parent.Kind == KindModule {
			r.recordAll(l, n)
		}
		return false
	}
	return false
}

func (pythonRules) lowerCall(l *lowerer, n *sitter.Node, parent *Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		l.walkChildren(n, parent)
		return
	}
	var hint CallHint
	switch fn.Type() {
	case "identifier":
		hint = HintDirect
	case "attribute":
		hint = HintAttribute
	default:
		hint = HintDynamic
	}
	target := parent
	if pythonConcurrency[lastSegment(l.text(fn))] {
		target = l.open(KindConcurrency, n, parent)
	}
	c := l.call(n, l.text(fn), hint, target)
	if hint == HintDynamic {
		l.walk(fn, c)
	} else if fn.Type() == "attribute" {
		// Calls inside the receiver chain: a().b()
		l.walkField(fn, "object", c)
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if a.Type() == "keyword_argument" {
			a = a.ChildByFieldName("value")
		}
		if a == nil {
			continue
		}
		switch a.Type() {
		case "identifier", "attribute":
			l.call(a, l.text(a), HintReference, c)
		default:
			l.walk(a, c)
		}
	}
}

func (pythonRules) recordImport(l *lowerer, n *sitter.Node) {
	if l.unit.Imports == nil {
		l.unit.Imports = make(map[string]string)
	}
	from := ""
	if n.Type() == "import_from_statement" {
		from = resolveRelative(l.unit.Module, l.fieldText(n, "module_name"))
	}
	moduleNode := n.ChildByFieldName("module_name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if moduleNode != nil && c.StartByte() == moduleNode.StartByte() && c.EndByte() == moduleNode.EndByte() {
			continue
		}
		var name, alias string
		switch c.Type() {
		case "dotted_name":
			name = l.text(c)
		case "aliased_import":
			name = l.fieldText(c, "name")
			alias = l.fieldText(c, "alias")
		default:
			continue
		}
		if from != "" {
			if alias == "" {
				alias = name
			}
			l.unit.Imports[alias] = from + "." + name
			continue
		}
		if alias == "" {
			// "import a.b" binds "a"; the qualifier "a.b" is resolved as a
			// module path directly.
			alias = strings.SplitN(name, ".", 2)[0]
			name = alias
		}
		l.unit.Imports[alias] = name
	}
}

// recordAll reads a module-level "__all__ = [...]" or "__all__ += [...]".
func (pythonRules) recordAll(l *lowerer, n *sitter.Node) {
	if n.NamedChildCount() == 0 {
		return
	}
	asg := n.NamedChild(0)
	if asg.Type() != "assignment" && asg.Type() != "augmented_assignment" {
		return
	}
	if l.fieldText(asg, "left") != "__all__" {
		return
	}
	right := asg.ChildByFieldName("right")
	if right == nil {
		return
	}
	l.unit.HasPublicAPI = true
	for i := 0; i < int(right.NamedChildCount()); i++ {
		s := right.NamedChild(i)
		if s.Type() == "string" {
			l.unit.PublicAPI = append(l.unit.PublicAPI, unquote(l.text(s)))
		}
	}
}

func lastNamedOfType(n *sitter.Node, t string) *sitter.Node {
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if c := n.NamedChild(i); c.Type() == t {
			return c
		}
	}
	return nil
}

// onlyEllipsis reports whether a block consists solely of "..." statements.
func onlyEllipsis(block *sitter.Node) bool {
	seen := false
	for i := 0; i < int(block.NamedChildCount()); i++ {
		c := block.NamedChild(i)
		switch {
		case c.Type() == "comment":
		case c.Type() == "pass_statement":
			seen = true
		case c.Type() == "expression_statement" && c.NamedChildCount() == 1 && c.NamedChild(0).Type() == "ellipsis":
			seen = true
		default:
			return false
		}
	}
	return seen || block.NamedChildCount() == 0
}

// isPropertyDecorator reports whether a definition is reached through
// attribute access rather than a call.
func isPropertyDecorator(decorators []string) bool {
	for _, d := range decorators {
		switch {
		case d == "property", lastSegment(d) == "cached_property",
			strings.HasSuffix(d, ".setter"), strings.HasSuffix(d, ".getter"), strings.HasSuffix(d, ".deleter"):
			return true
		}
	}
	return false
}
