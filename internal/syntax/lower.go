//go:build cgo

package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// rules lower one grammar's node types.
type rules interface {
	// lower converts n into structural nodes under parent. It returns false
	// when n has no structure of its own; the walker then lowers n's named
	// children into parent.
	lower(l *lowerer, n *sitter.Node, parent *Node) bool
	// leafClass classifies a named leaf node for Halstead counting.
	leafClass(nodeType string) TokenClass
	// atomic reports node types whose whole text is one token.
	atomic(nodeType string) bool
}

type lowerer struct {
	src   []byte
	unit  *Unit
	rules rules
}

func rulesFor(lang Language) rules {
	switch lang {
	case LangPython:
		return pythonRules{}
	case LangGo:
		return goRules{}
	default:
		return scriptRules{lang: lang}
	}
}

func (l *lowerer) walk(n *sitter.Node, parent *Node) {
	if n == nil {
		return
	}
	if l.rules.lower(l, n, parent) {
		return
	}
	l.walkChildren(n, parent)
}

func (l *lowerer) walkChildren(n *sitter.Node, parent *Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		l.walk(n.NamedChild(i), parent)
	}
}

// walkField lowers the child stored under a grammar field, if any.
func (l *lowerer) walkField(n *sitter.Node, field string, parent *Node) {
	if c := n.ChildByFieldName(field); c != nil {
		l.walk(c, parent)
	}
}

// open creates a structural node spanning n and appends it to parent.
func (l *lowerer) open(kind Kind, n *sitter.Node, parent *Node) *Node {
	node := &Node{
		Kind:      kind,
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
	if parent != nil {
		parent.Children = append(parent.Children, node)
	}
	return node
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(l.src)
}

func (l *lowerer) fieldText(n *sitter.Node, field string) string {
	return l.text(n.ChildByFieldName(field))
}

// call appends a Call node for a callee expression. The hint is derived by
// the caller from the callee's grammar type.
func (l *lowerer) call(n *sitter.Node, callee string, hint CallHint, parent *Node) *Node {
	c := l.open(KindCall, n, parent)
	c.Callee = compact(callee)
	c.Hint = hint
	c.Qualifier, c.Member = splitCallee(c.Callee)
	if hint == HintDynamic {
		c.Qualifier, c.Member = "", ""
	}
	return c
}

// hasOperator reports whether one of n's anonymous children spells op.
func (l *lowerer) hasOperator(n *sitter.Node, ops ...string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || c.IsNamed() {
			continue
		}
		t := c.Type()
		for _, op := range ops {
			if t == op {
				return true
			}
		}
	}
	return false
}

// collectTokens appends every lexical leaf under n in document order.
func (l *lowerer) collectTokens(n *sitter.Node) {
	if n == nil {
		return
	}
	t := n.Type()
	if strings.Contains(t, "comment") {
		return
	}
	if n.ChildCount() == 0 || l.rules.atomic(t) {
		text := l.text(n)
		if text == "" {
			return
		}
		class := TokOperator
		if n.IsNamed() {
			class = l.rules.leafClass(t)
		}
		l.unit.Tokens = append(l.unit.Tokens, Token{Text: text, Class: class, Byte: n.StartByte()})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		l.collectTokens(n.Child(i))
	}
}

// isEmptyBlock reports whether a block holds nothing but the given no-op
// statement types and comments.
func isEmptyBlock(n *sitter.Node, noops ...string) bool {
	if n == nil {
		return true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		t := n.NamedChild(i).Type()
		if strings.Contains(t, "comment") {
			continue
		}
		ok := false
		for _, noop := range noops {
			if t == noop {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
