package testutil

import (
	"strings"

	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// Func builds a function node spanning lines start..end.
func Func(name string, start, end int, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindFunction, Name: name, StartLine: start, EndLine: end, Children: children}
}

// Method builds a Go method with a receiver.
func Method(recv, recvVar, name string, start, end int, children ...*syntax.Node) *syntax.Node {
	n := Func(name, start, end, children...)
	n.Receiver, n.RecvVar = recv, recvVar
	n.Exported = name != "" && name[0] >= 'A' && name[0] <= 'Z'
	return n
}

// Class builds a class node.
func Class(name string, start, end int, bases []string, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindClass, Name: name, StartLine: start, EndLine: end, Bases: bases, Children: children}
}

// Call builds a call node. Callees containing a dot are attribute calls.
func Call(callee string, line int, children ...*syntax.Node) *syntax.Node {
	hint := syntax.HintDirect
	if strings.Contains(callee, ".") {
		hint = syntax.HintAttribute
	}
	return call(callee, hint, line, children)
}

// Ref builds a reference to a name used as a value.
func Ref(name string, line int) *syntax.Node {
	return call(name, syntax.HintReference, line, nil)
}

// Dynamic builds a call through a computed expression.
func Dynamic(expr string, line int) *syntax.Node {
	n := call(expr, syntax.HintDynamic, line, nil)
	n.Qualifier, n.Member = "", ""
	return n
}

func call(callee string, hint syntax.CallHint, line int, children []*syntax.Node) *syntax.Node {
	q, m := "", callee
	if i := strings.LastIndexByte(callee, '.'); i >= 0 {
		q, m = callee[:i], callee[i+1:]
	}
	return &syntax.Node{
		Kind:      syntax.KindCall,
		Callee:    callee,
		Qualifier: q,
		Member:    m,
		Hint:      hint,
		StartLine: line,
		EndLine:   line,
		Children:  children,
	}
}

// Node builds a structural node starting at line. Its end line covers its
// children.
func Node(kind syntax.Kind, line int, children ...*syntax.Node) *syntax.Node {
	n := &syntax.Node{Kind: kind, StartLine: line, EndLine: line, Children: children}
	for _, c := range children {
		if c.EndLine > n.EndLine {
			n.EndLine = c.EndLine
		}
	}
	return n
}

// Loop builds a loop node of the given kind.
func Loop(kind syntax.LoopKind, line int, children ...*syntax.Node) *syntax.Node {
	n := Node(syntax.KindLoop, line, children...)
	n.Loop = kind
	return n
}

// Handler builds an exception handler, empty when it has no children.
func Handler(line int, children ...*syntax.Node) *syntax.Node {
	n := Node(syntax.KindHandler, line, children...)
	n.Empty = len(children) == 0
	return n
}

// Unit wraps top-level nodes into a source unit. The language and module
// come from the path.
func Unit(path string, children ...*syntax.Node) *syntax.Unit {
	lang, _ := syntax.LanguageFromPath(path)
	end := 1
	for _, c := range children {
		if c.EndLine > end {
			end = c.EndLine
		}
	}
	return &syntax.Unit{
		Path:     path,
		Language: lang,
		Module:   syntax.ModuleName(path, lang),
		Lines:    end,
		Root:     &syntax.Node{Kind: syntax.KindModule, StartLine: 1, EndLine: end, Children: children},
	}
}

// Table indexes units and merges them into a symbol table.
func Table(units ...*syntax.Unit) *symbols.Table {
	files := make([]*symbols.FileIndex, len(units))
	for i, u := range units {
		files[i] = symbols.Index(u)
	}
	return symbols.NewTable(files)
}
