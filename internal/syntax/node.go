package syntax

// Kind classifies a structural node. Grammar nodes that carry no structure
// are elided during lowering and their structural descendants are lifted
// into the nearest structural ancestor.
type Kind uint8

const (
	KindModule Kind = iota
	KindFunction
	KindClass
	KindLambda
	KindBranch
	KindSwitch
	KindCase
	KindLoop
	KindTry
	KindHandler
	KindResource
	KindConcurrency
	KindBoolOp
	KindTernary
	KindCall
	KindReturn
	KindRaise
)

var kindNames = [...]string{
	KindModule:      "module",
	KindFunction:    "function",
	KindClass:       "class",
	KindLambda:      "lambda",
	KindBranch:      "branch",
	KindSwitch:      "switch",
	KindCase:        "case",
	KindLoop:        "loop",
	KindTry:         "try",
	KindHandler:     "handler",
	KindResource:    "resource",
	KindConcurrency: "concurrency",
	KindBoolOp:      "boolop",
	KindTernary:     "ternary",
	KindCall:        "call",
	KindReturn:      "return",
	KindRaise:       "raise",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsDefinition reports whether nodes of this kind become symbol table entries.
func (k Kind) IsDefinition() bool {
	return k == KindFunction || k == KindClass
}

// LoopKind separates loops driven by a collection or counter from loops
// driven by a condition.
type LoopKind uint8

const (
	LoopIteration LoopKind = iota
	LoopConditional
)

// CallHint records the syntactic shape of a callee expression.
type CallHint string

const (
	// HintDirect is a bare name: f()
	HintDirect CallHint = "direct"
	// HintAttribute is a member access: obj.f(), pkg.F()
	HintAttribute CallHint = "attribute"
	// HintDynamic is anything else: f()(), fns[i](), getattr(o, n)()
	HintDynamic CallHint = "dynamic"
	// HintReference is a name used as a value (callback argument,
	// decorator, composite literal type). Unresolved references are dropped.
	HintReference CallHint = "reference"
)

// Node is one element of the language-neutral structural tree.
type Node struct {
	Kind      Kind
	StartLine int // 1-based
	EndLine   int // 1-based, inclusive
	StartByte uint32
	EndByte   uint32
	Children  []*Node

	// Function and Class
	Name       string
	Decorators []string
	Bases      []string
	Receiver   string // Go method receiver type name
	RecvVar    string // Go method receiver variable
	Async      bool
	Exported   bool
	Accessor   bool // getter/setter reached through attribute access

	// Loop
	Loop LoopKind

	// Branch: an elif / else-if arm. Chained branches do not add nesting.
	Chained bool

	// Handler: body performs no work (pass, empty block, bare recover()).
	Empty bool

	// Call
	Callee    string // literal callee expression
	Qualifier string // everything before the final member, "" for direct calls
	Member    string // final identifier of the callee
	Hint      CallHint
}

// Lines returns the inclusive line span of the node.
func (n *Node) Lines() int {
	if n == nil || n.EndLine < n.StartLine {
		return 0
	}
	return n.EndLine - n.StartLine + 1
}

// Walk visits n and its descendants in pre-order. If fn returns false the
// children of that node are skipped.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// WalkBody visits the descendants of a definition node without entering
// nested definitions. Lambdas belong to their enclosing definition and are
// entered. Nested definition nodes themselves are not visited.
func WalkBody(def *Node, fn func(*Node)) {
	if def == nil {
		return
	}
	var visit func(*Node)
	visit = func(n *Node) {
		for _, c := range n.Children {
			if c.Kind.IsDefinition() {
				continue
			}
			fn(c)
			visit(c)
		}
	}
	visit(def)
}
