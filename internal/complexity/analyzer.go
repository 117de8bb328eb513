package complexity

import (
	"bytes"
	"math"

	"codeintel/internal/errors"
	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// Analyzer scores definitions against a pair of thresholds. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates a new complexity analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Scored reports whether a definition kind receives a complexity record.
// Class bodies hold declarations, not control flow.
func Scored(def *symbols.Definition) bool {
	return def.Kind == symbols.KindFunction || def.Kind == symbols.KindMethod
}

// AnalyzeDefinition scores one function or method. Nested definitions are
// excluded from the enclosing score; lambdas are included. A definition
// with an inverted range or no body yields a METRIC_SKIPPED error.
func (a *Analyzer) AnalyzeDefinition(def *symbols.Definition, unit *syntax.Unit) (ComplexityResult, error) {
	if def.Body == nil {
		return ComplexityResult{}, errors.Newf(errors.MetricSkipped, "%s has no body", def.ID)
	}
	if def.EndLine < def.StartLine || def.EndByte < def.StartByte {
		return ComplexityResult{}, errors.Newf(errors.MetricSkipped, "%s has an inverted range %d-%d", def.ID, def.StartLine, def.EndLine)
	}

	cyclomatic := Cyclomatic(def.Body)
	lines := def.LOC()
	var volume float64
	if unit != nil {
		lines = codeLines(unit, def.StartLine, def.EndLine)
		volume = HalsteadVolume(ownTokens(unit, def.Body))
	}

	r := ComplexityResult{
		DefinitionID:    def.ID,
		Name:            def.Name,
		Path:            def.Path,
		StartLine:       def.StartLine,
		EndLine:         def.EndLine,
		Cyclomatic:      cyclomatic,
		Cognitive:       Cognitive(def.Body),
		HalsteadVolume:  volume,
		Maintainability: MaintainabilityIndex(volume, cyclomatic, lines),
		Lines:           lines,
	}
	r.HighComplexity = r.Cyclomatic > a.opts.ComplexityThreshold
	r.LowMaintainability = r.Maintainability < a.opts.MaintainabilityThreshold
	return r, nil
}

// AnalyzeFile scores every function and method of an indexed file and
// computes the file-level metrics. Definitions that cannot be scored are
// returned as skips and left out of the aggregate.
func (a *Analyzer) AnalyzeFile(file *symbols.FileIndex) (*FileComplexity, []Skip) {
	fc := &FileComplexity{
		Path:      file.Path,
		Language:  file.Language,
		Functions: []ComplexityResult{},
	}
	var skips []Skip
	for _, def := range file.Definitions {
		if !Scored(def) {
			continue
		}
		r, err := a.AnalyzeDefinition(def, file.Unit)
		if err != nil {
			skips = append(skips, Skip{DefinitionID: def.ID, Path: def.Path, Reason: err.Error()})
			continue
		}
		fc.Functions = append(fc.Functions, r)
	}
	fc.Aggregate()
	if file.Unit != nil {
		fc.Lines, fc.Maintainability = fileMetrics(file.Unit)
	}
	return fc, skips
}

// fileMetrics treats the whole module as one body: every decision point in
// the file and every token count toward the index.
func fileMetrics(unit *syntax.Unit) (int, float64) {
	lines := codeLines(unit, 1, unit.Lines)
	decisions := 0
	syntax.Walk(unit.Root, func(n *syntax.Node) bool {
		if isDecision(n) {
			decisions++
		}
		return true
	})
	return lines, MaintainabilityIndex(HalsteadVolume(unit.Tokens), decisions+1, lines)
}

// Cyclomatic returns 1 plus the decision points of a definition body:
// branches (including chained arms), case clauses, loops, exception
// handlers, boolean operators and ternaries.
func Cyclomatic(def *syntax.Node) int {
	complexity := 1
	syntax.WalkBody(def, func(n *syntax.Node) {
		if isDecision(n) {
			complexity++
		}
	})
	return complexity
}

func isDecision(n *syntax.Node) bool {
	switch n.Kind {
	case syntax.KindBranch, syntax.KindCase, syntax.KindLoop, syntax.KindHandler,
		syntax.KindBoolOp, syntax.KindTernary:
		return true
	}
	return false
}

// Cognitive returns the cognitive complexity of a definition body.
// Structural constructs cost 1 plus their nesting level; chained branch
// arms and boolean operators cost a flat 1 and do not nest.
func Cognitive(def *syntax.Node) int {
	if def == nil {
		return 0
	}
	total := 0
	for _, c := range def.Children {
		total += cognitive(c, 0)
	}
	return total
}

func cognitive(n *syntax.Node, nesting int) int {
	if n.Kind.IsDefinition() {
		return 0
	}
	complexity := 0
	childNesting := nesting

	switch n.Kind {
	case syntax.KindBranch:
		if n.Chained {
			// The arm sits inside its parent branch; its body keeps the
			// parent's level.
			complexity++
			childNesting = nesting - 1
		} else {
			complexity += 1 + nesting
		}
		childNesting++
	case syntax.KindSwitch, syntax.KindLoop, syntax.KindHandler, syntax.KindTernary:
		complexity += 1 + nesting
		childNesting++
	case syntax.KindBoolOp:
		complexity++
	case syntax.KindLambda:
		childNesting++
	}

	for _, c := range n.Children {
		complexity += cognitive(c, childNesting)
	}
	return complexity
}

// MaintainabilityIndex returns the Visual Studio normalised index
// max(0, min(100, (171 - 5.2 ln V - 0.23 G - 16.2 ln LOC) * 100 / 171)).
// V and LOC below 1 are treated as 1.
func MaintainabilityIndex(volume float64, cyclomatic, lines int) float64 {
	v := math.Max(volume, 1)
	loc := math.Max(float64(lines), 1)
	mi := (171 - 5.2*math.Log(v) - 0.23*float64(cyclomatic) - 16.2*math.Log(loc)) * 100 / 171
	return math.Max(0, math.Min(100, mi))
}

// HalsteadVolume returns N * log2(n) where N is the total number of
// operators and operands and n the number of distinct ones.
func HalsteadVolume(tokens []syntax.Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	operators := make(map[string]struct{})
	operands := make(map[string]struct{})
	for _, tok := range tokens {
		if tok.Class == syntax.TokOperator {
			operators[tok.Text] = struct{}{}
		} else {
			operands[tok.Text] = struct{}{}
		}
	}
	vocabulary := len(operators) + len(operands)
	if vocabulary < 2 {
		return 0
	}
	return float64(len(tokens)) * math.Log2(float64(vocabulary))
}

// ownTokens returns the tokens of a definition minus those of nested
// definitions. Lambdas keep their tokens.
func ownTokens(unit *syntax.Unit, def *syntax.Node) []syntax.Token {
	all := unit.TokensIn(def.StartByte, def.EndByte)
	var holes [][2]uint32
	var collect func(*syntax.Node)
	collect = func(n *syntax.Node) {
		for _, c := range n.Children {
			if c.Kind.IsDefinition() {
				holes = append(holes, [2]uint32{c.StartByte, c.EndByte})
				continue
			}
			collect(c)
		}
	}
	collect(def)
	if len(holes) == 0 {
		return all
	}

	out := make([]syntax.Token, 0, len(all))
	h := 0
	for _, tok := range all {
		for h < len(holes) && tok.Byte >= holes[h][1] {
			h++
		}
		if h < len(holes) && tok.Byte >= holes[h][0] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// codeLines counts the non-blank lines in [start, end] that hold more than
// a comment. Without source text the plain span is returned.
func codeLines(unit *syntax.Unit, start, end int) int {
	if len(unit.Source) == 0 {
		if end < start {
			return 0
		}
		return end - start + 1
	}
	prefixes := commentPrefixes(unit.Language)
	count := 0
	line := 1
	for _, raw := range bytes.SplitAfter(unit.Source, []byte{'\n'}) {
		if line > end {
			break
		}
		if line >= start && isCode(bytes.TrimSpace(raw), prefixes) {
			count++
		}
		line++
	}
	return count
}

func isCode(line []byte, commentPrefixes [][]byte) bool {
	if len(line) == 0 {
		return false
	}
	for _, p := range commentPrefixes {
		if bytes.HasPrefix(line, p) {
			return false
		}
	}
	return true
}

var (
	hashComments  = [][]byte{[]byte("#")}
	slashComments = [][]byte{[]byte("//"), []byte("/*")}
)

func commentPrefixes(lang syntax.Language) [][]byte {
	if lang == syntax.LangPython {
		return hashComments
	}
	return slashComments
}
