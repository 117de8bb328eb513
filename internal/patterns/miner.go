package patterns

import (
	"sort"
	"strings"

	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// Extract walks a definition body in pre-order and tags every control-flow
// construct. Nested definitions are skipped; lambdas are part of the body.
func Extract(def *symbols.Definition) Occurrence {
	o := Occurrence{
		DefinitionID: def.ID,
		Name:         def.Name,
		Path:         def.Path,
		StartLine:    def.StartLine,
		EndLine:      def.EndLine,
		Sequence:     []Tag{},
		Counts:       make(map[Tag]int),
	}
	if def.Body != nil {
		for _, c := range def.Body.Children {
			o.walk(c, 0, 0)
		}
	}
	return o
}

func (o *Occurrence) walk(n *syntax.Node, branchDepth, loopDepth int) {
	if n.Kind.IsDefinition() {
		return
	}

	var tag Tag
	silent := false
	switch n.Kind {
	case syntax.KindLoop:
		loopDepth++
		tag = TagIterationLoop
		if n.Loop == syntax.LoopConditional {
			tag = TagConditionalLoop
		}
	case syntax.KindBranch:
		if !n.Chained {
			branchDepth++
		}
		tag = TagBranch
	case syntax.KindSwitch:
		branchDepth++
		tag = TagBranch
	case syntax.KindTry:
		tag = TagExceptionGuard
		silent = hasEmptyHandler(n)
	case syntax.KindResource:
		tag = TagResource
	case syntax.KindConcurrency:
		tag = TagConcurrency
	case syntax.KindReturn, syntax.KindRaise:
		o.Exits++
	case syntax.KindCall:
		if n.Hint != syntax.HintReference {
			o.Calls++
		}
	}

	if tag != "" {
		o.Sequence = append(o.Sequence, tag)
		o.Counts[tag]++
		o.Steps = append(o.Steps, Step{
			Tag:         tag,
			Line:        n.StartLine,
			BranchDepth: branchDepth,
			LoopDepth:   loopDepth,
			Silent:      silent,
		})
		if branchDepth > o.MaxBranchDepth {
			o.MaxBranchDepth = branchDepth
		}
		if loopDepth > o.MaxLoopDepth {
			o.MaxLoopDepth = loopDepth
		}
	}

	// A chained arm is a child of the branch it extends, so its own body
	// sits one level below that branch already.
	for _, c := range n.Children {
		o.walk(c, branchDepth, loopDepth)
	}
}

func hasEmptyHandler(try *syntax.Node) bool {
	for _, c := range try.Children {
		if c.Kind == syntax.KindHandler && c.Empty {
			return true
		}
	}
	return false
}

// Miner aggregates occurrences into the pattern section.
type Miner struct {
	opts Options
}

// NewMiner creates a miner. Zero-valued options fall back to defaults.
func NewMiner(opts Options) *Miner {
	def := DefaultOptions()
	if opts.MaxCommon <= 0 {
		opts.MaxCommon = def.MaxCommon
	}
	if opts.MinShare <= 0 {
		opts.MinShare = def.MinShare
	}
	if opts.Rules == nil {
		opts.Rules = def.Rules
	}
	return &Miner{opts: opts}
}

// Check applies every rule to one occurrence.
func (m *Miner) Check(o *Occurrence) []AntiPattern {
	var out []AntiPattern
	for _, r := range m.opts.Rules {
		line, details, ok := r.Match(o)
		if !ok {
			continue
		}
		out = append(out, AntiPattern{
			Rule:         r.Name,
			DefinitionID: o.DefinitionID,
			Name:         o.Name,
			Path:         o.Path,
			Line:         line,
			Severity:     r.Severity,
			Details:      details,
		})
	}
	return out
}

// Summarize builds the global frequency table, the anti-pattern list, the
// common and rare sequences and the class statistics. Occurrences must be
// in definition order for the output to be deterministic.
func (m *Miner) Summarize(occs []Occurrence, table *symbols.Table) *Result {
	res := &Result{
		Occurrences:    occs,
		Frequency:      make(map[Tag]int),
		AntiPatterns:   []AntiPattern{},
		CommonPatterns: []CommonPattern{},
		TotalFunctions: len(occs),
	}

	seqCount := make(map[string]int)
	seqOf := make(map[string][]Tag)
	for i := range occs {
		o := &occs[i]
		for tag, n := range o.Counts {
			res.Frequency[tag] += n
		}
		res.AntiPatterns = append(res.AntiPatterns, m.Check(o)...)

		key := sequenceKey(o.Sequence)
		seqCount[key]++
		if _, ok := seqOf[key]; !ok {
			seqOf[key] = o.Sequence
		}
	}

	for key, count := range seqCount {
		if count == 1 {
			res.RarePatterns++
		}
		if !m.meaningful(seqOf[key], count, len(occs)) {
			continue
		}
		res.CommonPatterns = append(res.CommonPatterns, CommonPattern{
			Sequence:       seqOf[key],
			Count:          count,
			Percentage:     round2(float64(count) / float64(len(occs)) * 100),
			Classification: Classify(seqOf[key]),
		})
	}
	sort.Slice(res.CommonPatterns, func(i, j int) bool {
		a, b := res.CommonPatterns[i], res.CommonPatterns[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return sequenceKey(a.Sequence) < sequenceKey(b.Sequence)
	})
	if len(res.CommonPatterns) > m.opts.MaxCommon {
		res.CommonPatterns = res.CommonPatterns[:m.opts.MaxCommon]
	}

	if table != nil {
		res.Classes = classStats(table)
	}
	return res
}

func (m *Miner) meaningful(seq []Tag, count, total int) bool {
	if len(seq) <= 1 {
		return false
	}
	return total == 0 || float64(count)/float64(total) >= m.opts.MinShare
}

// Classify names the purpose a tag sequence suggests.
func Classify(seq []Tag) string {
	counts := make(map[Tag]int)
	for _, t := range seq {
		counts[t]++
	}
	switch {
	case counts[TagExceptionGuard] >= 2:
		return ClassDefensive
	case counts[TagBranch] > 10:
		return ClassHighComplexity
	case counts[TagIterationLoop]+counts[TagConditionalLoop] > 3:
		return ClassLoopHeavy
	case counts[TagConcurrency] > 0:
		return ClassConcurrent
	default:
		return ClassStandard
	}
}

// constructors are the method names that initialise an instance.
var constructors = map[string]bool{
	"__init__":    true,
	"__new__":     true,
	"constructor": true,
}

func classStats(table *symbols.Table) ClassStats {
	var stats ClassStats
	methods := 0
	goCtors := make(map[string]bool)
	for _, d := range table.Definitions() {
		if d.Kind == symbols.KindFunction && d.Language == syntax.LangGo && strings.HasPrefix(d.Name, "New") {
			goCtors[d.Module+"."+strings.TrimPrefix(d.Name, "New")] = true
		}
	}
	for _, d := range table.Definitions() {
		if d.Kind != symbols.KindClass {
			continue
		}
		stats.Total++
		members := table.Members(d)
		methods += len(members)
		ctor := goCtors[d.Module+"."+d.Name]
		for _, mem := range members {
			if constructors[mem.Name] {
				ctor = true
			}
		}
		if ctor {
			stats.WithConstructor++
		}
	}
	if stats.Total > 0 {
		stats.AverageMethods = round2(float64(methods) / float64(stats.Total))
	}
	return stats
}

func sequenceKey(seq []Tag) string {
	parts := make([]string, len(seq))
	for i, t := range seq {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
