// Package patterns classifies the control-flow motifs of each definition
// into tag sequences, counts them across the codebase and applies
// anti-pattern rules over the sequences.
package patterns

// Tag is one control-flow motif.
type Tag string

const (
	TagIterationLoop   Tag = "iteration-loop"
	TagConditionalLoop Tag = "conditional-loop"
	TagBranch          Tag = "branch"
	TagExceptionGuard  Tag = "exception-guard"
	TagResource        Tag = "scoped-resource-acquisition"
	TagConcurrency     Tag = "concurrency-primitive"
)

// Tags lists every tag in a stable order.
func Tags() []Tag {
	return []Tag{TagIterationLoop, TagConditionalLoop, TagBranch, TagExceptionGuard, TagResource, TagConcurrency}
}

// IsLoop reports whether the tag marks either kind of loop.
func (t Tag) IsLoop() bool {
	return t == TagIterationLoop || t == TagConditionalLoop
}

// Step is one tagged construct in a definition's sequence.
type Step struct {
	Tag  Tag `json:"tag"`
	Line int `json:"line"`

	// BranchDepth counts the branch constructs enclosing this step,
	// including the step itself when it is a branch. Chained arms share
	// the depth of the branch they extend.
	BranchDepth int `json:"branchDepth"`

	// LoopDepth counts the loops enclosing this step, including itself.
	LoopDepth int `json:"loopDepth"`

	// Silent marks an exception guard with at least one empty handler.
	Silent bool `json:"silent,omitempty"`
}

// Occurrence is the tag sequence mined from one definition.
type Occurrence struct {
	DefinitionID string      `json:"definitionId"`
	Name         string      `json:"name"`
	Path         string      `json:"path"`
	StartLine    int         `json:"startLine"`
	EndLine      int         `json:"endLine"`
	Sequence     []Tag       `json:"sequence"`
	Counts       map[Tag]int `json:"counts"`
	Steps        []Step      `json:"-"`

	MaxBranchDepth int `json:"maxBranchDepth"`
	MaxLoopDepth   int `json:"maxLoopDepth"`

	// Exits counts return and raise statements; Calls counts invocations.
	// Neither looks inside nested definitions.
	Exits int `json:"-"`
	Calls int `json:"-"`
}

// Count returns how many times a tag occurs in the sequence.
func (o *Occurrence) Count(tag Tag) int {
	return o.Counts[tag]
}

// Severity constants
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// AntiPattern is a rule violation found in one definition.
type AntiPattern struct {
	Rule         string `json:"rule"`
	DefinitionID string `json:"definitionId"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Line         int    `json:"line"`
	Severity     string `json:"severity"`
	Details      string `json:"details"`
}

// Classification constants for common sequences.
const (
	ClassDefensive      = "defensive"
	ClassHighComplexity = "high-complexity"
	ClassLoopHeavy      = "loop-heavy"
	ClassConcurrent     = "concurrent"
	ClassStandard       = "standard"
)

// CommonPattern is a tag sequence shared by several definitions.
type CommonPattern struct {
	Sequence       []Tag   `json:"sequence"`
	Count          int     `json:"count"`
	Percentage     float64 `json:"percentage"`
	Classification string  `json:"classification"`
}

// ClassStats summarises class shapes.
type ClassStats struct {
	Total           int     `json:"total"`
	AverageMethods  float64 `json:"averageMethods"`
	WithConstructor int     `json:"withConstructor"`
}

// Options configures the miner.
type Options struct {
	// MaxCommon caps the number of common sequences reported.
	MaxCommon int
	// MinShare drops sequences shared by less than this fraction of
	// definitions.
	MinShare float64
	// Rules are evaluated against every occurrence in order.
	Rules []Rule
}

// DefaultOptions returns the default miner configuration.
func DefaultOptions() Options {
	return Options{
		MaxCommon: 20,
		MinShare:  0.005,
		Rules:     DefaultRules(),
	}
}

// Result is the pattern section of an analysis.
type Result struct {
	Occurrences    []Occurrence    `json:"occurrences"`
	Frequency      map[Tag]int     `json:"frequency"`
	AntiPatterns   []AntiPattern   `json:"antiPatterns"`
	CommonPatterns []CommonPattern `json:"commonPatterns"`
	RarePatterns   int             `json:"rarePatterns"`
	TotalFunctions int             `json:"totalFunctions"`
	Classes        ClassStats      `json:"classes"`
}
