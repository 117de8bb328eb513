package patterns

import "fmt"

// Rule is a declarative check over one occurrence. Match returns the line
// to report and a human-readable detail when the rule fires.
type Rule struct {
	Name     string
	Severity string
	Match    func(o *Occurrence) (line int, details string, ok bool)
}

// Rule names
const (
	RuleDeepNesting   = "deep-nesting"
	RuleSilentSwallow = "silent-swallow"
	RuleBranchHeavy   = "branch-heavy"
	RuleNestedLoops   = "nested-loops"
	RuleMissingReturn = "missing-return"
)

const (
	maxBranchDepth  = 4
	maxBranches     = 5
	nestedLoopDepth = 3
)

// DefaultRules returns the built-in anti-pattern rules.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleDeepNesting, Severity: SeverityHigh, Match: deepNesting},
		{Name: RuleSilentSwallow, Severity: SeverityHigh, Match: silentSwallow},
		{Name: RuleBranchHeavy, Severity: SeverityMedium, Match: branchHeavy},
		{Name: RuleNestedLoops, Severity: SeverityMedium, Match: nestedLoops},
		{Name: RuleMissingReturn, Severity: SeverityLow, Match: missingReturn},
	}
}

func deepNesting(o *Occurrence) (int, string, bool) {
	for _, s := range o.Steps {
		if s.BranchDepth > maxBranchDepth {
			return s.Line, fmt.Sprintf("Branches nested %d deep.", o.MaxBranchDepth), true
		}
	}
	return 0, "", false
}

func silentSwallow(o *Occurrence) (int, string, bool) {
	for _, s := range o.Steps {
		if s.Tag == TagExceptionGuard && s.Silent {
			return s.Line, "Exception handler discards the error without acting on it.", true
		}
	}
	return 0, "", false
}

func branchHeavy(o *Occurrence) (int, string, bool) {
	if n := o.Count(TagBranch); n > maxBranches {
		return o.StartLine, fmt.Sprintf("Function has %d branches.", n), true
	}
	return 0, "", false
}

func nestedLoops(o *Occurrence) (int, string, bool) {
	for _, s := range o.Steps {
		if s.Tag.IsLoop() && s.LoopDepth >= nestedLoopDepth {
			return s.Line, fmt.Sprintf("Loops nested %d deep.", o.MaxLoopDepth), true
		}
	}
	return 0, "", false
}

// missingReturn fires on bodies that neither exit explicitly nor delegate
// to another call.
func missingReturn(o *Occurrence) (int, string, bool) {
	if o.Exits == 0 && o.Calls == 0 {
		return o.StartLine, "Function has no explicit return statement.", true
	}
	return 0, "", false
}
