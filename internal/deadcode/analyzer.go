package deadcode

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"codeintel/internal/graph"
	"codeintel/internal/slogutil"
	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// Analyzer detects orphan definitions by reachability from entry points.
type Analyzer struct {
	opts   Options
	rules  *Rules
	logger *slog.Logger
}

// NewAnalyzer creates an orphan detector. It fails on malformed patterns.
func NewAnalyzer(opts Options, logger *slog.Logger) (*Analyzer, error) {
	rules, err := NewRules(opts)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		opts:   opts,
		rules:  rules,
		logger: slogutil.Component(logger, "deadcode"),
	}, nil
}

// Analyze computes reachability over resolved edges and reports every
// definition that is neither reached nor exempt.
func (a *Analyzer) Analyze(ctx context.Context, table *symbols.Table, cg *graph.CallGraph) (*Result, error) {
	result := &Result{
		Findings: []Finding{},
		Summary: Summary{
			TotalDefinitions: table.Len(),
			ByKind:           make(map[string]int),
			ByCategory:       make(map[string]int),
		},
	}

	seeds, exempt := a.roots(table, result)

	// Candidates of an ambiguous call from live code may be the real
	// target, and classes kept alive by their methods run their bodies;
	// both seed further traversal until nothing changes.
	potential := make(map[string]bool)
	var live map[string]bool
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reachable := cg.Reachable(seeds)
		grown := false
		for _, e := range cg.Ambiguous() {
			if !reachable[e.Caller] {
				continue
			}
			for _, c := range e.Candidates {
				if !reachable[c] && !potential[c] {
					potential[c] = true
					seeds = append(seeds, c)
					grown = true
				}
			}
		}
		if grown {
			continue
		}
		live = a.liveness(table, reachable)
		for id := range live {
			if !reachable[id] {
				seeds = append(seeds, id)
				grown = true
			}
		}
		if !grown {
			break
		}
	}
	result.Summary.PotentiallyUsed = len(potential)

	orphan := make(map[string]bool)
	for _, def := range table.Definitions() {
		if !live[def.ID] && !exempt[def.ID] {
			orphan[def.ID] = true
		}
	}

	for _, def := range table.Definitions() {
		if !orphan[def.ID] {
			continue
		}
		// Reported through the enclosing orphan.
		if orphan[def.Parent] {
			continue
		}
		result.Findings = append(result.Findings, a.classify(def, cg, orphan))
	}

	sort.SliceStable(result.Findings, func(i, j int) bool {
		fi, fj := result.Findings[i], result.Findings[j]
		if fi.Confidence != fj.Confidence {
			return fi.Confidence > fj.Confidence
		}
		if fi.Path != fj.Path {
			return fi.Path < fj.Path
		}
		return fi.StartLine < fj.StartLine
	})

	a.summarize(result)

	a.logger.Debug("orphan analysis completed",
		"definitions", table.Len(),
		"entryPoints", len(result.EntryPoints),
		"exempted", len(result.Exemptions),
		"potentiallyUsed", len(potential),
		"orphans", len(result.Findings),
	)
	return result, nil
}

// roots collects the entry points and exempt definitions. Both seed the
// traversal.
func (a *Analyzer) roots(table *symbols.Table, result *Result) ([]string, map[string]bool) {
	var seeds []string
	exempt := make(map[string]bool)

	for _, fi := range table.Files() {
		id := symbols.ModuleScopeID(fi.Path)
		seeds = append(seeds, id)
		result.EntryPoints = append(result.EntryPoints, id)
	}

	for _, fi := range table.Files() {
		public := publicAPI(fi)
		for _, def := range fi.Definitions {
			switch {
			case a.rules.EntryPoint(def) != "":
				seeds = append(seeds, def.ID)
				result.EntryPoints = append(result.EntryPoints, def.ID)
			case a.opts.TopLevelEntryPoints && def.TopLevel() && def.Kind != symbols.KindMethod:
				seeds = append(seeds, def.ID)
				result.EntryPoints = append(result.EntryPoints, def.ID)
			case a.opts.PublicAPIExempt && public(def):
				exempt[def.ID] = true
				seeds = append(seeds, def.ID)
				result.Exemptions = append(result.Exemptions, Exemption{DefinitionID: def.ID, Reason: "declared public API"})
			default:
				if reason := a.rules.ShouldExclude(def); reason != "" {
					exempt[def.ID] = true
					seeds = append(seeds, def.ID)
					result.Exemptions = append(result.Exemptions, Exemption{DefinitionID: def.ID, Reason: reason})
				}
			}
		}
	}
	return seeds, exempt
}

// publicAPI returns a predicate for the declared public surface of a file:
// an explicit export list when there is one, exported top-level names for
// Go library packages and the JavaScript family.
func publicAPI(fi *symbols.FileIndex) func(*symbols.Definition) bool {
	if fi.HasPublicAPI {
		names := make(map[string]bool, len(fi.PublicAPI))
		for _, n := range fi.PublicAPI {
			names[n] = true
		}
		return func(d *symbols.Definition) bool {
			if fi.Language == syntax.LangPython {
				return d.TopLevel() && names[d.Name]
			}
			return d.Exported || (d.TopLevel() && names[d.Name])
		}
	}
	switch {
	case fi.Language == syntax.LangGo && (fi.Unit == nil || fi.Unit.Package != "main"):
		return func(d *symbols.Definition) bool { return d.Exported && !d.Nested }
	case fi.Language.IsScript():
		return func(d *symbols.Definition) bool { return d.Exported }
	}
	return func(*symbols.Definition) bool { return false }
}

// liveness extends plain reachability with the class rules: a class is live
// when it or one of its methods is reached or when it is an ancestor of a
// live class, and a method overriding a reached ancestor method is live
// through dynamic dispatch.
func (a *Analyzer) liveness(table *symbols.Table, reachable map[string]bool) map[string]bool {
	live := make(map[string]bool, len(reachable))
	for id := range reachable {
		live[id] = true
	}

	var classes []*symbols.Definition
	for _, def := range table.Definitions() {
		if def.Kind == symbols.KindClass {
			classes = append(classes, def)
		}
	}

	for _, cls := range classes {
		for _, anc := range table.Ancestors(cls) {
			for _, m := range table.Members(cls) {
				if live[m.ID] {
					continue
				}
				if am := table.Method(anc, m.Name); am != nil && reachable[am.ID] {
					live[m.ID] = true
				}
			}
		}
	}

	for _, cls := range classes {
		if live[cls.ID] {
			continue
		}
		for _, m := range table.Members(cls) {
			if live[m.ID] {
				live[cls.ID] = true
				break
			}
		}
	}

	for _, cls := range classes {
		if !live[cls.ID] {
			continue
		}
		for _, anc := range table.Ancestors(cls) {
			live[anc.ID] = true
		}
	}
	return live
}

func (a *Analyzer) classify(def *symbols.Definition, cg *graph.CallGraph, orphan map[string]bool) Finding {
	f := Finding{
		DefinitionID:  def.ID,
		Name:          def.Name,
		QualifiedName: def.QualifiedName,
		Kind:          string(def.Kind),
		Path:          def.Path,
		StartLine:     def.StartLine,
		EndLine:       def.EndLine,
		Exported:      def.Exported,
	}

	var callers []string
	for _, c := range cg.Callers(def.ID) {
		n := cg.CallCount(c, def.ID)
		if c == def.ID || strings.HasPrefix(c, def.ID+".") {
			f.SelfReferences += n
			continue
		}
		f.ReferenceCount += n
		callers = append(callers, c)
	}

	switch {
	case len(callers) > 0:
		f.Category = CategoryUnreachable
		f.Reason = fmt.Sprintf("Called only from unreachable code (%d callers)", len(callers))
	case f.SelfReferences > 0:
		f.Category = CategorySelfOnly
		f.Reason = "Only referenced by itself (recursive but never called)"
	default:
		f.Category = CategoryUnreferenced
		f.Reason = "No references found"
	}
	f.Confidence = confidence[f.Category]
	return f
}

func (a *Analyzer) summarize(result *Result) {
	s := &result.Summary
	s.OrphanCount = len(result.Findings)
	s.EntryPoints = len(result.EntryPoints)
	s.Exempted = len(result.Exemptions)
	if s.TotalDefinitions > 0 {
		s.OrphanPercent = float64(s.OrphanCount) / float64(s.TotalDefinitions) * 100
	}
	for _, f := range result.Findings {
		s.ByKind[f.Kind]++
		s.ByCategory[string(f.Category)]++
		s.EstimatedLines += f.EndLine - f.StartLine + 1
	}
}
