package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"codeintel/internal/complexity"
	"codeintel/internal/deadcode"
	"codeintel/internal/embedding"
	"codeintel/internal/errors"
	"codeintel/internal/graph"
	"codeintel/internal/patterns"
	"codeintel/internal/similarity"
	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

const (
	DefaultTopN     = 10
	DefaultHotspots = 10
)

// Input is everything the upstream stages produced. A nil stage result
// with a nil error means the stage did not run.
type Input struct {
	RunID       string
	GeneratedAt time.Time
	Duration    time.Duration
	Version     string
	Files       int
	TopN        int
	Hotspots    int

	Table         *symbols.Table
	CallGraph     *graph.CallGraph
	Centrality    map[string]float64
	ParseFailures []*syntax.ParseFailure

	ComplexityOptions complexity.Options
	Complexity        []*complexity.FileComplexity
	ComplexitySkips   []complexity.Skip
	ComplexityErr     error

	Orphans    *deadcode.Result
	OrphansErr error

	Patterns    *patterns.Result
	PatternsErr error

	SimilarityThreshold float64
	Provider            string
	Candidates          int
	Embeddings          *embedding.Result
	Similarity          *similarity.Result
	SimilarityErr       error
	// SimilaritySkipReason explains a similarity stage that did not run.
	SimilaritySkipReason string

	Stages []StageTiming
}

// Build merges the stage results into a report. It never fails: missing
// or failed stages are recorded in their section status and in the
// failures manifest.
func Build(in Input) *Report {
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now().UTC()
	}
	if in.TopN <= 0 {
		in.TopN = DefaultTopN
	}
	if in.Hotspots <= 0 {
		in.Hotspots = DefaultHotspots
	}

	r := &Report{
		RunID:         in.RunID,
		GeneratedAt:   in.GeneratedAt,
		DurationMs:    in.Duration.Milliseconds(),
		Version:       in.Version,
		Definitions:   make(map[string]DefinitionRef),
		Hotspots:      []Hotspot{},
		ParseFailures: []*syntax.ParseFailure{},
		Failures:      []Failure{},
		Stages:        in.Stages,
	}
	if r.Stages == nil {
		r.Stages = []StageTiming{}
	}

	r.definitions(in)
	r.parseFailures(in)
	r.complexity(in)
	r.orphans(in)
	r.patterns(in)
	r.similarity(in)
	r.callGraph(in)
	r.hotspots(in)
	r.summarize(in)
	return r
}

func (r *Report) definitions(in Input) {
	if in.Table == nil {
		return
	}
	for _, d := range in.Table.Definitions() {
		r.Definitions[d.ID] = DefinitionRef{
			Name:      d.Name,
			Kind:      string(d.Kind),
			Path:      d.Path,
			StartLine: d.StartLine,
			EndLine:   d.EndLine,
		}
	}
}

func (r *Report) fail(code errors.ErrorCode, stage string, f Failure) {
	f.Code = code
	f.Severity = errors.SeverityOf(code)
	f.Stage = stage
	r.Failures = append(r.Failures, f)
}

func (r *Report) parseFailures(in Input) {
	failures := append([]*syntax.ParseFailure(nil), in.ParseFailures...)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	for _, pf := range failures {
		r.ParseFailures = append(r.ParseFailures, pf)
		r.fail(errors.ParseFailure, "extract", Failure{
			Path:    pf.Path,
			Line:    pf.Line,
			Message: fmt.Sprintf("%s: %s", pf.Kind, pf.Message),
		})
	}
}

func (r *Report) complexity(in Input) {
	sec := &r.Complexity
	sec.Threshold = in.ComplexityOptions.ComplexityThreshold
	sec.MaintainabilityThreshold = in.ComplexityOptions.MaintainabilityThreshold
	sec.Top = []complexity.ComplexityResult{}
	sec.Functions = []complexity.ComplexityResult{}
	sec.Files = []complexity.FileComplexity{}

	if in.ComplexityErr != nil {
		sec.Status = StatusFailed
		sec.Error = in.ComplexityErr.Error()
		r.fail(codeOr(in.ComplexityErr, errors.InternalError), "complexity", Failure{Message: sec.Error})
		return
	}
	if in.Complexity == nil {
		sec.Status = StatusSkipped
		return
	}

	var miTotal float64
	for _, fc := range in.Complexity {
		sec.Files = append(sec.Files, *fc)
		sec.TotalLines += fc.Lines
		for _, f := range fc.Functions {
			sec.Functions = append(sec.Functions, f)
			miTotal += f.Maintainability
			if f.HighComplexity {
				sec.ComplexFunctions++
			}
			if f.LowMaintainability {
				sec.LowMaintainability++
			}
		}
	}
	sort.Slice(sec.Files, func(i, j int) bool { return sec.Files[i].Path < sec.Files[j].Path })
	sort.Slice(sec.Functions, func(i, j int) bool { return sec.Functions[i].DefinitionID < sec.Functions[j].DefinitionID })

	sec.TotalFunctions = len(sec.Functions)
	if sec.TotalFunctions > 0 {
		total := 0
		for _, f := range sec.Functions {
			total += f.Cyclomatic
		}
		sec.AverageComplexity = round2(float64(total) / float64(sec.TotalFunctions))
		sec.AverageMaintainability = round2(miTotal / float64(sec.TotalFunctions))
	}

	top := append([]complexity.ComplexityResult(nil), sec.Functions...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Cyclomatic > top[j].Cyclomatic })
	sec.Top = top[:min(in.TopN, len(top))]

	sec.Skipped = len(in.ComplexitySkips)
	sec.Status = StatusComplete
	if sec.Skipped > 0 {
		sec.Status = StatusPartial
	}
	for _, s := range in.ComplexitySkips {
		r.fail(errors.MetricSkipped, "complexity", Failure{
			Path:         s.Path,
			DefinitionID: s.DefinitionID,
			Message:      s.Reason,
		})
	}
}

func (r *Report) orphans(in Input) {
	sec := &r.Orphans
	sec.Findings = []deadcode.Finding{}
	sec.EntryPoints = []string{}

	switch {
	case in.OrphansErr != nil:
		sec.Status = StatusFailed
		sec.Error = in.OrphansErr.Error()
		r.fail(codeOr(in.OrphansErr, errors.InternalError), "orphans", Failure{Message: sec.Error})
		return
	case in.Orphans == nil:
		sec.Status = StatusSkipped
		return
	}
	sec.Status = StatusComplete
	sec.Findings = append(sec.Findings, in.Orphans.Findings...)
	sec.Summary = in.Orphans.Summary
	sec.EntryPoints = append(sec.EntryPoints, in.Orphans.EntryPoints...)
}

func (r *Report) patterns(in Input) {
	sec := &r.Patterns
	sec.Frequency = map[patterns.Tag]int{}
	sec.AntiPatterns = []patterns.AntiPattern{}
	sec.CommonPatterns = []patterns.CommonPattern{}
	sec.Occurrences = []patterns.Occurrence{}

	switch {
	case in.PatternsErr != nil:
		sec.Status = StatusFailed
		sec.Error = in.PatternsErr.Error()
		r.fail(codeOr(in.PatternsErr, errors.InternalError), "patterns", Failure{Message: sec.Error})
		return
	case in.Patterns == nil:
		sec.Status = StatusSkipped
		return
	}
	p := in.Patterns
	sec.Status = StatusComplete
	for tag, n := range p.Frequency {
		sec.Frequency[tag] = n
	}
	sec.AntiPatterns = append(sec.AntiPatterns, p.AntiPatterns...)
	sec.CommonPatterns = append(sec.CommonPatterns, p.CommonPatterns...)
	sec.Occurrences = append(sec.Occurrences, p.Occurrences...)
	sec.RarePatterns = p.RarePatterns
	sec.TotalFunctions = p.TotalFunctions
	sec.Classes = p.Classes
}

func (r *Report) similarity(in Input) {
	sec := &r.Similarity
	sec.Provider = in.Provider
	sec.Threshold = in.SimilarityThreshold
	sec.Candidates = in.Candidates
	sec.Pairs = []similarity.Pair{}
	sec.Clusters = []similarity.Cluster{}
	sec.Assignments = map[string]int{}

	if in.Embeddings != nil {
		sec.CacheHits = in.Embeddings.CacheHits
		for _, f := range in.Embeddings.Failures {
			sec.NotEmbedded = append(sec.NotEmbedded, f.IDs...)
			r.fail(errors.EmbeddingUnavailable, "similarity", Failure{
				Definitions: f.IDs,
				Message:     f.Err.Error(),
			})
		}
		sort.Strings(sec.NotEmbedded)
	}

	switch {
	case in.SimilarityErr != nil:
		sec.Status = StatusFailed
		sec.Error = in.SimilarityErr.Error()
		r.fail(codeOr(in.SimilarityErr, errors.EmbeddingUnavailable), "similarity", Failure{Message: sec.Error})
		return
	case in.Similarity == nil:
		sec.Status = StatusSkipped
		sec.Error = in.SimilaritySkipReason
		return
	}

	s := in.Similarity
	sec.Method = s.Method
	sec.Embedded = s.Embedded
	sec.Pairs = append(sec.Pairs, s.Pairs...)
	sec.Clusters = append(sec.Clusters, s.Clusters...)
	for id, c := range s.Assignments {
		sec.Assignments[id] = c
	}
	sec.K = s.K
	sec.Silhouette = s.Silhouette
	sec.Singletons = s.Singletons
	sec.AverageClusterSize = round2(s.AverageClusterSize)

	sec.Status = StatusComplete
	if len(sec.NotEmbedded) > 0 {
		sec.Status = StatusPartial
	}
}

func (r *Report) callGraph(in Input) {
	sec := &r.CallGraph
	sec.Ambiguous = []graph.CallEdge{}
	if in.CallGraph == nil {
		return
	}
	g := in.CallGraph.Graph()
	sec.Nodes = g.NumNodes()
	sec.Edges = g.NumEdges()
	sec.Stats = in.CallGraph.Stats()
	sec.Ambiguous = append(sec.Ambiguous, in.CallGraph.Ambiguous()...)
	if n := len(sec.Ambiguous); n > 0 {
		r.fail(errors.ResolutionAmbiguity, "graph", Failure{
			Message: fmt.Sprintf("%d call sites matched more than one definition", n),
		})
	}
}

// hotspots ranks functions by cyclomatic complexity scaled by their
// normalised centrality: score = cyclomatic * (1 + centrality / max).
func (r *Report) hotspots(in Input) {
	var maxRank float64
	for _, v := range in.Centrality {
		maxRank = math.Max(maxRank, v)
	}

	var all []Hotspot
	for _, f := range r.Complexity.Functions {
		c := 0.0
		if maxRank > 0 {
			c = in.Centrality[f.DefinitionID] / maxRank
		}
		all = append(all, Hotspot{
			DefinitionID: f.DefinitionID,
			Name:         f.Name,
			Path:         f.Path,
			StartLine:    f.StartLine,
			EndLine:      f.EndLine,
			Cyclomatic:   f.Cyclomatic,
			Centrality:   round4(c),
			Score:        round2(float64(f.Cyclomatic) * (1 + c)),
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].DefinitionID < all[j].DefinitionID
	})
	r.Hotspots = append(r.Hotspots, all[:min(in.Hotspots, len(all))]...)
}

func (r *Report) summarize(in Input) {
	s := &r.Summary
	s.Files = in.Files
	s.FailedFiles = len(r.ParseFailures)
	s.ParsedFiles = in.Files - s.FailedFiles
	s.Definitions = len(r.Definitions)
	for _, d := range r.Definitions {
		if d.Kind == string(symbols.KindClass) {
			s.Classes++
		} else {
			s.Functions++
		}
	}
	s.TotalLines = r.Complexity.TotalLines
	s.ComplexFuncs = r.Complexity.ComplexFunctions
	s.OrphanCount = len(r.Orphans.Findings)
	s.AntiPatterns = len(r.Patterns.AntiPatterns)
	s.SimilarPairs = len(r.Similarity.Pairs)
	s.FailureEntries = len(r.Failures)
}

func codeOr(err error, fallback errors.ErrorCode) errors.ErrorCode {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return fallback
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
