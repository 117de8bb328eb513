// Package report merges the per-stage results of one analysis run into a
// single immutable report keyed by definition id and file path.
package report

import (
	"time"

	"codeintel/internal/complexity"
	"codeintel/internal/deadcode"
	"codeintel/internal/errors"
	"codeintel/internal/graph"
	"codeintel/internal/patterns"
	"codeintel/internal/similarity"
	"codeintel/internal/syntax"
)

// Status tells consumers how far to trust a section.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// DefinitionRef locates a definition for deep-linking.
type DefinitionRef struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Failure is one entry of the failures manifest.
type Failure struct {
	Code         errors.ErrorCode `json:"code"`
	Severity     errors.Severity  `json:"severity"`
	Stage        string           `json:"stage"`
	Path         string           `json:"path,omitempty"`
	Line         int              `json:"line,omitempty"`
	DefinitionID string           `json:"definitionId,omitempty"`
	Definitions  []string         `json:"definitions,omitempty"`
	Message      string           `json:"message"`
}

// StageTiming records how long a pipeline stage took.
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMs int64  `json:"durationMs"`
}

// Summary holds run-wide counts.
type Summary struct {
	Files          int `json:"files"`
	ParsedFiles    int `json:"parsedFiles"`
	FailedFiles    int `json:"failedFiles"`
	Definitions    int `json:"definitions"`
	Functions      int `json:"functions"`
	Classes        int `json:"classes"`
	TotalLines     int `json:"totalLines"`
	ComplexFuncs   int `json:"complexFunctions"`
	OrphanCount    int `json:"orphanCount"`
	AntiPatterns   int `json:"antiPatterns"`
	SimilarPairs   int `json:"similarPairs"`
	FailureEntries int `json:"failures"`
}

// ComplexitySection is the complexity part of the report.
type ComplexitySection struct {
	Status                   Status                        `json:"status"`
	Error                    string                        `json:"error,omitempty"`
	Threshold                int                           `json:"threshold"`
	MaintainabilityThreshold float64                       `json:"maintainabilityThreshold"`
	TotalFunctions           int                           `json:"totalFunctions"`
	AverageComplexity        float64                       `json:"averageComplexity"`
	AverageMaintainability   float64                       `json:"averageMaintainability"`
	ComplexFunctions         int                           `json:"complexFunctions"`
	LowMaintainability       int                           `json:"lowMaintainability"`
	TotalLines               int                           `json:"totalLines"`
	Skipped                  int                           `json:"skipped"`
	Top                      []complexity.ComplexityResult `json:"top"`
	Functions                []complexity.ComplexityResult `json:"functions"`
	Files                    []complexity.FileComplexity   `json:"files"`
}

// OrphanSection is the dead-code part of the report.
type OrphanSection struct {
	Status      Status             `json:"status"`
	Error       string             `json:"error,omitempty"`
	Findings    []deadcode.Finding `json:"findings"`
	Summary     deadcode.Summary   `json:"summary"`
	EntryPoints []string           `json:"entryPoints"`
}

// PatternSection is the control-flow pattern part of the report.
type PatternSection struct {
	Status         Status                   `json:"status"`
	Error          string                   `json:"error,omitempty"`
	Frequency      map[patterns.Tag]int     `json:"frequency"`
	AntiPatterns   []patterns.AntiPattern   `json:"antiPatterns"`
	CommonPatterns []patterns.CommonPattern `json:"commonPatterns"`
	RarePatterns   int                      `json:"rarePatterns"`
	TotalFunctions int                      `json:"totalFunctions"`
	Classes        patterns.ClassStats      `json:"classes"`
	Occurrences    []patterns.Occurrence    `json:"occurrences"`
}

// SimilaritySection is the near-duplicate part of the report.
type SimilaritySection struct {
	Status             Status               `json:"status"`
	Error              string               `json:"error,omitempty"`
	Provider           string               `json:"provider,omitempty"`
	Threshold          float64              `json:"threshold"`
	Method             string               `json:"method,omitempty"`
	Candidates         int                  `json:"candidates"`
	Embedded           int                  `json:"embedded"`
	NotEmbedded        []string             `json:"notEmbedded,omitempty"`
	CacheHits          int                  `json:"cacheHits"`
	Pairs              []similarity.Pair    `json:"pairs"`
	Clusters           []similarity.Cluster `json:"clusters"`
	Assignments        map[string]int       `json:"assignments"`
	K                  int                  `json:"k"`
	Silhouette         float64              `json:"silhouette"`
	Singletons         int                  `json:"singletons"`
	AverageClusterSize float64              `json:"averageClusterSize"`
}

// CallGraphSection summarises resolution.
type CallGraphSection struct {
	Nodes     int              `json:"nodes"`
	Edges     int              `json:"edges"`
	Stats     graph.Stats      `json:"stats"`
	Ambiguous []graph.CallEdge `json:"ambiguous"`
}

// Hotspot is a complex definition weighted by how central it is in the
// call graph.
type Hotspot struct {
	DefinitionID string  `json:"definitionId"`
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	StartLine    int     `json:"startLine"`
	EndLine      int     `json:"endLine"`
	Cyclomatic   int     `json:"cyclomatic"`
	Centrality   float64 `json:"centrality"`
	Score        float64 `json:"score"`
}

// Report is the result of one analysis run.
type Report struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	DurationMs  int64     `json:"durationMs"`
	Version     string    `json:"version,omitempty"`

	Summary     Summary                  `json:"summary"`
	Definitions map[string]DefinitionRef `json:"definitions"`

	Complexity ComplexitySection `json:"complexity"`
	Orphans    OrphanSection     `json:"orphans"`
	Patterns   PatternSection    `json:"patterns"`
	Similarity SimilaritySection `json:"similarity"`
	Hotspots   []Hotspot         `json:"hotspots"`
	CallGraph  CallGraphSection  `json:"callGraph"`

	ParseFailures []*syntax.ParseFailure `json:"parseFailures"`
	Failures      []Failure              `json:"failures"`
	Stages        []StageTiming          `json:"stages"`
}

// Partial reports whether any section is not complete.
func (r *Report) Partial() bool {
	for _, s := range []Status{r.Complexity.Status, r.Orphans.Status, r.Patterns.Status, r.Similarity.Status} {
		if s == StatusPartial || s == StatusFailed {
			return true
		}
	}
	return false
}
