// Package complexity scores definitions for decision-point complexity,
// cognitive complexity and maintainability.
package complexity

import "codeintel/internal/syntax"

const (
	DefaultComplexityThreshold      = 10
	DefaultMaintainabilityThreshold = 65.0
)

// Options holds the flagging thresholds.
type Options struct {
	// ComplexityThreshold flags definitions whose cyclomatic complexity
	// is strictly greater than this value.
	ComplexityThreshold int `json:"complexityThreshold"`

	// MaintainabilityThreshold flags definitions whose maintainability
	// index is strictly lower than this value.
	MaintainabilityThreshold float64 `json:"maintainabilityThreshold"`
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{
		ComplexityThreshold:      DefaultComplexityThreshold,
		MaintainabilityThreshold: DefaultMaintainabilityThreshold,
	}
}

// ComplexityResult contains complexity metrics for a single definition.
type ComplexityResult struct {
	// DefinitionID is the stable id of the scored definition
	DefinitionID string `json:"definitionId"`

	// Name is the function/method name
	Name string `json:"name"`

	// Path is the file that declares the definition
	Path string `json:"path"`

	// StartLine is the line number where the function starts
	StartLine int `json:"startLine"`

	// EndLine is the line number where the function ends
	EndLine int `json:"endLine"`

	// Cyclomatic is the cyclomatic complexity (decision points + 1)
	Cyclomatic int `json:"cyclomatic"`

	// Cognitive is the cognitive complexity (nested depth weighted)
	Cognitive int `json:"cognitive"`

	// HalsteadVolume is N * log2(n) over the definition's own tokens
	HalsteadVolume float64 `json:"halsteadVolume"`

	// Maintainability is the maintainability index on a 0-100 scale
	Maintainability float64 `json:"maintainability"`

	// Lines is the number of non-blank, non-comment lines
	Lines int `json:"lines"`

	HighComplexity     bool `json:"highComplexity"`
	LowMaintainability bool `json:"lowMaintainability"`
}

// FileComplexity contains complexity metrics for an entire file.
type FileComplexity struct {
	// Path is the file path
	Path string `json:"path"`

	// Language is the detected language
	Language syntax.Language `json:"language"`

	// Functions contains complexity for each function/method
	Functions []ComplexityResult `json:"functions"`

	// Lines is the number of non-blank, non-comment lines in the file
	Lines int `json:"lines"`

	// Maintainability is the maintainability index of the whole file
	Maintainability float64 `json:"maintainability"`

	// TotalCyclomatic is the sum of all function cyclomatic complexities
	TotalCyclomatic int `json:"totalCyclomatic"`

	// TotalCognitive is the sum of all function cognitive complexities
	TotalCognitive int `json:"totalCognitive"`

	// AverageCyclomatic is the average cyclomatic complexity
	AverageCyclomatic float64 `json:"averageCyclomatic"`

	// AverageCognitive is the average cognitive complexity
	AverageCognitive float64 `json:"averageCognitive"`

	// MaxCyclomatic is the highest cyclomatic complexity in the file
	MaxCyclomatic int `json:"maxCyclomatic"`

	// MaxCognitive is the highest cognitive complexity in the file
	MaxCognitive int `json:"maxCognitive"`

	// FunctionCount is the number of functions analyzed
	FunctionCount int `json:"functionCount"`
}

// Aggregate computes aggregate metrics from function results.
func (fc *FileComplexity) Aggregate() {
	fc.FunctionCount = len(fc.Functions)
	fc.TotalCyclomatic, fc.TotalCognitive = 0, 0
	fc.MaxCyclomatic, fc.MaxCognitive = 0, 0
	if fc.FunctionCount == 0 {
		return
	}

	for _, f := range fc.Functions {
		fc.TotalCyclomatic += f.Cyclomatic
		fc.TotalCognitive += f.Cognitive

		if f.Cyclomatic > fc.MaxCyclomatic {
			fc.MaxCyclomatic = f.Cyclomatic
		}
		if f.Cognitive > fc.MaxCognitive {
			fc.MaxCognitive = f.Cognitive
		}
	}

	fc.AverageCyclomatic = float64(fc.TotalCyclomatic) / float64(fc.FunctionCount)
	fc.AverageCognitive = float64(fc.TotalCognitive) / float64(fc.FunctionCount)
}

// Skip records a definition that could not be scored.
type Skip struct {
	DefinitionID string `json:"definitionId"`
	Path         string `json:"path"`
	Reason       string `json:"reason"`
}
