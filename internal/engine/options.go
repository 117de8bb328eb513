package engine

import (
	"fmt"
	"runtime"
	"time"

	"codeintel/internal/complexity"
	"codeintel/internal/deadcode"
	"codeintel/internal/embedding"
	"codeintel/internal/errors"
	"codeintel/internal/report"
	"codeintel/internal/similarity"
	"codeintel/internal/syntax"
)

// DefaultMinTokens is the smallest definition, in lexical tokens, that is
// worth embedding.
const DefaultMinTokens = 10

// Options tunes one analysis run.
type Options struct {
	// Worker pool
	Workers      int
	ParseTimeout time.Duration

	// Complexity
	ComplexityThreshold      int
	MaintainabilityThreshold float64

	// Orphans
	EntryPointPatterns  []string
	ExemptionPatterns   []string
	DecoratorPatterns   []string
	PublicAPIExempt     bool
	TopLevelEntryPoints bool

	// Similarity
	SimilarityThreshold       float64
	MaxClusters               int
	ANNThreshold              int
	ClusterHeuristicThreshold int
	Seed                      int64
	MinTokens                 int

	// Embedding batches
	BatchSize    int
	MaxInFlight  int
	EmbedTimeout time.Duration

	// Report
	TopN     int
	Hotspots int
	Version  string
}

// DefaultOptions returns the default run configuration.
func DefaultOptions() Options {
	dc := deadcode.DefaultOptions()
	return Options{
		Workers:                   runtime.GOMAXPROCS(0),
		ParseTimeout:              syntax.DefaultParseTimeout,
		ComplexityThreshold:       complexity.DefaultComplexityThreshold,
		MaintainabilityThreshold:  complexity.DefaultMaintainabilityThreshold,
		EntryPointPatterns:        dc.EntryPointPatterns,
		ExemptionPatterns:         dc.ExemptionPatterns,
		DecoratorPatterns:         dc.DecoratorPatterns,
		PublicAPIExempt:           dc.PublicAPIExempt,
		SimilarityThreshold:       similarity.DefaultThreshold,
		MaxClusters:               similarity.DefaultMaxClusters,
		ANNThreshold:              similarity.DefaultANNThreshold,
		ClusterHeuristicThreshold: similarity.DefaultClusterHeuristicThreshold,
		Seed:                      similarity.DefaultSeed,
		MinTokens:                 DefaultMinTokens,
		BatchSize:                 embedding.DefaultBatchSize,
		MaxInFlight:               embedding.DefaultMaxInFlight,
		EmbedTimeout:              embedding.DefaultTimeout,
		TopN:                      report.DefaultTopN,
		Hotspots:                  report.DefaultHotspots,
	}
}

// Validate checks option ranges. Every violation is a CONFIGURATION_ERROR.
func (o Options) Validate() error {
	var problem string
	switch {
	case o.Workers < 0:
		problem = fmt.Sprintf("workers must not be negative, got %d", o.Workers)
	case o.ParseTimeout < 0:
		problem = "parse timeout must not be negative"
	case o.ComplexityThreshold < 1:
		problem = fmt.Sprintf("complexity threshold must be at least 1, got %d", o.ComplexityThreshold)
	case o.MaintainabilityThreshold < 0 || o.MaintainabilityThreshold > 100:
		problem = fmt.Sprintf("maintainability threshold %v outside [0, 100]", o.MaintainabilityThreshold)
	case o.MinTokens < 0:
		problem = "min tokens must not be negative"
	case o.BatchSize < 0 || o.MaxInFlight < 0 || o.EmbedTimeout < 0:
		problem = "embedding batch settings must not be negative"
	case o.TopN < 0 || o.Hotspots < 0:
		problem = "report limits must not be negative"
	}
	if problem != "" {
		return errors.New(errors.ConfigurationError, problem, nil)
	}
	if err := o.similarity().Validate(); err != nil {
		return errors.New(errors.ConfigurationError, err.Error(), err)
	}
	if _, err := deadcode.NewRules(o.deadcode()); err != nil {
		return errors.New(errors.ConfigurationError, "invalid entry point or exemption pattern", err)
	}
	return nil
}

func (o Options) complexity() complexity.Options {
	return complexity.Options{
		ComplexityThreshold:      o.ComplexityThreshold,
		MaintainabilityThreshold: o.MaintainabilityThreshold,
	}
}

func (o Options) deadcode() deadcode.Options {
	return deadcode.Options{
		EntryPointPatterns:  o.EntryPointPatterns,
		ExemptionPatterns:   o.ExemptionPatterns,
		DecoratorPatterns:   o.DecoratorPatterns,
		PublicAPIExempt:     o.PublicAPIExempt,
		TopLevelEntryPoints: o.TopLevelEntryPoints,
	}
}

func (o Options) similarity() similarity.Options {
	return similarity.Options{
		Threshold:                 o.SimilarityThreshold,
		ANNThreshold:              o.ANNThreshold,
		MaxClusters:               o.MaxClusters,
		ClusterHeuristicThreshold: o.ClusterHeuristicThreshold,
		Seed:                      o.Seed,
	}
}

func (o Options) batches() embedding.BatchOptions {
	return embedding.BatchOptions{
		BatchSize:   o.BatchSize,
		MaxInFlight: o.MaxInFlight,
		Timeout:     o.EmbedTimeout,
	}
}
