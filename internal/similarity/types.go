// Package similarity finds near-duplicate definitions by cosine similarity
// of their embeddings and partitions them into clusters.
package similarity

import "fmt"

const (
	DefaultThreshold                 = 0.85
	DefaultANNThreshold              = 2000
	DefaultMaxClusters               = 10
	DefaultClusterHeuristicThreshold = 200
	DefaultSeed                      = 42
	PreviewLength                    = 200
)

// Vector is the embedding of one definition.
type Vector struct {
	ID     string
	Values []float32
}

// Options configures pair search and clustering.
type Options struct {
	// Threshold keeps pairs with cosine similarity >= Threshold.
	Threshold float64
	// ANNThreshold switches from exhaustive comparison to LSH above this
	// many vectors.
	ANNThreshold int
	MaxClusters  int
	// ClusterHeuristicThreshold switches from k = ceil(sqrt n) to a
	// silhouette search above this many vectors.
	ClusterHeuristicThreshold int
	Seed                      int64
}

// DefaultOptions returns the default similarity configuration.
func DefaultOptions() Options {
	return Options{
		Threshold:                 DefaultThreshold,
		ANNThreshold:              DefaultANNThreshold,
		MaxClusters:               DefaultMaxClusters,
		ClusterHeuristicThreshold: DefaultClusterHeuristicThreshold,
		Seed:                      DefaultSeed,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.Threshold < -1 || o.Threshold > 1 {
		return fmt.Errorf("similarity threshold %v outside [-1, 1]", o.Threshold)
	}
	if o.MaxClusters < 1 {
		return fmt.Errorf("max clusters must be at least 1, got %d", o.MaxClusters)
	}
	if o.ANNThreshold < 0 || o.ClusterHeuristicThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	return nil
}

// Pair is two definitions whose embeddings are close. A < B.
type Pair struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
	// Cluster is the shared cluster id, or -1 when A and B were placed in
	// different clusters.
	Cluster  int    `json:"cluster"`
	PreviewA string `json:"previewA,omitempty"`
	PreviewB string `json:"previewB,omitempty"`
}

// Cluster is one partition of the embedded definitions.
type Cluster struct {
	ID      int      `json:"id"`
	Members []string `json:"members"`
	Size    int      `json:"size"`
}

// Search methods
const (
	MethodExact = "exact"
	MethodLSH   = "lsh"
)

// Result is the similarity section of an analysis.
type Result struct {
	Pairs              []Pair         `json:"pairs"`
	Clusters           []Cluster      `json:"clusters"`
	Assignments        map[string]int `json:"assignments"`
	K                  int            `json:"k"`
	Silhouette         float64        `json:"silhouette"`
	Singletons         int            `json:"singletons"`
	AverageClusterSize float64        `json:"averageClusterSize"`
	Method             string         `json:"method"`
	Embedded           int            `json:"embedded"`
}
