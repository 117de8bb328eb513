package graph

import (
	"context"
	"fmt"
	"sort"
)

// PPROptions configures Personalized PageRank computation.
type PPROptions struct {
	// Damping is the probability of following an edge vs teleporting (default: 0.85)
	Damping float64

	// MaxIterations is the maximum number of power iterations (default: 30)
	MaxIterations int

	// Tolerance for convergence detection (default: 1e-6)
	Tolerance float64

	// TopK limits the results; 0 returns every node with a positive score.
	TopK int

	// IncludePaths records a call path from a seed to each result.
	IncludePaths bool
}

// DefaultPPROptions returns the defaults used for hotspot ranking.
func DefaultPPROptions() PPROptions {
	return PPROptions{
		Damping:       0.85,
		MaxIterations: 30,
		Tolerance:     1e-6,
	}
}

// PPRResult represents a ranked node from PPR computation.
type PPRResult struct {
	NodeID string   `json:"nodeId"`
	Score  float64  `json:"score"`
	Path   []string `json:"path,omitempty"`
}

// PPROutput contains the full PPR computation result.
type PPROutput struct {
	Results    []PPRResult `json:"results"`
	Iterations int         `json:"iterations"`
	Converged  bool        `json:"converged"`
	SeedNodes  []string    `json:"seedNodes"`
	TotalNodes int         `json:"totalNodes"`
	TotalEdges int         `json:"totalEdges"`
}

// PPR computes Personalized PageRank from the seed nodes. Edge weights are
// call counts, so a callee invoked from many sites receives more mass.
// Mass at nodes without outgoing edges returns to the seeds.
func (g *Graph) PPR(ctx context.Context, seeds []string, opts PPROptions) (*PPROutput, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed nodes provided")
	}
	n := len(g.nodes)
	out := &PPROutput{Results: []PPRResult{}, TotalNodes: n, TotalEdges: g.NumEdges()}
	if n == 0 {
		out.SeedNodes = seeds
		return out, nil
	}

	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 30
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}

	seedSet := make(map[int]bool, len(seeds))
	for _, s := range seeds {
		if idx, ok := g.nodeIdx[s]; ok && !seedSet[idx] {
			seedSet[idx] = true
			out.SeedNodes = append(out.SeedNodes, s)
		}
	}
	if len(seedSet) == 0 {
		out.SeedNodes = seeds
		return out, nil
	}

	teleport := make([]float64, n)
	for idx := range seedSet {
		teleport[idx] = 1.0 / float64(len(seedSet))
	}
	scores := make([]float64, n)
	copy(scores, teleport)

	outDegree := make([]float64, n)
	for i, edges := range g.outEdges {
		for _, e := range edges {
			outDegree[i] += e.weight
		}
	}

	next := make([]float64, n)
	for iter := range opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Iterations = iter + 1

		dangling := 0.0
		for i := range next {
			next[i] = 0
		}
		for i, edges := range g.outEdges {
			if outDegree[i] == 0 {
				dangling += scores[i]
				continue
			}
			contrib := scores[i] / outDegree[i]
			for _, e := range edges {
				next[e.target] += contrib * e.weight
			}
		}

		maxDiff := 0.0
		for i := range next {
			next[i] = opts.Damping*(next[i]+dangling*teleport[i]) + (1-opts.Damping)*teleport[i]
			if d := abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores

		if maxDiff < opts.Tolerance {
			out.Converged = true
			break
		}
	}

	type scoredNode struct {
		idx   int
		score float64
	}
	ranked := make([]scoredNode, 0, n)
	for i, s := range scores {
		if s > 0 {
			ranked = append(ranked, scoredNode{idx: i, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return g.nodes[ranked[i].idx] < g.nodes[ranked[j].idx]
	})
	if opts.TopK > 0 && len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}

	out.Results = make([]PPRResult, len(ranked))
	for i, sn := range ranked {
		r := PPRResult{NodeID: g.nodes[sn.idx], Score: sn.score}
		if opts.IncludePaths && !seedSet[sn.idx] {
			r.Path = g.backtrackPath(sn.idx, seedSet, 8)
		}
		out.Results[i] = r
	}
	return out, nil
}

// backtrackPath follows the heaviest incoming edges from target until it
// meets a seed, then returns the path seed-first.
func (g *Graph) backtrackPath(target int, seedSet map[int]bool, maxDepth int) []string {
	path := []string{g.nodes[target]}
	visited := map[int]bool{target: true}
	current := target

	for range maxDepth {
		bestPrev, bestWeight := -1, 0.0
		for _, e := range g.inEdges[current] {
			if !visited[e.target] && e.weight > bestWeight {
				bestPrev, bestWeight = e.target, e.weight
			}
		}
		if bestPrev < 0 {
			break
		}
		path = append(path, g.nodes[bestPrev])
		visited[bestPrev] = true
		if seedSet[bestPrev] {
			break
		}
		current = bestPrev
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
