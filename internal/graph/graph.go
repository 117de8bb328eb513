// Package graph resolves call sites into a call graph and runs reachability
// and centrality over it.
package graph

// EdgeKind distinguishes an invocation from a name used as a value.
type EdgeKind string

const (
	KindCall      EdgeKind = "call"
	KindReference EdgeKind = "reference"
)

// Graph is a sparse directed graph with one entry per (from, to) pair.
// Repeated edges between the same pair increase its weight, so the graph
// keeps call frequency while adjacency stays collapsed.
type Graph struct {
	nodes   []string
	nodeIdx map[string]int

	outEdges [][]edgeEntry
	inEdges  [][]edgeEntry
	pairIdx  map[[2]int]int // (src, dst) -> position in outEdges[src]
	kinds    map[[2]int]EdgeKind
}

type edgeEntry struct {
	target int
	weight float64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeIdx: make(map[string]int),
		pairIdx: make(map[[2]int]int),
		kinds:   make(map[[2]int]EdgeKind),
	}
}

// AddNode adds a node if it doesn't exist and returns its index.
func (g *Graph) AddNode(id string) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIdx[id] = idx
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	return idx
}

// AddEdge records one occurrence of src -> dst. A call occurrence upgrades
// a pair previously seen only as a reference.
func (g *Graph) AddEdge(src, dst string, kind EdgeKind) {
	s := g.AddNode(src)
	d := g.AddNode(dst)
	pair := [2]int{s, d}
	if pos, ok := g.pairIdx[pair]; ok {
		g.outEdges[s][pos].weight++
		for i := range g.inEdges[d] {
			if g.inEdges[d][i].target == s {
				g.inEdges[d][i].weight++
				break
			}
		}
		if kind == KindCall {
			g.kinds[pair] = KindCall
		}
		return
	}
	g.pairIdx[pair] = len(g.outEdges[s])
	g.outEdges[s] = append(g.outEdges[s], edgeEntry{target: d, weight: 1})
	g.inEdges[d] = append(g.inEdges[d], edgeEntry{target: s, weight: 1})
	g.kinds[pair] = kind
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the number of distinct (from, to) pairs.
func (g *Graph) NumEdges() int {
	return len(g.pairIdx)
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

// Count returns how many times from -> to was recorded.
func (g *Graph) Count(from, to string) int {
	s, ok1 := g.nodeIdx[from]
	d, ok2 := g.nodeIdx[to]
	if !ok1 || !ok2 {
		return 0
	}
	pos, ok := g.pairIdx[[2]int{s, d}]
	if !ok {
		return 0
	}
	return int(g.outEdges[s][pos].weight)
}

// Kind returns the kind of the edge between two nodes, "" if absent.
func (g *Graph) Kind(from, to string) EdgeKind {
	s, ok1 := g.nodeIdx[from]
	d, ok2 := g.nodeIdx[to]
	if !ok1 || !ok2 {
		return ""
	}
	return g.kinds[[2]int{s, d}]
}

// Successors returns the distinct targets of a node in insertion order.
func (g *Graph) Successors(id string) []string {
	return g.neighbors(id, g.outEdges)
}

// Predecessors returns the distinct sources pointing at a node.
func (g *Graph) Predecessors(id string) []string {
	return g.neighbors(id, g.inEdges)
}

func (g *Graph) neighbors(id string, adj [][]edgeEntry) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	out := make([]string, len(adj[idx]))
	for i, e := range adj[idx] {
		out[i] = g.nodes[e.target]
	}
	return out
}

// Reachable runs a breadth-first traversal from the seeds and returns every
// visited node, seeds included. Unknown seeds are ignored.
func (g *Graph) Reachable(seeds []string) map[string]bool {
	visited := make(map[string]bool, len(seeds))
	seen := make([]bool, len(g.nodes))
	queue := make([]int, 0, len(seeds))
	for _, s := range seeds {
		idx, ok := g.nodeIdx[s]
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		queue = append(queue, idx)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited[g.nodes[cur]] = true
		for _, e := range g.outEdges[cur] {
			if !seen[e.target] {
				seen[e.target] = true
				queue = append(queue, e.target)
			}
		}
	}
	return visited
}
