package graph

import (
	"context"
	"log/slog"

	"codeintel/internal/slogutil"
	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// CallEdge is one call site after resolution. Every call site is kept, so
// the edge list is a multigraph.
type CallEdge struct {
	Caller     string          `json:"caller"`
	Callee     string          `json:"callee,omitempty"`
	Candidates []string        `json:"candidates,omitempty"`
	Status     Status          `json:"status"`
	Reason     string          `json:"reason,omitempty"`
	Expr       string          `json:"expr"`
	Hint       syntax.CallHint `json:"hint"`
	Path       string          `json:"path"`
	Line       int             `json:"line"`
}

// Stats counts call sites by resolution status. Dropped counts unresolved
// value references, which are not call sites.
type Stats struct {
	Resolved  int `json:"resolved"`
	Ambiguous int `json:"ambiguous"`
	Dangling  int `json:"dangling"`
	Dropped   int `json:"dropped"`
}

// CallGraph is the resolved call graph of one run.
type CallGraph struct {
	table *symbols.Table
	edges []CallEdge
	graph *Graph
	stats Stats
}

// Build resolves every call site in the table. The table must be complete;
// resolution needs every file's definitions.
func Build(ctx context.Context, table *symbols.Table, logger *slog.Logger) (*CallGraph, error) {
	logger = slogutil.Component(logger, "graph")
	cg := &CallGraph{table: table, graph: NewGraph()}
	for _, fi := range table.Files() {
		cg.graph.AddNode(symbols.ModuleScopeID(fi.Path))
	}
	for _, d := range table.Definitions() {
		cg.graph.AddNode(d.ID)
	}

	resolver := NewResolver(table)
	for _, fi := range table.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, cs := range fi.Calls {
			res := resolver.Resolve(cs)
			if cs.Hint == syntax.HintReference && res.Status == StatusDangling {
				cg.stats.Dropped++
				continue
			}
			e := CallEdge{
				Caller: cs.CallerID(),
				Status: res.Status,
				Reason: res.Reason,
				Expr:   cs.Callee,
				Hint:   cs.Hint,
				Path:   cs.Path,
				Line:   cs.Line,
			}
			switch res.Status {
			case StatusResolved:
				e.Callee = res.Targets[0]
				kind := KindCall
				if cs.Hint == syntax.HintReference {
					kind = KindReference
				}
				cg.graph.AddEdge(e.Caller, e.Callee, kind)
				cg.stats.Resolved++
			case StatusAmbiguous:
				e.Candidates = res.Targets
				cg.stats.Ambiguous++
				logger.Debug("ambiguous call",
					"path", cs.Path,
					"line", cs.Line,
					"callee", cs.Callee,
					"candidates", len(res.Targets),
				)
			default:
				cg.stats.Dangling++
			}
			cg.edges = append(cg.edges, e)
		}
	}
	return cg, nil
}

// Edges returns every call edge in source order.
func (cg *CallGraph) Edges() []CallEdge {
	return cg.edges
}

// Ambiguous returns the ambiguous edges.
func (cg *CallGraph) Ambiguous() []CallEdge {
	var out []CallEdge
	for _, e := range cg.edges {
		if e.Status == StatusAmbiguous {
			out = append(out, e)
		}
	}
	return out
}

// Stats returns resolution counts.
func (cg *CallGraph) Stats() Stats {
	return cg.stats
}

// Graph exposes the collapsed graph of resolved edges.
func (cg *CallGraph) Graph() *Graph {
	return cg.graph
}

// Reachable returns every definition reachable from the seeds over
// resolved edges.
func (cg *CallGraph) Reachable(seeds []string) map[string]bool {
	return cg.graph.Reachable(seeds)
}

// Callers returns the distinct resolved callers of a definition.
func (cg *CallGraph) Callers(id string) []string {
	return cg.graph.Predecessors(id)
}

// Callees returns the distinct resolved callees of a definition.
func (cg *CallGraph) Callees(id string) []string {
	return cg.graph.Successors(id)
}

// CallCount returns the number of resolved call sites from one definition
// to another.
func (cg *CallGraph) CallCount(from, to string) int {
	return cg.graph.Count(from, to)
}

// Rank scores definitions by personalized PageRank seeded at the entry
// points. Module pseudo-nodes are excluded from the result.
func (cg *CallGraph) Rank(ctx context.Context, seeds []string) (map[string]float64, error) {
	if len(seeds) == 0 {
		return map[string]float64{}, nil
	}
	out, err := cg.graph.PPR(ctx, seeds, DefaultPPROptions())
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(out.Results))
	for _, r := range out.Results {
		if symbols.IsModuleScope(r.NodeID) {
			continue
		}
		scores[r.NodeID] = r.Score
	}
	return scores, nil
}
