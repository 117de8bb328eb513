package graph

import "testing"

func TestGraphCollapsesRepeatedEdges(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b", KindReference)
	g.AddEdge("a", "b", KindCall)
	g.AddEdge("a", "b", KindCall)

	if g.NumEdges() != 1 {
		t.Errorf("NumEdges = %d, want 1", g.NumEdges())
	}
	if got := g.Count("a", "b"); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
	if got := g.Kind("a", "b"); got != KindCall {
		t.Errorf("Kind = %q, want call", got)
	}
	if got := g.Predecessors("b"); len(got) != 1 || got[0] != "a" {
		t.Errorf("Predecessors = %v, want [a]", got)
	}
}

func TestGraphReachable(t *testing.T) {
	g := NewGraph()
	g.AddEdge("main", "a", KindCall)
	g.AddEdge("a", "b", KindCall)
	g.AddEdge("b", "a", KindCall)
	g.AddNode("island")

	got := g.Reachable([]string{"main", "missing"})
	for _, id := range []string{"main", "a", "b"} {
		if !got[id] {
			t.Errorf("%s should be reachable", id)
		}
	}
	if got["island"] || got["missing"] {
		t.Errorf("unexpected reachable set %v", got)
	}
}

func TestGraphReachabilityMonotonic(t *testing.T) {
	edges := [][2]string{
		{"main", "a"}, {"a", "b"}, {"c", "d"}, {"b", "e"}, {"main", "c"}, {"e", "f"},
	}
	g := NewGraph()
	for _, n := range []string{"main", "a", "b", "c", "d", "e", "f"} {
		g.AddNode(n)
	}
	prev := g.Reachable([]string{"main"})
	for _, e := range edges {
		g.AddEdge(e[0], e[1], KindCall)
		next := g.Reachable([]string{"main"})
		for id := range prev {
			if !next[id] {
				t.Fatalf("adding %v removed %s from the reachable set", e, id)
			}
		}
		prev = next
	}
	if len(prev) != 7 {
		t.Errorf("reachable = %d, want 7", len(prev))
	}
}
