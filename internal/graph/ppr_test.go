package graph

import (
	"context"
	"strconv"
	"testing"
)

func TestPPRBasic(t *testing.T) {
	// A -> B -> C, A -> D, B -> D
	g := NewGraph()
	g.AddEdge("A", "B", KindCall)
	g.AddEdge("B", "C", KindCall)
	g.AddEdge("A", "D", KindReference)
	g.AddEdge("B", "D", KindCall)

	result, err := g.PPR(context.Background(), []string{"A"}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	if len(result.Results) != 4 {
		t.Fatalf("results = %d, want 4", len(result.Results))
	}
	if result.Results[0].NodeID != "A" {
		t.Errorf("top result = %s, want seed A", result.Results[0].NodeID)
	}
	if result.TotalNodes != 4 || result.TotalEdges != 4 {
		t.Errorf("nodes/edges = %d/%d, want 4/4", result.TotalNodes, result.TotalEdges)
	}
	sum := 0.0
	for _, r := range result.Results {
		sum += r.Score
	}
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("scores sum to %v, want 1", sum)
	}
}

func TestPPRCallCountWeighting(t *testing.T) {
	g := NewGraph()
	g.AddEdge("main", "hot", KindCall)
	g.AddEdge("main", "hot", KindCall)
	g.AddEdge("main", "hot", KindCall)
	g.AddEdge("main", "cold", KindCall)

	result, err := g.PPR(context.Background(), []string{"main"}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	scores := map[string]float64{}
	for _, r := range result.Results {
		scores[r.NodeID] = r.Score
	}
	if scores["hot"] <= scores["cold"] {
		t.Errorf("hot = %v, cold = %v; want hot > cold", scores["hot"], scores["cold"])
	}
}

func TestPPREmptySeeds(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", KindCall)

	if _, err := g.PPR(context.Background(), nil, DefaultPPROptions()); err == nil {
		t.Error("expected error for empty seeds")
	}
}

func TestPPRNonexistentSeeds(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", KindCall)

	result, err := g.PPR(context.Background(), []string{"X", "Y"}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("results = %d, want 0 for nonexistent seeds", len(result.Results))
	}
}

func TestPPRPathBacktracking(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", KindCall)
	g.AddEdge("B", "C", KindCall)
	g.AddEdge("C", "D", KindCall)

	opts := DefaultPPROptions()
	opts.IncludePaths = true
	result, err := g.PPR(context.Background(), []string{"A"}, opts)
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	for _, r := range result.Results {
		if r.NodeID != "D" {
			continue
		}
		want := []string{"A", "B", "C", "D"}
		if len(r.Path) != len(want) {
			t.Fatalf("path = %v, want %v", r.Path, want)
		}
		for i := range want {
			if r.Path[i] != want[i] {
				t.Errorf("path = %v, want %v", r.Path, want)
				break
			}
		}
	}
}

func TestPPRCancelled(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", KindCall)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.PPR(ctx, []string{"A"}, DefaultPPROptions()); err == nil {
		t.Error("expected cancellation error")
	}
}

func BenchmarkPPR(b *testing.B) {
	g := NewGraph()
	numNodes := 1000
	for i := range numNodes {
		for j := 1; j <= 5; j++ {
			g.AddEdge("node_"+strconv.Itoa(i), "node_"+strconv.Itoa((i+j)%numNodes), KindCall)
		}
	}
	opts := DefaultPPROptions()
	opts.TopK = 20

	b.ResetTimer()
	for range b.N {
		_, _ = g.PPR(context.Background(), []string{"node_0"}, opts)
	}
}
