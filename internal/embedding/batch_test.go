package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeintel/internal/errors"
)

// fakeEmbedder returns a vector derived from the text length. Texts
// containing "fail" fail their batch; texts containing "wide" get an
// extra dimension.
type fakeEmbedder struct {
	dim      int
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) Name() string   { return "fake" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(t, "fail") {
			return nil, fmt.Errorf("provider down")
		}
		dim := f.dim
		if strings.Contains(t, "wide") {
			dim++
		}
		v := make([]float32, dim)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}

func items(texts ...string) []Item {
	out := make([]Item, len(texts))
	for i, t := range texts {
		out[i] = Item{ID: fmt.Sprintf("a.py#f%d", i), Text: t}
	}
	return out
}

func TestRunnerDegradesFailedBatch(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	r := NewRunner(emb, nil, BatchOptions{BatchSize: 2}, nil)

	res, err := r.Run(context.Background(), items("aa", "bb", "fail", "cc", "dd"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Embedded() != 3 {
		t.Errorf("Embedded = %d, want 3", res.Embedded())
	}
	if res.Vectors[2] != nil || res.Vectors[3] != nil {
		t.Error("members of the failed batch should have no vector")
	}
	if len(res.Failures) != 1 {
		t.Fatalf("Failures = %v, want 1", res.Failures)
	}
	f := res.Failures[0]
	if len(f.IDs) != 2 || f.IDs[0] != "a.py#f2" || f.IDs[1] != "a.py#f3" {
		t.Errorf("failed IDs = %v", f.IDs)
	}
	if f.Err.Code != errors.EmbeddingUnavailable {
		t.Errorf("code = %s, want EMBEDDING_UNAVAILABLE", f.Err.Code)
	}
}

func TestRunnerRejectsWrongDimension(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	r := NewRunner(emb, nil, BatchOptions{BatchSize: 1}, nil)

	res, err := r.Run(context.Background(), items("aa", "wide"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Dimension != 4 {
		t.Errorf("Dimension = %d, want 4", res.Dimension)
	}
	if res.Vectors[0] == nil || res.Vectors[1] != nil {
		t.Errorf("vectors = %v, want only the first", res.Vectors)
	}
	for _, v := range res.Vectors {
		if v != nil && len(v) != res.Dimension {
			t.Errorf("vector of %d dims in a %d-dim run", len(v), res.Dimension)
		}
	}
}

func TestRunnerUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	emb := &fakeEmbedder{dim: 3}
	r := NewRunner(emb, cache, BatchOptions{}, nil)

	if _, err := r.Run(ctx, items("one", "two")); err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache holds %d vectors, want 2", cache.Len())
	}

	calls := emb.calls.Load()
	res, err := r.Run(ctx, items("one", "two"))
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHits != 2 {
		t.Errorf("CacheHits = %d, want 2", res.CacheHits)
	}
	if emb.calls.Load() != calls {
		t.Error("cached items should not reach the provider")
	}

	// A stale entry of another size is discarded.
	_ = cache.Put(ctx, ContentKey("fake", "three"), []float32{1})
	res, err = r.Run(ctx, items("three"))
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHits != 0 || len(res.Vectors[0]) != 3 {
		t.Errorf("stale cache entry used: hits=%d vec=%v", res.CacheHits, res.Vectors[0])
	}
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	emb := &fakeEmbedder{dim: 2, delay: 20 * time.Millisecond}
	r := NewRunner(emb, nil, BatchOptions{BatchSize: 1, MaxInFlight: 2}, nil)

	var texts []string
	for i := 0; i < 8; i++ {
		texts = append(texts, strings.Repeat("x", i+1))
	}
	res, err := r.Run(context.Background(), items(texts...))
	if err != nil {
		t.Fatal(err)
	}
	if res.Embedded() != 8 {
		t.Errorf("Embedded = %d, want 8", res.Embedded())
	}
	if p := emb.peak.Load(); p > 2 {
		t.Errorf("peak in-flight batches = %d, want <= 2", p)
	}
}

func TestRunnerBatchTimeout(t *testing.T) {
	emb := &fakeEmbedder{dim: 2, delay: time.Second}
	r := NewRunner(emb, nil, BatchOptions{Timeout: 10 * time.Millisecond}, nil)

	res, err := r.Run(context.Background(), items("slow"))
	if err != nil {
		t.Fatalf("a timed-out batch should degrade, not fail the run: %v", err)
	}
	if len(res.Failures) != 1 || res.Embedded() != 0 {
		t.Errorf("failures = %d embedded = %d, want 1 and 0", len(res.Failures), res.Embedded())
	}
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	emb := &fakeEmbedder{dim: 2, delay: time.Second}
	r := NewRunner(emb, nil, BatchOptions{BatchSize: 1}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res, err := r.Run(ctx, items("a", "b", "c"))
	wg.Wait()
	if res != nil {
		t.Error("cancelled run should return no result")
	}
	if !errors.Is(err, errors.Cancelled) {
		t.Errorf("err = %v, want CANCELLED", err)
	}
}
