package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"codeintel/internal/errors"
	"codeintel/internal/slogutil"
)

const (
	DefaultBatchSize   = 32
	DefaultMaxInFlight = 4
	DefaultTimeout     = 60 * time.Second
)

// Item is one text to embed.
type Item struct {
	ID   string
	Text string
}

// BatchOptions bounds how embedding calls are issued.
type BatchOptions struct {
	BatchSize   int
	MaxInFlight int
	Timeout     time.Duration
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = DefaultMaxInFlight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// BatchFailure records a batch whose members received no vector.
type BatchFailure struct {
	IDs []string
	Err *errors.AnalysisError
}

// Result holds the vectors of a run, aligned with the input items. A nil
// entry marks an item whose batch failed.
type Result struct {
	Vectors   [][]float32
	Dimension int
	CacheHits int
	Failures  []BatchFailure
}

// Embedded returns the number of items that have a vector.
func (r *Result) Embedded() int {
	n := 0
	for _, v := range r.Vectors {
		if v != nil {
			n++
		}
	}
	return n
}

// Runner embeds items in batches with bounded concurrency, consulting the
// cache first.
type Runner struct {
	embedder Embedder
	cache    Cache
	opts     BatchOptions
	logger   *slog.Logger
}

// NewRunner creates a batch runner. The cache may be nil.
func NewRunner(embedder Embedder, cache Cache, opts BatchOptions, logger *slog.Logger) *Runner {
	return &Runner{
		embedder: embedder,
		cache:    cache,
		opts:     opts.withDefaults(),
		logger:   slogutil.Component(logger, "embedding"),
	}
}

// Run embeds every item. Provider errors, timeouts and vectors of the
// wrong dimension fail only the batch they occur in. The returned error
// is non-nil only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, items []Item) (*Result, error) {
	res := &Result{
		Vectors:   make([][]float32, len(items)),
		Dimension: r.embedder.Dimension(),
	}
	keys := make([]string, len(items))
	var pending []int

	for i, it := range items {
		keys[i] = ContentKey(r.embedder.Name(), it.Text)
		vec, ok := r.cached(ctx, keys[i], res.Dimension)
		if !ok {
			pending = append(pending, i)
			continue
		}
		if res.Dimension == 0 {
			res.Dimension = len(vec)
		}
		res.Vectors[i] = vec
		res.CacheHits++
	}

	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(r.opts.MaxInFlight))
	g, gctx := errgroup.WithContext(ctx)

	for start := 0; start < len(pending); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(pending))
		batch := pending[start:end]

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			vecs, err := r.embedBatch(gctx, items, batch)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				err = checkDimension(vecs, &res.Dimension)
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res.Failures = append(res.Failures, r.failure(items, batch, err))
				return nil
			}
			for j, idx := range batch {
				res.Vectors[idx] = vecs[j]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.New(errors.Cancelled, "embedding cancelled", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.New(errors.Cancelled, "embedding cancelled", err)
	}

	if r.cache != nil {
		for _, idx := range pending {
			if res.Vectors[idx] == nil {
				continue
			}
			if err := r.cache.Put(ctx, keys[idx], res.Vectors[idx]); err != nil {
				r.logger.Warn("Failed to cache embedding", "id", items[idx].ID, "error", err.Error())
			}
		}
	}
	return res, nil
}

// cached returns a cached vector. Entries whose size disagrees with the
// provider are dropped.
func (r *Runner) cached(ctx context.Context, key string, dim int) ([]float32, bool) {
	if r.cache == nil {
		return nil, false
	}
	vec, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Embedding cache read failed", "error", err.Error())
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if dim > 0 && len(vec) != dim {
		_ = r.cache.Invalidate(ctx, key)
		return nil, false
	}
	return vec, true
}

func (r *Runner) embedBatch(ctx context.Context, items []Item, batch []int) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	texts := make([]string, len(batch))
	for j, idx := range batch {
		texts[j] = items[idx].Text
	}
	vecs, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d inputs", len(vecs), len(texts))
	}
	return vecs, nil
}

// checkDimension fixes the run's dimension on first use and rejects any
// batch that disagrees with it.
func checkDimension(vecs [][]float32, dim *int) error {
	for _, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("provider returned an empty vector")
		}
		if *dim == 0 {
			*dim = len(v)
		}
		if len(v) != *dim {
			return fmt.Errorf("vector dimension %d, want %d", len(v), *dim)
		}
	}
	return nil
}

func (r *Runner) failure(items []Item, batch []int, err error) BatchFailure {
	ids := make([]string, len(batch))
	for j, idx := range batch {
		ids[j] = items[idx].ID
	}
	r.logger.Warn("Embedding batch failed", "size", len(batch), "error", err.Error())
	return BatchFailure{
		IDs: ids,
		Err: errors.New(errors.EmbeddingUnavailable, fmt.Sprintf("batch of %d definitions not embedded", len(batch)), err),
	}
}
