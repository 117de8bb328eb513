// Package engine runs the analysis pipeline: extraction and indexing on a
// bounded worker pool, a barrier, call-graph resolution, then the
// complexity, orphan, pattern and similarity stages, and finally the
// aggregated report.
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"codeintel/internal/complexity"
	"codeintel/internal/deadcode"
	"codeintel/internal/embedding"
	"codeintel/internal/errors"
	"codeintel/internal/graph"
	"codeintel/internal/patterns"
	"codeintel/internal/report"
	"codeintel/internal/similarity"
	"codeintel/internal/slogutil"
	"codeintel/internal/symbols"
	"codeintel/internal/syntax"
)

// Input is one source file handed to the engine.
type Input struct {
	Path    string
	Content []byte
}

// Engine coordinates one or more analysis runs. The embedder and cache are
// optional; without an embedder the similarity section is skipped.
type Engine struct {
	embedder embedding.Embedder
	cache    embedding.Cache
	logger   *slog.Logger

	mu          sync.Mutex
	subscribers []func(StageEvent)
}

// New creates an engine.
func New(embedder embedding.Embedder, cache embedding.Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{
		embedder: embedder,
		cache:    cache,
		logger:   slogutil.Component(logger, "engine"),
	}
}

// run carries the state of one pipeline execution.
type run struct {
	id      string
	opts    Options
	started time.Time
	stages  []report.StageTiming
	in      report.Input
}

// Run analyzes inputs and returns the report. Per-file, per-definition and
// per-batch failures degrade the report; only invalid options
// (CONFIGURATION_ERROR) and cancellation (CANCELLED) fail the run, and a
// failed run never returns a report.
func (e *Engine) Run(ctx context.Context, inputs []Input, opts Options) (*report.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	r := &run{id: uuid.NewString(), opts: opts, started: time.Now()}
	r.in = report.Input{
		RunID:               r.id,
		Version:             opts.Version,
		Files:               len(inputs),
		TopN:                opts.TopN,
		Hotspots:            opts.Hotspots,
		ComplexityOptions:   opts.complexity(),
		SimilarityThreshold: opts.SimilarityThreshold,
	}
	e.logger.Debug("Starting analysis", "run", r.id, "files", len(inputs), "workers", opts.Workers)

	files, err := e.extract(ctx, r, inputs)
	if err != nil {
		return nil, err
	}
	table := symbols.NewTable(files)
	r.in.Table = table

	start := time.Now()
	cg, err := graph.Build(ctx, table, e.logger)
	if err != nil {
		return nil, cancelled(ctx, err)
	}
	r.in.CallGraph = cg
	e.done(r, StageGraph, len(cg.Edges()), start)

	if err := e.orphans(ctx, r, table, cg); err != nil {
		return nil, err
	}
	if err := e.metrics(ctx, r, table); err != nil {
		return nil, err
	}
	if err := e.rank(ctx, r, cg); err != nil {
		return nil, err
	}
	if err := e.similarity(ctx, r, table); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, cancelled(ctx, err)
	}
	start = time.Now()
	r.in.Duration = time.Since(r.started)
	r.in.GeneratedAt = time.Now().UTC()
	r.in.Stages = r.stages
	rep := report.Build(r.in)
	e.done(r, StageReport, len(rep.Definitions), start)

	if rep.Partial() {
		e.logger.Warn("Analysis finished with degraded sections", "run", r.id, "failures", len(rep.Failures))
	}
	return rep, nil
}

// extract parses and indexes every input on the worker pool. Results land
// in input order; a parse failure excludes only its file.
func (e *Engine) extract(ctx context.Context, r *run, inputs []Input) ([]*symbols.FileIndex, error) {
	start := time.Now()
	extractor := syntax.NewExtractor(r.opts.ParseTimeout)
	indexes := make([]*symbols.FileIndex, len(inputs))
	failures := make([]*syntax.ParseFailure, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, failure := extractor.Extract(gctx, in.Path, in.Content)
			if failure != nil {
				failures[i] = failure
				return nil
			}
			indexes[i] = symbols.Index(unit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, cancelled(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(ctx, err)
	}

	var files []*symbols.FileIndex
	for i := range inputs {
		if failures[i] != nil {
			e.logger.Warn("Skipping file", "path", failures[i].Path, "kind", string(failures[i].Kind), "error", failures[i].Message)
			r.in.ParseFailures = append(r.in.ParseFailures, failures[i])
			continue
		}
		files = append(files, indexes[i])
	}
	e.done(r, StageExtract, len(files), start)
	return files, nil
}

func (e *Engine) orphans(ctx context.Context, r *run, table *symbols.Table, cg *graph.CallGraph) error {
	start := time.Now()
	analyzer, err := deadcode.NewAnalyzer(r.opts.deadcode(), e.logger)
	if err != nil {
		return errors.New(errors.ConfigurationError, "invalid orphan detector patterns", err)
	}
	res, err := analyzer.Analyze(ctx, table, cg)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, err)
		}
		r.in.OrphansErr = errors.New(errors.InternalError, "orphan detection failed", err)
		e.logger.Warn("Orphan detection failed", "error", err.Error())
		e.done(r, StageOrphans, 0, start)
		return nil
	}
	r.in.Orphans = res
	e.done(r, StageOrphans, len(res.Findings), start)
	return nil
}

// metrics scores complexity and mines patterns for every file on the
// worker pool. Each task writes only its own slot.
func (e *Engine) metrics(ctx context.Context, r *run, table *symbols.Table) error {
	start := time.Now()
	files := table.Files()
	analyzer := complexity.NewAnalyzer(r.opts.complexity())
	scores := make([]*complexity.FileComplexity, len(files))
	skips := make([][]complexity.Skip, len(files))
	occs := make([][]patterns.Occurrence, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, fi := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i], skips[i] = analyzer.AnalyzeFile(fi)
			for _, def := range fi.Definitions {
				if complexity.Scored(def) && def.Body != nil {
					occs[i] = append(occs[i], patterns.Extract(def))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cancelled(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return cancelled(ctx, err)
	}

	r.in.Complexity = scores
	var all []patterns.Occurrence
	for i := range files {
		r.in.ComplexitySkips = append(r.in.ComplexitySkips, skips[i]...)
		all = append(all, occs[i]...)
	}
	for _, s := range r.in.ComplexitySkips {
		e.logger.Warn("Skipping complexity metrics", "definition", s.DefinitionID, "reason", s.Reason)
	}
	r.in.Patterns = patterns.NewMiner(patterns.DefaultOptions()).Summarize(all, table)
	e.done(r, StageMetrics, len(all), start)
	return nil
}

// rank computes centrality from the orphan detector's entry points.
func (e *Engine) rank(ctx context.Context, r *run, cg *graph.CallGraph) error {
	start := time.Now()
	if r.in.Orphans == nil {
		e.done(r, StageRank, 0, start)
		return nil
	}
	scores, err := cg.Rank(ctx, r.in.Orphans.EntryPoints)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, err)
		}
		e.logger.Warn("Centrality ranking failed", "error", err.Error())
		e.done(r, StageRank, 0, start)
		return nil
	}
	r.in.Centrality = scores
	e.done(r, StageRank, len(scores), start)
	return nil
}

func (e *Engine) similarity(ctx context.Context, r *run, table *symbols.Table) error {
	start := time.Now()
	if e.embedder == nil {
		r.in.SimilaritySkipReason = "no embedding provider configured"
		e.done(r, StageSimilarity, 0, start)
		return nil
	}
	r.in.Provider = e.embedder.Name()

	items, previews := candidates(table, r.opts.MinTokens)
	r.in.Candidates = len(items)
	if len(items) < 2 {
		r.in.SimilaritySkipReason = "fewer than two definitions large enough to compare"
		e.done(r, StageSimilarity, 0, start)
		return nil
	}

	runner := embedding.NewRunner(e.embedder, e.cache, r.opts.batches(), e.logger)
	res, err := runner.Run(ctx, items)
	if err != nil {
		return err
	}
	r.in.Embeddings = res
	for _, f := range res.Failures {
		e.logger.Warn("Embedding batch failed", "definitions", len(f.IDs), "error", f.Err.Error())
	}

	vecs := make([]similarity.Vector, 0, res.Embedded())
	for i, v := range res.Vectors {
		if v != nil {
			vecs = append(vecs, similarity.Vector{ID: items[i].ID, Values: v})
		}
	}
	if len(vecs) == 0 {
		r.in.SimilarityErr = errors.New(errors.EmbeddingUnavailable, "every embedding batch failed", nil)
		e.done(r, StageSimilarity, 0, start)
		return nil
	}

	sim, err := similarity.Analyze(ctx, vecs, previews, r.opts.similarity())
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, err)
		}
		r.in.SimilarityErr = errors.New(errors.InternalError, "similarity analysis failed", err)
		e.done(r, StageSimilarity, 0, start)
		return nil
	}
	r.in.Similarity = sim
	e.done(r, StageSimilarity, len(sim.Pairs), start)
	return nil
}

// candidates returns the functions and methods with at least minTokens
// tokens, with their source text, in definition order.
func candidates(table *symbols.Table, minTokens int) ([]embedding.Item, map[string]string) {
	var items []embedding.Item
	previews := make(map[string]string)
	for _, fi := range table.Files() {
		u := fi.Unit
		if u == nil {
			continue
		}
		for _, def := range fi.Definitions {
			if !complexity.Scored(def) || def.EndByte <= def.StartByte || int(def.EndByte) > len(u.Source) {
				continue
			}
			if len(u.TokensIn(def.StartByte, def.EndByte)) < minTokens {
				continue
			}
			text := string(u.Source[def.StartByte:def.EndByte])
			items = append(items, embedding.Item{ID: def.ID, Text: text})
			previews[def.ID] = text
		}
	}
	return items, previews
}

func (e *Engine) done(r *run, stage string, items int, start time.Time) {
	d := time.Since(start)
	r.stages = append(r.stages, report.StageTiming{Stage: stage, DurationMs: d.Milliseconds()})
	slogutil.Since(e.logger, "Stage complete", start, "stage", stage, "items", items)
	e.emit(StageEvent{RunID: r.id, Stage: stage, Items: items, Duration: d})
}

// cancelled converts a stage error into CANCELLED when ctx is done and
// INTERNAL_ERROR otherwise.
func cancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.New(errors.Cancelled, "analysis cancelled", ctx.Err())
	}
	return errors.New(errors.InternalError, "analysis failed", err)
}
