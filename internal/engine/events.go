package engine

import (
	"slices"
	"time"
)

// Pipeline stages, in the order they complete.
const (
	StageExtract    = "extract"
	StageGraph      = "graph"
	StageOrphans    = "orphans"
	StageMetrics    = "metrics"
	StageRank       = "rank"
	StageSimilarity = "similarity"
	StageReport     = "report"
)

// StageEvent is emitted after a pipeline stage completes. A stage that was
// skipped or degraded still emits its event, with Items set to zero.
type StageEvent struct {
	RunID    string
	Stage    string
	Items    int
	Duration time.Duration
}

// OnStage registers fn to receive stage completion events. Subscribers are
// called synchronously from the goroutine running the pipeline.
func (e *Engine) OnStage(fn func(StageEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) emit(ev StageEvent) {
	e.mu.Lock()
	subs := slices.Clone(e.subscribers)
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
