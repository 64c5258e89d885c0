package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/execgraph/internal/config"
	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
	"github.com/gyaneshwarpardhi/execgraph/internal/metrics"
	"github.com/gyaneshwarpardhi/execgraph/internal/pipeline"
	"github.com/gyaneshwarpardhi/execgraph/internal/status"
)

var (
	ErrBatchEmpty    = errors.New("batch must contain at least one graph")
	ErrBatchTooLarge = errors.New("batch too large")
)

// Result is the outcome of transforming a single graph.
type Result struct {
	RequestID  string                      `json:"request_id,omitempty"`
	Pipeline   *pipeline.ExecutionPipeline `json:"pipeline,omitempty"`
	Stages     status.Counter              `json:"stages"`
	Steps      status.Counter              `json:"steps"`
	DurationMs float64                     `json:"duration_ms"`
	Error      string                      `json:"error,omitempty"`
}

// BatchResult collects per-graph results in input order.
type BatchResult struct {
	JobID     string    `json:"job_id"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Rejected  int       `json:"rejected"`
	Results   []*Result `json:"results"`
}

// Engine builds execution pipelines. The transformer is swapped atomically on
// config reload; batch work runs on a bounded worker pool.
type Engine struct {
	transformer atomic.Pointer[pipeline.Transformer]
	pool        *workerPool[*transformWork]
	conf        config.EngineConf
}

type transformWork struct {
	g         *graph.OrchestrationGraph
	requestID string
	resultC   chan *Result
}

// New creates an Engine from cfg and starts its worker pool.
func New(ctx context.Context, cfg *config.Config) *Engine {
	e := &Engine{conf: cfg.Engine}
	e.Apply(cfg)
	e.pool = newWorkerPool(ctx, cfg.Engine.Workers, cfg.Engine.QueueDepth,
		func(_ context.Context, w *transformWork) {
			w.resultC <- e.run(w.g, w.requestID, "batch")
		},
	)
	return e
}

// Apply rebuilds the transformer from cfg's icon and group settings.
// Pool sizing is fixed at construction.
func (e *Engine) Apply(cfg *config.Config) {
	icons := pipeline.NewIconTable(cfg.Icons.Overrides, cfg.Icons.Fallback, cfg.Icons.Dependency)
	e.transformer.Store(NewTransformer(icons, cfg.DependenciesGroup))
}

// Follow keeps the engine in step with l: every successful reload is applied,
// and every reload outcome is counted once.
func (e *Engine) Follow(l *config.Loader) {
	l.OnChange(func(cfg *config.Config) {
		e.Apply(cfg)
		metrics.ConfigReloads.WithLabelValues("ok").Inc()
		slog.Info("icon table reloaded", "path", l.Path(), "overrides", len(cfg.Icons.Overrides))
	})
	l.OnError(func(err error) {
		result := "error"
		if errors.Is(err, config.ErrInvalid) {
			result = "invalid"
		}
		metrics.ConfigReloads.WithLabelValues(result).Inc()
		slog.Warn("config reload skipped, keeping previous config", "path", l.Path(), "err", err)
	})
}

// NewTransformer wires a transformer with the engine's metrics and logging hooks.
func NewTransformer(icons *pipeline.IconTable, group config.DependencyGroup) *pipeline.Transformer {
	return pipeline.NewTransformer(
		pipeline.WithIcons(icons),
		pipeline.WithDependenciesGroup(group.Identifier, group.Name),
		pipeline.WithHooks(pipeline.Hooks{
			BrokenChain: func(stageID, missingID string) {
				metrics.BrokenChains.Inc()
				slog.Debug("step chain stopped", "stage", stageID, "missing", missingID)
			},
			DependencyGroup: func(string, int) {
				metrics.DependencyGroups.Inc()
			},
		}),
	)
}

// Icons returns the icon table currently in use.
func (e *Engine) Icons() *pipeline.IconTable {
	return e.transformer.Load().Icons()
}

// Transform builds a pipeline synchronously on the calling goroutine.
func (e *Engine) Transform(g *graph.OrchestrationGraph, requestID string) *Result {
	return e.run(g, requestID, "sync")
}

// TransformBatch transforms graphs concurrently and returns results in input
// order. Entries that do not fit in the queue are rejected individually.
func (e *Engine) TransformBatch(ctx context.Context, graphs []*graph.OrchestrationGraph) (*BatchResult, error) {
	if len(graphs) == 0 {
		return nil, ErrBatchEmpty
	}
	if len(graphs) > e.conf.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d exceeds max %d", ErrBatchTooLarge, len(graphs), e.conf.MaxBatchSize)
	}

	jobID := uuid.New().String()
	br := &BatchResult{JobID: jobID, Total: len(graphs), Results: make([]*Result, len(graphs))}
	pending := make([]chan *Result, len(graphs))
	ids := make([]string, len(graphs))

	for i, g := range graphs {
		ids[i] = fmt.Sprintf("%s-%d", jobID, i)
		w := &transformWork{
			g:         g,
			requestID: ids[i],
			resultC:   make(chan *Result, 1),
		}
		if !e.pool.Submit(w) {
			metrics.BatchRejected.Inc()
			br.Rejected++
			br.Results[i] = &Result{RequestID: w.requestID, Error: "transform queue full"}
			continue
		}
		pending[i] = w.resultC
	}
	metrics.QueueUtilization.Set(e.QueueUtilization())

	timeout := time.Duration(e.conf.TransformTimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	timedOut := false
	for i, c := range pending {
		if c == nil {
			continue
		}
		if timedOut {
			br.Results[i] = &Result{RequestID: ids[i], Error: fmt.Sprintf("transform timeout after %v", timeout)}
			continue
		}
		select {
		case res := <-c:
			br.Results[i] = res
			br.Completed++
		case <-timer.C:
			timedOut = true
			br.Results[i] = &Result{RequestID: ids[i], Error: fmt.Sprintf("transform timeout after %v", timeout)}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return br, nil
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the worker pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

func (e *Engine) run(g *graph.OrchestrationGraph, requestID, mode string) *Result {
	start := time.Now()
	p := e.transformer.Load().Transform(g)

	res := &Result{
		RequestID: requestID,
		Pipeline:  p,
		Stages:    pipeline.CountByStatus(p.Items),
		Steps:     pipeline.CountSteps(p),
	}
	elapsed := time.Since(start)
	res.DurationMs = float64(elapsed.Microseconds()) / 1000

	metrics.TransformsTotal.WithLabelValues(mode).Inc()
	metrics.TransformDuration.Observe(res.DurationMs)
	metrics.StagesEmitted.Add(float64(len(p.Items)))
	metrics.ItemStatus.WithLabelValues(string(status.GeneralSuccess)).Add(float64(res.Steps.Success))
	metrics.ItemStatus.WithLabelValues(string(status.GeneralRunning)).Add(float64(res.Steps.Running))
	metrics.ItemStatus.WithLabelValues(string(status.GeneralError)).Add(float64(res.Steps.Failed))
	return res
}
