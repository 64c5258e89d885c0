package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/execgraph/internal/config"
	"github.com/gyaneshwarpardhi/execgraph/internal/engine"
	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
	"github.com/gyaneshwarpardhi/execgraph/internal/metrics"
	"github.com/gyaneshwarpardhi/execgraph/internal/pipeline"
	"github.com/gyaneshwarpardhi/execgraph/internal/status"
)

func loadFixture(t *testing.T) *graph.OrchestrationGraph {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "graph", "testdata", "ci_execution.json"))
	require.NoError(t, err)
	g, err := graph.Decode(data)
	require.NoError(t, err)
	return g
}

func newEngine(t *testing.T, mutate func(*config.Config)) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := engine.New(ctx, cfg)
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})
	return e
}

func TestEngine_Transform(t *testing.T) {
	e := newEngine(t, nil)

	res := e.Transform(loadFixture(t), "req-1")
	require.NotNil(t, res.Pipeline)
	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, "pipeline_root", res.Pipeline.Identifier)
	assert.Equal(t, status.Counter{Running: 1}, res.Stages)
	assert.Equal(t, status.Counter{Success: 3, Running: 1, Failed: 1}, res.Steps)
	assert.GreaterOrEqual(t, res.DurationMs, 0.0)
}

func TestEngine_TransformNil(t *testing.T) {
	e := newEngine(t, nil)

	res := e.Transform(nil, "")
	require.NotNil(t, res.Pipeline)
	assert.Empty(t, res.Pipeline.Items)
	assert.Equal(t, status.Counter{}, res.Steps)
}

func TestEngine_Batch(t *testing.T) {
	e := newEngine(t, nil)

	graphs := []*graph.OrchestrationGraph{loadFixture(t), nil, loadFixture(t)}
	br, err := e.TransformBatch(context.Background(), graphs)
	require.NoError(t, err)

	assert.NotEmpty(t, br.JobID)
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 3, br.Completed)
	assert.Zero(t, br.Rejected)
	require.Len(t, br.Results, 3)
	assert.Equal(t, "pipeline_root", br.Results[0].Pipeline.Identifier)
	assert.Empty(t, br.Results[1].Pipeline.Items)
	assert.Equal(t, br.Results[0].Steps, br.Results[2].Steps)
}

func TestEngine_BatchLimits(t *testing.T) {
	e := newEngine(t, func(c *config.Config) { c.Engine.MaxBatchSize = 2 })

	_, err := e.TransformBatch(context.Background(), nil)
	assert.ErrorIs(t, err, engine.ErrBatchEmpty)

	_, err = e.TransformBatch(context.Background(), make([]*graph.OrchestrationGraph, 3))
	assert.True(t, errors.Is(err, engine.ErrBatchTooLarge), "got %v", err)
}

func TestEngine_BatchQueueFull(t *testing.T) {
	// No workers: the single queued entry is never picked up and times out,
	// the rest are rejected at submit time.
	e := newEngine(t, func(c *config.Config) {
		c.Engine.Workers = 0
		c.Engine.QueueDepth = 1
		c.Engine.MaxBatchSize = 3
		c.Engine.TransformTimeoutMs = 50
	})

	br, err := e.TransformBatch(context.Background(), make([]*graph.OrchestrationGraph, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, br.Rejected)
	assert.Zero(t, br.Completed)
	assert.Contains(t, br.Results[0].Error, "timeout")
	assert.Equal(t, "transform queue full", br.Results[1].Error)
	assert.InDelta(t, 1.0, e.QueueUtilization(), 0.001)
}

func TestEngine_BatchFailuresKeepRequestIDs(t *testing.T) {
	// Entry 0 hits the timer, entry 1 is skipped after it, entry 2 is rejected.
	e := newEngine(t, func(c *config.Config) {
		c.Engine.Workers = 0
		c.Engine.QueueDepth = 2
		c.Engine.MaxBatchSize = 3
		c.Engine.TransformTimeoutMs = 20
	})

	br, err := e.TransformBatch(context.Background(), make([]*graph.OrchestrationGraph, 3))
	require.NoError(t, err)
	require.Len(t, br.Results, 3)
	assert.Equal(t, 1, br.Rejected)

	seen := map[string]bool{}
	for i, res := range br.Results {
		require.NotNil(t, res, "results[%d]", i)
		assert.NotEmpty(t, res.Error, "results[%d]", i)
		assert.Equal(t, fmt.Sprintf("%s-%d", br.JobID, i), res.RequestID)
		seen[res.RequestID] = true
	}
	assert.Len(t, seen, 3)
	assert.Contains(t, br.Results[0].Error, "timeout")
	assert.Contains(t, br.Results[1].Error, "timeout")
}

func TestEngine_FollowCountsEachReloadOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\n"), 0o644))
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	e := newEngine(t, nil)
	e.Follow(l)

	ok := testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("ok"))
	invalid := testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("invalid"))

	require.NoError(t, os.WriteFile(path, []byte("version: v1\nicons:\n  overrides:\n    Run: terminal\n"), 0o644))
	_, err = l.Reload()
	require.NoError(t, err)
	assert.Equal(t, "terminal", e.Icons().Lookup("Run"))
	assert.Equal(t, ok+1, testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("ok")))

	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: -1\n"), 0o644))
	_, err = l.Reload()
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Equal(t, "terminal", e.Icons().Lookup("Run"))
	assert.Equal(t, ok+1, testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("ok")))
	assert.Equal(t, invalid+1, testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("invalid")))
}

func TestEngine_BatchContextCancelled(t *testing.T) {
	e := newEngine(t, func(c *config.Config) {
		c.Engine.Workers = 0
		c.Engine.TransformTimeoutMs = 60000
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.TransformBatch(ctx, []*graph.OrchestrationGraph{nil})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ApplySwapsIcons(t *testing.T) {
	e := newEngine(t, nil)
	assert.Equal(t, "run-step", e.Icons().Lookup("Run"))

	cfg := config.Default()
	cfg.Icons.Overrides = map[string]string{"Run": "terminal"}
	cfg.DependenciesGroup = config.DependencyGroup{Identifier: "svc", Name: "Services"}
	e.Apply(cfg)
	assert.Equal(t, "terminal", e.Icons().Lookup("Run"))

	res := e.Transform(loadFixture(t), "")
	build := res.Pipeline.Items[0].(*pipeline.ItemNode).Item
	group := build.Pipeline.Items[0].(*pipeline.GroupNode).Group
	assert.Equal(t, "svc", group.Identifier)
	assert.Equal(t, "terminal", build.Pipeline.Items[1].(*pipeline.ItemNode).Item.Icon)
}

func TestEngine_ConcurrentTransformAndApply(t *testing.T) {
	e := newEngine(t, nil)
	g := loadFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				res := e.Transform(g, "")
				assert.Len(t, res.Pipeline.Items, 2)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		e.Apply(config.Default())
	}
	wg.Wait()
}
