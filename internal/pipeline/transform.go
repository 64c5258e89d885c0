package pipeline

import (
	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
	"github.com/gyaneshwarpardhi/execgraph/internal/status"
)

const (
	DefaultDependenciesGroupID   = "static-service-group"
	DefaultDependenciesGroupName = "Dependencies"
)

// Hooks observe a transform without influencing it. Nil funcs are skipped.
type Hooks struct {
	// BrokenChain fires when a step pointer names a vertex that is missing
	// or one already visited.
	BrokenChain func(stageID, missingID string)
	// DependencyGroup fires when a dependencies group is prepended to a stage.
	DependencyGroup func(stageID string, services int)
}

// Transformer rebuilds an ExecutionPipeline from an orchestration graph.
// It holds no per-call state and is safe for concurrent use.
type Transformer struct {
	icons     *IconTable
	groupID   string
	groupName string
	hooks     Hooks
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithIcons replaces the icon table.
func WithIcons(t *IconTable) Option {
	return func(tr *Transformer) {
		if t != nil {
			tr.icons = t
		}
	}
}

// WithDependenciesGroup sets the identifier and display name of the
// synthetic dependencies group.
func WithDependenciesGroup(id, name string) Option {
	return func(tr *Transformer) {
		if id != "" {
			tr.groupID = id
		}
		if name != "" {
			tr.groupName = name
		}
	}
}

// WithHooks installs observation hooks.
func WithHooks(h Hooks) Option {
	return func(tr *Transformer) { tr.hooks = h }
}

// NewTransformer returns a Transformer with the default icon table.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		icons:     DefaultIcons(),
		groupID:   DefaultDependenciesGroupID,
		groupName: DefaultDependenciesGroupName,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Icons returns the table this transformer uses.
func (t *Transformer) Icons() *IconTable { return t.icons }

// Transform converts g into a stage pipeline. A nil graph or one without root
// ids yields an empty pipeline; unresolved ids are skipped, never reported
// as errors.
func Transform(g *graph.OrchestrationGraph) *ExecutionPipeline {
	return NewTransformer().Transform(g)
}

func (t *Transformer) Transform(g *graph.OrchestrationGraph) *ExecutionPipeline {
	root, ok := g.Root()
	if !ok {
		return NewPipeline("")
	}
	adj := g.AdjacencyList
	out := NewPipeline(root)

	for _, stageGroupID := range adj.Edges(root) {
		for _, stageID := range adj.Edges(stageGroupID) {
			stage, ok := adj.Vertex(stageID)
			if !ok {
				continue
			}
			item := Item{
				Identifier: stage.Identifier,
				Name:       stage.Name,
				Status:     status.FromString(stage.Status),
				Icon:       t.icons.Lookup(stage.StepType),
				Pipeline:   t.buildSteps(adj, stageID),
				Data:       ItemData{Step: stage},
			}
			out.Items = append(out.Items, &ItemNode{Item: item})
		}
	}
	return out
}

// buildSteps walks the nextIds chain of a stage. The first step sits two hops
// below the stage: stage → steps root → first step.
func (t *Transformer) buildSteps(adj graph.AdjacencyList, stageID string) *ExecutionPipeline {
	steps := NewPipeline(stageID)

	stepsRoot, ok := adj.FirstEdge(stageID)
	if !ok {
		return steps
	}
	id, ok := adj.FirstEdge(stepsRoot)
	if !ok {
		return steps
	}

	seen := make(map[string]struct{})
	for {
		if _, dup := seen[id]; dup {
			// A cyclic nextIds chain ends the walk like a missing vertex.
			t.brokenChain(stageID, id)
			break
		}
		seen[id] = struct{}{}

		v, found := adj.Vertex(id)
		if !found {
			t.brokenChain(stageID, id)
			break
		}

		switch v.StepType {
		case graph.StepTypeLiteEngineTask:
			deps := v.ServiceDependencies()
			if len(deps) == 0 {
				break
			}
			steps.Items = append([]Node{t.dependenciesGroup(v, deps)}, steps.Items...)
			if t.hooks.DependencyGroup != nil {
				t.hooks.DependencyGroup(stageID, len(deps))
			}
		case graph.StepTypeFork:
			steps.Items = append(steps.Items, t.fork(adj, id))
		default:
			steps.Items = append(steps.Items, &ItemNode{Item: t.stepItem(v)})
		}

		next, ok := adj.Next(id)
		if !ok {
			break
		}
		id = next
	}
	return steps
}

// fork expands a single level of parallel children, in edge order. A child
// missing from the vertex map still occupies its slot as an UNDEFINED item.
func (t *Transformer) fork(adj graph.AdjacencyList, forkID string) *ParallelNode {
	edges := adj.Edges(forkID)
	p := &ParallelNode{Nodes: make([]Node, 0, len(edges))}
	for _, childID := range edges {
		child, ok := adj.Vertex(childID)
		if !ok {
			p.Nodes = append(p.Nodes, &ItemNode{Item: Item{
				Identifier: childID,
				Status:     status.Undefined,
				Icon:       t.icons.Lookup(""),
			}})
			continue
		}
		p.Nodes = append(p.Nodes, &ItemNode{Item: t.stepItem(child)})
	}
	return p
}

func (t *Transformer) stepItem(v *graph.GraphVertex) Item {
	return Item{
		Identifier:    v.Identifier,
		Name:          v.Name,
		Status:        status.FromString(v.Status),
		Icon:          t.icons.Lookup(v.ParameterType()),
		SkipCondition: v.SkipCondition(),
		Data:          ItemData{Step: v},
	}
}

// dependenciesGroup wraps every service in one parallel node inside the
// synthetic group. The caller prepends it to the stage's steps.
func (t *Transformer) dependenciesGroup(v *graph.GraphVertex, deps []graph.ServiceDependency) *GroupNode {
	services := make([]Node, 0, len(deps))
	for i := range deps {
		svc := deps[i]
		services = append(services, &ItemNode{Item: Item{
			Identifier: svc.Identifier,
			Name:       svc.Name,
			Status:     status.FromString(svc.Status),
			Icon:       t.icons.Dependency(),
			Data:       ItemData{Service: &svc},
		}})
	}
	return &GroupNode{Group: GroupInfo{
		Identifier: t.groupID,
		Name:       t.groupName,
		Status:     status.FromString(v.Status),
		IsOpen:     true,
		ShowLines:  false,
		Items:      []Node{&ParallelNode{Nodes: services}},
	}}
}

func (t *Transformer) brokenChain(stageID, missingID string) {
	if t.hooks.BrokenChain != nil {
		t.hooks.BrokenChain(stageID, missingID)
	}
}
