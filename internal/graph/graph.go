package graph

import (
	"encoding/json"
	"sort"
)

// Well-known step types that the pipeline builder treats specially.
const (
	StepTypeLiteEngineTask = "LITE_ENGINE_TASK"
	StepTypeFork           = "FORK"
)

// outcomeServiceDependencies is the outcome key under which a
// LITE_ENGINE_TASK vertex publishes its sidecar containers.
const outcomeServiceDependencies = "serviceDependencyList"

// OrchestrationGraph is the execution-history graph returned by the backend.
// It is read-only once decoded; every lookup degrades instead of failing.
type OrchestrationGraph struct {
	PlanExecutionID string        `json:"planExecutionId,omitempty"`
	Status          string        `json:"status,omitempty"`
	RootNodeIDs     []string      `json:"rootNodeIds"`
	AdjacencyList   AdjacencyList `json:"adjacencyList"`
}

// AdjacencyList threads every level of the graph through one flat map:
// root → stage groups → stages → steps root → step chain.
type AdjacencyList struct {
	AdjacencyMap   map[string]EdgeSet     `json:"adjacencyMap"`
	GraphVertexMap map[string]GraphVertex `json:"graphVertexMap"`
}

// EdgeSet holds the branch edges of a node and its sequential successors.
type EdgeSet struct {
	Edges   []string `json:"edges"`
	NextIDs []string `json:"nextIds,omitempty"`
}

// GraphVertex is a single stage or step as reported by the backend.
type GraphVertex struct {
	UUID           string          `json:"uuid"`
	Identifier     string          `json:"identifier"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	StepType       string          `json:"stepType"`
	StartTs        int64           `json:"startTs,omitempty"`
	EndTs          int64           `json:"endTs,omitempty"`
	StepParameters *StepParameters `json:"stepParameters,omitempty"`
	Outcomes       Outcomes        `json:"outcomes,omitempty"`
	FailureInfo    *FailureInfo    `json:"failureInfo,omitempty"`
}

// StepParameters carries the subset of step parameters the builder reads.
type StepParameters struct {
	Type          string `json:"type,omitempty"`
	SkipCondition string `json:"skipCondition,omitempty"`
}

// FailureInfo is passed through untouched for step-detail renderers.
type FailureInfo struct {
	Message         string   `json:"message,omitempty"`
	FailureTypeList []string `json:"failureTypeList,omitempty"`
}

// ServiceDependency is a sidecar container attached to a stage. It is not a
// graph node; it lives inside a LITE_ENGINE_TASK vertex's outcomes.
type ServiceDependency struct {
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Status       string `json:"status"`
	StartTime    string `json:"startTime,omitempty"`
	EndTime      string `json:"endTime,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorReason  string `json:"errorReason,omitempty"`
}

// Outcomes is an ordered list of arbitrary key/value bags.
type Outcomes []map[string]any

// UnmarshalJSON accepts both the list form and the keyed-object form some
// backends emit. Object entries are ordered by key. Entries that are not
// objects are dropped; any other shape decodes as no outcomes.
func (o *Outcomes) UnmarshalJSON(data []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(data, &keyed); err != nil {
			*o = nil
			return nil
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries = make([]json.RawMessage, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, keyed[k])
		}
	}

	out := make(Outcomes, 0, len(entries))
	for _, raw := range entries {
		var bag map[string]any
		if err := json.Unmarshal(raw, &bag); err != nil || bag == nil {
			continue
		}
		out = append(out, bag)
	}
	*o = out
	return nil
}

// Root returns the first root node id. Additional roots are not represented.
func (g *OrchestrationGraph) Root() (string, bool) {
	if g == nil || len(g.RootNodeIDs) == 0 {
		return "", false
	}
	return g.RootNodeIDs[0], true
}

// Edges returns the branch edges of id, or nil when id has no edge set.
func (a AdjacencyList) Edges(id string) []string {
	return a.AdjacencyMap[id].Edges
}

// FirstEdge returns the first branch edge of id.
func (a AdjacencyList) FirstEdge(id string) (string, bool) {
	edges := a.Edges(id)
	if len(edges) == 0 {
		return "", false
	}
	return edges[0], true
}

// Next returns the first sequential successor of id.
func (a AdjacencyList) Next(id string) (string, bool) {
	next := a.AdjacencyMap[id].NextIDs
	if len(next) == 0 {
		return "", false
	}
	return next[0], true
}

// Vertex returns a copy of the vertex registered under id.
func (a AdjacencyList) Vertex(id string) (*GraphVertex, bool) {
	v, ok := a.GraphVertexMap[id]
	if !ok {
		return nil, false
	}
	return &v, true
}

// SkipCondition returns the step's skip condition, if any.
func (v *GraphVertex) SkipCondition() string {
	if v == nil || v.StepParameters == nil {
		return ""
	}
	return v.StepParameters.SkipCondition
}

// ParameterType returns stepParameters.type, the concrete kind of a plain step.
func (v *GraphVertex) ParameterType() string {
	if v == nil || v.StepParameters == nil {
		return ""
	}
	return v.StepParameters.Type
}

// ServiceDependencies scans the outcomes for the first bag exposing a
// serviceDependencyList and decodes it. A malformed list is treated as absent.
func (v *GraphVertex) ServiceDependencies() []ServiceDependency {
	if v == nil {
		return nil
	}
	for _, bag := range v.Outcomes {
		raw, ok := bag[outcomeServiceDependencies]
		if !ok || raw == nil {
			continue
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil
		}
		var deps []ServiceDependency
		if err := json.Unmarshal(data, &deps); err != nil {
			return nil
		}
		return deps
	}
	return nil
}
