package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
	"github.com/gyaneshwarpardhi/execgraph/internal/status"
)

// NodeKind discriminates the three kinds of pipeline nodes.
type NodeKind string

const (
	NodeKindItem     NodeKind = "item"
	NodeKindParallel NodeKind = "parallel"
	NodeKindGroup    NodeKind = "group"
)

// Node is a sealed union: *ItemNode, *ParallelNode or *GroupNode.
type Node interface {
	Kind() NodeKind
	node()
}

// ExecutionPipeline is an ordered sequence of nodes. Stages own a nested
// pipeline of their steps.
type ExecutionPipeline struct {
	Identifier string `json:"identifier"`
	Items      []Node `json:"items"`
}

// Item is a single stage or step.
type Item struct {
	Identifier    string             `json:"identifier"`
	Name          string             `json:"name"`
	Status        status.Status      `json:"status"`
	Icon          string             `json:"icon"`
	SkipCondition string             `json:"skipCondition,omitempty"`
	Pipeline      *ExecutionPipeline `json:"pipeline,omitempty"`
	Data          ItemData           `json:"data"`
}

// ItemData points back at the source the item was built from.
type ItemData struct {
	Step    *graph.GraphVertex       `json:"step,omitempty"`
	Service *graph.ServiceDependency `json:"service,omitempty"`
}

// GroupInfo is a named, collapsible container.
type GroupInfo struct {
	Identifier string        `json:"identifier"`
	Name       string        `json:"name"`
	Status     status.Status `json:"status"`
	IsOpen     bool          `json:"isOpen"`
	ShowLines  bool          `json:"showLines"`
	Items      []Node        `json:"items"`
}

type ItemNode struct{ Item Item }

type ParallelNode struct{ Nodes []Node }

type GroupNode struct{ Group GroupInfo }

func (*ItemNode) Kind() NodeKind     { return NodeKindItem }
func (*ParallelNode) Kind() NodeKind { return NodeKindParallel }
func (*GroupNode) Kind() NodeKind    { return NodeKindGroup }

func (*ItemNode) node()     {}
func (*ParallelNode) node() {}
func (*GroupNode) node()    {}

// NewPipeline returns an empty pipeline with a non-nil item list.
func NewPipeline(identifier string) *ExecutionPipeline {
	return &ExecutionPipeline{Identifier: identifier, Items: []Node{}}
}

// -----------------------------------------------------------------------
// JSON: each node is an object with exactly one of item/parallel/group.
// -----------------------------------------------------------------------

func (n *ItemNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Item Item `json:"item"`
	}{n.Item})
}

func (n *ParallelNode) MarshalJSON() ([]byte, error) {
	nodes := n.Nodes
	if nodes == nil {
		nodes = []Node{}
	}
	return json.Marshal(struct {
		Parallel []Node `json:"parallel"`
	}{nodes})
}

func (n *GroupNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Group GroupInfo `json:"group"`
	}{n.Group})
}

type wireNode struct {
	Item     *Item             `json:"item"`
	Parallel []json.RawMessage `json:"parallel"`
	Group    *GroupInfo        `json:"group"`
}

// DecodeNode parses one node, rejecting objects that set zero or several of
// item/parallel/group.
func DecodeNode(data []byte) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	set := 0
	if w.Item != nil {
		set++
	}
	if w.Parallel != nil {
		set++
	}
	if w.Group != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("pipeline node must set exactly one of item/parallel/group, got %d", set)
	}
	switch {
	case w.Item != nil:
		return &ItemNode{Item: *w.Item}, nil
	case w.Group != nil:
		return &GroupNode{Group: *w.Group}, nil
	default:
		nodes, err := DecodeNodes(w.Parallel)
		if err != nil {
			return nil, fmt.Errorf("parallel: %w", err)
		}
		return &ParallelNode{Nodes: nodes}, nil
	}
}

// DecodeNodes parses a list of raw nodes.
func DecodeNodes(raw []json.RawMessage) ([]Node, error) {
	out := make([]Node, 0, len(raw))
	for i, r := range raw {
		n, err := DecodeNode(r)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (p *ExecutionPipeline) UnmarshalJSON(data []byte) error {
	var w struct {
		Identifier string            `json:"identifier"`
		Items      []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	items, err := DecodeNodes(w.Items)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", w.Identifier, err)
	}
	p.Identifier = w.Identifier
	p.Items = items
	return nil
}

func (g *GroupInfo) UnmarshalJSON(data []byte) error {
	type plain GroupInfo
	var w struct {
		plain
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	items, err := DecodeNodes(w.Items)
	if err != nil {
		return fmt.Errorf("group %s: %w", w.Identifier, err)
	}
	*g = GroupInfo(w.plain)
	g.Items = items
	return nil
}
