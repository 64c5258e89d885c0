package pipeline

import "github.com/gyaneshwarpardhi/execgraph/internal/status"

// CountByStatus tallies a flat node list: an item counts once, a parallel
// node contributes its children. Group nodes carry no status of their own
// and are not counted; neither are items in the UNDEFINED bucket.
func CountByStatus(nodes []Node) status.Counter {
	var c status.Counter
	for _, n := range nodes {
		switch n := n.(type) {
		case *ItemNode:
			c.Tally(n.Item.Status)
		case *ParallelNode:
			c.Add(CountByStatus(n.Nodes))
		}
	}
	return c
}

// CountSteps tallies every leaf step beneath the stages of p, including
// service dependencies and fork children. Stage items themselves are not
// counted.
func CountSteps(p *ExecutionPipeline) status.Counter {
	var c status.Counter
	if p == nil {
		return c
	}
	for _, n := range p.Items {
		stage, ok := n.(*ItemNode)
		if !ok || stage.Item.Pipeline == nil {
			continue
		}
		Walk(stage.Item.Pipeline.Items, func(it *Item) {
			c.Tally(it.Status)
		})
	}
	return c
}

// Walk calls fn for every item reachable from nodes, depth first, descending
// into parallel nodes, groups and nested pipelines.
func Walk(nodes []Node, fn func(*Item)) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *ItemNode:
			fn(&n.Item)
			if n.Item.Pipeline != nil {
				Walk(n.Item.Pipeline.Items, fn)
			}
		case *ParallelNode:
			Walk(n.Nodes, fn)
		case *GroupNode:
			Walk(n.Group.Items, fn)
		}
	}
}
