package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *OrchestrationGraph {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "ci_execution.json"))
	require.NoError(t, err)
	g, err := Decode(data)
	require.NoError(t, err)
	return g
}

func TestDecode_Envelope(t *testing.T) {
	g := loadFixture(t)

	assert.Equal(t, "Gk2p0QhYTJ6hE9nU1s7Y1g", g.PlanExecutionID)
	assert.Equal(t, []string{"pipeline_root", "orphan_root"}, g.RootNodeIDs)
	assert.Len(t, g.AdjacencyList.GraphVertexMap, 8)

	root, ok := g.Root()
	require.True(t, ok)
	assert.Equal(t, "pipeline_root", root)
}

func TestDecode_BareAndWrapped(t *testing.T) {
	bare := `{"rootNodeIds":["r"],"adjacencyList":{"adjacencyMap":{"r":{"edges":["a"]}},"graphVertexMap":{}}}`
	cases := map[string]string{
		"bare":           bare,
		"data":           `{"data":` + bare + `}`,
		"executionGraph": `{"data":{"executionGraph":` + bare + `}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := DecodeReader(strings.NewReader(doc))
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, g.AdjacencyList.Edges("r"))
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("   "))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Decode([]byte(`{"rootNodeIds": "not-a-list"}`))
	assert.Error(t, err)
}

func TestRoot_Absent(t *testing.T) {
	var g *OrchestrationGraph
	_, ok := g.Root()
	assert.False(t, ok)

	_, ok = (&OrchestrationGraph{}).Root()
	assert.False(t, ok)
}

func TestAdjacencyLookups_Degrade(t *testing.T) {
	a := AdjacencyList{
		AdjacencyMap: map[string]EdgeSet{
			"a": {Edges: []string{"b", "c"}, NextIDs: []string{"d"}},
			"e": {},
		},
		GraphVertexMap: map[string]GraphVertex{"b": {Identifier: "b"}},
	}

	first, ok := a.FirstEdge("a")
	assert.True(t, ok)
	assert.Equal(t, "b", first)

	next, ok := a.Next("a")
	assert.True(t, ok)
	assert.Equal(t, "d", next)

	_, ok = a.FirstEdge("e")
	assert.False(t, ok)
	_, ok = a.Next("missing")
	assert.False(t, ok)
	assert.Nil(t, a.Edges("missing"))

	v, ok := a.Vertex("b")
	require.True(t, ok)
	v.Name = "mutated"
	assert.Empty(t, a.GraphVertexMap["b"].Name, "Vertex must return a copy")

	_, ok = a.Vertex("d")
	assert.False(t, ok)
}

func TestServiceDependencies(t *testing.T) {
	g := loadFixture(t)

	lite, ok := g.AdjacencyList.Vertex("build_init")
	require.True(t, ok)
	deps := lite.ServiceDependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, "postgres", deps[0].Identifier)
	assert.Equal(t, "postgres:15", deps[0].Image)
	assert.Equal(t, "OOMKilled", deps[1].ErrorReason)

	compile, ok := g.AdjacencyList.Vertex("build_compile")
	require.True(t, ok)
	assert.Nil(t, compile.ServiceDependencies())
}

func TestServiceDependencies_Malformed(t *testing.T) {
	v := &GraphVertex{Outcomes: Outcomes{{"serviceDependencyList": "nope"}}}
	assert.Nil(t, v.ServiceDependencies())

	var nilVertex *GraphVertex
	assert.Nil(t, nilVertex.ServiceDependencies())
	assert.Empty(t, nilVertex.SkipCondition())
	assert.Empty(t, nilVertex.ParameterType())
}

func TestOutcomes_KeyedObject(t *testing.T) {
	doc := `{"rootNodeIds":["r"],"adjacencyList":{"graphVertexMap":{"v":{"outcomes":{
		"z": {"other": 1},
		"a": {"serviceDependencyList": [{"identifier": "mysql", "status": "Running"}]}
	}}}}}`
	g, err := Decode([]byte(doc))
	require.NoError(t, err)

	v, ok := g.AdjacencyList.Vertex("v")
	require.True(t, ok)
	require.Len(t, v.Outcomes, 2)
	deps := v.ServiceDependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, "mysql", deps[0].Identifier)
}

func TestOutcomes_NonObjectEntriesDropped(t *testing.T) {
	cases := map[string]string{
		"keyed with scalar": `{
			"output": "done",
			"deps": {"serviceDependencyList": [{"identifier": "mysql", "status": "Running"}]}
		}`,
		"list with scalar": `[
			{"a": 1},
			"oops",
			null,
			{"serviceDependencyList": [{"identifier": "mysql", "status": "Running"}]}
		]`,
	}
	for name, outcomes := range cases {
		t.Run(name, func(t *testing.T) {
			doc := `{"rootNodeIds":["r"],"adjacencyList":{"graphVertexMap":{"v":{"outcomes":` + outcomes + `}}}}`
			g, err := Decode([]byte(doc))
			require.NoError(t, err)

			v, ok := g.AdjacencyList.Vertex("v")
			require.True(t, ok)
			deps := v.ServiceDependencies()
			require.Len(t, deps, 1)
			assert.Equal(t, "mysql", deps[0].Identifier)
		})
	}
}

func TestOutcomes_UnexpectedShape(t *testing.T) {
	doc := `{"rootNodeIds":["r"],"adjacencyList":{"graphVertexMap":{"v":{"name":"Init","outcomes":"n/a"}}}}`
	g, err := Decode([]byte(doc))
	require.NoError(t, err)

	v, ok := g.AdjacencyList.Vertex("v")
	require.True(t, ok)
	assert.Equal(t, "Init", v.Name)
	assert.Empty(t, v.Outcomes)
	assert.Nil(t, v.ServiceDependencies())
}
