package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
)

// makeNode builds a detached node with one number input and one number
// output, the minimal shape most structural tests need.
func makeNode(title string) *graph.Node {
	n := graph.NewNode(100, title)
	n.AddInput("in", graph.KindNumber)
	n.AddOutput("out", graph.KindNumber)
	return n
}

func addNode(t *testing.T, g *graph.Graph, title string) *graph.Node {
	t.Helper()
	n := makeNode(title)
	require.NoError(t, g.AddNode(n))
	return n
}

func TestAddNodeRejectsDuplicateIDs(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")

	dup := makeNode("dup")
	dup.ID = a.ID
	assert.ErrorIs(t, g.AddNode(dup), graph.ErrDuplicateID)

	// A colliding socket id must also reject, without inserting the node.
	dup2 := makeNode("dup2")
	dup2.Inputs[0].ID = a.Outputs[0].ID
	assert.ErrorIs(t, g.AddNode(dup2), graph.ErrDuplicateID)
	assert.Equal(t, 1, g.NodeCount())
}

func TestConnectValidation(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")

	str := graph.NewNode(100, "str")
	str.AddOutput("text", graph.KindString)
	require.NoError(t, g.AddNode(str))

	cases := []struct {
		name     string
		from, to graph.ID
		want     error
	}{
		{"unknown source", graph.NewID(), b.Inputs[0].ID, graph.ErrSocketNotFound},
		{"unknown destination", a.Outputs[0].ID, graph.NewID(), graph.ErrSocketNotFound},
		{"input as source", a.Inputs[0].ID, b.Inputs[0].ID, graph.ErrBadDirection},
		{"output as destination", a.Outputs[0].ID, b.Outputs[0].ID, graph.ErrBadDirection},
		{"same node", a.Outputs[0].ID, a.Inputs[0].ID, graph.ErrSameNode},
		{"kind mismatch", str.Outputs[0].ID, b.Inputs[0].ID, graph.ErrKindMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Connect(tc.from, tc.to)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, g.EdgeCount())
}

func TestInputHoldsAtMostOneEdge(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	c := addNode(t, g, "c")

	_, err := g.Connect(a.Outputs[0].ID, c.Inputs[0].ID)
	require.NoError(t, err)

	_, err = g.Connect(b.Outputs[0].ID, c.Inputs[0].ID)
	assert.ErrorIs(t, err, graph.ErrInputOccupied)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestOutputFansOut(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	c := addNode(t, g, "c")

	_, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)
	_, err = g.Connect(a.Outputs[0].ID, c.Inputs[0].ID)
	require.NoError(t, err)

	assert.Len(t, a.Outputs[0].Edges, 2)
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	c := addNode(t, g, "c")

	_, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)
	_, err = g.Connect(b.Outputs[0].ID, c.Inputs[0].ID)
	require.NoError(t, err)
	require.Equal(t, 2, g.EdgeCount())

	require.NoError(t, g.RemoveNode(b.ID))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	// Surviving endpoints hold no stale edge references.
	assert.Empty(t, a.Outputs[0].Edges)
	assert.Empty(t, c.Inputs[0].Edges)
	_, ok := g.Socket(b.Inputs[0].ID)
	assert.False(t, ok)
}

func TestDisconnect(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	_, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)

	require.NoError(t, g.Disconnect(a.Outputs[0].ID, b.Inputs[0].ID))
	assert.Equal(t, 0, g.EdgeCount())
	assert.ErrorIs(t, g.Disconnect(a.Outputs[0].ID, b.Inputs[0].ID), graph.ErrEdgeNotFound)
}

func TestRemoveUnknownNode(t *testing.T) {
	g := graph.New()
	assert.ErrorIs(t, g.RemoveNode(graph.NewID()), graph.ErrNodeNotFound)
	assert.ErrorIs(t, g.RemoveEdge(graph.NewID()), graph.ErrEdgeNotFound)
}

func TestRegenerateIDsPreservesStructure(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	_, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)
	g.SetSelection(a.ID)

	oldGraphID := g.ID
	oldNodeID := a.ID
	oldSocketID := a.Outputs[0].ID

	g.RegenerateIDs()

	assert.NotEqual(t, oldGraphID, g.ID)
	assert.NotEqual(t, oldNodeID, a.ID)
	assert.NotEqual(t, oldSocketID, a.Outputs[0].ID)

	// Structure survives: same counts, edge still runs a.out -> b.in.
	assert.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())
	e := g.Edges()[0]
	assert.Equal(t, a.Outputs[0].ID, e.From)
	assert.Equal(t, b.Inputs[0].ID, e.To)

	// Lookups work against the new identifiers, and selection followed.
	_, ok := g.Node(a.ID)
	assert.True(t, ok)
	_, ok = g.Socket(b.Inputs[0].ID)
	assert.True(t, ok)
	assert.Equal(t, []graph.ID{a.ID}, g.Selection())
}

func TestSelection(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")

	var fired int
	g.Events().OnSelectionChanged(func(ids []graph.ID) { fired++ })

	g.SetSelection(b.ID, a.ID, graph.NewID())
	assert.Equal(t, []graph.ID{a.ID, b.ID}, g.Selection(), "selection reports insertion order")
	assert.Equal(t, 1, fired)

	// Same set again: no event.
	g.SetSelection(a.ID, b.ID)
	assert.Equal(t, 1, fired)

	g.ClearSelection()
	assert.Empty(t, g.Selection())
	assert.Equal(t, 2, fired)
}

func TestRemoveNodeDeselects(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	g.SetSelection(a.ID)
	require.NoError(t, g.RemoveNode(a.ID))
	assert.Empty(t, g.Selection())
}

func TestDirtyTracking(t *testing.T) {
	g := graph.New()
	assert.False(t, g.Dirty())

	a := addNode(t, g, "a")
	assert.True(t, g.Dirty())

	g.SetDirty(false)
	require.NoError(t, g.RemoveNode(a.ID))
	assert.True(t, g.Dirty())
}

func TestSetEdgeStyleIsCosmetic(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	e, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)
	g.SetDirty(false)

	g.SetEdgeStyle(graph.StyleSquare)
	assert.Equal(t, graph.StyleSquare, e.Style)
	assert.False(t, g.Dirty())

	// Invalid styles are ignored.
	g.SetEdgeStyle(graph.EdgeStyle("zigzag"))
	assert.Equal(t, graph.StyleSquare, g.DefaultEdgeStyle)
}

func TestClear(t *testing.T) {
	g := graph.New()
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	_, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)
	require.NoError(t, g.Vars().Define("x", graph.VarNumber, 1.0))
	g.SetSelection(a.ID)
	g.SetEdgeStyle(graph.StyleSquare)
	id := g.ID

	g.Clear()

	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 0, g.Vars().Len())
	assert.Empty(t, g.Selection())
	assert.False(t, g.Dirty())
	assert.Equal(t, graph.StyleBezier, g.DefaultEdgeStyle, "clearing restores the default style")
	assert.Equal(t, id, g.ID, "clearing keeps the graph identifier")
}

func TestKindCompatibility(t *testing.T) {
	cases := []struct {
		from, to graph.DataKind
		want     bool
	}{
		{graph.KindNumber, graph.KindNumber, true},
		{graph.KindNumber, graph.KindString, false},
		{graph.KindExec, graph.KindExec, true},
		{graph.KindExec, graph.KindAny, false},
		{graph.KindAny, graph.KindExec, false},
		{graph.KindAny, graph.KindBoolean, true},
		{graph.KindBoolean, graph.KindAny, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.Compatible(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
