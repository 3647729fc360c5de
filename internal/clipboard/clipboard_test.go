package clipboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflowlabs/nodeflow/internal/clipboard"
	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
)

// chain builds a -> b -> c over number sockets.
func chain(t *testing.T) (*graph.Graph, [3]*graph.Node) {
	t.Helper()
	g := graph.New()
	var ns [3]*graph.Node
	for i, title := range []string{"a", "b", "c"} {
		n := graph.NewNode(100, title)
		n.Position = graph.Point{X: float64(i) * 10}
		n.AddInput("in", graph.KindNumber)
		n.AddOutput("out", graph.KindNumber)
		require.NoError(t, g.AddNode(n))
		ns[i] = n
	}
	_, err := g.Connect(ns[0].Outputs[0].ID, ns[1].Inputs[0].ID)
	require.NoError(t, err)
	_, err = g.Connect(ns[1].Outputs[0].ID, ns[2].Inputs[0].ID)
	require.NoError(t, err)
	return g, ns
}

func TestCopyKeepsOnlyInternalEdges(t *testing.T) {
	g, ns := chain(t)

	p, err := clipboard.Copy(g, []graph.ID{ns[0].ID, ns[1].ID, ns[0].ID}, false)
	require.NoError(t, err)

	assert.Len(t, p.Nodes, 2, "duplicate selection entries collapse")
	assert.Len(t, p.Edges, 1, "the edge crossing the selection boundary is dropped")
	assert.Equal(t, "a", p.Nodes[0].Title)
	assert.Equal(t, "b", p.Nodes[1].Title)

	// Copy leaves the source graph untouched.
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestCopyUnknownNode(t *testing.T) {
	g, _ := chain(t)
	_, err := clipboard.Copy(g, []graph.ID{graph.NewID()}, false)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestCutRemovesOriginals(t *testing.T) {
	g, ns := chain(t)

	p, err := clipboard.Copy(g, []graph.ID{ns[0].ID, ns[1].ID}, true)
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 2)

	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount(), "cutting cascades the cut nodes' edges")
	assert.Empty(t, ns[2].Inputs[0].Edges)
}

func TestPasteRegeneratesAllIdentifiers(t *testing.T) {
	g, ns := chain(t)

	p, err := clipboard.Copy(g, []graph.ID{ns[0].ID, ns[1].ID}, false)
	require.NoError(t, err)

	inserted, err := clipboard.Paste(g, p, nil, graph.Point{X: 100, Y: 50})
	require.NoError(t, err)
	require.Len(t, inserted, 2)

	assert.Equal(t, 5, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	pasted, ok := g.Node(inserted[0])
	require.True(t, ok)
	assert.NotEqual(t, ns[0].ID, pasted.ID)
	assert.Equal(t, "a", pasted.Title)
	assert.Equal(t, graph.Point{X: 100, Y: 50}, pasted.Position)

	// Pasting the same payload again cannot collide either.
	_, err = clipboard.Paste(g, p, nil, graph.Point{X: 200, Y: 100})
	require.NoError(t, err)
	assert.Equal(t, 7, g.NodeCount())
	assert.Equal(t, 4, g.EdgeCount())
}

func TestPasteSkipsUnknownTypeTags(t *testing.T) {
	g, ns := chain(t)
	p, err := clipboard.Copy(g, []graph.ID{ns[0].ID, ns[1].ID}, false)
	require.NoError(t, err)

	// An empty registry knows none of the payload's tags.
	inserted, err := clipboard.Paste(g, p, registry.New(), graph.Point{})
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g, ns := chain(t)
	p, err := clipboard.Copy(g, []graph.ID{ns[0].ID, ns[1].ID}, false)
	require.NoError(t, err)

	data, err := clipboard.Encode(p)
	require.NoError(t, err)

	got, err := clipboard.Decode(data)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Edges, 1)
}

func TestDecodeForeignContent(t *testing.T) {
	for _, data := range []string{
		"just some text",
		`{"foo": 1}`,
		`[1, 2, 3]`,
		"",
	} {
		got, err := clipboard.Decode([]byte(data))
		assert.NoError(t, err, "foreign clipboard content is not an error")
		assert.Nil(t, got)
	}
}
