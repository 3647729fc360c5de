package serial_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
	"github.com/nodeflowlabs/nodeflow/internal/serial"
)

func buildGraph(t *testing.T) (*graph.Graph, *graph.Node, *graph.Node) {
	t.Helper()
	g := graph.New()

	a := graph.NewNode(100, "producer")
	a.Position = graph.Point{X: 10, Y: 20}
	a.Executable = true
	a.Data["function"] = "add"
	a.AddOutput("out", graph.KindNumber)
	require.NoError(t, g.AddNode(a))

	b := graph.NewNode(200, "consumer")
	b.Executable = true
	b.AddInput("in", graph.KindNumber)
	require.NoError(t, g.AddNode(b))

	_, err := g.Connect(a.Outputs[0].ID, b.Inputs[0].ID)
	require.NoError(t, err)

	require.NoError(t, g.Vars().Define("threshold", graph.VarNumber, 5.0))
	return g, a, b
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g, a, b := buildGraph(t)

	data, err := serial.Encode(g)
	require.NoError(t, err)

	got, res, err := serial.Decode(data, nil)
	require.NoError(t, err)
	assert.False(t, res.Partial())

	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, g.DefaultEdgeStyle, got.DefaultEdgeStyle)
	require.Equal(t, 2, got.NodeCount())
	require.Equal(t, 1, got.EdgeCount())
	assert.False(t, got.Dirty(), "a freshly loaded graph is clean")

	// Identifiers survive the round trip verbatim.
	gotA, ok := got.Node(a.ID)
	require.True(t, ok)
	assert.Equal(t, "producer", gotA.Title)
	assert.Equal(t, 100, gotA.Tag)
	assert.Equal(t, graph.Point{X: 10, Y: 20}, gotA.Position)
	assert.Equal(t, "add", gotA.Data["function"])
	assert.True(t, gotA.Executable)

	gotB, ok := got.Node(b.ID)
	require.True(t, ok)
	e := got.Edges()[0]
	assert.Equal(t, gotA.Outputs[0].ID, e.From)
	assert.Equal(t, gotB.Inputs[0].ID, e.To)

	v, ok := got.Vars().Get("threshold")
	require.True(t, ok)
	assert.Equal(t, graph.VarNumber, v.Kind)
	assert.Equal(t, 5.0, v.Value)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, _, err := serial.Decode([]byte("{not json"), nil)
	assert.Error(t, err)
}

func TestDecodeSkipsUnknownTypeTags(t *testing.T) {
	g, a, _ := buildGraph(t)
	data, err := serial.Encode(g)
	require.NoError(t, err)

	// Only the producer's tag is registered; the consumer is unknown.
	reg := registry.New()
	reg.Register(registry.Definition{Tag: 100, Name: "producer"})

	got, res, err := serial.Decode(data, reg)
	require.NoError(t, err)

	assert.True(t, res.Partial())
	require.Len(t, res.SkippedNodes, 1)
	assert.Equal(t, 200, res.SkippedNodes[0].Tag)
	assert.Equal(t, 1, res.DroppedEdges, "edges touching a skipped node go with it")

	assert.Equal(t, 1, got.NodeCount())
	assert.Equal(t, 0, got.EdgeCount())
	_, ok := got.Node(a.ID)
	assert.True(t, ok)
}

func TestRestoreReplacesContents(t *testing.T) {
	g, _, _ := buildGraph(t)
	doc := serial.Snapshot(g)

	other := graph.New()
	junk := graph.NewNode(1, "junk")
	require.NoError(t, other.AddNode(junk))
	require.NoError(t, other.Vars().Define("old", graph.VarString, "x"))

	res, err := serial.Restore(other, doc, nil)
	require.NoError(t, err)
	assert.False(t, res.Partial())

	assert.Equal(t, g.ID, other.ID)
	assert.Equal(t, 2, other.NodeCount())
	_, ok := other.Node(junk.ID)
	assert.False(t, ok)
	_, ok = other.Vars().Get("old")
	assert.False(t, ok)
}

func TestSnapshotIsImmutable(t *testing.T) {
	g, a, _ := buildGraph(t)
	doc := serial.Snapshot(g)

	a.Data["function"] = "multiply"

	require.Equal(t, 2, len(doc.Nodes))
	assert.Equal(t, "add", doc.Nodes[0].Data["function"],
		"later node edits must not leak into a taken snapshot")
}

func TestValidate(t *testing.T) {
	base := func() *serial.Document {
		g, _, _ := buildGraph(t)
		return serial.Snapshot(g)
	}

	cases := []struct {
		name   string
		mutate func(*serial.Document)
	}{
		{"missing version", func(d *serial.Document) { d.Version = "" }},
		{"duplicate node id", func(d *serial.Document) { d.Nodes[1].ID = d.Nodes[0].ID }},
		{"empty socket id", func(d *serial.Document) { d.Nodes[0].SocketsOut[0].ID = "" }},
		{"unknown source socket", func(d *serial.Document) { d.Edges[0].FromSocket = "nope" }},
		{"unknown destination socket", func(d *serial.Document) { d.Edges[0].ToSocket = "nope" }},
		{"destination not an input", func(d *serial.Document) {
			d.Edges[0].ToSocket = d.Nodes[0].SocketsOut[0].ID
		}},
		{"input with two edges", func(d *serial.Document) {
			dup := d.Edges[0]
			dup.ID = "another-edge"
			d.Edges = append(d.Edges, dup)
		}},
		{"duplicate variable name", func(d *serial.Document) {
			d.Variables = append(d.Variables, d.Variables[0])
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := base()
			require.NoError(t, serial.Validate(doc))
			tc.mutate(doc)
			assert.Error(t, serial.Validate(doc))
		})
	}
}

func TestDocumentCarriesFormatVersion(t *testing.T) {
	g, _, _ := buildGraph(t)
	data, err := serial.Encode(g)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"`+serial.FormatVersion+`"`, string(raw["version"]))
	assert.Contains(t, raw, "nodes")
	assert.Contains(t, raw, "edges")
	assert.Contains(t, raw, "variables")
}
