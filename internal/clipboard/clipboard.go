// Package clipboard serializes sub-graphs into self-contained payloads and
// rebuilds them with fresh identifiers on paste, so pasting is collision
// free no matter how often or where a payload lands.
package clipboard

import (
	"encoding/json"
	"fmt"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
	"github.com/nodeflowlabs/nodeflow/internal/serial"
)

// Payload is the clipboard transfer form: the same node/edge schema as a
// saved document, without a graph id. The "nodes" key is how a consumer
// recognizes pasteable content versus unrelated text.
type Payload struct {
	Nodes []serial.NodeDoc `json:"nodes"`
	Edges []serial.EdgeDoc `json:"edges"`
}

// Copy serializes the selected nodes plus every edge whose both endpoints
// lie inside the selection; edges crossing the selection boundary are
// dropped, never partially copied. With deleteAfter set the originals are
// removed from the graph as part of the same call (cut).
func Copy(g *graph.Graph, selection []graph.ID, deleteAfter bool) (*Payload, error) {
	p := &Payload{Nodes: []serial.NodeDoc{}, Edges: []serial.EdgeDoc{}}

	picked := map[graph.ID]*graph.Node{}
	var order []graph.ID
	for _, id := range selection {
		n, ok := g.Node(id)
		if !ok {
			return nil, fmt.Errorf("clipboard: copy: %w: %s", graph.ErrNodeNotFound, id)
		}
		if _, dup := picked[id]; dup {
			continue
		}
		picked[id] = n
		order = append(order, id)
	}

	inside := map[graph.ID]bool{}
	for _, n := range picked {
		for _, s := range n.Sockets() {
			inside[s.ID] = true
		}
	}
	for _, id := range order {
		p.Nodes = append(p.Nodes, serial.SnapshotNode(picked[id]))
	}
	for _, e := range g.Edges() {
		if inside[e.From] && inside[e.To] {
			p.Edges = append(p.Edges, serial.EdgeDoc{
				ID:         e.ID.String(),
				FromSocket: e.From.String(),
				ToSocket:   e.To.String(),
				Style:      string(e.Style),
			})
		}
	}

	if deleteAfter {
		for _, id := range order {
			if err := g.RemoveNode(id); err != nil {
				return nil, fmt.Errorf("clipboard: cut: %w", err)
			}
		}
	}
	return p, nil
}

// Encode marshals a payload for an external clipboard.
func Encode(p *Payload) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Decode inspects raw clipboard text. Content without a "nodes" key is not
// ours: it yields (nil, nil) rather than an error. Malformed JSON behaves
// the same way, since arbitrary text routinely passes through a clipboard.
func Decode(data []byte) (*Payload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil
	}
	if _, ok := probe["nodes"]; !ok {
		return nil, nil
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("clipboard: parse payload: %w", err)
	}
	return &p, nil
}

// Paste rebuilds the payload inside g. Every node, socket and edge gets a
// fresh identifier and all internal references are rewritten through one
// lookup table before insertion; nothing ever connects to a socket outside
// the payload. Nodes with unknown type tags are skipped like the
// serializer skips them. Returns the IDs of the inserted nodes.
func Paste(g *graph.Graph, p *Payload, reg *registry.Registry, offset graph.Point) ([]graph.ID, error) {
	remap := map[string]graph.ID{}
	fresh := func(old string) graph.ID {
		id := graph.NewID()
		remap[old] = id
		return id
	}

	var inserted []graph.ID
	for _, nd := range p.Nodes {
		if reg != nil && !reg.Known(nd.Type) {
			continue
		}
		n := &graph.Node{
			ID:         fresh(nd.ID),
			Tag:        nd.Type,
			Title:      nd.Title,
			Position:   graph.Point{X: nd.Position[0] + offset.X, Y: nd.Position[1] + offset.Y},
			Executable: nd.Executable,
			Data:       map[string]any{},
		}
		for k, v := range nd.Data {
			n.Data[k] = v
		}
		for _, sd := range nd.SocketsIn {
			n.Inputs = append(n.Inputs, &graph.Socket{
				ID:        fresh(sd.ID),
				NodeID:    n.ID,
				Name:      sd.Name,
				Direction: graph.In,
				Kind:      graph.DataKind(sd.Kind),
			})
		}
		for _, sd := range nd.SocketsOut {
			n.Outputs = append(n.Outputs, &graph.Socket{
				ID:        fresh(sd.ID),
				NodeID:    n.ID,
				Name:      sd.Name,
				Direction: graph.Out,
				Kind:      graph.DataKind(sd.Kind),
			})
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("clipboard: paste node %s: %w", nd.ID, err)
		}
		inserted = append(inserted, n.ID)
	}

	for _, ed := range p.Edges {
		from, okFrom := remap[ed.FromSocket]
		to, okTo := remap[ed.ToSocket]
		if !okFrom || !okTo {
			// Endpoint belonged to a skipped node.
			continue
		}
		e := &graph.Edge{
			ID:    graph.NewID(),
			From:  from,
			To:    to,
			Style: graph.EdgeStyle(ed.Style),
		}
		if err := g.InsertEdge(e); err != nil {
			return nil, fmt.Errorf("clipboard: paste edge %s: %w", ed.ID, err)
		}
	}
	return inserted, nil
}
