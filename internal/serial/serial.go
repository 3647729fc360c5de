package serial

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
)

// SkippedNode identifies a node dropped during a best-effort load because
// its type tag had no registered definition.
type SkippedNode struct {
	ID  string `json:"id"`
	Tag int    `json:"tag"`
}

// Result reports what a load had to leave behind.
type Result struct {
	SkippedNodes []SkippedNode `json:"skipped_nodes,omitempty"`
	DroppedEdges int           `json:"dropped_edges,omitempty"`
}

// Partial reports whether anything was skipped.
func (r *Result) Partial() bool {
	return len(r.SkippedNodes) > 0 || r.DroppedEdges > 0
}

// Encode validates and marshals a graph. An invalid structure rejects the
// save with the specific violation.
func Encode(g *graph.Graph) ([]byte, error) {
	doc := Snapshot(g)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses and validates data, then builds a fresh graph from it.
// The caller replaces its current graph only on success, which makes a
// load all-or-nothing even though unknown node tags inside a valid
// document are skipped with a warning.
func Decode(data []byte, reg *registry.Registry) (*graph.Graph, *Result, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("serial: parse document: %w", err)
	}
	if err := Validate(&doc); err != nil {
		return nil, nil, err
	}
	g := graph.New()
	res, err := Restore(g, &doc, reg)
	if err != nil {
		return nil, nil, err
	}
	return g, res, nil
}

// Restore replaces the contents of g with the document's. The document
// must already be validated; Restore validates again defensively because
// history snapshots bypass Encode. Unknown node tags are skipped (with
// their incident edges) and reported, not fatal; every other inconsistency
// aborts the restore.
func Restore(g *graph.Graph, doc *Document, reg *registry.Registry) (*Result, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	g.Clear()

	res := &Result{}
	if id, err := graph.ParseID(doc.GraphID); err == nil {
		g.ID = id
	}
	if style := graph.EdgeStyle(doc.EdgeStyle); graph.ValidEdgeStyle(style) {
		g.DefaultEdgeStyle = style
	}

	for _, v := range doc.Variables {
		if err := g.Vars().Define(v.Name, graph.VarKind(v.Kind), v.Value); err != nil {
			return nil, fmt.Errorf("serial: variable %q: %w", v.Name, err)
		}
	}

	liveSockets := map[string]bool{}
	for _, nd := range doc.Nodes {
		if reg != nil && !reg.Known(nd.Type) {
			slog.Warn("skipping node with unknown type tag", "node_id", nd.ID, "tag", nd.Type)
			res.SkippedNodes = append(res.SkippedNodes, SkippedNode{ID: nd.ID, Tag: nd.Type})
			continue
		}
		n, err := buildNode(nd)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("serial: node %s: %w", nd.ID, err)
		}
		for _, s := range n.Sockets() {
			liveSockets[s.ID.String()] = true
		}
	}

	for _, ed := range doc.Edges {
		if !liveSockets[ed.FromSocket] || !liveSockets[ed.ToSocket] {
			// Endpoint belongs to a skipped node; a dangling edge must go,
			// not linger.
			res.DroppedEdges++
			continue
		}
		e := &graph.Edge{
			ID:    graph.ID(ed.ID),
			From:  graph.ID(ed.FromSocket),
			To:    graph.ID(ed.ToSocket),
			Style: graph.EdgeStyle(ed.Style),
		}
		if err := g.InsertEdge(e); err != nil {
			return nil, fmt.Errorf("serial: edge %s: %w", ed.ID, err)
		}
	}

	g.SetDirty(false)
	return res, nil
}

func buildNode(nd NodeDoc) (*graph.Node, error) {
	id, err := graph.ParseID(nd.ID)
	if err != nil {
		return nil, fmt.Errorf("serial: node id %q: %w", nd.ID, err)
	}
	n := &graph.Node{
		ID:         id,
		Tag:        nd.Type,
		Title:      nd.Title,
		Position:   graph.Point{X: nd.Position[0], Y: nd.Position[1]},
		Executable: nd.Executable,
		Data:       map[string]any{},
	}
	for k, v := range nd.Data {
		n.Data[k] = v
	}
	for _, sd := range nd.SocketsIn {
		n.Inputs = append(n.Inputs, &graph.Socket{
			ID:        graph.ID(sd.ID),
			NodeID:    id,
			Name:      sd.Name,
			Direction: graph.In,
			Kind:      graph.DataKind(sd.Kind),
		})
	}
	for _, sd := range nd.SocketsOut {
		n.Outputs = append(n.Outputs, &graph.Socket{
			ID:        graph.ID(sd.ID),
			NodeID:    id,
			Name:      sd.Name,
			Direction: graph.Out,
			Kind:      graph.DataKind(sd.Kind),
		})
	}
	return n, nil
}
