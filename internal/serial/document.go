// Package serial converts graphs to and from their persisted structural
// form. Snapshots are also the currency of the history stack and the
// clipboard, so the document types here are the single source of truth for
// what survives a round trip.
package serial

import (
	"fmt"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
)

// FormatVersion is written into every saved document. Readers accept any
// document carrying the same major scheme; there is only one so far.
const FormatVersion = "1.0"

// Document is the persisted form of a whole graph.
type Document struct {
	Version   string        `json:"version"`
	GraphID   string        `json:"graph_id"`
	EdgeStyle string        `json:"edge_style,omitempty"`
	Nodes     []NodeDoc     `json:"nodes"`
	Edges     []EdgeDoc     `json:"edges"`
	Variables []VariableDoc `json:"variables"`
}

// NodeDoc is one serialized node, sockets included. Data carries the
// type-specific payload opaquely.
type NodeDoc struct {
	ID         string         `json:"id"`
	Type       int            `json:"type"`
	Title      string         `json:"title"`
	Position   [2]float64     `json:"position"`
	SocketsIn  []SocketDoc    `json:"sockets_in"`
	SocketsOut []SocketDoc    `json:"sockets_out"`
	Executable bool           `json:"executable,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// SocketDoc is one serialized socket.
type SocketDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// EdgeDoc is one serialized edge.
type EdgeDoc struct {
	ID         string `json:"id"`
	FromSocket string `json:"from_socket"`
	ToSocket   string `json:"to_socket"`
	Style      string `json:"style"`
}

// VariableDoc is one serialized graph variable.
type VariableDoc struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// Snapshot captures the structural state of a graph. It never fails: a
// graph that passed its own mutation validation is always representable.
func Snapshot(g *graph.Graph) *Document {
	doc := &Document{
		Version:   FormatVersion,
		GraphID:   g.ID.String(),
		EdgeStyle: string(g.DefaultEdgeStyle),
		Nodes:     []NodeDoc{},
		Edges:     []EdgeDoc{},
		Variables: []VariableDoc{},
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, SnapshotNode(n))
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDoc{
			ID:         e.ID.String(),
			FromSocket: e.From.String(),
			ToSocket:   e.To.String(),
			Style:      string(e.Style),
		})
	}
	for _, v := range g.Vars().List() {
		doc.Variables = append(doc.Variables, VariableDoc{
			Name:  v.Name,
			Kind:  string(v.Kind),
			Value: v.Value,
		})
	}
	return doc
}

// SnapshotNode serializes a single node with its sockets. The clipboard
// uses it to build payloads from a selection.
func SnapshotNode(n *graph.Node) NodeDoc {
	nd := NodeDoc{
		ID:         n.ID.String(),
		Type:       n.Tag,
		Title:      n.Title,
		Position:   [2]float64{n.Position.X, n.Position.Y},
		SocketsIn:  []SocketDoc{},
		SocketsOut: []SocketDoc{},
		Executable: n.Executable,
	}
	if len(n.Data) > 0 {
		// Copied so history snapshots stay immutable while the live node
		// keeps changing.
		nd.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			nd.Data[k] = v
		}
	}
	for _, s := range n.Inputs {
		nd.SocketsIn = append(nd.SocketsIn, SocketDoc{ID: s.ID.String(), Name: s.Name, Kind: string(s.Kind)})
	}
	for _, s := range n.Outputs {
		nd.SocketsOut = append(nd.SocketsOut, SocketDoc{ID: s.ID.String(), Name: s.Name, Kind: string(s.Kind)})
	}
	return nd
}

// Validate checks a document structurally: unique ids, every edge endpoint
// declared among the node sockets, no duplicate variable names. A save is
// rejected with the first specific violation found.
func Validate(doc *Document) error {
	if doc.Version == "" {
		return fmt.Errorf("serial: document version is required")
	}
	seen := map[string]string{}
	sockets := map[string]bool{}
	claim := func(id, what string) error {
		if id == "" {
			return fmt.Errorf("serial: %s has an empty id", what)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("serial: id %s used by both %s and %s", id, prev, what)
		}
		seen[id] = what
		return nil
	}
	for _, n := range doc.Nodes {
		if err := claim(n.ID, "node "+n.Title); err != nil {
			return err
		}
		for _, s := range append(append([]SocketDoc{}, n.SocketsIn...), n.SocketsOut...) {
			if err := claim(s.ID, fmt.Sprintf("socket %s of node %s", s.Name, n.ID)); err != nil {
				return err
			}
			sockets[s.ID] = true
		}
	}
	inputUse := map[string]bool{}
	inputSet := map[string]bool{}
	for _, n := range doc.Nodes {
		for _, s := range n.SocketsIn {
			inputSet[s.ID] = true
		}
	}
	for _, e := range doc.Edges {
		if err := claim(e.ID, "edge"); err != nil {
			return err
		}
		if !sockets[e.FromSocket] {
			return fmt.Errorf("serial: edge %s references unknown source socket %s", e.ID, e.FromSocket)
		}
		if !sockets[e.ToSocket] {
			return fmt.Errorf("serial: edge %s references unknown destination socket %s", e.ID, e.ToSocket)
		}
		if !inputSet[e.ToSocket] {
			return fmt.Errorf("serial: edge %s destination %s is not an input socket", e.ID, e.ToSocket)
		}
		if inputUse[e.ToSocket] {
			return fmt.Errorf("serial: input socket %s has more than one edge", e.ToSocket)
		}
		inputUse[e.ToSocket] = true
	}
	varNames := map[string]bool{}
	for _, v := range doc.Variables {
		if varNames[v.Name] {
			return fmt.Errorf("serial: duplicate variable name %q", v.Name)
		}
		varNames[v.Name] = true
	}
	return nil
}
