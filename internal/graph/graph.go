package graph

// Graph is the aggregate root for one logical document. It owns all nodes,
// edges and variables in flat ID-keyed collections; sockets and edges store
// the IDs of what they reference, never back-pointers, so there is no
// cyclic ownership to break on removal.
//
// The graph is single-threaded by design: one document is driven by one
// control goroutine, and callers that need concurrent access wrap it in
// their own mutex.
type Graph struct {
	ID ID

	nodes     map[ID]*Node
	nodeOrder []ID
	edges     map[ID]*Edge
	edgeOrder []ID
	sockets   map[ID]*Socket

	vars      *Variables
	selection map[ID]struct{}

	// DefaultEdgeStyle is applied to edges created without an explicit style.
	DefaultEdgeStyle EdgeStyle

	dirty  bool
	events Events
}

// New creates an empty graph with a fresh identifier.
func New() *Graph {
	return &Graph{
		ID:               NewID(),
		nodes:            map[ID]*Node{},
		edges:            map[ID]*Edge{},
		sockets:          map[ID]*Socket{},
		vars:             NewVariables(),
		selection:        map[ID]struct{}{},
		DefaultEdgeStyle: StyleBezier,
	}
}

// Events exposes the listener registration surface.
func (g *Graph) Events() *Events {
	return &g.events
}

// Vars returns the graph's variable store.
func (g *Graph) Vars() *Variables {
	return g.vars
}

// Dirty reports whether the graph has unsaved structural changes.
func (g *Graph) Dirty() bool {
	return g.dirty
}

// SetDirty overrides the dirty flag, typically after a save or load.
func (g *Graph) SetDirty(flag bool) {
	g.dirty = flag
}

// Node returns a node by ID.
func (g *Graph) Node(id ID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns an edge by ID.
func (g *Graph) Edge(id ID) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Socket returns any socket in the graph by ID.
func (g *Graph) Socket(id ID) (*Socket, bool) {
	s, ok := g.sockets[id]
	return s, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AddNode inserts a fully-built node. The node's ID and every socket ID
// must be unused; on any violation nothing is inserted.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateID
	}
	for _, s := range n.Sockets() {
		if _, exists := g.sockets[s.ID]; exists {
			return ErrDuplicateID
		}
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	for _, s := range n.Sockets() {
		s.NodeID = n.ID
		g.sockets[s.ID] = s
	}
	g.dirty = true
	g.events.emitNodeAdded(n)
	return nil
}

// RemoveNode deletes a node, cascading to its incident edges first.
// Unknown IDs fail without mutating anything.
func (g *Graph) RemoveNode(id ID) error {
	n, ok := g.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	for _, s := range n.Sockets() {
		for _, edgeID := range append([]ID(nil), s.Edges...) {
			// Incident edges resolve before the node itself goes away.
			if err := g.RemoveEdge(edgeID); err != nil {
				return err
			}
		}
	}
	for _, s := range n.Sockets() {
		delete(g.sockets, s.ID)
	}
	delete(g.nodes, id)
	g.nodeOrder = removeID(g.nodeOrder, id)
	delete(g.selection, id)
	g.dirty = true
	g.events.emitNodeRemoved(id)
	return nil
}

// Connect creates an edge from an output socket to an input socket using
// the graph's default style.
func (g *Graph) Connect(from, to ID) (*Edge, error) {
	return g.AddEdge(from, to, g.DefaultEdgeStyle)
}

// AddEdge creates an edge between two existing sockets. The edge is
// validated structurally before anything changes: both endpoints must
// exist, run output→input, belong to different nodes, carry compatible
// kinds, and the input must be free (an input holds at most one edge).
func (g *Graph) AddEdge(from, to ID, style EdgeStyle) (*Edge, error) {
	e := &Edge{ID: NewID(), From: from, To: to, Style: style}
	if err := g.InsertEdge(e); err != nil {
		return nil, err
	}
	return e, nil
}

// InsertEdge adds a pre-built edge, preserving its identifier. Used by the
// serializer and clipboard, which manage identifiers themselves.
func (g *Graph) InsertEdge(e *Edge) error {
	if _, exists := g.edges[e.ID]; exists {
		return ErrDuplicateID
	}
	src, ok := g.sockets[e.From]
	if !ok {
		return ErrSocketNotFound
	}
	dst, ok := g.sockets[e.To]
	if !ok {
		return ErrSocketNotFound
	}
	if src.Direction != Out || dst.Direction != In {
		return ErrBadDirection
	}
	if src.NodeID == dst.NodeID {
		return ErrSameNode
	}
	if !src.Kind.Compatible(dst.Kind) {
		return ErrKindMismatch
	}
	if dst.HasEdges() {
		return ErrInputOccupied
	}
	if e.Style == "" {
		e.Style = g.DefaultEdgeStyle
	}
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	src.addEdge(e.ID)
	dst.addEdge(e.ID)
	g.dirty = true
	g.events.emitEdgeAdded(e)
	return nil
}

// RemoveEdge deletes an edge and detaches it from both sockets.
func (g *Graph) RemoveEdge(id ID) error {
	e, ok := g.edges[id]
	if !ok {
		return ErrEdgeNotFound
	}
	if s, ok := g.sockets[e.From]; ok {
		s.removeEdge(id)
	}
	if s, ok := g.sockets[e.To]; ok {
		s.removeEdge(id)
	}
	delete(g.edges, id)
	g.edgeOrder = removeID(g.edgeOrder, id)
	g.dirty = true
	g.events.emitEdgeRemoved(id)
	return nil
}

// Disconnect removes the edge running between two sockets, if one exists.
func (g *Graph) Disconnect(from, to ID) error {
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.From == from && e.To == to {
			return g.RemoveEdge(id)
		}
	}
	return ErrEdgeNotFound
}

// SetEdgeStyle updates the default style and retroactively restyles every
// existing edge. Cosmetic only: structure and dirty state are untouched.
func (g *Graph) SetEdgeStyle(style EdgeStyle) {
	if !ValidEdgeStyle(style) || g.DefaultEdgeStyle == style {
		return
	}
	g.DefaultEdgeStyle = style
	for _, id := range g.edgeOrder {
		g.edges[id].Style = style
	}
}

// RegenerateIDs assigns fresh identifiers to the graph and everything it
// owns while preserving all structural relationships. Used before merging
// two graphs or after top-level duplication.
func (g *Graph) RegenerateIDs() {
	remap := map[ID]ID{}
	fresh := func(old ID) ID {
		id := NewID()
		remap[old] = id
		return id
	}

	g.ID = NewID()
	for _, n := range g.nodes {
		n.ID = fresh(n.ID)
		for _, s := range n.Sockets() {
			s.ID = fresh(s.ID)
			s.NodeID = n.ID
		}
	}
	for _, e := range g.edges {
		e.ID = fresh(e.ID)
		e.From = remap[e.From]
		e.To = remap[e.To]
	}

	// Rebuild every ID-keyed structure against the new identifiers.
	nodes := make(map[ID]*Node, len(g.nodes))
	sockets := make(map[ID]*Socket, len(g.sockets))
	for _, n := range g.nodes {
		nodes[n.ID] = n
		for _, s := range n.Sockets() {
			s.Edges = remapIDs(s.Edges, remap)
			sockets[s.ID] = s
		}
	}
	edges := make(map[ID]*Edge, len(g.edges))
	for _, e := range g.edges {
		edges[e.ID] = e
	}
	g.nodes = nodes
	g.sockets = sockets
	g.edges = edges
	g.nodeOrder = remapIDs(g.nodeOrder, remap)
	g.edgeOrder = remapIDs(g.edgeOrder, remap)

	sel := make(map[ID]struct{}, len(g.selection))
	for old := range g.selection {
		if id, ok := remap[old]; ok {
			sel[id] = struct{}{}
		}
	}
	g.selection = sel
	g.dirty = true
}

// Clear removes every node (edges always resolve first through the node
// cascade) and resets variables and selection. The graph ends up in the
// same state as freshly constructed, keeping its identifier.
func (g *Graph) Clear() {
	for len(g.nodeOrder) > 0 {
		_ = g.RemoveNode(g.nodeOrder[0])
	}
	g.vars.reset()
	g.selection = map[ID]struct{}{}
	g.DefaultEdgeStyle = StyleBezier
	g.dirty = false
}

// SetSelection replaces the selected node set. Unknown IDs are ignored.
// Listeners fire only when the selection actually changes.
func (g *Graph) SetSelection(ids ...ID) {
	next := map[ID]struct{}{}
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			next[id] = struct{}{}
		}
	}
	if sameIDSet(g.selection, next) {
		return
	}
	g.selection = next
	g.events.emitSelectionChanged(g.Selection())
}

// ClearSelection deselects everything.
func (g *Graph) ClearSelection() {
	g.SetSelection()
}

// Selection returns the selected node IDs in insertion order.
func (g *Graph) Selection() []ID {
	out := make([]ID, 0, len(g.selection))
	for _, id := range g.nodeOrder {
		if _, ok := g.selection[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func removeID(ids []ID, id ID) []ID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func remapIDs(ids []ID, remap map[ID]ID) []ID {
	out := make([]ID, len(ids))
	for i, id := range ids {
		out[i] = remap[id]
	}
	return out
}

func sameIDSet(a, b map[ID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
