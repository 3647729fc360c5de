package graph

// Point is a 2-D position on the canvas.
type Point struct {
	X float64
	Y float64
}

// Node is a unit of behavior: a type tag resolved through the external
// registry, a title, a position and an ordered set of sockets. Nodes own
// their sockets; everything else is referenced by ID.
type Node struct {
	ID         ID
	Tag        int
	Title      string
	Position   Point
	Inputs     []*Socket
	Outputs    []*Socket
	Executable bool
	Data       map[string]any // type-specific payload, survives serialization
}

// NewNode creates a detached node with a fresh identifier. It is not part
// of any graph until added through Graph.AddNode.
func NewNode(tag int, title string) *Node {
	return &Node{
		ID:    NewID(),
		Tag:   tag,
		Title: title,
		Data:  map[string]any{},
	}
}

// AddInput appends an input socket and returns it.
func (n *Node) AddInput(name string, kind DataKind) *Socket {
	s := &Socket{ID: NewID(), NodeID: n.ID, Name: name, Direction: In, Kind: kind}
	n.Inputs = append(n.Inputs, s)
	return s
}

// AddOutput appends an output socket and returns it.
func (n *Node) AddOutput(name string, kind DataKind) *Socket {
	s := &Socket{ID: NewID(), NodeID: n.ID, Name: name, Direction: Out, Kind: kind}
	n.Outputs = append(n.Outputs, s)
	return s
}

// Input returns the input socket with the given name.
func (n *Node) Input(name string) (*Socket, bool) {
	for _, s := range n.Inputs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Output returns the output socket with the given name.
func (n *Node) Output(name string) (*Socket, bool) {
	for _, s := range n.Outputs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Sockets returns all sockets, inputs first, in declaration order.
func (n *Node) Sockets() []*Socket {
	out := make([]*Socket, 0, len(n.Inputs)+len(n.Outputs))
	out = append(out, n.Inputs...)
	out = append(out, n.Outputs...)
	return out
}
