package graph

// Direction tells whether a socket receives or produces data.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// DataKind tags the kind of value a socket carries. Exec sockets carry
// control flow rather than data; the executor follows edges between them.
type DataKind string

const (
	KindExec    DataKind = "exec"
	KindNumber  DataKind = "number"
	KindString  DataKind = "string"
	KindBoolean DataKind = "boolean"
	KindList    DataKind = "list"
	KindAny     DataKind = "any"
)

// Compatible reports whether a value of kind k may flow into a socket of
// kind other.
func (k DataKind) Compatible(other DataKind) bool {
	if k == other {
		return true
	}
	if k == KindExec || other == KindExec {
		return false
	}
	return k == KindAny || other == KindAny
}

// Socket is a typed connection point owned by exactly one node for its
// whole lifetime. Sockets reference their edges by ID only.
type Socket struct {
	ID        ID
	NodeID    ID
	Name      string
	Direction Direction
	Kind      DataKind
	Edges     []ID
}

// HasEdges reports whether any edge is attached to the socket.
func (s *Socket) HasEdges() bool {
	return len(s.Edges) > 0
}

func (s *Socket) addEdge(id ID) {
	s.Edges = append(s.Edges, id)
}

func (s *Socket) removeEdge(id ID) {
	for i, e := range s.Edges {
		if e == id {
			s.Edges = append(s.Edges[:i], s.Edges[i+1:]...)
			return
		}
	}
}
