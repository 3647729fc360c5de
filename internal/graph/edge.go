package graph

// EdgeStyle is a presentation-only hint for how an edge is drawn. Changing
// it never affects graph structure.
type EdgeStyle string

const (
	StyleDirect EdgeStyle = "direct"
	StyleBezier EdgeStyle = "bezier"
	StyleSquare EdgeStyle = "square"
)

// ValidEdgeStyle reports whether s is one of the known styles.
func ValidEdgeStyle(s EdgeStyle) bool {
	switch s {
	case StyleDirect, StyleBezier, StyleSquare:
		return true
	}
	return false
}

// Edge is a directed connection from one output socket to one input socket.
// Both endpoints are stored by socket ID.
type Edge struct {
	ID    ID
	From  ID // output socket
	To    ID // input socket
	Style EdgeStyle
}
