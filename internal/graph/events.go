package graph

// Events is the typed listener list a presentation layer subscribes to.
// Listeners fire synchronously on the calling goroutine and are pure
// notifications: the runtime takes no action based on who is listening.
type Events struct {
	nodeAdded        []func(*Node)
	nodeRemoved      []func(ID)
	edgeAdded        []func(*Edge)
	edgeRemoved      []func(ID)
	selectionChanged []func([]ID)
}

// OnNodeAdded registers a listener for node insertion.
func (e *Events) OnNodeAdded(fn func(*Node)) {
	e.nodeAdded = append(e.nodeAdded, fn)
}

// OnNodeRemoved registers a listener for node removal.
func (e *Events) OnNodeRemoved(fn func(ID)) {
	e.nodeRemoved = append(e.nodeRemoved, fn)
}

// OnEdgeAdded registers a listener for edge insertion.
func (e *Events) OnEdgeAdded(fn func(*Edge)) {
	e.edgeAdded = append(e.edgeAdded, fn)
}

// OnEdgeRemoved registers a listener for edge removal.
func (e *Events) OnEdgeRemoved(fn func(ID)) {
	e.edgeRemoved = append(e.edgeRemoved, fn)
}

// OnSelectionChanged registers a listener for selection updates.
func (e *Events) OnSelectionChanged(fn func([]ID)) {
	e.selectionChanged = append(e.selectionChanged, fn)
}

func (e *Events) emitNodeAdded(n *Node) {
	for _, fn := range e.nodeAdded {
		fn(n)
	}
}

func (e *Events) emitNodeRemoved(id ID) {
	for _, fn := range e.nodeRemoved {
		fn(id)
	}
}

func (e *Events) emitEdgeAdded(ed *Edge) {
	for _, fn := range e.edgeAdded {
		fn(ed)
	}
}

func (e *Events) emitEdgeRemoved(id ID) {
	for _, fn := range e.edgeRemoved {
		fn(id)
	}
}

func (e *Events) emitSelectionChanged(ids []ID) {
	for _, fn := range e.selectionChanged {
		fn(ids)
	}
}
