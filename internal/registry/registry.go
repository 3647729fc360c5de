// Package registry maps stable node type tags to their definitions. The
// runtime never embeds concrete node behavior; the catalogue is populated
// at startup by the host and looked up by tag everywhere else.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
)

// ErrUnknownType is returned when a tag has no registered definition.
// During interactive spawning it is a hard failure; during document loading
// the serializer recovers by skipping the node.
var ErrUnknownType = errors.New("registry: unknown node type tag")

// Env is the execution environment handed to a node's Run function. The
// executor implements it; node behaviors stay decoupled from scheduling.
type Env interface {
	// Input resolves the value arriving at the named input socket.
	Input(n *graph.Node, name string) (any, bool)
	// SetOutput publishes a value on the named output socket.
	SetOutput(n *graph.Node, name string, value any) error
	// SelectExec chooses which exec output of n stays live for this run.
	// Nodes reachable only through the unselected outputs are skipped.
	SelectExec(n *graph.Node, name string) error
	// Vars exposes the graph's variable store.
	Vars() *graph.Variables
}

// RunFunc executes one node against its environment.
type RunFunc func(ctx context.Context, env Env, n *graph.Node) error

// Definition describes one node type: how to lay out its sockets and how
// to run it.
type Definition struct {
	Tag        int
	Name       string
	Executable bool
	// Build populates sockets and default data on a freshly created node.
	Build func(n *graph.Node) error
	// Run is called by the executor; nil for purely structural nodes.
	Run RunFunc
}

// Registry is safe for concurrent reads; Register should only be called
// during startup.
type Registry struct {
	mu   sync.RWMutex
	defs map[int]Definition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{defs: map[int]Definition{}}
}

// Register adds a definition. Panics on a duplicate tag to surface
// catalogue misconfiguration early.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Tag]; exists {
		panic(fmt.Sprintf("registry: duplicate node type tag %d", def.Tag))
	}
	r.defs[def.Tag] = def
}

// Resolve returns the definition for a tag.
func (r *Registry) Resolve(tag int) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[tag]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %d", ErrUnknownType, tag)
	}
	return def, nil
}

// Known reports whether a tag has a registered definition.
func (r *Registry) Known(tag int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[tag]
	return ok
}

// Tags returns all registered tags.
func (r *Registry) Tags() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.defs))
	for tag := range r.defs {
		out = append(out, tag)
	}
	return out
}

// Spawn builds a node of the given tag and inserts it into the graph. A
// failed build never leaves a partially-registered node behind.
func (r *Registry) Spawn(g *graph.Graph, tag int, pos graph.Point) (*graph.Node, error) {
	def, err := r.Resolve(tag)
	if err != nil {
		return nil, err
	}
	n := graph.NewNode(tag, def.Name)
	n.Position = pos
	n.Executable = def.Executable
	if def.Build != nil {
		if err := def.Build(n); err != nil {
			return nil, fmt.Errorf("registry: build node tag %d: %w", tag, err)
		}
	}
	if err := g.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}
