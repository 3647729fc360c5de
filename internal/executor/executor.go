// Package executor walks the executable nodes of a graph in dependency
// order and runs them. It supports a full run and a cooperative stepped
// mode where the caller advances one node per call.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/metrics"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
)

// CycleError halts a run before anything executes: the executable subgraph
// is not a DAG.
type CycleError struct {
	NodeID graph.ID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("executor: cycle detected involving node %s", e.NodeID)
}

// NodeError wraps a node's own failure. Downstream nodes do not run;
// already-executed side effects stay in place, like a pipeline with
// partial-failure semantics rather than a transaction.
type NodeError struct {
	NodeID graph.ID
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("executor: node %s failed: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Executor drives one graph. It is single-threaded: the caller owns the
// pacing, and stepped runs suspend simply by not being advanced.
type Executor struct {
	g   *graph.Graph
	reg *registry.Registry

	order    []graph.ID
	cursor   int
	values   map[graph.ID]any   // output socket id -> produced value
	selected map[graph.ID]graph.ID // node id -> chosen exec output socket
	skipped  map[graph.ID]bool

	onStep []func(graph.ID)
	onFail []func(graph.ID, error)
}

// New binds an executor to a graph and a type registry.
func New(g *graph.Graph, reg *registry.Registry) *Executor {
	return &Executor{g: g, reg: reg}
}

// OnStepCompleted registers a listener fired after each node executes.
func (e *Executor) OnStepCompleted(fn func(graph.ID)) {
	e.onStep = append(e.onStep, fn)
}

// OnRunFailed registers a listener fired when a run halts on an error.
func (e *Executor) OnRunFailed(fn func(graph.ID, error)) {
	e.onFail = append(e.onFail, fn)
}

// Run executes every executable node in dependency order. On a cycle
// nothing runs; on a node failure downstream execution halts.
func (e *Executor) Run(ctx context.Context) error {
	start := time.Now()
	e.ResetStepped()
	order, err := e.buildOrder()
	if err != nil {
		e.failed(err)
		metrics.RunsTotal.WithLabelValues("cycle").Inc()
		return err
	}
	for _, id := range order {
		if !e.active(id) {
			e.skip(id)
			continue
		}
		if err := e.runNode(ctx, id); err != nil {
			e.failed(err)
			metrics.RunsTotal.WithLabelValues("error").Inc()
			return err
		}
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	metrics.RunDuration.Observe(float64(time.Since(start).Milliseconds()))
	return nil
}

// Step advances a stepped run by exactly one node, building the order on
// the first call. done is true once every node has executed; the caller
// cancels a stepped run by simply not calling Step again and invoking
// ResetStepped.
func (e *Executor) Step(ctx context.Context) (done bool, err error) {
	if e.order == nil {
		order, err := e.buildOrder()
		if err != nil {
			e.failed(err)
			metrics.RunsTotal.WithLabelValues("cycle").Inc()
			return true, err
		}
		e.order = order
		e.cursor = 0
	}
	for e.cursor < len(e.order) {
		id := e.order[e.cursor]
		if !e.active(id) {
			// Gated off by an unselected exec output; falls through to the
			// next runnable node so every call makes progress.
			e.skip(id)
			e.cursor++
			continue
		}
		if err := e.runNode(ctx, id); err != nil {
			e.failed(err)
			return true, err
		}
		e.cursor++
		return e.cursor >= len(e.order), nil
	}
	return true, nil
}

// ResetStepped discards the stepped-run cursor and all produced values.
func (e *Executor) ResetStepped() {
	e.order = nil
	e.cursor = 0
	e.values = nil
	e.selected = nil
	e.skipped = nil
}

// Remaining returns how many nodes a stepped run still has to execute,
// -1 before the order is built.
func (e *Executor) Remaining() int {
	if e.order == nil {
		return -1
	}
	return len(e.order) - e.cursor
}

// buildOrder produces a topological order over the executable nodes:
// depth-first, each node visited only after all of its upstream executable
// dependencies. A node reached while still on the DFS stack means a cycle.
func (e *Executor) buildOrder() ([]graph.ID, error) {
	visiting := map[graph.ID]bool{}
	visited := map[graph.ID]bool{}
	var order []graph.ID

	var visit func(n *graph.Node) error
	visit = func(n *graph.Node) error {
		visiting[n.ID] = true
		for _, dep := range e.upstream(n) {
			if visiting[dep.ID] {
				return &CycleError{NodeID: dep.ID}
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, n.ID)
		visited[n.ID] = true
		order = append(order, n.ID)
		return nil
	}

	for _, n := range e.g.Nodes() {
		if !n.Executable || visited[n.ID] {
			continue
		}
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// upstream lists the executable nodes feeding n's input sockets.
func (e *Executor) upstream(n *graph.Node) []*graph.Node {
	seen := map[graph.ID]bool{}
	var deps []*graph.Node
	for _, s := range n.Inputs {
		for _, edgeID := range s.Edges {
			edge, ok := e.g.Edge(edgeID)
			if !ok {
				continue
			}
			src, ok := e.g.Socket(edge.From)
			if !ok {
				continue
			}
			dep, ok := e.g.Node(src.NodeID)
			if !ok || !dep.Executable || seen[dep.ID] {
				continue
			}
			seen[dep.ID] = true
			deps = append(deps, dep)
		}
	}
	return deps
}

// active reports whether a node may run. A node whose exec inputs are all
// fed by skipped nodes or unselected exec outputs is gated off; a node
// with no connected exec input always runs.
func (e *Executor) active(id graph.ID) bool {
	n, ok := e.g.Node(id)
	if !ok {
		return true // runNode surfaces the error
	}
	gated := false
	for _, s := range n.Inputs {
		if s.Kind != graph.KindExec || len(s.Edges) == 0 {
			continue
		}
		gated = true
		for _, edgeID := range s.Edges {
			edge, ok := e.g.Edge(edgeID)
			if !ok {
				continue
			}
			src, ok := e.g.Socket(edge.From)
			if !ok {
				continue
			}
			if e.skipped[src.NodeID] {
				continue
			}
			if sel, chose := e.selected[src.NodeID]; chose && sel != src.ID {
				continue
			}
			return true
		}
	}
	return !gated
}

func (e *Executor) skip(id graph.ID) {
	if e.skipped == nil {
		e.skipped = map[graph.ID]bool{}
	}
	e.skipped[id] = true
}

func (e *Executor) runNode(ctx context.Context, id graph.ID) error {
	n, ok := e.g.Node(id)
	if !ok {
		return &NodeError{NodeID: id, Err: graph.ErrNodeNotFound}
	}
	def, err := e.reg.Resolve(n.Tag)
	if err != nil {
		return &NodeError{NodeID: id, Err: err}
	}
	if def.Run != nil {
		if err := def.Run(ctx, e, n); err != nil {
			return &NodeError{NodeID: id, Err: err}
		}
	}
	metrics.NodesExecuted.Inc()
	for _, fn := range e.onStep {
		fn(id)
	}
	return nil
}

func (e *Executor) failed(err error) {
	var id graph.ID
	switch failure := err.(type) {
	case *CycleError:
		id = failure.NodeID
	case *NodeError:
		id = failure.NodeID
	}
	for _, fn := range e.onFail {
		fn(id, err)
	}
}

// Input resolves the value arriving at the named input socket of n by
// following its edge back to the producing output socket.
func (e *Executor) Input(n *graph.Node, name string) (any, bool) {
	s, ok := n.Input(name)
	if !ok || len(s.Edges) == 0 {
		return nil, false
	}
	edge, ok := e.g.Edge(s.Edges[0])
	if !ok {
		return nil, false
	}
	v, ok := e.values[edge.From]
	return v, ok
}

// SetOutput publishes a value on the named output socket of n.
func (e *Executor) SetOutput(n *graph.Node, name string, value any) error {
	s, ok := n.Output(name)
	if !ok {
		return fmt.Errorf("executor: node %s has no output socket %q", n.ID, name)
	}
	if e.values == nil {
		e.values = map[graph.ID]any{}
	}
	e.values[s.ID] = value
	return nil
}

// SelectExec records which exec output of n carries control flow for the
// rest of the run.
func (e *Executor) SelectExec(n *graph.Node, name string) error {
	s, ok := n.Output(name)
	if !ok || s.Kind != graph.KindExec {
		return fmt.Errorf("executor: node %s has no exec output %q", n.ID, name)
	}
	if e.selected == nil {
		e.selected = map[graph.ID]graph.ID{}
	}
	e.selected[n.ID] = s.ID
	return nil
}

// Vars exposes the graph's variable store to node behaviors.
func (e *Executor) Vars() *graph.Variables {
	return e.g.Vars()
}
