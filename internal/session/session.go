// Package session ties one open document together: a graph plus its
// history, executor and clipboard access. The manager keys sessions by
// graph id for the HTTP layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nodeflowlabs/nodeflow/internal/clipboard"
	"github.com/nodeflowlabs/nodeflow/internal/config"
	"github.com/nodeflowlabs/nodeflow/internal/executor"
	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/history"
	"github.com/nodeflowlabs/nodeflow/internal/metrics"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
	"github.com/nodeflowlabs/nodeflow/internal/serial"
	"github.com/nodeflowlabs/nodeflow/internal/store"
)

// ErrSessionNotFound is returned for unknown document ids.
var ErrSessionNotFound = errors.New("session: document not open")

// Session is one open document. The runtime underneath is single-threaded;
// the session's mutex is the caller-level synchronization the graph itself
// deliberately does not provide.
type Session struct {
	mu sync.Mutex

	Graph    *graph.Graph
	History  *history.History
	Executor *executor.Executor

	reg *registry.Registry
}

// ID returns the graph id, which doubles as the document id.
func (s *Session) ID() string {
	return s.Graph.ID.String()
}

// Mutate applies one committed mutation: fn edits the graph, and on
// success the change is captured as a history entry. The graph stays
// decoupled from history; this is the single choke point coupling them.
func (s *Session) Mutate(description string, fn func(*graph.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.Graph); err != nil {
		return err
	}
	// The mutated graph invalidates any stepped-run cursor.
	s.Executor.ResetStepped()
	s.History.Push(description)
	return nil
}

// Undo restores the previous history entry, if any.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, err := s.History.Undo()
	if moved {
		// The restored graph invalidates any stepped-run cursor.
		s.Executor.ResetStepped()
	}
	return moved, err
}

// Redo restores the next history entry, if any.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, err := s.History.Redo()
	if moved {
		s.Executor.ResetStepped()
	}
	return moved, err
}

// Execute drives a full run.
func (s *Session) Execute(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Executor.Run(ctx)
}

// ExecuteStep advances a stepped run by one node.
func (s *Session) ExecuteStep(ctx context.Context) (done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Executor.Step(ctx)
}

// ResetStepped discards the stepped-run cursor.
func (s *Session) ResetStepped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Executor.ResetStepped()
}

// Copy serializes the given nodes; with cut set the originals are removed
// and the removal committed to history as a single mutation.
func (s *Session) Copy(ids []graph.ID, cut bool) (*clipboard.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := clipboard.Copy(s.Graph, ids, cut)
	if err != nil {
		return nil, err
	}
	if cut {
		s.Executor.ResetStepped()
		s.History.Push("Cut nodes")
	}
	return payload, nil
}

// Paste rebuilds a payload into the graph with fresh identifiers and
// commits it to history.
func (s *Session) Paste(p *clipboard.Payload, offset graph.Point) ([]graph.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := clipboard.Paste(s.Graph, p, s.reg, offset)
	if err != nil {
		return nil, err
	}
	metrics.ClipboardPastes.Inc()
	s.Executor.ResetStepped()
	s.History.Push("Paste nodes")
	return ids, nil
}

// Document serializes the current graph, rejecting invalid structure.
func (s *Session) Document() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return serial.Encode(s.Graph)
}

// Manager owns all open sessions. It is adapted to be shared by HTTP
// handlers, hence its own lock; each session still serializes its own
// operations.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	reg      *registry.Registry
	store    store.Store
	conf     *config.Config

	// History depth per session, guarded by its own lock so the gauge can
	// be updated from inside a session's history callbacks without ever
	// touching mu. mu may be held when gaugeMu is taken, never the
	// reverse.
	gaugeMu sync.Mutex
	depths  map[string]int
}

// NewManager creates an empty manager.
func NewManager(reg *registry.Registry, st store.Store, conf *config.Config) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		reg:      reg,
		store:    st,
		conf:     conf,
		depths:   map[string]int{},
	}
}

// SetConfig swaps the config used for future sessions (hot-reload).
func (m *Manager) SetConfig(conf *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conf = conf
}

// Create opens a fresh empty document and records its initial history
// point.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := graph.New()
	g.SetEdgeStyle(graph.EdgeStyle(m.conf.Graph.DefaultEdgeStyle))
	s := m.wrap(g)
	s.History.SetInitialPoint()
	m.sessions[s.ID()] = s
	metrics.DocumentsOpen.Set(float64(len(m.sessions)))
	return s
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Open loads a document from the store and opens a session for it. The
// current graph (if the id is already open) is only replaced after the
// incoming document decoded successfully: load is all-or-nothing.
func (m *Manager) Open(ctx context.Context, id string) (*Session, *serial.Result, error) {
	data, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	g, res, err := serial.Decode(data, m.reg)
	if err != nil {
		return nil, nil, err
	}
	metrics.DocumentsLoaded.Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.wrap(g)
	s.Executor.ResetStepped()
	s.History.SetInitialPoint()
	m.sessions[s.ID()] = s
	metrics.DocumentsOpen.Set(float64(len(m.sessions)))
	return s, res, nil
}

// Save persists a session's document to the store.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	data, err := s.Document()
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, s.ID(), data); err != nil {
		return err
	}
	s.Graph.SetDirty(false)
	metrics.DocumentsSaved.Inc()
	return nil
}

// Close drops an open session. Unsaved changes are lost.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	metrics.DocumentsOpen.Set(float64(len(m.sessions)))
	m.dropHistoryDepth(id)
	return nil
}

// List returns the ids of all open sessions.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}

// Store exposes the underlying document store.
func (m *Manager) Store() store.Store {
	return m.store
}

func (m *Manager) wrap(g *graph.Graph) *Session {
	s := &Session{
		Graph:    g,
		Executor: executor.New(g, m.reg),
		reg:      m.reg,
	}
	s.History = history.New(g, m.reg, m.conf.History.MaxDepth)
	s.History.CaptureSelectionChanges = m.conf.History.CaptureSelectionChanges
	id := s.ID()
	s.History.OnChange(func() {
		// Fires on the goroutine driving the session, with its lock held;
		// Size is safe to read here.
		m.recordHistoryDepth(id, s.History.Size())
	})
	return s
}

func (m *Manager) recordHistoryDepth(id string, size int) {
	m.gaugeMu.Lock()
	defer m.gaugeMu.Unlock()
	m.depths[id] = size
	m.publishHistoryGauge()
}

func (m *Manager) dropHistoryDepth(id string) {
	m.gaugeMu.Lock()
	defer m.gaugeMu.Unlock()
	delete(m.depths, id)
	m.publishHistoryGauge()
}

// publishHistoryGauge sums per-session depths; callers hold gaugeMu.
func (m *Manager) publishHistoryGauge() {
	total := 0
	for _, n := range m.depths {
		total += n
	}
	metrics.HistoryEntries.Set(float64(total))
}
