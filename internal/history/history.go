// Package history implements linear snapshot undo/redo for one graph.
// Every committed mutation pushes a full serialized snapshot; undo and redo
// restore by whole-graph replacement. Memory is traded for correctness and
// simplicity.
package history

import (
	"fmt"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
	"github.com/nodeflowlabs/nodeflow/internal/serial"
)

// InitialDescription labels the entry captured when a document is freshly
// created or loaded.
const InitialDescription = "Initial state"

// DefaultMaxDepth bounds the stack when no limit is configured.
const DefaultMaxDepth = 32

// Entry is one immutable point on the undo stack.
type Entry struct {
	Description string
	Seq         int
	snapshot    *serial.Document
}

// History is the undo/redo stack for a single graph. It holds no
// cross-graph state and is driven from the same goroutine as the graph.
type History struct {
	g   *graph.Graph
	reg *registry.Registry

	entries []Entry
	cursor  int // index of the current entry, -1 when empty
	seq     int
	limit   int

	// CaptureSelectionChanges decides whether selection-only changes are
	// undoable. The original system recorded them; that stays a policy
	// knob here, off by default.
	CaptureSelectionChanges bool

	onChange []func()
}

// New creates an empty history bound to one graph. maxDepth <= 0 selects
// DefaultMaxDepth.
func New(g *graph.Graph, reg *registry.Registry, maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &History{g: g, reg: reg, cursor: -1, limit: maxDepth}
}

// OnChange registers a listener fired after every push, undo, redo and
// clear.
func (h *History) OnChange(fn func()) {
	h.onChange = append(h.onChange, fn)
}

// Push captures the graph's current state under a human-readable
// description. Any redo tail beyond the cursor is discarded first: editing
// after an undo abandons the redone-away branch. When the depth bound is
// exceeded the oldest entry is evicted and the cursor clamped.
func (h *History) Push(description string) {
	h.entries = h.entries[:h.cursor+1]
	h.seq++
	h.entries = append(h.entries, Entry{
		Description: description,
		Seq:         h.seq,
		snapshot:    serial.Snapshot(h.g),
	})
	h.cursor = len(h.entries) - 1
	if len(h.entries) > h.limit {
		h.entries = h.entries[1:]
		h.cursor--
	}
	h.fire()
}

// PushSelection captures a selection-only change, subject to policy.
func (h *History) PushSelection(description string) {
	if !h.CaptureSelectionChanges {
		return
	}
	h.Push(description)
}

// SetInitialPoint records the baseline entry for a fresh or just-loaded
// document, but only when the stack is empty.
func (h *History) SetInitialPoint() {
	if len(h.entries) == 0 {
		h.Push(InitialDescription)
	}
}

// Undo steps back one entry and restores it. At the bottom of the stack it
// is a no-op, not an error.
func (h *History) Undo() (bool, error) {
	if h.cursor <= 0 {
		return false, nil
	}
	h.cursor--
	if err := h.restore(); err != nil {
		h.cursor++
		return false, err
	}
	h.fire()
	return true, nil
}

// Redo steps forward one entry and restores it. At the top of the stack it
// is a no-op, not an error.
func (h *History) Redo() (bool, error) {
	if h.cursor >= len(h.entries)-1 {
		return false, nil
	}
	h.cursor++
	if err := h.restore(); err != nil {
		h.cursor--
		return false, err
	}
	h.fire()
	return true, nil
}

// CanUndo reports whether Undo would restore anything.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether Redo would restore anything.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Clear drops every entry.
func (h *History) Clear() {
	h.entries = nil
	h.cursor = -1
	h.fire()
}

// Size returns the number of stacked entries.
func (h *History) Size() int {
	return len(h.entries)
}

// Cursor returns the index of the current entry, -1 when empty.
func (h *History) Cursor() int {
	return h.cursor
}

// Current returns the entry the cursor points at.
func (h *History) Current() (Entry, bool) {
	if h.cursor < 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor], true
}

// Entries lists descriptions oldest-first, for presentation.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Description
	}
	return out
}

func (h *History) restore() error {
	entry := h.entries[h.cursor]
	if _, err := serial.Restore(h.g, entry.snapshot, h.reg); err != nil {
		return fmt.Errorf("history: restore %q: %w", entry.Description, err)
	}
	return nil
}

func (h *History) fire() {
	for _, fn := range h.onChange {
		fn()
	}
}
