// Package store persists serialized graph documents. The runtime treats
// save/load as ordinary blocking calls at the edge of the system; callers
// wanting responsiveness run them off the control goroutine.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a document id has nothing stored under it.
var ErrNotFound = errors.New("store: document not found")

// Store is the contract for persisting serialized documents by graph id.
type Store interface {
	Save(ctx context.Context, id string, doc []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Memory is the in-process Store used by tests and the default server
// mode.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: map[string][]byte{}}
}

func (m *Memory) Save(ctx context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(doc))
	copy(buf, doc)
	m.docs[id] = buf
	return nil
}

func (m *Memory) Load(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(doc))
	copy(buf, doc)
	return buf, nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for id := range m.docs {
		out = append(out, id)
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}
