// Package store provides DocumentStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/starboard/chore-engine/board"
	"github.com/starboard/chore-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu  sync.RWMutex
	doc *engine.Document
	rev board.Revision
}

func NewMemory() *Memory {
	return &Memory{doc: &engine.Document{}}
}

// NewMemoryWith seeds the store with an initial document.
func NewMemoryWith(doc *engine.Document) *Memory {
	return &Memory{doc: doc.Clone()}
}

// Load returns a deep copy so callers can mutate freely before saving.
func (m *Memory) Load(_ context.Context) (*engine.Document, board.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone(), m.rev, nil
}

// Save replaces the document if the expected revision still holds.
func (m *Memory) Save(_ context.Context, doc *engine.Document, expected board.Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expected != m.rev {
		return engine.ErrConcurrentModification
	}
	m.doc = doc.Clone()
	m.rev++
	return nil
}

// Revision reports the current revision. Test helper.
func (m *Memory) Revision() board.Revision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rev
}
