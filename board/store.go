/*
store.go - Persistence interface for the board document

PURPOSE:
  Defines the interface between the board service and the database. The
  whole aggregate document is read and written wholesale - there is no
  partial update - but every write is guarded by a revision check so two
  family members tapping "complete" at the same time cannot silently drop
  each other's change.

CONTRACT:
  Load returns a private copy of the document plus the revision it was read
  at. Save persists the document only if the store is still at that
  revision; otherwise it fails with engine.ErrConcurrentModification and
  the caller reloads and retries.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - board/store:  in-memory store for testing
*/
package board

import (
	"context"

	"github.com/starboard/chore-engine/engine"
)

// Revision is a monotonically increasing document version stamp.
type Revision int64

// DocumentStore persists the board aggregate with optimistic concurrency.
type DocumentStore interface {
	// Load returns a copy of the current document and its revision.
	Load(ctx context.Context) (*engine.Document, Revision, error)

	// Save persists doc if the store is still at the expected revision.
	// Returns engine.ErrConcurrentModification on a revision mismatch.
	Save(ctx context.Context, doc *engine.Document, expected Revision) error
}
