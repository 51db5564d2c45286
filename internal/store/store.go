// Package store abstracts the hosted document database behind the feed.
// Two backends implement it: Firestore (the production one) and MongoDB.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a decoded document body with plain map/slice/scalar values.
type Document map[string]any

// Snapshot is one observed state of a document. Exists is false when the
// document has been observed to no longer exist.
type Snapshot struct {
	ID     string
	Data   Document
	Exists bool
}

// Increment marks a field value as an atomic server-side increment instead of
// an overwrite, so a single reaction counter can be bumped without touching
// the rest of the map.
type Increment struct {
	By int64
}

// UpdateHandler receives document snapshots from a live subscription in
// server-assigned order.
type UpdateHandler func(Snapshot)

// ErrorHandler receives terminal subscription errors.
type ErrorHandler func(error)

// Unsubscribe tears down a live subscription. It is safe to call more than
// once; no updates are delivered after it returns.
type Unsubscribe func()

// Store is the remote document-store interface the application consumes.
// UpdateFields accepts dotted field paths ("reactions.🔥") and Increment
// values; everything else is a whole-field overwrite. Subscribe delivers the
// document's current state as its first snapshot (Exists=false when the
// document is already gone), then every subsequent change.
type Store interface {
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	ListDocuments(ctx context.Context, collection, orderByField string) ([]Snapshot, error)
	Subscribe(ctx context.Context, collection, id string, onUpdate UpdateHandler, onError ErrorHandler) (Unsubscribe, error)
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error
	DeleteDocument(ctx context.Context, collection, id string) error
	CreateDocument(ctx context.Context, collection string, doc Document) (string, error)
}

// initialSnapshot converts a point read into the first snapshot of a
// subscription: a missing document becomes Exists=false rather than an
// error, so attaching to an already-deleted post still terminates.
func initialSnapshot(id string, doc Document, err error) (Snapshot, error) {
	if errors.Is(err, ErrNotFound) {
		return Snapshot{ID: id, Exists: false}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: id, Data: doc, Exists: true}, nil
}
