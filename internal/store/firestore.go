package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// FirestoreStore implements Store on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// GetDocument retrieves a single document body.
func (s *FirestoreStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	return Document(snap.Data()), nil
}

// ListDocuments retrieves a collection ordered by the given field, newest
// first.
func (s *FirestoreStore) ListDocuments(ctx context.Context, collection, orderByField string) ([]Snapshot, error) {
	iter := s.client.Collection(collection).OrderBy(orderByField, firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var snapshots []Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s: %w", collection, err)
		}
		snapshots = append(snapshots, Snapshot{ID: doc.Ref.ID, Data: Document(doc.Data()), Exists: true})
	}
	return snapshots, nil
}

// Subscribe streams document snapshots until the returned Unsubscribe is
// called. A snapshot with Exists=false means the document was deleted.
func (s *FirestoreStore) Subscribe(ctx context.Context, collection, id string, onUpdate UpdateHandler, onError ErrorHandler) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	iter := s.client.Collection(collection).Doc(id).Snapshots(subCtx)

	go func() {
		for {
			snap, err := iter.Next()
			if err != nil {
				if subCtx.Err() == nil && onError != nil {
					onError(err)
				}
				return
			}
			if !snap.Exists() {
				onUpdate(Snapshot{ID: id, Exists: false})
				continue
			}
			onUpdate(Snapshot{ID: id, Data: Document(snap.Data()), Exists: true})
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			iter.Stop()
		})
	}, nil
}

// UpdateFields applies a partial update. Dotted paths address nested fields
// and Increment values become server-side transforms.
func (s *FirestoreStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		if inc, ok := value.(Increment); ok {
			value = firestore.Increment(inc.By)
		}
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath(strings.Split(path, ".")),
			Value:     value,
		})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("firestore update %s/%s: %w", collection, id, err)
	}
	return nil
}

// DeleteDocument removes a document. Deleting a missing document is not an
// error, matching Firestore semantics.
func (s *FirestoreStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// CreateDocument adds a document with a server-assigned ID.
func (s *FirestoreStore) CreateDocument(ctx context.Context, collection string, doc Document) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]any(doc))
	if err != nil {
		return "", fmt.Errorf("firestore create in %s: %w", collection, err)
	}
	return ref.ID, nil
}
