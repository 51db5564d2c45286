package store

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on MongoDB. Live subscriptions use change
// streams, so the deployment must be a replica set.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps a connected database handle.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// GetDocument retrieves a single document body.
func (s *MongoStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document ID format: %w", err)
	}

	var raw bson.M
	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": objID}).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo get %s/%s: %w", collection, id, err)
	}
	return normalizeDocument(raw), nil
}

// ListDocuments retrieves a collection ordered by the given field, newest
// first.
func (s *MongoStore) ListDocuments(ctx context.Context, collection, orderByField string) ([]Snapshot, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: orderByField, Value: -1}})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var snapshots []Snapshot
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("mongo decode in %s: %w", collection, err)
		}
		snap := Snapshot{Data: normalizeDocument(raw), Exists: true}
		if objID, ok := raw["_id"].(primitive.ObjectID); ok {
			snap.ID = objID.Hex()
		}
		delete(snap.Data, "_id")
		snapshots = append(snapshots, snap)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo list %s: %w", collection, err)
	}
	return snapshots, nil
}

// Subscribe watches a single document through a change stream. Change
// streams only emit subsequent mutations, so the current document state is
// read and delivered as the first snapshot before streaming begins. Deletes
// are surfaced as snapshots with Exists=false.
func (s *MongoStore) Subscribe(ctx context.Context, collection, id string, onUpdate UpdateHandler, onError ErrorHandler) (Unsubscribe, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document ID format: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: objID}}}},
	}
	streamOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.db.Collection(collection).Watch(subCtx, pipeline, streamOptions)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mongo watch %s/%s: %w", collection, id, err)
	}

	go func() {
		defer stream.Close(context.Background())

		// The stream is opened before the point read, so a write racing the
		// read is also delivered as an event and last-snapshot-wins applies.
		doc, err := s.GetDocument(subCtx, collection, id)
		initial, err := initialSnapshot(id, doc, err)
		if err != nil {
			if subCtx.Err() == nil && onError != nil {
				onError(err)
			}
			return
		}
		onUpdate(initial)

		for stream.Next(subCtx) {
			var event struct {
				OperationType string `bson:"operationType"`
				FullDocument  bson.M `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			if event.OperationType == "delete" {
				onUpdate(Snapshot{ID: id, Exists: false})
				continue
			}
			data := normalizeDocument(event.FullDocument)
			delete(data, "_id")
			onUpdate(Snapshot{ID: id, Data: data, Exists: true})
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil && onError != nil {
			onError(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}

// UpdateFields applies a partial update. Mongo supports dotted paths
// natively; Increment values turn into $inc.
func (s *MongoStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid document ID format: %w", err)
	}

	set := bson.M{}
	inc := bson.M{}
	for path, value := range fields {
		if increment, ok := value.(Increment); ok {
			inc[path] = increment.By
		} else {
			set[path] = value
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if len(update) == 0 {
		return nil
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("mongo update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document. Deleting a missing document is not an
// error.
func (s *MongoStore) DeleteDocument(ctx context.Context, collection, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid document ID format: %w", err)
	}
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": objID}); err != nil {
		return fmt.Errorf("mongo delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// CreateDocument inserts a document and returns its hex ID.
func (s *MongoStore) CreateDocument(ctx context.Context, collection string, doc Document) (string, error) {
	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", fmt.Errorf("mongo create in %s: %w", collection, err)
	}
	objID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("mongo create in %s: unexpected inserted ID type %T", collection, res.InsertedID)
	}
	return objID.Hex(), nil
}

// normalizeDocument rewrites BSON container types (bson.M, bson.D,
// primitive.A) into plain maps and slices so the rest of the application
// never sees driver types.
func normalizeDocument(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		doc[k] = normalizeValue(v)
	}
	return doc
}

func normalizeValue(v any) any {
	switch value := v.(type) {
	case bson.M:
		out := make(map[string]any, len(value))
		for k, inner := range value {
			out[k] = normalizeValue(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(value))
		for _, elem := range value {
			out[elem.Key] = normalizeValue(elem.Value)
		}
		return out
	case primitive.A:
		out := make([]any, 0, len(value))
		for _, inner := range value {
			out = append(out, normalizeValue(inner))
		}
		return out
	case primitive.DateTime:
		return int64(value)
	case primitive.ObjectID:
		return value.Hex()
	default:
		return v
	}
}
