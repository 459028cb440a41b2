package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreStore keeps records as documents of the activities collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

type firestoreRecord struct {
	Type      string                 `firestore:"type"`
	Timestamp time.Time              `firestore:"timestamp"`
	Payload   map[string]interface{} `firestore:"payload,omitempty"`
}

// OpenFirestore connects to Firestore in projectID. When the
// FIRESTORE_EMULATOR_HOST variable is set the client talks to the emulator.
func OpenFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, errors.New("firestore project ID is required")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreStore(client, Collection), nil
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = Collection
	}
	return &FirestoreStore{client: client, collection: collection}
}

// Name implements Store.
func (s *FirestoreStore) Name() string { return "firestore" }

// Append implements Store. The record ID is used as document ID.
func (s *FirestoreStore) Append(ctx context.Context, rec Record) error {
	doc := firestoreRecord{Type: string(rec.Type), Timestamp: rec.Timestamp, Payload: rec.Payload}
	if _, err := s.client.Collection(s.collection).Doc(rec.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to add activity document: %w", err)
	}
	return nil
}

// Between implements Store.
func (s *FirestoreStore) Between(ctx context.Context, from, to time.Time) ([]Record, error) {
	q := s.client.Collection(s.collection).
		Where("timestamp", ">=", from).
		Where("timestamp", "<", to).
		OrderBy("timestamp", firestore.Asc)
	return s.collect(q.Documents(ctx))
}

// Recent implements Store.
func (s *FirestoreStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	q := s.client.Collection(s.collection).OrderBy("timestamp", firestore.Desc).Limit(limit)
	return s.collect(q.Documents(ctx))
}

func (s *FirestoreStore) collect(iter *firestore.DocumentIterator) ([]Record, error) {
	defer iter.Stop()

	out := make([]Record, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read activity documents: %w", err)
		}
		var fr firestoreRecord
		if err := doc.DataTo(&fr); err != nil {
			return nil, fmt.Errorf("failed to decode activity %s: %w", doc.Ref.ID, err)
		}
		out = append(out, Record{
			ID:        doc.Ref.ID,
			Type:      Type(fr.Type),
			Timestamp: fr.Timestamp.UTC(),
			Payload:   fr.Payload,
		})
	}
	return out, nil
}

// Close implements Store.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
