// Package mongostore keeps sessions, messages and documents in MongoDB, one
// collection each, keyed by the public "id" field.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"docchat/internal/model"
)

const (
	sessionsCollection  = "sessions"
	messagesCollection  = "messages"
	documentsCollection = "documents"
)

// EnsureIndexes creates the lookup indexes used by the stores.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		sessionsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "updated_at", Value: -1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		documentsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "uploaded_at", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes failed: %w", name, err)
		}
	}
	return nil
}

type SessionStore struct {
	collection *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{collection: db.Collection(sessionsCollection)}
}

func (s *SessionStore) Create(ctx context.Context, session *model.Session) error {
	if _, err := s.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("insert session failed: %w", err)
	}
	return nil
}

func (s *SessionStore) List(ctx context.Context, limit int) ([]model.Session, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions failed: %w", err)
	}
	sessions := []model.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions failed: %w", err)
	}
	return sessions, nil
}

func (s *SessionStore) GetByPublicID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := s.collection.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session failed: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	if _, err := s.collection.UpdateOne(ctx, bson.D{{Key: "id", Value: id}}, bson.D{{Key: "$set", Value: set}}); err != nil {
		return fmt.Errorf("update session failed: %w", err)
	}
	return nil
}

type MessageStore struct {
	collection *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{collection: db.Collection(messagesCollection)}
}

func (s *MessageStore) Create(ctx context.Context, message *model.Message) error {
	if _, err := s.collection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("insert message failed: %w", err)
	}
	return nil
}

func (s *MessageStore) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	return s.find(ctx, sessionID, limit, 1)
}

func (s *MessageStore) ListRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	messages, err := s.find(ctx, sessionID, limit, -1)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *MessageStore) find(ctx context.Context, sessionID string, limit int, order int) ([]model.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: order}, {Key: "_id", Value: order}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.D{{Key: "session_id", Value: sessionID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages failed: %w", err)
	}
	messages := []model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages failed: %w", err)
	}
	return messages, nil
}

type DocumentStore struct {
	collection *mongo.Collection
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{collection: db.Collection(documentsCollection)}
}

// Create stores the document with its chunks embedded.
func (s *DocumentStore) Create(ctx context.Context, doc *model.Document) error {
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert document failed: %w", err)
	}
	return nil
}

func (s *DocumentStore) LatestBySessionID(ctx context.Context, sessionID string) (*model.Document, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "uploaded_at", Value: -1}, {Key: "_id", Value: -1}})
	var doc model.Document
	if err := s.collection.FindOne(ctx, bson.D{{Key: "session_id", Value: sessionID}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find document failed: %w", err)
	}
	return &doc, nil
}
