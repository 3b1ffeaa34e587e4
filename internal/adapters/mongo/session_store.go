// Package mongo provides the MongoDB session store.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/target/courseshop/internal/domain/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// sessionDoc is the stored shape. Data holds the JSON-encoded values.
type sessionDoc struct {
	ID         string    `bson:"_id"`
	Data       []byte    `bson:"data"`
	CreatedAt  time.Time `bson:"created_at"`
	LastAccess time.Time `bson:"last_access"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

// SessionStore keeps sessions in a collection with a TTL index on expires_at.
type SessionStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewSessionStore wraps coll. Call EnsureIndexes once at startup.
func NewSessionStore(coll *mongo.Collection) *SessionStore {
	return &SessionStore{coll: coll, now: time.Now}
}

// EnsureIndexes creates the TTL index that lets the server expire sessions.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return fmt.Errorf("create sessions ttl index: %w", err)
	}
	return nil
}

// Get loads a live record. The TTL monitor runs about once a minute, so expiry is also checked here.
func (s *SessionStore) Get(ctx context.Context, id string) (session.Record, error) {
	if id == "" {
		return session.Record{}, session.ErrNotFound
	}
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("mongo find session: %w", err)
	}
	rec, err := fromDoc(doc)
	if err != nil {
		return session.Record{}, err
	}
	if rec.Expired(s.now()) {
		return session.Record{}, session.ErrNotFound
	}
	return rec, nil
}

// Save upserts the record.
func (s *SessionStore) Save(ctx context.Context, rec session.Record) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	doc, err := toDoc(rec)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save session: %w", err)
	}
	return nil
}

// Delete removes a record. Unknown ids are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete session: %w", err)
	}
	return nil
}

// Purge removes every session document.
func (s *SessionStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo purge sessions: %w", err)
	}
	return res.DeletedCount, nil
}

// Ping checks the primary is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func toDoc(rec session.Record) (sessionDoc, error) {
	data, err := json.Marshal(rec.Values)
	if err != nil {
		return sessionDoc{}, fmt.Errorf("encode session data: %w", err)
	}
	return sessionDoc{
		ID:         rec.ID,
		Data:       data,
		CreatedAt:  rec.CreatedAt.UTC(),
		LastAccess: rec.LastAccess.UTC(),
		ExpiresAt:  rec.ExpiresAt.UTC(),
	}, nil
}

func fromDoc(doc sessionDoc) (session.Record, error) {
	rec := session.Record{
		ID:         doc.ID,
		CreatedAt:  doc.CreatedAt,
		LastAccess: doc.LastAccess,
		ExpiresAt:  doc.ExpiresAt,
	}
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &rec.Values); err != nil {
			return session.Record{}, fmt.Errorf("decode session data: %w", err)
		}
	}
	return rec, nil
}
