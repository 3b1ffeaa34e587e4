// Package redis provides Redis-based adapters for courseshop.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/courseshop/internal/domain/session"
)

const defaultPrefix = "session:"

// SessionStore is a Redis-based session store. Record expiry maps onto the key TTL.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, defaultPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// Save writes the record with a TTL of its remaining lifetime.
func (s *SessionStore) Save(ctx context.Context, rec session.Record) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+rec.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get loads a record, mapping a missing key to session.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (session.Record, error) {
	if id == "" {
		return session.Record{}, session.ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Record{}, session.ErrNotFound
		}
		return session.Record{}, fmt.Errorf("redis get: %w", err)
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return session.Record{}, fmt.Errorf("unmarshal session: %w", err)
	}

	// TTL should already have evicted it; clock skew between hosts can leave a stale key.
	if rec.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return session.Record{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return session.Record{}, session.ErrNotFound
	}
	return rec, nil
}

// Delete removes a record. Unknown ids are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Purge removes every key under the store prefix.
func (s *SessionStore) Purge(ctx context.Context) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	return removed, nil
}

// Ping checks the Redis connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
