// Package memcached provides the memcached session store.
package memcached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/target/courseshop/internal/domain/session"
)

const (
	defaultPrefix = "session:"
	// Memcached reads expirations above 30 days as absolute unix timestamps.
	maxRelativeExpiry = 30 * 24 * time.Hour
)

// Client is the subset of *memcache.Client used by the store.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
	Ping() error
}

// SessionStore keeps sessions as JSON items with a native expiration.
type SessionStore struct {
	client Client
	prefix string
	now    func() time.Time
}

// NewSessionStore wraps a memcache client.
func NewSessionStore(client Client) *SessionStore {
	return &SessionStore{client: client, prefix: defaultPrefix, now: time.Now}
}

// NewClient builds a memcache client with an operation timeout.
func NewClient(servers []string, timeout time.Duration) *memcache.Client {
	c := memcache.New(servers...)
	c.Timeout = timeout
	return c
}

// Get loads a live record.
func (s *SessionStore) Get(_ context.Context, id string) (session.Record, error) {
	if id == "" {
		return session.Record{}, session.ErrNotFound
	}
	item, err := s.client.Get(s.prefix + id)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("memcached get: %w", err)
	}
	var rec session.Record
	if err := json.Unmarshal(item.Value, &rec); err != nil {
		return session.Record{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if rec.Expired(s.now()) {
		return session.Record{}, session.ErrNotFound
	}
	return rec, nil
}

// Save writes the record with an expiration matching ExpiresAt.
func (s *SessionStore) Save(_ context.Context, rec session.Record) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	now := s.now()
	if rec.Expired(now) {
		return errors.New("session is expired")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	err = s.client.Set(&memcache.Item{
		Key:        s.prefix + rec.ID,
		Value:      data,
		Expiration: expiration(now, rec.ExpiresAt),
	})
	if err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// Delete removes a record. Unknown ids are not an error.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := s.client.Delete(s.prefix + id)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcached delete: %w", err)
	}
	return nil
}

// Ping checks every configured server.
func (s *SessionStore) Ping(_ context.Context) error {
	return s.client.Ping()
}

func expiration(now, expiresAt time.Time) int32 {
	d := expiresAt.Sub(now)
	if d > maxRelativeExpiry {
		return int32(expiresAt.Unix())
	}
	secs := int32(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
