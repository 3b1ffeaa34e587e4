// Package session contains the server-side session record and the
// request-local handle used to read and mutate it.
// It is pure and free of framework/adapter concerns.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Well-known keys stored in a session.
const (
	KeyCSRF          = "_csrf"
	KeyFlash         = "_flash"
	KeyUserID        = "user_id"
	KeyAuthenticated = "is_authenticated"
)

// ErrNotFound is returned by stores when no live record exists for an id.
var ErrNotFound = errors.New("session not found")

// Record is the persisted form of a session, keyed by ID.
type Record struct {
	ID         string                     `json:"id"`
	Values     map[string]json.RawMessage `json:"values"`
	CreatedAt  time.Time                  `json:"created_at"`
	LastAccess time.Time                  `json:"last_access"`
	ExpiresAt  time.Time                  `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Session is the request-local view of a Record. It tracks whether the
// request created, mutated, renewed or destroyed it so the caller can
// decide whether a store write is needed. A Session is owned by a single
// request and is not safe for concurrent use.
type Session struct {
	rec        Record
	isNew      bool
	dirty      bool
	destroyed  bool
	previousID string
}

// New starts an empty session that has never been persisted.
func New(id string, now time.Time) *Session {
	return &Session{
		rec: Record{
			ID:         id,
			Values:     map[string]json.RawMessage{},
			CreatedAt:  now,
			LastAccess: now,
		},
		isNew: true,
	}
}

// FromRecord wraps a loaded record.
func FromRecord(rec Record) *Session {
	if rec.Values == nil {
		rec.Values = map[string]json.RawMessage{}
	}
	return &Session{rec: rec}
}

// ID returns the current session identifier.
func (s *Session) ID() string { return s.rec.ID }

// IsNew reports whether the session did not exist before this request.
func (s *Session) IsNew() bool { return s.isNew }

// Modified reports whether any value was written or removed during the request.
func (s *Session) Modified() bool { return s.dirty }

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool { return s.destroyed }

// PreviousID returns the identifier replaced by RenewID, if any.
func (s *Session) PreviousID() string { return s.previousID }

// CreatedAt returns when the session was first created.
func (s *Session) CreatedAt() time.Time { return s.rec.CreatedAt }

// Record returns a copy of the underlying record for persistence.
func (s *Session) Record() Record {
	rec := s.rec
	rec.Values = make(map[string]json.RawMessage, len(s.rec.Values))
	for k, v := range s.rec.Values {
		rec.Values[k] = v
	}
	return rec
}

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.rec.Values[key]
	return ok
}

// Put JSON-encodes v under key and marks the session modified.
func (s *Session) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session value %q: %w", key, err)
	}
	s.rec.Values[key] = raw
	s.dirty = true
	return nil
}

// Remove deletes key. Removing an absent key is not a mutation.
func (s *Session) Remove(key string) {
	if _, ok := s.rec.Values[key]; !ok {
		return
	}
	delete(s.rec.Values, key)
	s.dirty = true
}

// Destroy clears all values and marks the session for deletion.
func (s *Session) Destroy() {
	s.rec.Values = map[string]json.RawMessage{}
	s.destroyed = true
	s.dirty = true
}

// RenewID moves the session to a fresh identifier, keeping its values.
// The old identifier is remembered so the store copy can be removed.
func (s *Session) RenewID(newID string) {
	if s.previousID == "" && !s.isNew {
		s.previousID = s.rec.ID
	}
	s.rec.ID = newID
	s.dirty = true
}

// Get decodes the value stored under key into T.
// ok is false when the key is absent.
func Get[T any](s *Session, key string) (v T, ok bool, err error) {
	raw, found := s.rec.Values[key]
	if !found {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, true, fmt.Errorf("decode session value %q: %w", key, err)
	}
	return v, true, nil
}

// String returns the string stored under key, or "" when absent or not a string.
func (s *Session) String(key string) string {
	v, _, err := Get[string](s, key)
	if err != nil {
		return ""
	}
	return v
}
